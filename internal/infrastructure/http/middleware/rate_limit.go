package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/alchemorsel/cardapio/pkg/errors"
)

// RateLimitConfig configures the per-client limiter
type RateLimitConfig struct {
	RequestsPerMin  int
	BurstSize       int
	CleanupInterval time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Idle buckets are
// dropped after CleanupInterval.
type RateLimiter struct {
	config   RateLimitConfig
	logger   *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter creates a per-client rate limiter
func NewRateLimiter(config RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if config.BurstSize < 1 {
		config.BurstSize = 1
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	return &RateLimiter{
		config:   config,
		logger:   logger.Named("rate-limiter"),
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow consumes a token for key
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(float64(l.config.RequestsPerMin)/60), l.config.BurstSize)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// evict drops idle visitors. Callers hold mu.
func (l *RateLimiter) evict(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.config.CleanupInterval {
			delete(l.visitors, key)
		}
	}
}

// Handler rejects requests over the limit with 429 and a Retry-After header
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	retryAfter := l.retryAfter()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.admit(r) {
			w.Header().Set("Retry-After", retryAfter)
			http.Error(w, "Muitas solicitações. Aguarde um momento e tente novamente.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GinHandler applies the same buckets to the JSON API. Rejections carry
// an ErrorResponse body.
func (l *RateLimiter) GinHandler() gin.HandlerFunc {
	retryAfter := l.retryAfter()

	return func(c *gin.Context) {
		if !l.admit(c.Request) {
			c.Header("Retry-After", retryAfter)
			appErr := apperrors.NewTooManyRequestsError()
			c.AbortWithStatusJSON(appErr.StatusCode(), apperrors.ToErrorResponse(appErr, chimiddleware.GetReqID(c.Request.Context())))
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) admit(r *http.Request) bool {
	key := clientIP(r)
	if l.Allow(key) {
		return true
	}
	l.logger.Warn("Rate limit exceeded",
		zap.String("ip", key),
		zap.String("path", r.URL.Path),
		zap.String("user_agent", r.UserAgent()),
	)
	return false
}

func (l *RateLimiter) retryAfter() string {
	return strconv.Itoa(int((time.Minute / time.Duration(max(l.config.RequestsPerMin, 1))).Seconds()) + 1)
}

// clientIP strips the port chi's RealIP may leave on RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
