package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/alchemorsel/cardapio/pkg/errors"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, body)
	})
}

func TestSecurity_SetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(true)(okHandler("ok")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	h := rec.Header()
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "no-store", h.Get("Cache-Control"))
	assert.Contains(t, h.Get("Content-Security-Policy"), "https://unpkg.com")
	assert.Empty(t, h.Get("Strict-Transport-Security"), "plain HTTP never gets HSTS")
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	Logger(logger)(okHandler("ok")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	Logger(logger)(failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/plan", nil))
	Logger(logger)(okHandler("ok")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2, "metrics scrapes are not logged")
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/plan", entries[1].ContextMap()["path"])
}

func TestCompressor_PrefersBrotli(t *testing.T) {
	body := strings.Repeat("<p>Cardápio semanal</p>", 200)
	handler := Compressor(5).Handler(okHandler(body))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))
	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(rec.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, body, string(decoded))
}

func TestRateLimiter_PerClient(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMin: 60, BurstSize: 2}, zaptest.NewLogger(t))
	now := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, l.Allow("10.0.0.2"), "other clients keep their own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refills per second at 60/min")
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMin: 1, BurstSize: 1, CleanupInterval: time.Minute}, zaptest.NewLogger(t))
	now := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("a"))
	now = now.Add(2 * time.Minute)
	require.True(t, l.Allow("b"))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "a")
	assert.Contains(t, l.visitors, "b")
}

func TestRateLimiter_Handler(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMin: 10, BurstSize: 1}, zaptest.NewLogger(t))
	handler := l.Handler(okHandler("ok"))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/plan", nil)
		req.RemoteAddr = "192.0.2.10:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "7", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_GinHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewRateLimiter(RateLimitConfig{RequestsPerMin: 10, BurstSize: 1}, zaptest.NewLogger(t))
	router := gin.New()
	router.POST("/api/v1/plans", l.GinHandler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", nil)
		req.RemoteAddr = ip + ":51234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.10").Code)

	rec := send("192.0.2.10")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "7", rec.Header().Get("Retry-After"))
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeTooManyRequests, body.Error.Code)

	assert.Equal(t, http.StatusOK, send("192.0.2.11").Code)
}

func TestGinLogger_RecordsErrorCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(GinLogger(zap.New(core)))
	router.POST("/api/v1/plans", func(c *gin.Context) {
		err := apperrors.NewGenerationInProgressError("abc")
		_ = c.Error(err)
		c.AbortWithStatus(err.StatusCode())
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/plans", nil))

	entries := logs.FilterMessage("Client error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(apperrors.CodeGenerationInProgress), entries[0].ContextMap()["error_code"])
}

func TestGinRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinRecovery(zaptest.NewLogger(t)), GinLogger(zaptest.NewLogger(t)))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
