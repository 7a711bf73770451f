// Package server wires the HTMX frontend and the JSON API into one HTTP server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/alchemorsel/cardapio/internal/infrastructure/config"
	"github.com/alchemorsel/cardapio/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/cardapio/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/cardapio/internal/infrastructure/http/templates"
	"github.com/alchemorsel/cardapio/internal/infrastructure/http/webserver"
	"github.com/alchemorsel/cardapio/internal/infrastructure/monitoring"
	"github.com/alchemorsel/cardapio/internal/ports/inbound"
	"github.com/alchemorsel/cardapio/pkg/healthcheck"
)

const apiPrefix = "/api/v1"

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	planner inbound.PlannerService
	health  *healthcheck.HealthCheck
	metrics *monitoring.MetricsCollector
	// limiter guards plan generation on both surfaces; nil when disabled
	limiter *middleware.RateLimiter
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new HTTP server instance. metrics may be nil.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	planner inbound.PlannerService,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) (*Server, error) {
	s := &Server{
		config:  cfg,
		logger:  logger.Named("http"),
		planner: planner,
		health:  health,
		metrics: metrics,
	}

	if cfg.RateLimit.Enable {
		s.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		}, s.logger)
	}

	router, err := s.setupRouter()
	if err != nil {
		return nil, err
	}

	s.handler = router
	if cfg.Monitoring.EnableTracing {
		s.handler = otelhttp.NewHandler(router, cfg.App.Name)
	}

	s.server = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           s.handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

// setupRouter configures the chi router with middleware and routes
func (s *Server) setupRouter() (*chi.Mux, error) {
	tmpl, err := templates.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security(s.config.IsProduction()))

	cookies := webserver.NewSessionCookies(webserver.CookieConfig{
		Name:   s.config.Session.CookieName,
		TTL:    s.config.Session.TTL,
		Secure: s.config.Session.SecureCookie,
	}, s.logger)
	frontend := handlers.NewFrontendHandlers(tmpl, s.planner, cookies, handlers.AppInfo{
		Name:    s.config.App.Name,
		Version: s.config.App.Version,
	}, s.logger)

	r.Group(func(r chi.Router) {
		s.setupFrontendRoutes(r, frontend)
	})

	r.Method(http.MethodGet, "/health", s.health.HTTPHandler())
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// gin sees the unmodified path, so its routes live under the same prefix
	r.Handle(apiPrefix+"/*", s.corsHandler(s.setupAPI()))

	return r, nil
}

// setupFrontendRoutes configures the page and its HTMX endpoints
func (s *Server) setupFrontendRoutes(r chi.Router, h *handlers.FrontendHandlers) {
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Use(s.metrics.Middleware)
	}
	if s.config.Server.EnableCompression {
		r.Use(middleware.Compressor(5).Handler)
	}
	if s.config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
	}

	submit := http.HandlerFunc(h.HandleSubmit)
	if s.limiter != nil {
		r.Method(http.MethodPost, "/plan", s.limiter.Handler(submit))
	} else {
		r.Method(http.MethodPost, "/plan", submit)
	}

	r.Get("/", h.HandleHome)
	r.Get("/status", h.HandleStatus)
	r.Post("/reset", h.HandleReset)
	r.Get("/report", h.HandleReport)
}

// setupAPI builds the gin engine serving the JSON API
func (s *Server) setupAPI() *gin.Engine {
	if !s.config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.GinRecovery(s.logger))
	engine.Use(middleware.GinLogger(s.logger))
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		engine.Use(s.metrics.HTTPMiddleware())
	}

	api := handlers.NewAPIHandlers(s.planner, s.logger)
	engine.NoRoute(api.NotFound)

	var generate []gin.HandlerFunc
	if s.limiter != nil {
		generate = append(generate, s.limiter.GinHandler())
	}
	v1 := engine.Group(apiPrefix)
	api.Register(v1, generate...)

	health := v1.Group("/health")
	health.GET("", s.health.Handler())
	health.GET("/live", s.health.LivenessHandler())
	health.GET("/ready", s.health.ReadinessHandler())

	return engine
}

func (s *Server) corsHandler(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         86400,
	}).Handler(next)
}

// Handler exposes the full handler chain, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	// Enable HTTP/2
	if err := http2.ConfigureServer(s.server, nil); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
