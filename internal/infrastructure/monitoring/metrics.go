package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Business metrics
	aiRequestsTotal        *prometheus.CounterVec
	aiRequestDuration      *prometheus.HistogramVec
	planGenerationsTotal   *prometheus.CounterVec
	planGenerationDuration prometheus.Histogram
	reportsRenderedTotal   *prometheus.CounterVec
	cacheOperations        *prometheus.CounterVec
}

// NewMetricsCollector creates a collector with its own registry so that
// several instances can coexist in tests.
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &MetricsCollector{
		registry: reg,
		logger:   logger,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),

		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_requests_total",
				Help: "Total number of AI requests",
			},
			[]string{"provider", "model", "status"},
		),
		aiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ai_request_duration_seconds",
				Help:    "AI request duration in seconds",
				Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
			[]string{"provider", "model"},
		),
		planGenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_generations_total",
				Help: "Total number of meal and fitness plan generations",
			},
			[]string{"status"},
		),
		planGenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "plan_generation_duration_seconds",
				Help:    "Wall time to produce both plans",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
		),
		reportsRenderedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reports_rendered_total",
				Help: "Total number of PDF reports rendered",
			},
			[]string{"status"},
		),
		cacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_store_operations_total",
				Help: "Total number of session store operations",
			},
			[]string{"operation", "backend", "status"},
		),
	}
}

// HTTPMiddleware creates a Gin middleware for HTTP metrics collection
func (m *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.observeHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// Middleware is the chi equivalent of HTTPMiddleware
func (m *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.observeHTTP(r.Method, route, ww.Status(), time.Since(start))
	})
}

func (m *MetricsCollector) observeHTTP(method, route string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// AIRequest records one call to a text-generation backend
func (m *MetricsCollector) AIRequest(provider, model, status string, duration time.Duration) {
	m.aiRequestsTotal.WithLabelValues(provider, model, status).Inc()
	m.aiRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// PlanGeneration records the outcome of a combined meal and fitness generation
func (m *MetricsCollector) PlanGeneration(status string, duration time.Duration) {
	m.planGenerationsTotal.WithLabelValues(status).Inc()
	m.planGenerationDuration.Observe(duration.Seconds())
}

// ReportRendered records a PDF render
func (m *MetricsCollector) ReportRendered(status string) {
	m.reportsRenderedTotal.WithLabelValues(status).Inc()
}

// CacheOperation records a session store access
func (m *MetricsCollector) CacheOperation(operation, backend, status string) {
	m.cacheOperations.WithLabelValues(operation, backend, status).Inc()
}

// Registry exposes the underlying registry, mainly for tests
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
