// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"errors"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alchemorsel/cardapio/internal/application/ai"
	"github.com/alchemorsel/cardapio/internal/application/planner"
	"github.com/alchemorsel/cardapio/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/cardapio/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/cardapio/internal/infrastructure/config"
	"github.com/alchemorsel/cardapio/internal/infrastructure/http/server"
	"github.com/alchemorsel/cardapio/internal/infrastructure/monitoring"
	"github.com/alchemorsel/cardapio/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/cardapio/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/cardapio/internal/infrastructure/persistence/session"
	"github.com/alchemorsel/cardapio/internal/infrastructure/report"
	"github.com/alchemorsel/cardapio/internal/ports/inbound"
	"github.com/alchemorsel/cardapio/internal/ports/outbound"
	"github.com/alchemorsel/cardapio/pkg/healthcheck"
	"github.com/alchemorsel/cardapio/pkg/logger"
)

// ConfigPathEnv points at an explicit config file
const ConfigPathEnv = "CARDAPIO_CONFIG"

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	HealthModule,
	CacheModule,

	// Adapters
	AIModule,
	RepositoryModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load(os.Getenv(ConfigPathEnv))
	},
)

// LoggerModule provides logging. The atomic level lets a config reload
// change verbosity without rebuilding the logger.
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.IsDevelopment(),
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
)

// HealthModule provides the health check registry
var HealthModule = fx.Provide(
	NewHealthCheck,
)

// CacheModule provides the key/value store behind sessions
var CacheModule = fx.Provide(
	NewCache,
)

// AIModule provides the language model client and the two requesters
var AIModule = fx.Provide(
	NewTextGenerator,
	fx.Annotate(
		ai.NewMealPlanRequester,
		fx.As(new(planner.MealPlanGenerator)),
	),
	fx.Annotate(
		ai.NewFitnessRequester,
		fx.As(new(planner.FitnessGenerator)),
	),
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	func(cache outbound.CacheRepository, cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) outbound.SessionRepository {
		return session.NewRepository(cache, cfg.Session.Store, cfg.Session.TTL, metrics, log)
	},
	func(cfg *config.Config, log *zap.Logger) outbound.ReportRenderer {
		return report.NewPDFRenderer(cfg.App.Name, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(
		meals planner.MealPlanGenerator,
		fitness planner.FitnessGenerator,
		sessions outbound.SessionRepository,
		renderer outbound.ReportRenderer,
		metrics *monitoring.MetricsCollector,
		cfg *config.Config,
		log *zap.Logger,
	) *planner.Service {
		return planner.NewService(meals, fitness, sessions, renderer, metrics, cfg.LoadingTimeout(), log)
	},
	func(s *planner.Service) inbound.PlannerService {
		return s
	},
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterHealthChecks,
	WatchConfig,
	RegisterLifecycleHooks,
)

// NewTextGenerator picks the backend named by ai.provider
func NewTextGenerator(cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) outbound.TextGenerator {
	if cfg.AI.Provider == config.ProviderOllama {
		log.Info("Using Ollama for text generation",
			zap.String("url", cfg.AI.OllamaURL),
			zap.String("model", cfg.AI.OllamaModel),
		)
		return ollama.NewClient(ollama.Config{
			BaseURL: cfg.AI.OllamaURL,
			Model:   cfg.AI.OllamaModel,
			Timeout: cfg.AI.Timeout,
		}, metrics, log)
	}

	baseURL, model := cfg.AI.Endpoint()
	if cfg.AI.APIKey == "" {
		log.Warn("No API key configured; plan generation will fail until one is set",
			zap.String("provider", cfg.AI.Provider),
		)
	}
	log.Info("Using OpenAI-compatible text generation",
		zap.String("provider", cfg.AI.Provider),
		zap.String("model", model),
	)
	return openai.NewClient(openai.Config{
		Provider: cfg.AI.Provider,
		BaseURL:  baseURL,
		APIKey:   cfg.AI.APIKey,
		Model:    model,
		Timeout:  cfg.AI.Timeout,
		JSONMode: cfg.AI.JSONMode,
	}, metrics, log)
}

// NewHealthCheck creates the registry. Aggregate results are cached for
// monitoring.health_cache_ttl so probes do not hammer the backends.
func NewHealthCheck(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
	health := healthcheck.New(cfg.App.Version, log.Named("health"))
	health.SetCacheTTL(cfg.Monitoring.HealthCacheTTL)
	return health
}

// NewCache opens the configured session store and closes it on stop.
// Either backend is registered with the health registry; only redis can fail.
func NewCache(
	lc fx.Lifecycle,
	cfg *config.Config,
	health *healthcheck.HealthCheck,
	log *zap.Logger,
) (outbound.CacheRepository, error) {
	if cfg.Session.Store != config.StoreRedis {
		log.Info("Using in-memory session store")
		cache := memory.NewCacheRepository(cfg.Session.TTL / 4)
		health.Register("session_store", healthcheck.NewCustomChecker("session_store",
			func(context.Context) (healthcheck.Status, string, interface{}) {
				return healthcheck.StatusHealthy, "in-memory", map[string]int{"entries": cache.Len()}
			},
		))
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return cache.Close()
			},
		})
		return cache, nil
	}

	client, err := redis.NewClient(context.Background(), redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		Database: cfg.Redis.Database,
		PoolSize: cfg.Redis.PoolSize,
	}, log)
	if err != nil {
		return nil, err
	}

	health.Register("redis", healthcheck.NewRedisChecker(client))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closeRedis(client)
		},
	})
	return redis.NewCacheRepository(client, log), nil
}

func closeRedis(client goredis.UniversalClient) error {
	if err := client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}

// pinger is implemented by the language model clients
type pinger interface {
	HealthCheck(ctx context.Context) error
}

// RegisterHealthChecks adds the language model backend. An unreachable
// provider only degrades the service; the form and calculator still work.
func RegisterHealthChecks(health *healthcheck.HealthCheck, generator outbound.TextGenerator) {
	p, ok := generator.(pinger)
	if !ok {
		return
	}
	health.Register("ai_provider", healthcheck.NewPingChecker(p.HealthCheck, healthcheck.StatusDegraded, map[string]string{
		"provider": generator.Provider(),
	}))
}

// WatchConfig applies log level changes from the config file
func WatchConfig(cfg *config.Config, level zap.AtomicLevel, log *zap.Logger) {
	watching := cfg.Watch(
		func(next *config.Config) {
			level.SetLevel(logger.ParseLevel(next.App.LogLevel))
			log.Info("Configuration reloaded", zap.String("log_level", next.App.LogLevel))
		},
		func(err error) {
			log.Warn("Ignoring invalid configuration change", zap.Error(err))
		},
	)
	if !watching {
		log.Debug("No config file in use; hot reload disabled")
	}
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	srv *server.Server,
	plans *planner.Service,
	tracing *monitoring.TracingProvider,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Cardápio",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("ai_provider", cfg.AI.Provider),
				zap.String("session_store", cfg.Session.Store),
			)

			// Start HTTP server
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Cardápio")

			stopCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(stopCtx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			// Let running generations write their results
			if err := plans.Drain(stopCtx); err != nil {
				log.Warn("Abandoning in-flight plan generations", zap.Error(err))
			}

			if err := tracing.Shutdown(stopCtx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}

			// Flush logs
			_ = log.Sync()

			return nil
		},
	})
}
