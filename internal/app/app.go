package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mmaazkhanhere/learnpath/internal/auth"
	"github.com/mmaazkhanhere/learnpath/internal/config"
	"github.com/mmaazkhanhere/learnpath/internal/event"
	handler "github.com/mmaazkhanhere/learnpath/internal/handler/http"
	"github.com/mmaazkhanhere/learnpath/internal/notify"
	"github.com/mmaazkhanhere/learnpath/internal/repository"
	"github.com/mmaazkhanhere/learnpath/internal/repository/postgres"
	redisrepo "github.com/mmaazkhanhere/learnpath/internal/repository/redis"
	"github.com/mmaazkhanhere/learnpath/internal/service"
	"github.com/mmaazkhanhere/learnpath/migrations"
	"github.com/mmaazkhanhere/learnpath/pkg/database"
	"github.com/mmaazkhanhere/learnpath/pkg/health"
	pkgkafka "github.com/mmaazkhanhere/learnpath/pkg/kafka"
	"github.com/mmaazkhanhere/learnpath/pkg/middleware"
	"github.com/mmaazkhanhere/learnpath/pkg/tracing"
)

// Version is reported by /status and attached to traces. It is overridden at
// build time with -ldflags "-X".
var Version = "0.1.0"

// processedEventTTL bounds how long the notifier remembers handled events.
const processedEventTTL = 24 * time.Hour

// App wires together all dependencies and runs the learnpath API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	notifier       *notify.Worker
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(Version))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		a.abort()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL", slog.String("dsn", pgCfg.Redacted()))

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.abort()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// The cache and the processed-event store live in Redis when it is
	// enabled. Without it skills are read straight from Postgres.
	var (
		skillCache repository.SkillCache
		processed  pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(processedEventTTL)
	)
	if cfg.RedisEnabled {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			a.abort()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = rdb
		skillCache = redisrepo.NewSkillCache(rdb, cfg.SkillCacheTTL)
		processed = redisrepo.NewIdempotencyStore(rdb, processedEventTTL)
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	}

	publisher := event.Discard
	if cfg.EventsEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:     cfg.SecretKey,
		Algorithm:  cfg.Algorithm,
		DefaultTTL: cfg.TokenTTL(),
		Issuer:     config.ServiceName,
	}, logger)

	userRepo := postgres.NewUserRepository(pool)
	skillRepo := postgres.NewSkillRepository(pool)
	resourceRepo := postgres.NewResourceRepository(pool)
	events := event.NewProducer(publisher, logger)

	directory := service.NewDirectory(userRepo, hasher, logger)
	guard := auth.NewGuard(tokens, directory, logger)
	authService := service.NewAuthService(directory, tokens, events, cfg.AllowAdminRegistration, logger)
	userService := service.NewUserService(userRepo, events, logger)
	skillService := service.NewSkillService(skillRepo, skillCache, logger)
	resourceService := service.NewResourceService(resourceRepo, logger)

	if cfg.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			a.abort()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.redis != nil {
		rdb := a.redis
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	if cfg.NotifierEnabled {
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		a.notifier = notify.NewWorker(notify.WorkerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaConsumerGroup,
			Store:   processed,
			DLQ:     a.dlq,
		}, notify.NewNotifier(notify.NewSender(cfg.NotifyWebhookURL, logger), logger), logger)
	}

	router := handler.NewRouter(handler.RouterDeps{
		ServiceName: config.ServiceName,
		Version:     Version,
		Auth:        authService,
		Users:       userService,
		Skills:      skillService,
		Resources:   resourceService,
		Guard:       guard,
		Health:      healthHandler,
		Logger:      logger,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		PprofCIDRs:    cfg.PprofAllowedCIDRs,
		StaticDir:     cfg.StaticDir,
		AuthRateLimit: cfg.AuthRateLimit(),
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and the notifier, then blocks until the context
// is canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.notifier != nil {
		go func() {
			a.logger.Info("starting notifier", slog.Any("topics", notify.Topics()))
			if err := a.notifier.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("notifier: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("component failed", slog.String("error", err.Error()))
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans from drained requests)
// 3. Notifier consumers, dead-letter writer and Kafka producer
// 4. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.logger.Error("notifier close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.closeStores(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// abort releases what NewApp acquired before it failed.
func (a *App) abort() {
	_ = a.closeStores()
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}

func (a *App) closeStores() error {
	var err error
	if a.redis != nil {
		if err = a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return err
}
