package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaustubh7916/Examprepshare/internal/auth"
	"github.com/kaustubh7916/Examprepshare/internal/config"
	"github.com/kaustubh7916/Examprepshare/internal/event"
	handler "github.com/kaustubh7916/Examprepshare/internal/handler/http"
	"github.com/kaustubh7916/Examprepshare/internal/repository/postgres"
	"github.com/kaustubh7916/Examprepshare/internal/service"
	"github.com/kaustubh7916/Examprepshare/migrations"
	"github.com/kaustubh7916/Examprepshare/pkg/database"
	"github.com/kaustubh7916/Examprepshare/pkg/health"
	"github.com/kaustubh7916/Examprepshare/pkg/httpclient"
	"github.com/kaustubh7916/Examprepshare/pkg/httputil"
	pkgkafka "github.com/kaustubh7916/Examprepshare/pkg/kafka"
	"github.com/kaustubh7916/Examprepshare/pkg/middleware"
	"github.com/kaustubh7916/Examprepshare/pkg/tracing"
)

// serviceName identifies this service in logs, metrics, and traces.
const serviceName = "examshare"

// App wires together all dependencies and runs the API server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tracing first so every later component picks up the global provider.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// In development, surface the underlying error message on 500 responses.
	if cfg.Environment == "development" {
		httputil.SetExposeInternalErrors(true)
	}

	// PostgreSQL connection pool.
	pool, err := database.NewPostgresPoolWithLogger(ctx, cfg.PostgresConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	database.RegisterPoolMetrics(pool, serviceName)
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	eventProducer := event.NewProducer(producer, logger)

	userRepo := postgres.NewUserRepository(pool)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(pool)
	resourceRepo := postgres.NewResourceRepository(pool)
	ratingRepo := postgres.NewRatingRepository(pool)

	var prober service.URLProber
	if cfg.ProbeFileURLs {
		client := httpclient.New(httpclient.DefaultConfig())
		prober = httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("file-url-probe"), logger)
	}

	userService := service.NewUserService(userRepo, refreshTokenRepo, jwtManager, eventProducer, logger)
	resourceService := service.NewResourceService(resourceRepo, eventProducer, prober, logger)
	ratingService := service.NewRatingService(ratingRepo, resourceRepo, eventProducer, logger)

	// Health checks. Postgres gates readiness; Kafka degrades gracefully
	// because event publishing is best-effort.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(
		userService,
		resourceService,
		ratingService,
		jwtManager,
		healthHandler,
		logger,
		handler.RouterConfig{
			ServiceName: serviceName,
			CORS: middleware.CORSConfig{
				AllowedOrigins: cfg.CORSAllowedOrigins,
				Environment:    cfg.Environment,
			},
			RateLimitRPS:   cfg.AuthRateLimitRPS,
			RateLimitBurst: cfg.AuthRateLimitBurst,
			PprofCIDRs:     cfg.PprofAllowedCIDRs,
		},
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("environment", a.cfg.Environment),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
