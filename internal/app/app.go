package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sefavnl/giris-ve-kayit/internal/auth"
	"github.com/sefavnl/giris-ve-kayit/internal/config"
	"github.com/sefavnl/giris-ve-kayit/internal/event"
	handlerhttp "github.com/sefavnl/giris-ve-kayit/internal/handler/http"
	"github.com/sefavnl/giris-ve-kayit/internal/repository/postgres"
	"github.com/sefavnl/giris-ve-kayit/internal/service"
	"github.com/sefavnl/giris-ve-kayit/migrations"
	"github.com/sefavnl/giris-ve-kayit/pkg/database"
	"github.com/sefavnl/giris-ve-kayit/pkg/health"
	"github.com/sefavnl/giris-ve-kayit/pkg/kafka"
	"github.com/sefavnl/giris-ve-kayit/pkg/middleware"
	"github.com/sefavnl/giris-ve-kayit/pkg/tracing"
)

const serviceName = "giris-ve-kayit"

// App owns the service's long-lived resources and their shutdown order.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *kafka.Producer
	server         *http.Server
	tracerShutdown func(context.Context) error
}

// New wires the full application: tracing, database, migrations, Kafka,
// services, and the HTTP server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTELEndpoint,
		SampleRate:   1.0,
		Enabled:      cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	database.RegisterPoolMetrics(pool, serviceName)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	users := postgres.NewUserRepository(pool)
	resetTokens := postgres.NewResetTokenRepository(pool)
	resetStore := postgres.NewPasswordResetStore(pool)
	publisher := event.NewProducer(producer, logger)

	authService := service.NewAuthService(users, resetTokens, resetStore, tokens, publisher, logger, cfg.ResetTokenTTL)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", producer.Ping)

	router := handlerhttp.NewRouter(handlerhttp.RouterConfig{
		AuthService: authService,
		Health:      healthHandler,
		Logger:      logger,
		ServiceName: serviceName,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		server:         server,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until it stops serving.
func (a *App) Run() error {
	a.logger.Info("http server starting", slog.String("addr", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains the HTTP server, then releases resources in reverse
// dependency order.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	var firstErr error

	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("shutdown http server: %w", err)
	}

	if err := a.tracerShutdown(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("shutdown tracer: %w", err)
	}

	if err := a.producer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close kafka producer: %w", err)
	}

	a.pool.Close()

	a.logger.Info("shutdown complete")

	return firstErr
}
