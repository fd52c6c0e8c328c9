package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tidebook/tidebook/internal/app"
	"github.com/tidebook/tidebook/internal/audit"
	"github.com/tidebook/tidebook/internal/auth"
	"github.com/tidebook/tidebook/internal/authz"
	"github.com/tidebook/tidebook/internal/catalog"
	"github.com/tidebook/tidebook/internal/observability"
	"github.com/tidebook/tidebook/internal/payments"
	"github.com/tidebook/tidebook/internal/payments/gateway"
	"github.com/tidebook/tidebook/internal/platform/cache"
	"github.com/tidebook/tidebook/internal/platform/db"
	"github.com/tidebook/tidebook/internal/reservations"
	"github.com/tidebook/tidebook/internal/tenants"
	"github.com/tidebook/tidebook/internal/users"
	"github.com/tidebook/tidebook/internal/venues"
	"github.com/tidebook/tidebook/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTTTL, time.Now)
	authn := auth.Middleware{Codec: codec, Logger: logger}
	az := authz.Middleware{Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, codec)
	authHandler := auth.NewHandler(logger, authService, authn)

	auditor := audit.NewRecorder(pool, logger)
	auditHandler := audit.NewHandler(logger, auditor, az)

	metrics := observability.NewMetrics()

	venuesRepo := venues.NewRepository(pool)
	venuesService := venues.NewService(venuesRepo)
	venuesHandler := venues.NewHandler(logger, venuesService, az)

	catalogRepo := catalog.NewRepository(pool)
	catalogManager := catalog.NewManager(catalogRepo, redisClient, logger)
	catalogHandler := catalog.NewHandler(logger, catalogManager, az)

	reservationsRepo := reservations.NewRepository(pool)
	reservationsService := reservations.NewService(reservationsRepo)
	reservationsHandler := reservations.NewHandler(logger, reservationsService, az)

	enqueuer := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	paymentsRepo := payments.NewRepository(pool)
	gatewayClient := gateway.New(cfg.GatewayBaseURL, cfg.GatewayAPIKey)
	paymentsService := payments.NewService(payments.ServiceParams{
		Repo:     paymentsRepo,
		Gateway:  gatewayClient,
		Notifier: enqueuer,
		Auditor:  auditor,
		Metrics:  metrics,
		Logger:   logger,
	})
	paymentsHandler := payments.NewHandler(logger, paymentsService, az, cfg.WebhookSecret)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, az)

	tenantsRepo := tenants.NewRepository(pool)
	tenantsService := tenants.NewService(tenantsRepo)
	tenantsHandler := tenants.NewHandler(logger, tenantsService, az)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger, az)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Authn:              authn,
		AuthHandler:        authHandler,
		VenuesHandler:      venuesHandler,
		CatalogHandler:     catalogHandler,
		ReservationHandler: reservationsHandler,
		PaymentsHandler:    paymentsHandler,
		UsersHandler:       usersHandler,
		TenantsHandler:     tenantsHandler,
		AuditHandler:       auditHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
