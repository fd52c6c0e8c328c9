package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tidebook/tidebook/internal/app"
	"github.com/tidebook/tidebook/internal/audit"
	jobmetrics "github.com/tidebook/tidebook/internal/jobs"
	"github.com/tidebook/tidebook/internal/mailer"
	"github.com/tidebook/tidebook/internal/payments"
	"github.com/tidebook/tidebook/internal/payments/gateway"
	"github.com/tidebook/tidebook/internal/platform/db"
	"github.com/tidebook/tidebook/internal/reservations"
	"github.com/tidebook/tidebook/internal/shared"
	"github.com/tidebook/tidebook/internal/users"
	"github.com/tidebook/tidebook/internal/venues"
	"github.com/tidebook/tidebook/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	enqueuer := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	paymentsRepo := payments.NewRepository(pool)
	paymentsService := payments.NewService(payments.ServiceParams{
		Repo:     paymentsRepo,
		Gateway:  gateway.New(cfg.GatewayBaseURL, cfg.GatewayAPIKey),
		Notifier: enqueuer,
		Auditor:  audit.NewRecorder(pool, logger),
		Logger:   logger,
	})

	metrics := jobmetrics.NewMetrics(nil)

	mailJob := &jobs.ConfirmationMailJob{
		Payments:     paymentsRepo,
		Reservations: reservations.NewRepository(pool),
		Venues:       venues.NewRepository(pool),
		Users:        users.NewRepository(pool),
		Mailer: mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger),
		Logger:  logger,
		Metrics: metrics,
	}
	syncJob := &jobs.PaymentsSyncJob{Payments: paymentsService, Logger: logger, Metrics: metrics}
	cleanupJob := &jobs.IdempotencyCleanupJob{Store: shared.NewIdempotencyStore(pool), Logger: logger, Metrics: metrics}

	syncTask, err := jobs.NewPaymentsSyncTask(jobs.PaymentsSyncPayload{})
	if err != nil {
		logger.Error("build payments sync task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.IdempotencyCleanupPayload{})
	if err != nil {
		logger.Error("build idempotency cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskConfirmationMail, Handler: mailJob.Handle},
			{Type: jobs.TaskPaymentsSync, Handler: syncJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: syncTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
