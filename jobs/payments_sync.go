package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tidebook/tidebook/internal/jobs"
)

const (
	defaultSyncOlderThan = 30 * time.Minute
	defaultSyncLimit     = 100
)

// PaymentSyncer re-polls the gateway for payments stuck PENDING.
type PaymentSyncer interface {
	SyncPending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// PaymentsSyncJob reconciles payments whose webhook never arrived.
type PaymentsSyncJob struct {
	Payments PaymentSyncer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// Handle executes one polling sweep.
func (j *PaymentsSyncJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Payments == nil {
		return errors.New("payments sync: dependencies not configured")
	}
	var payload PaymentsSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	olderThan := defaultSyncOlderThan
	if payload.OlderThanMinutes > 0 {
		olderThan = time.Duration(payload.OlderThanMinutes) * time.Minute
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = defaultSyncLimit
	}

	tracker := j.Metrics.Track(TaskPaymentsSync)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	synced, err := j.Payments.SyncPending(ctx, olderThan, limit)
	if err != nil {
		resultErr = err
		j.log().Error("payments sync", slog.Any("error", err))
		return resultErr
	}
	j.log().Info("payments sync swept pending payments", slog.Int("synced", synced))
	return resultErr
}

func (j *PaymentsSyncJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
