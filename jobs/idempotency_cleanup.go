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

const defaultRetentionDays = 30

// KeyPruner removes processed event keys older than the retention window.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob prunes webhook event keys that are past any
// plausible gateway retry horizon.
type IdempotencyCleanupJob struct {
	Store   KeyPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle executes one pruning pass.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: dependencies not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	days := payload.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}

	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	pruned, err := j.Store.Cleanup(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		resultErr = err
		j.log().Error("idempotency cleanup", slog.Any("error", err))
		return resultErr
	}
	j.log().Info("idempotency cleanup pruned keys", slog.Int64("pruned", pruned))
	return resultErr
}

func (j *IdempotencyCleanupJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
