// Package jobs defines the background task types, their payloads, and
// the Asynq worker that executes them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueMail carries guest-facing mail so maintenance sweeps cannot
	// starve it.
	QueueMail = "mail"

	// TaskConfirmationMail sends the guest confirmation after a payment
	// completes.
	TaskConfirmationMail = "mail:reservation_confirmed"
	// TaskPaymentsSync re-polls the gateway for payments stuck PENDING.
	TaskPaymentsSync = "payments:sync_pending"
	// TaskIdempotencyCleanup prunes processed webhook event keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ConfirmationMailPayload identifies the completed payment to announce.
type ConfirmationMailPayload struct {
	PaymentID     int64 `json:"payment_id"`
	ReservationID int64 `json:"reservation_id"`
}

// NewConfirmationMailTask constructs an Asynq task for the confirmation mail.
func NewConfirmationMailTask(payload ConfirmationMailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConfirmationMail, body, asynq.Queue(QueueMail)), nil
}

// PaymentsSyncPayload bounds one polling sweep.
type PaymentsSyncPayload struct {
	OlderThanMinutes int `json:"older_than_minutes"`
	Limit            int `json:"limit"`
}

// NewPaymentsSyncTask constructs an Asynq task for the pending-payment sweep.
func NewPaymentsSyncTask(payload PaymentsSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentsSync, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload bounds the retention window in days.
type IdempotencyCleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key pruning.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
