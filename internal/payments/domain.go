// Package payments owns payment records and the reconciliation of
// gateway-reported payment state into internal payment and reservation
// statuses.
package payments

import (
	"errors"
	"time"
)

// Status is the internal payment state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

var (
	// ErrPaymentNotFound indicates no payment matches the gateway id.
	ErrPaymentNotFound = errors.New("payments: payment not found")
	// ErrInvalidPaymentState indicates an operation against a payment
	// in the wrong status, e.g. refunding a payment that never completed.
	ErrInvalidPaymentState = errors.New("payments: invalid payment state")
)

// Payment is a payment record tied to a single reservation. Amounts
// are in the currency's minor unit. Records are never deleted; refund
// history accumulates in Metadata.
type Payment struct {
	ID               int64          `json:"id"`
	TenantID         int64          `json:"tenant_id"`
	ReservationID    int64          `json:"reservation_id"`
	Amount           int64          `json:"amount"`
	Currency         string         `json:"currency"`
	Status           Status         `json:"status"`
	GatewayPaymentID string         `json:"gateway_payment_id"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
	RefundedAt       *time.Time     `json:"refunded_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// GatewayIntent is the payment-lifecycle object reported by the
// external processor, reduced to the fields reconciliation consumes.
type GatewayIntent struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// GatewayRefund is a refund object reported by the processor.
type GatewayRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_intent"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}
