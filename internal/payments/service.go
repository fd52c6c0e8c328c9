package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tidebook/tidebook/internal/reservations"
	"github.com/tidebook/tidebook/internal/shared"
)

// GatewayClient is the outbound interface to the payment processor.
type GatewayClient interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*GatewayIntent, error)
	GetIntent(ctx context.Context, id string) (*GatewayIntent, error)
	CancelIntent(ctx context.Context, id string) (*GatewayIntent, error)
}

// CreateIntentParams are the inputs for a new gateway payment intent.
type CreateIntentParams struct {
	Amount         int64
	Currency       string
	ReservationRef string
	IdempotencyKey string
}

// Notifier is notified after a payment completes, outside the
// reconciliation transaction. Failures are logged, never propagated.
type Notifier interface {
	PaymentCompleted(ctx context.Context, paymentID, reservationID int64) error
}

// Auditor records reconciliation outcomes.
type Auditor interface {
	Record(ctx context.Context, tenantID, actorID int64, action, entity string, entityID int64, detail map[string]any)
}

// MetricsSink counts reconciliation outcomes.
type MetricsSink interface {
	ObserveReconciliation(outcome string)
}

// ServiceParams groups the dependencies of the payments service.
// Notifier, Auditor and Metrics are optional.
type ServiceParams struct {
	Repo     Repository
	Gateway  GatewayClient
	Notifier Notifier
	Auditor  Auditor
	Metrics  MetricsSink
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service creates payments and reconciles gateway-reported state.
type Service struct {
	repo     Repository
	gateway  GatewayClient
	notifier Notifier
	auditor  Auditor
	metrics  MetricsSink
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the payments service.
func NewService(params ServiceParams) *Service {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     params.Repo,
		gateway:  params.Gateway,
		notifier: params.Notifier,
		auditor:  params.Auditor,
		metrics:  params.Metrics,
		logger:   params.Logger,
		now:      now,
	}
}

// CreateIntent initiates a gateway payment intent for a reservation and
// persists the PENDING payment record.
func (s *Service) CreateIntent(ctx context.Context, claim *shared.Claim, req CreatePaymentRequest) (*Payment, error) {
	intent, err := s.gateway.CreateIntent(ctx, CreateIntentParams{
		Amount:         req.Amount,
		Currency:       req.Currency,
		ReservationRef: fmt.Sprintf("reservation:%d", req.ReservationID),
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("payments: create gateway intent: %w", err)
	}

	p := Payment{
		TenantID:         claim.TenantID,
		ReservationID:    req.ReservationID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Status:           StatusPending,
		GatewayPaymentID: intent.ID,
		Metadata:         map[string]any{"initiated_by": claim.SubjectID},
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.CreatedAt = s.now().UTC()
	p.UpdatedAt = p.CreatedAt
	return &p, nil
}

// Get fetches a payment scoped to the caller's tenant.
func (s *Service) Get(ctx context.Context, claim *shared.Claim, id int64) (*Payment, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.TenantID != claim.TenantID {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

// mapIntentStatus translates a gateway intent status into the next
// payment status and, when the reservation moves too, its new status.
// Unknown statuses fail safe to PENDING with the reservation untouched.
func mapIntentStatus(intentStatus string) (Status, reservations.Status, bool) {
	switch intentStatus {
	case "succeeded":
		return StatusCompleted, reservations.StatusConfirmed, true
	case "canceled":
		return StatusFailed, reservations.StatusCancelled, true
	default:
		// processing, requires_action, requires_confirmation,
		// requires_payment_method, and anything the gateway adds later.
		return StatusPending, "", false
	}
}

// Reconcile applies a gateway-reported intent state to the payment and,
// when warranted, its reservation. The payment write, the reservation
// write and the event-id bookkeeping share one transaction; a repeated
// event id is a no-op returning the current record.
func (s *Service) Reconcile(ctx context.Context, eventID string, intent GatewayIntent) (*Payment, error) {
	var (
		updated   *Payment
		duplicate bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if eventID != "" {
			fresh, err := tx.MarkEventProcessed(ctx, eventID)
			if err != nil {
				return err
			}
			if !fresh {
				duplicate = true
				return nil
			}
		}

		p, err := tx.LockByGatewayID(ctx, intent.ID)
		if err != nil {
			return err
		}

		next, resStatus, resChanged := mapIntentStatus(intent.Status)
		var paidAt *time.Time
		if next == StatusCompleted && p.PaidAt == nil {
			t := s.now().UTC()
			paidAt = &t
		}
		if err := tx.UpdateStatus(ctx, p.ID, next, paidAt, nil); err != nil {
			return err
		}
		if resChanged {
			if err := tx.UpdateReservationStatus(ctx, p.ReservationID, resStatus); err != nil {
				return err
			}
		}

		p.Status = next
		if paidAt != nil {
			p.PaidAt = paidAt
		}
		updated = p
		return nil
	})
	if err != nil {
		s.observe("error")
		return nil, err
	}
	if duplicate {
		s.observe("duplicate")
		return s.repo.GetByGatewayID(ctx, intent.ID)
	}

	s.observe(string(updated.Status))
	s.audit(ctx, updated, "payments.reconcile", map[string]any{
		"gateway_status": intent.Status,
		"event_id":       eventID,
	})
	if updated.Status == StatusCompleted && s.notifier != nil {
		if err := s.notifier.PaymentCompleted(ctx, updated.ID, updated.ReservationID); err != nil {
			s.logger.Warn("payment completion notification failed",
				slog.Int64("payment_id", updated.ID), slog.Any("error", err))
		}
	}
	return updated, nil
}

// ReconcileRefund applies a gateway refund to a COMPLETED payment. A
// full refund (amount omitted or covering the original) marks the
// payment REFUNDED and cancels the reservation; a partial refund keeps
// the payment COMPLETED and annotates the metadata.
func (s *Service) ReconcileRefund(ctx context.Context, eventID, gatewayPaymentID string, refundAmount int64, reason string) (*Payment, error) {
	var (
		updated   *Payment
		duplicate bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if eventID != "" {
			fresh, err := tx.MarkEventProcessed(ctx, eventID)
			if err != nil {
				return err
			}
			if !fresh {
				duplicate = true
				return nil
			}
		}

		p, err := tx.LockByGatewayID(ctx, gatewayPaymentID)
		if err != nil {
			return err
		}
		if p.Status != StatusCompleted {
			return fmt.Errorf("%w: refund requires COMPLETED, payment is %s", ErrInvalidPaymentState, p.Status)
		}

		now := s.now().UTC()
		full := refundAmount <= 0 || refundAmount >= p.Amount
		if full {
			if err := tx.UpdateStatus(ctx, p.ID, StatusRefunded, nil, &now); err != nil {
				return err
			}
			if err := tx.UpdateReservationStatus(ctx, p.ReservationID, reservations.StatusCancelled); err != nil {
				return err
			}
			p.Status = StatusRefunded
			p.RefundedAt = &now
		} else {
			if err := tx.RecordRefund(ctx, p.ID, refundAmount, reason, now); err != nil {
				return err
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		s.observe("error")
		return nil, err
	}
	if duplicate {
		s.observe("duplicate")
		return s.repo.GetByGatewayID(ctx, gatewayPaymentID)
	}

	s.observe("refund")
	s.audit(ctx, updated, "payments.refund", map[string]any{
		"amount":   refundAmount,
		"reason":   reason,
		"event_id": eventID,
	})
	return updated, nil
}

// SyncPending re-polls the gateway for payments stuck in PENDING and
// runs them through reconciliation, healing missed webhook deliveries.
func (s *Service) SyncPending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	stale, err := s.repo.ListStalePending(ctx, olderThan, limit)
	if err != nil {
		return 0, err
	}
	synced := 0
	for _, p := range stale {
		intent, err := s.gateway.GetIntent(ctx, p.GatewayPaymentID)
		if err != nil {
			s.logger.Warn("gateway poll failed",
				slog.String("gateway_payment_id", p.GatewayPaymentID), slog.Any("error", err))
			continue
		}
		if _, err := s.Reconcile(ctx, "", *intent); err != nil {
			s.logger.Warn("stale payment reconcile failed",
				slog.Int64("payment_id", p.ID), slog.Any("error", err))
			continue
		}
		synced++
	}
	return synced, nil
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveReconciliation(outcome)
	}
}

// audit records the reconciliation outcome. Webhook and poll-driven
// reconciliations carry no claim and record actor 0 (the system); an
// authenticated caller on the context becomes the actor.
func (s *Service) audit(ctx context.Context, p *Payment, action string, detail map[string]any) {
	if s.auditor == nil || p == nil {
		return
	}
	var actorID int64
	if claim := shared.ClaimFromContext(ctx); claim != nil {
		actorID = claim.SubjectID
	}
	detail["status"] = string(p.Status)
	s.auditor.Record(ctx, p.TenantID, actorID, action, "payment", p.ID, detail)
}
