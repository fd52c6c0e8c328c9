package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tidebook/tidebook/internal/platform/db"
	"github.com/tidebook/tidebook/internal/reservations"
	"github.com/tidebook/tidebook/internal/shared"
)

// Repository defines persistence operations for payments.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Create(ctx context.Context, p Payment) (int64, error)
	Get(ctx context.Context, id int64) (*Payment, error)
	GetByGatewayID(ctx context.Context, gatewayID string) (*Payment, error)
	ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]Payment, error)
}

// TxRepository is the transactional view used by reconciliation. The
// payment-status write, the reservation-status write, and the
// idempotency insert all commit or roll back together.
type TxRepository interface {
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
	LockByGatewayID(ctx context.Context, gatewayID string) (*Payment, error)
	UpdateStatus(ctx context.Context, id int64, status Status, paidAt, refundedAt *time.Time) error
	RecordRefund(ctx context.Context, id int64, amount int64, reason string, at time.Time) error
	UpdateReservationStatus(ctx context.Context, reservationID int64, status reservations.Status) error
}

type repository struct {
	pool *pgxpool.Pool
	idem *shared.IdempotencyStore
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, idem: shared.NewIdempotencyStore(pool)}
}

const paymentColumns = `id, tenant_id, reservation_id, amount, currency, status,
	gateway_payment_id, metadata, paid_at, refunded_at, created_at, updated_at`

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, idem: r.idem})
	})
}

func (r *repository) Create(ctx context.Context, p Payment) (int64, error) {
	metadata, err := marshalMetadata(p.Metadata)
	if err != nil {
		return 0, err
	}
	const query = `
		INSERT INTO payments
			(tenant_id, reservation_id, amount, currency, status, gateway_payment_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id`
	var id int64
	err = r.pool.QueryRow(ctx, query,
		p.TenantID, p.ReservationID, p.Amount, p.Currency, p.Status, p.GatewayPaymentID, metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("payments: create: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	return scanPayment(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) GetByGatewayID(ctx context.Context, gatewayID string) (*Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE gateway_payment_id = $1`, paymentColumns)
	return scanPayment(r.pool.QueryRow(ctx, query, gatewayID))
}

func (r *repository) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]Payment, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE status = $1 AND created_at < $2 ORDER BY created_at LIMIT $3`, paymentColumns)
	rows, err := r.pool.Query(ctx, query, StatusPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type txRepository struct {
	tx   pgx.Tx
	idem *shared.IdempotencyStore
}

// MarkEventProcessed claims the gateway event id inside the current
// transaction. It reports false when another delivery already claimed
// the id; the conflict is detected without a failed statement, so the
// transaction stays committable.
func (t *txRepository) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return t.idem.CheckAndInsert(ctx, t.tx, eventID, "payments")
}

// LockByGatewayID fetches the payment row with FOR UPDATE so concurrent
// webhook deliveries for the same payment serialize on the row lock.
func (t *txRepository) LockByGatewayID(ctx context.Context, gatewayID string) (*Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE gateway_payment_id = $1 FOR UPDATE`, paymentColumns)
	return scanPayment(t.tx.QueryRow(ctx, query, gatewayID))
}

func (t *txRepository) UpdateStatus(ctx context.Context, id int64, status Status, paidAt, refundedAt *time.Time) error {
	const query = `
		UPDATE payments
		SET status = $1,
		    paid_at = COALESCE($2, paid_at),
		    refunded_at = COALESCE($3, refunded_at),
		    updated_at = NOW()
		WHERE id = $4`
	tag, err := t.tx.Exec(ctx, query, status, toTimestamptz(paidAt), toTimestamptz(refundedAt), id)
	if err != nil {
		return fmt.Errorf("payments: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (t *txRepository) RecordRefund(ctx context.Context, id int64, amount int64, reason string, at time.Time) error {
	annotation, err := json.Marshal(map[string]any{
		"refunds": []map[string]any{{
			"amount":      amount,
			"reason":      reason,
			"refunded_at": at.Format(time.RFC3339),
		}},
	})
	if err != nil {
		return err
	}
	// Appends to the metadata refund list, creating it when absent.
	const query = `
		UPDATE payments
		SET metadata = jsonb_set(
			COALESCE(metadata, '{}'::jsonb),
			'{refunds}',
			COALESCE(metadata->'refunds', '[]'::jsonb) || ($1::jsonb)->'refunds'
		),
		    updated_at = NOW()
		WHERE id = $2`
	tag, err := t.tx.Exec(ctx, query, annotation, id)
	if err != nil {
		return fmt.Errorf("payments: record refund: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (t *txRepository) UpdateReservationStatus(ctx context.Context, reservationID int64, status reservations.Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, reservationID)
	if err != nil {
		return fmt.Errorf("payments: update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payments: reservation %d not found", reservationID)
	}
	return nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var metadata []byte
	var paidAt, refundedAt pgtype.Timestamptz
	err := row.Scan(
		&p.ID, &p.TenantID, &p.ReservationID, &p.Amount, &p.Currency, &p.Status,
		&p.GatewayPaymentID, &metadata, &paidAt, &refundedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("payments: decode metadata: %w", err)
		}
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	if refundedAt.Valid {
		p.RefundedAt = &refundedAt.Time
	}
	return &p, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func toTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
