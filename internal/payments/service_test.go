package payments

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/tidebook/tidebook/internal/reservations"
	"github.com/tidebook/tidebook/internal/shared"
)

type memoryRepo struct {
	payments     map[int64]Payment
	byGatewayID  map[string]int64
	reservations map[int64]reservations.Status
	refunds      map[int64][]int64
	processedIDs map[string]struct{}
	nextID       int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		payments:     make(map[int64]Payment),
		byGatewayID:  make(map[string]int64),
		reservations: make(map[int64]reservations.Status),
		refunds:      make(map[int64][]int64),
		processedIDs: make(map[string]struct{}),
		nextID:       1,
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: r}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	// Postgres refuses COMMIT after any failed statement; a callback
	// that swallows a statement error must not appear to commit.
	if tx.aborted {
		return fmt.Errorf("platform/db: commit tx: %w", pgx.ErrTxCommitRollback)
	}
	return nil
}

func (r *memoryRepo) Create(ctx context.Context, p Payment) (int64, error) {
	p.ID = r.nextID
	r.nextID++
	r.payments[p.ID] = p
	r.byGatewayID[p.GatewayPaymentID] = p.ID
	return p.ID, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	copied := p
	return &copied, nil
}

func (r *memoryRepo) GetByGatewayID(ctx context.Context, gatewayID string) (*Payment, error) {
	id, ok := r.byGatewayID[gatewayID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return r.Get(ctx, id)
}

func (r *memoryRepo) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]Payment, error) {
	var out []Payment
	for _, p := range r.payments {
		if p.Status == StatusPending {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memoryTx struct {
	repo    *memoryRepo
	aborted bool
}

// fail marks the transaction aborted the way a failed Postgres
// statement would, then returns the error.
func (t *memoryTx) fail(err error) error {
	t.aborted = true
	return err
}

func (t *memoryTx) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	if _, ok := t.repo.processedIDs[eventID]; ok {
		return false, nil
	}
	t.repo.processedIDs[eventID] = struct{}{}
	return true, nil
}

func (t *memoryTx) LockByGatewayID(ctx context.Context, gatewayID string) (*Payment, error) {
	p, err := t.repo.GetByGatewayID(ctx, gatewayID)
	if err != nil {
		return nil, t.fail(err)
	}
	return p, nil
}

func (t *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status, paidAt, refundedAt *time.Time) error {
	p, ok := t.repo.payments[id]
	if !ok {
		return t.fail(ErrPaymentNotFound)
	}
	p.Status = status
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	if refundedAt != nil {
		p.RefundedAt = refundedAt
	}
	t.repo.payments[id] = p
	return nil
}

func (t *memoryTx) RecordRefund(ctx context.Context, id int64, amount int64, reason string, at time.Time) error {
	if _, ok := t.repo.payments[id]; !ok {
		return t.fail(ErrPaymentNotFound)
	}
	t.repo.refunds[id] = append(t.repo.refunds[id], amount)
	return nil
}

func (t *memoryTx) UpdateReservationStatus(ctx context.Context, reservationID int64, status reservations.Status) error {
	t.repo.reservations[reservationID] = status
	return nil
}

type stubGateway struct {
	intents map[string]GatewayIntent
}

func (g *stubGateway) CreateIntent(ctx context.Context, params CreateIntentParams) (*GatewayIntent, error) {
	intent := GatewayIntent{ID: "pi_new", Status: "requires_payment_method", Amount: params.Amount, Currency: params.Currency}
	if g.intents == nil {
		g.intents = make(map[string]GatewayIntent)
	}
	g.intents[intent.ID] = intent
	return &intent, nil
}

func (g *stubGateway) GetIntent(ctx context.Context, id string) (*GatewayIntent, error) {
	intent, ok := g.intents[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return &intent, nil
}

func (g *stubGateway) CancelIntent(ctx context.Context, id string) (*GatewayIntent, error) {
	intent := g.intents[id]
	intent.Status = "canceled"
	g.intents[id] = intent
	return &intent, nil
}

type recordingAuditor struct {
	actors []int64
}

func (a *recordingAuditor) Record(ctx context.Context, tenantID, actorID int64, action, entity string, entityID int64, detail map[string]any) {
	a.actors = append(a.actors, actorID)
}

type recordingNotifier struct {
	completed []int64
}

func (n *recordingNotifier) PaymentCompleted(ctx context.Context, paymentID, reservationID int64) error {
	n.completed = append(n.completed, paymentID)
	return nil
}

func newTestService(repo Repository, gw GatewayClient, notifier Notifier) *Service {
	return NewService(ServiceParams{
		Repo:     repo,
		Gateway:  gw,
		Notifier: notifier,
		Logger:   slog.Default(),
	})
}

func seedPayment(repo *memoryRepo, gatewayID string, status Status, amount int64) Payment {
	p := Payment{
		TenantID:         1,
		ReservationID:    100,
		Amount:           amount,
		Currency:         "USD",
		Status:           status,
		GatewayPaymentID: gatewayID,
	}
	id, _ := repo.Create(context.Background(), p)
	p.ID = id
	repo.reservations[p.ReservationID] = reservations.StatusPending
	return p
}

func TestReconcileSucceededConfirmsReservation(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := newTestService(repo, &stubGateway{}, notifier)
	p := seedPayment(repo, "pi_1", StatusPending, 500)

	updated, err := svc.Reconcile(context.Background(), "evt_1", GatewayIntent{ID: "pi_1", Status: "succeeded", Amount: 500, Currency: "USD"})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, updated.Status)
	require.NotNil(t, updated.PaidAt)
	require.Equal(t, reservations.StatusConfirmed, repo.reservations[p.ReservationID])
	require.Equal(t, []int64{p.ID}, notifier.completed)
}

func TestReconcileCanceledFailsPaymentAndCancelsReservation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGateway{}, nil)
	p := seedPayment(repo, "pi_2", StatusPending, 500)

	updated, err := svc.Reconcile(context.Background(), "evt_2", GatewayIntent{ID: "pi_2", Status: "canceled"})
	require.NoError(t, err)
	require.Equal(t, StatusFailed, updated.Status)
	require.Equal(t, reservations.StatusCancelled, repo.reservations[p.ReservationID])
}

func TestReconcileUnknownStatusFailsSafe(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGateway{}, nil)
	p := seedPayment(repo, "pi_3", StatusPending, 500)

	for _, status := range []string{"processing", "requires_action", "requires_confirmation", "requires_payment_method", "some_future_status"} {
		updated, err := svc.Reconcile(context.Background(), "", GatewayIntent{ID: "pi_3", Status: status})
		require.NoError(t, err, "status %s", status)
		require.Equal(t, StatusPending, updated.Status, "status %s", status)
		require.Equal(t, reservations.StatusPending, repo.reservations[p.ReservationID], "status %s", status)
	}
}

func TestReconcileUnknownPayment(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &stubGateway{}, nil)

	_, err := svc.Reconcile(context.Background(), "evt_9", GatewayIntent{ID: "pi_missing", Status: "succeeded"})
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestReconcileDuplicateEventIsNoOp(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := newTestService(repo, &stubGateway{}, notifier)
	p := seedPayment(repo, "pi_4", StatusPending, 500)

	intent := GatewayIntent{ID: "pi_4", Status: "succeeded", Amount: 500, Currency: "USD"}
	first, err := svc.Reconcile(context.Background(), "evt_dup", intent)
	require.NoError(t, err)

	second, err := svc.Reconcile(context.Background(), "evt_dup", intent)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, reservations.StatusConfirmed, repo.reservations[p.ReservationID])
	// Notification fires once, not twice.
	require.Len(t, notifier.completed, 1)
}

func TestReconcileRefundDuplicateEventIsNoOp(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGateway{}, nil)
	p := seedPayment(repo, "pi_dup_refund", StatusCompleted, 500)

	first, err := svc.ReconcileRefund(context.Background(), "evt_r_dup", "pi_dup_refund", 100, "partial")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, first.Status)

	second, err := svc.ReconcileRefund(context.Background(), "evt_r_dup", "pi_dup_refund", 100, "partial")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, second.Status)
	// The refund is recorded once, not twice.
	require.Equal(t, []int64{100}, repo.refunds[p.ID])
}

func TestReconcileRefundFull(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGateway{}, nil)
	p := seedPayment(repo, "pi_5", StatusCompleted, 500)

	// Amount omitted implies a full refund.
	updated, err := svc.ReconcileRefund(context.Background(), "evt_r1", "pi_5", 0, "requested_by_customer")
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, updated.Status)
	require.NotNil(t, updated.RefundedAt)
	require.Equal(t, reservations.StatusCancelled, repo.reservations[p.ReservationID])
}

func TestReconcileRefundExactAmountIsFull(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGateway{}, nil)
	seedPayment(repo, "pi_6", StatusCompleted, 500)

	updated, err := svc.ReconcileRefund(context.Background(), "evt_r2", "pi_6", 500, "")
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, updated.Status)
}

func TestReconcileRefundPartialKeepsCompleted(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGateway{}, nil)
	p := seedPayment(repo, "pi_7", StatusCompleted, 500)

	updated, err := svc.ReconcileRefund(context.Background(), "evt_r3", "pi_7", 100, "partial")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, updated.Status)
	require.Equal(t, []int64{100}, repo.refunds[p.ID])
	// Reservation untouched.
	require.Equal(t, reservations.StatusPending, repo.reservations[p.ReservationID])
}

func TestReconcileRefundRequiresCompleted(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGateway{}, nil)
	seedPayment(repo, "pi_8", StatusPending, 500)

	_, err := svc.ReconcileRefund(context.Background(), "evt_r4", "pi_8", 0, "")
	require.ErrorIs(t, err, ErrInvalidPaymentState)
}

func TestAuditRecordsActorFromContext(t *testing.T) {
	repo := newMemoryRepo()
	auditor := &recordingAuditor{}
	svc := NewService(ServiceParams{
		Repo:    repo,
		Gateway: &stubGateway{},
		Auditor: auditor,
		Logger:  slog.Default(),
	})
	seedPayment(repo, "pi_actor", StatusCompleted, 500)

	// Webhook deliveries carry no claim: the actor is the system.
	_, err := svc.ReconcileRefund(context.Background(), "evt_a1", "pi_actor", 100, "partial")
	require.NoError(t, err)

	// An authenticated caller on the context becomes the actor.
	claim := &shared.Claim{SubjectID: 42, TenantID: 1, Role: "MANAGER"}
	ctx := shared.ContextWithClaim(context.Background(), claim)
	_, err = svc.ReconcileRefund(ctx, "evt_a2", "pi_actor", 100, "partial")
	require.NoError(t, err)

	require.Equal(t, []int64{0, 42}, auditor.actors)
}

func TestCreateIntent(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &stubGateway{}, nil)
	claim := &shared.Claim{SubjectID: 10, TenantID: 1, Role: "USER"}

	p, err := svc.CreateIntent(context.Background(), claim, CreatePaymentRequest{
		ReservationID: 100, Amount: 2500, Currency: "USD",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)
	require.Equal(t, "pi_new", p.GatewayPaymentID)
	require.Equal(t, int64(1), p.TenantID)
}

func TestSyncPending(t *testing.T) {
	repo := newMemoryRepo()
	gw := &stubGateway{intents: map[string]GatewayIntent{
		"pi_stale": {ID: "pi_stale", Status: "succeeded", Amount: 500, Currency: "USD"},
	}}
	svc := newTestService(repo, gw, nil)
	p := seedPayment(repo, "pi_stale", StatusPending, 500)

	synced, err := svc.SyncPending(context.Background(), time.Minute, 10)
	require.NoError(t, err)
	require.Equal(t, 1, synced)

	refreshed, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, refreshed.Status)
}
