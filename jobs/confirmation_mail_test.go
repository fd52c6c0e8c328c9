package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/tidebook/tidebook/internal/authz"
	"github.com/tidebook/tidebook/internal/mailer"
	"github.com/tidebook/tidebook/internal/payments"
	"github.com/tidebook/tidebook/internal/reservations"
	"github.com/tidebook/tidebook/internal/users"
	"github.com/tidebook/tidebook/internal/venues"
)

type stubPayments struct{ payment *payments.Payment }

func (s stubPayments) Get(context.Context, int64) (*payments.Payment, error) {
	if s.payment == nil {
		return nil, payments.ErrPaymentNotFound
	}
	return s.payment, nil
}

type stubReservations struct{ reservation *reservations.Reservation }

func (s stubReservations) Get(context.Context, int64) (*reservations.Reservation, error) {
	if s.reservation == nil {
		return nil, reservations.ErrNotFound
	}
	return s.reservation, nil
}

type stubVenues struct{ venue *venues.Venue }

func (s stubVenues) Get(context.Context, int64) (*venues.Venue, error) {
	if s.venue == nil {
		return nil, venues.ErrNotFound
	}
	return s.venue, nil
}

type stubUsers struct{ user *users.User }

func (s stubUsers) Get(context.Context, int64) (*users.User, error) {
	if s.user == nil {
		return nil, users.ErrNotFound
	}
	return s.user, nil
}

type recordingSender struct {
	sent []mailer.ReservationConfirmation
	err  error
}

func (r *recordingSender) SendReservationConfirmed(_ context.Context, rc mailer.ReservationConfirmation) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, rc)
	return nil
}

func confirmationJob(sender *recordingSender) *ConfirmationMailJob {
	startsAt := time.Date(2025, 7, 4, 14, 30, 0, 0, time.UTC)
	return &ConfirmationMailJob{
		Payments: stubPayments{payment: &payments.Payment{
			ID: 5, ReservationID: 9, Amount: 125000, Currency: "USD",
		}},
		Reservations: stubReservations{reservation: &reservations.Reservation{
			ID: 9, Reference: "RSV-AB12CD34", VenueID: 3, UserID: 12, StartsAt: startsAt,
		}},
		Venues: stubVenues{venue: &venues.Venue{ID: 3, Name: "Harbor Spa"}},
		Users:  stubUsers{user: &users.User{ID: 12, Email: "guest@example.test", Role: authz.RoleUser}},
		Mailer: sender,
	}
}

func mustTask(t *testing.T, payload ConfirmationMailPayload) *asynq.Task {
	t.Helper()
	task, err := NewConfirmationMailTask(payload)
	require.NoError(t, err)
	return task
}

func TestConfirmationMailJob(t *testing.T) {
	sender := &recordingSender{}
	job := confirmationJob(sender)

	err := job.Handle(context.Background(), mustTask(t, ConfirmationMailPayload{PaymentID: 5, ReservationID: 9}))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Equal(t, "guest@example.test", sender.sent[0].To)
	require.Equal(t, "RSV-AB12CD34", sender.sent[0].Reference)
	require.Equal(t, "Harbor Spa", sender.sent[0].VenueName)
	require.Equal(t, int64(125000), sender.sent[0].Amount)
}

func TestConfirmationMailJobVenueLookupIsBestEffort(t *testing.T) {
	sender := &recordingSender{}
	job := confirmationJob(sender)
	job.Venues = stubVenues{}

	err := job.Handle(context.Background(), mustTask(t, ConfirmationMailPayload{PaymentID: 5, ReservationID: 9}))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Empty(t, sender.sent[0].VenueName)
}

func TestConfirmationMailJobMissingPayment(t *testing.T) {
	sender := &recordingSender{}
	job := confirmationJob(sender)
	job.Payments = stubPayments{}

	err := job.Handle(context.Background(), mustTask(t, ConfirmationMailPayload{PaymentID: 5, ReservationID: 9}))
	require.ErrorIs(t, err, payments.ErrPaymentNotFound)
	require.Empty(t, sender.sent)
}

func TestConfirmationMailJobBadPayloadSkipsRetry(t *testing.T) {
	sender := &recordingSender{}
	job := confirmationJob(sender)

	err := job.Handle(context.Background(), asynq.NewTask(TaskConfirmationMail, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type stubSyncer struct {
	gotOlderThan time.Duration
	gotLimit     int
	err          error
}

func (s *stubSyncer) SyncPending(_ context.Context, olderThan time.Duration, limit int) (int, error) {
	s.gotOlderThan = olderThan
	s.gotLimit = limit
	if s.err != nil {
		return 0, s.err
	}
	return 3, nil
}

func TestPaymentsSyncJobDefaults(t *testing.T) {
	syncer := &stubSyncer{}
	job := &PaymentsSyncJob{Payments: syncer}

	task, err := NewPaymentsSyncTask(PaymentsSyncPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, defaultSyncOlderThan, syncer.gotOlderThan)
	require.Equal(t, defaultSyncLimit, syncer.gotLimit)
}

func TestPaymentsSyncJobPropagatesErrors(t *testing.T) {
	boom := errors.New("gateway down")
	job := &PaymentsSyncJob{Payments: &stubSyncer{err: boom}}

	task, err := NewPaymentsSyncTask(PaymentsSyncPayload{OlderThanMinutes: 5, Limit: 10})
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
}
