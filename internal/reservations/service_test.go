package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/tidebook/tidebook/internal/shared"
)

type memoryRepo struct {
	items  map[int64]Reservation
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Reservation), nextID: 1}
}

func (r *memoryRepo) Create(ctx context.Context, res Reservation) (int64, error) {
	res.ID = r.nextID
	r.nextID++
	r.items[res.ID] = res
	return res.ID, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Reservation, error) {
	res, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := res
	return &copied, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListReservationsRequest) ([]Reservation, int, error) {
	var out []Reservation
	for _, res := range r.items {
		if res.TenantID != req.TenantID {
			continue
		}
		if req.Status != nil && res.Status != *req.Status {
			continue
		}
		out = append(out, res)
	}
	return out, len(out), nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	res, ok := r.items[id]
	if !ok || res.Status != from {
		return ErrNotFound
	}
	res.Status = to
	r.items[id] = res
	return nil
}

func (r *memoryRepo) HasOverlap(ctx context.Context, serviceID int64, startsAt, endsAt time.Time) (bool, error) {
	for _, res := range r.items {
		if res.ServiceID != serviceID {
			continue
		}
		if res.Status == StatusCancelled || res.Status == StatusCompleted {
			continue
		}
		if res.StartsAt.Before(endsAt) && res.EndsAt.After(startsAt) {
			return true, nil
		}
	}
	return false, nil
}

var testClaim = &shared.Claim{SubjectID: 10, Email: "u@example.com", Role: "USER", TenantID: 1}

func createRequest(start time.Time) CreateReservationRequest {
	return CreateReservationRequest{
		VenueID:   1,
		ServiceID: 2,
		StartsAt:  start,
		EndsAt:    start.Add(time.Hour),
		PartySize: 2,
	}
}

func TestCreateReservation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	res, err := svc.Create(context.Background(), testClaim, createRequest(start))
	require.NoError(t, err)
	require.Equal(t, StatusPending, res.Status)
	require.Equal(t, testClaim.TenantID, res.TenantID)
	require.Equal(t, testClaim.SubjectID, res.UserID)
	require.NotEmpty(t, res.Reference)
}

func TestCreateDefaultsPartySize(t *testing.T) {
	svc := NewService(newMemoryRepo())
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	req := createRequest(start)
	req.PartySize = 0

	// An omitted party_size must survive request validation so the
	// default below is reachable.
	require.NoError(t, validator.New().Struct(req))

	res, err := svc.Create(context.Background(), testClaim, req)
	require.NoError(t, err)
	require.Equal(t, 1, res.PartySize)
}

func TestCreateRejectsOverlap(t *testing.T) {
	svc := NewService(newMemoryRepo())
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), testClaim, createRequest(start))
	require.NoError(t, err)

	// Half-overlapping window for the same service.
	_, err = svc.Create(context.Background(), testClaim, createRequest(start.Add(30*time.Minute)))
	require.ErrorIs(t, err, ErrSlotTaken)

	// Adjacent window is fine.
	_, err = svc.Create(context.Background(), testClaim, createRequest(start.Add(time.Hour)))
	require.NoError(t, err)
}

func TestLifecycleTransitions(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	res, err := svc.Create(context.Background(), testClaim, createRequest(start))
	require.NoError(t, err)

	// PENDING reservations cannot be checked in.
	_, err = svc.CheckIn(context.Background(), testClaim, res.ID)
	require.ErrorIs(t, err, ErrIllegalTransition)

	// Confirmation is reserved for payment reconciliation.
	stored := repo.items[res.ID]
	stored.Status = StatusConfirmed
	repo.items[res.ID] = stored

	checked, err := svc.CheckIn(context.Background(), testClaim, res.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCheckedIn, checked.Status)

	started, err := svc.Start(context.Background(), testClaim, res.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, started.Status)

	completed, err := svc.Complete(context.Background(), testClaim, res.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, completed.Status)

	// Terminal state.
	_, err = svc.Cancel(context.Background(), testClaim, res.ID)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCancelFromPending(t *testing.T) {
	svc := NewService(newMemoryRepo())
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	res, err := svc.Create(context.Background(), testClaim, createRequest(start))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), testClaim, res.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
}

func TestTenantScoping(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	res, err := svc.Create(context.Background(), testClaim, createRequest(start))
	require.NoError(t, err)

	other := &shared.Claim{SubjectID: 99, Role: "USER", TenantID: 2}
	_, err = svc.Get(context.Background(), other, res.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCheckedIn, false},
		{StatusConfirmed, StatusCheckedIn, true},
		{StatusCheckedIn, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
