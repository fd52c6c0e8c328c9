package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tidebook/tidebook/internal/shared"
)

var (
	// ErrSlotTaken indicates the requested window overlaps an existing
	// reservation for the same service.
	ErrSlotTaken = errors.New("reservations: time slot already reserved")
	// ErrIllegalTransition indicates a forbidden status move.
	ErrIllegalTransition = errors.New("reservations: illegal status transition")
)

// Service orchestrates the reservation lifecycle.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create books a new PENDING reservation after checking the slot is free.
func (s *Service) Create(ctx context.Context, claim *shared.Claim, req CreateReservationRequest) (*Reservation, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, fmt.Errorf("reservations: end must be after start")
	}
	taken, err := s.repo.HasOverlap(ctx, req.ServiceID, req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	partySize := req.PartySize
	if partySize == 0 {
		partySize = 1
	}
	res := Reservation{
		Reference: newReference(),
		TenantID:  claim.TenantID,
		VenueID:   req.VenueID,
		ServiceID: req.ServiceID,
		UserID:    claim.SubjectID,
		StartsAt:  req.StartsAt.UTC(),
		EndsAt:    req.EndsAt.UTC(),
		PartySize: partySize,
		Status:    StatusPending,
		Notes:     req.Notes,
	}
	id, err := s.repo.Create(ctx, res)
	if err != nil {
		return nil, err
	}
	res.ID = id
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	return &res, nil
}

// Get fetches a reservation, scoped to the caller's tenant.
func (s *Service) Get(ctx context.Context, claim *shared.Claim, id int64) (*Reservation, error) {
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.TenantID != claim.TenantID {
		return nil, ErrNotFound
	}
	return res, nil
}

// List returns reservations in the caller's tenant.
func (s *Service) List(ctx context.Context, claim *shared.Claim, req ListReservationsRequest) ([]Reservation, int, error) {
	req.TenantID = claim.TenantID
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// CheckIn moves a CONFIRMED reservation to CHECKED_IN.
func (s *Service) CheckIn(ctx context.Context, claim *shared.Claim, id int64) (*Reservation, error) {
	return s.transition(ctx, claim, id, StatusCheckedIn)
}

// Start moves a CHECKED_IN reservation to IN_PROGRESS.
func (s *Service) Start(ctx context.Context, claim *shared.Claim, id int64) (*Reservation, error) {
	return s.transition(ctx, claim, id, StatusInProgress)
}

// Complete moves an IN_PROGRESS reservation to COMPLETED.
func (s *Service) Complete(ctx context.Context, claim *shared.Claim, id int64) (*Reservation, error) {
	return s.transition(ctx, claim, id, StatusCompleted)
}

// Cancel cancels a reservation from any cancellable status.
func (s *Service) Cancel(ctx context.Context, claim *shared.Claim, id int64) (*Reservation, error) {
	return s.transition(ctx, claim, id, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, claim *shared.Claim, id int64, to Status) (*Reservation, error) {
	res, err := s.Get(ctx, claim, id)
	if err != nil {
		return nil, err
	}
	if to == StatusConfirmed {
		// Confirmation belongs exclusively to payment reconciliation.
		return nil, ErrIllegalTransition
	}
	if !CanTransition(res.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, res.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, res.Status, to); err != nil {
		return nil, err
	}
	res.Status = to
	return res, nil
}

func newReference() string {
	return "RSV-" + strings.ToUpper(uuid.NewString()[:8])
}
