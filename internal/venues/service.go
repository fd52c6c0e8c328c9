package venues

import (
	"context"
	"strings"

	"github.com/tidebook/tidebook/internal/shared"
)

// Service orchestrates venue operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new venue in the caller's tenant.
func (s *Service) Create(ctx context.Context, claim *shared.Claim, req CreateVenueRequest) (*Venue, error) {
	v := Venue{
		TenantID: claim.TenantID,
		Name:     strings.TrimSpace(req.Name),
		Address:  req.Address,
		City:     req.City,
		Country:  strings.ToUpper(req.Country),
		Timezone: req.Timezone,
		IsActive: true,
	}
	id, err := s.repo.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	v.ID = id
	return &v, nil
}

// Get fetches a venue scoped to the caller's tenant.
func (s *Service) Get(ctx context.Context, claim *shared.Claim, id int64) (*Venue, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.TenantID != claim.TenantID {
		return nil, ErrNotFound
	}
	return v, nil
}

// List returns venues in the caller's tenant.
func (s *Service) List(ctx context.Context, claim *shared.Claim, req ListVenuesRequest) ([]Venue, int, error) {
	req.TenantID = claim.TenantID
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Update modifies a venue scoped to the caller's tenant.
func (s *Service) Update(ctx context.Context, claim *shared.Claim, id int64, req UpdateVenueRequest) (*Venue, error) {
	if _, err := s.Get(ctx, claim, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, req); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a venue scoped to the caller's tenant.
func (s *Service) Delete(ctx context.Context, claim *shared.Claim, id int64) error {
	if _, err := s.Get(ctx, claim, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
