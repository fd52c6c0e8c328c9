package tenants

import (
	"context"
	"strings"
)

// Service orchestrates tenant administration. Route-level authorization
// restricts every operation here to SUPER_ADMIN callers.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create provisions a new tenant on the given plan.
func (s *Service) Create(ctx context.Context, req CreateTenantRequest) (*Tenant, error) {
	plan := req.Plan
	if plan == "" {
		plan = "free"
	}
	t := Tenant{
		Name:     strings.TrimSpace(req.Name),
		Slug:     strings.ToLower(strings.TrimSpace(req.Slug)),
		Plan:     plan,
		IsActive: true,
	}
	id, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return &t, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Tenant, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateTenantRequest) (*Tenant, error) {
	if err := s.repo.Update(ctx, id, req); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
