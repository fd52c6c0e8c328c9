package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidebook/tidebook/internal/authz"
	"github.com/tidebook/tidebook/internal/shared"
)

var (
	ErrUnknownRole = errors.New("users: unknown role")
	ErrRoleTooHigh = errors.New("users: cannot assign a role above your own")
	ErrSelfDisable = errors.New("users: cannot deactivate your own account")
)

// Service orchestrates account administration within a tenant.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches an account scoped to the caller's tenant.
func (s *Service) Get(ctx context.Context, claim *shared.Claim, id int64) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.TenantID != claim.TenantID {
		return nil, ErrNotFound
	}
	return u, nil
}

// List returns accounts in the caller's tenant.
func (s *Service) List(ctx context.Context, claim *shared.Claim, req ListUsersRequest) ([]User, int, error) {
	req.TenantID = claim.TenantID
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// AssignRole changes an account's role. Unknown roles are rejected, and
// a caller can never grant a role that outranks their own.
func (s *Service) AssignRole(ctx context.Context, claim *shared.Claim, id int64, rawRole string) (*User, error) {
	role := authz.Parse(rawRole)
	if !authz.Valid(role) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, rawRole)
	}
	if authz.Rank(role) > authz.Rank(authz.Role(claim.Role)) {
		return nil, ErrRoleTooHigh
	}
	if _, err := s.Get(ctx, claim, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// SetActive enables or disables an account. Callers cannot lock
// themselves out.
func (s *Service) SetActive(ctx context.Context, claim *shared.Claim, id int64, active bool) (*User, error) {
	if !active && id == claim.SubjectID {
		return nil, ErrSelfDisable
	}
	if _, err := s.Get(ctx, claim, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
