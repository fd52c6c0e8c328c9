package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tidebook/tidebook/internal/authz"
	"github.com/tidebook/tidebook/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo  Repository
	codec *TokenCodec
}

// NewService constructs a new Service.
func NewService(repo Repository, codec *TokenCodec) *Service {
	return &Service{repo: repo, codec: codec}
}

// TokenResult is the outcome of a successful login or registration.
type TokenResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// Login validates email/password credentials and issues a token.
// Every failure mode collapses to ErrInvalidCredentials so callers
// cannot enumerate registered addresses.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Register creates a new USER account within a tenant and issues a token.
func (s *Service) Register(ctx context.Context, tenantID int64, email, password string) (*TokenResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := User{
		TenantID:     tenantID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         string(authz.RoleUser),
		IsActive:     true,
	}
	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return s.issue(&user)
}

func (s *Service) issue(user *User) (*TokenResult, error) {
	token, expiresAt, err := s.codec.Issue(user)
	if err != nil {
		return nil, err
	}
	return &TokenResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}
