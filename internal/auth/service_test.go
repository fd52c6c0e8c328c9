package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tidebook/tidebook/internal/shared"
)

type stubRepo struct {
	users  map[string]*User
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[string]*User), nextID: 1}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *stubRepo) Create(ctx context.Context, user User) (int64, error) {
	if _, ok := s.users[user.Email]; ok {
		return 0, ErrEmailTaken
	}
	user.ID = s.nextID
	s.nextID++
	s.users[user.Email] = &user
	return user.ID, nil
}

func newTestService(repo Repository) *Service {
	codec := NewTokenCodec("test-secret", time.Hour, nil)
	return NewService(repo, codec)
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	registered, err := svc.Register(context.Background(), 1, "User@Example.com", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, "user@example.com", registered.User.Email)
	require.Equal(t, "USER", registered.User.Role)
	require.NotEmpty(t, registered.AccessToken)

	loggedIn, err := svc.Login(context.Background(), "user@example.com", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, loggedIn.User.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), 1, "user@example.com", "s3cretpass")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "user@example.com", "wrongpass1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(newStubRepo())

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newStubRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cretpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users["frozen@example.com"] = &User{
		ID: 5, Email: "frozen@example.com", PasswordHash: string(hash), Role: "USER", IsActive: false,
	}
	svc := newTestService(repo)

	_, err = svc.Login(context.Background(), "frozen@example.com", "s3cretpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), 1, "dup@example.com", "s3cretpass")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), 1, "dup@example.com", "s3cretpass")
	require.ErrorIs(t, err, ErrEmailTaken)
}
