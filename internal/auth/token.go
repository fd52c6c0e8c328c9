package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tidebook/tidebook/internal/shared"
)

const (
	issuer       = "tidebook"
	bearerPrefix = "Bearer "
)

// Token verification errors. Each failure mode is distinct so handlers
// and tests can tell a stale token from a forged one.
var (
	ErrMissingToken   = errors.New("auth: missing bearer token")
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrExpiredToken   = errors.New("auth: token expired")
	ErrMalformedClaim = errors.New("auth: malformed claim")
)

// tokenClaims is the JWT payload carried by every access token.
type tokenClaims struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID int64  `json:"tenant_id"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 access tokens. The secret and
// clock are injected at construction; verification is a pure function
// of the token string and that state.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec constructs a codec. A nil clock defaults to time.Now.
func NewTokenCodec(secret string, ttl time.Duration, now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs an access token for the user.
func (c *TokenCodec) Issue(user *User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, errors.New("auth: user required")
	}
	now := c.now().UTC()
	expiresAt := now.Add(c.ttl)
	claims := tokenClaims{
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify decodes and validates an Authorization header value and
// returns the claim it carries. The header must use the Bearer scheme.
func (c *TokenCodec) Verify(rawHeaderValue string) (*shared.Claim, error) {
	if !strings.HasPrefix(rawHeaderValue, bearerPrefix) {
		return nil, ErrMissingToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(rawHeaderValue, bearerPrefix))
	if raw == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Email == "" || claims.Role == "" {
		return nil, ErrMalformedClaim
	}
	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrMalformedClaim
	}

	return &shared.Claim{
		SubjectID: subjectID,
		Email:     claims.Email,
		Role:      claims.Role,
		TenantID:  claims.TenantID,
	}, nil
}
