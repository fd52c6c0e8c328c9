package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	codec := NewTokenCodec("secret", time.Hour, fixedClock(now))

	user := &User{ID: 42, TenantID: 7, Email: "a@b.com", Role: "ADMIN"}
	token, expiresAt, err := codec.Issue(user)
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), expiresAt)

	claim, err := codec.Verify("Bearer " + token)
	require.NoError(t, err)
	require.Equal(t, int64(42), claim.SubjectID)
	require.Equal(t, "a@b.com", claim.Email)
	require.Equal(t, "ADMIN", claim.Role)
	require.Equal(t, int64(7), claim.TenantID)
}

func TestVerifyMissingBearerPrefix(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour, nil)

	for _, header := range []string{"", "Bearer ", "Bearer", "Basic abc", "token"} {
		_, err := codec.Verify(header)
		require.ErrorIs(t, err, ErrMissingToken, "header %q", header)
	}
}

func TestVerifyExpiredIsDistinctFromInvalid(t *testing.T) {
	issued := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenCodec("secret", time.Hour, fixedClock(issued))

	user := &User{ID: 1, Email: "a@b.com", Role: "USER"}
	token, _, err := issuer.Issue(user)
	require.NoError(t, err)

	// Same secret, clock past expiry.
	late := NewTokenCodec("secret", time.Hour, fixedClock(issued.Add(2*time.Hour)))
	_, err = late.Verify("Bearer " + token)
	require.ErrorIs(t, err, ErrExpiredToken)

	// Wrong secret, clock within validity.
	forged := NewTokenCodec("other-secret", time.Hour, fixedClock(issued.Add(time.Minute)))
	_, err = forged.Verify("Bearer " + token)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.NotErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyMalformedClaim(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	codec := NewTokenCodec("secret", time.Hour, fixedClock(now))

	// Token signed with the right secret but missing required fields.
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tidebook",
			Subject:   "9",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = codec.Verify("Bearer " + signed)
	require.ErrorIs(t, err, ErrMalformedClaim)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	codec := NewTokenCodec("secret", time.Hour, fixedClock(now))

	claims := tokenClaims{
		Email: "a@b.com",
		Role:  "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = codec.Verify("Bearer " + signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}
