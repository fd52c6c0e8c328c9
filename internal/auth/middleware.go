package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tidebook/tidebook/internal/platform/httpx"
	"github.com/tidebook/tidebook/internal/shared"
)

// Middleware verifies bearer tokens and attaches the claim to the
// request context.
type Middleware struct {
	Codec  *TokenCodec
	Logger *slog.Logger
}

// Authenticate rejects requests without a valid bearer token.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, err := m.Codec.Verify(r.Header.Get("Authorization"))
		if err != nil {
			if m.Logger != nil && !errors.Is(err, ErrMissingToken) {
				m.Logger.Warn("token rejected", slog.String("reason", err.Error()))
			}
			httpx.Fail(w, http.StatusUnauthorized, "Unauthorized", reason(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithClaim(r.Context(), claim)))
	})
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing bearer token"
	case errors.Is(err, ErrExpiredToken):
		return "token expired"
	case errors.Is(err, ErrMalformedClaim):
		return "malformed claim"
	default:
		return "invalid token"
	}
}
