package authz

import (
	"log/slog"
	"net/http"

	"github.com/tidebook/tidebook/internal/platform/httpx"
	"github.com/tidebook/tidebook/internal/shared"
)

// Middleware wires authorization checks into HTTP handlers. It expects
// the authentication middleware to have placed a verified claim in the
// request context.
type Middleware struct {
	Logger *slog.Logger
}

// Require allows the request through only when the claim's role covers
// module:action. Missing claims get 401, insufficient roles 403.
func (m Middleware) Require(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim := shared.ClaimFromContext(r.Context())
			if claim == nil {
				httpx.Fail(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if !IsAuthorized(Role(claim.Role), module, action) {
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.String("role", claim.Role),
						slog.String("permission", module+":"+action),
						slog.Int64("subject_id", claim.SubjectID),
					)
				}
				httpx.Fail(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
