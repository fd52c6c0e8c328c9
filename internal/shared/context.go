package shared

import "context"

// Claim is the decoded identity attached to an authenticated request.
type Claim struct {
	SubjectID int64
	Email     string
	Role      string
	TenantID  int64
}

type claimContextKey struct{}

// ContextWithClaim stores the verified claim in the context.
func ContextWithClaim(ctx context.Context, claim *Claim) context.Context {
	return context.WithValue(ctx, claimContextKey{}, claim)
}

// ClaimFromContext extracts the verified claim, or nil when the request
// is unauthenticated.
func ClaimFromContext(ctx context.Context) *Claim {
	claim, _ := ctx.Value(claimContextKey{}).(*Claim)
	return claim
}
