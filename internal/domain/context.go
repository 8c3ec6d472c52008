package domain

import "context"

type principalKey struct{}

// Principal carries the authenticated identity and its effective-permission
// snapshot through request context. Permissions are collected once per
// session and invalidated by the write-side cascades; engine calls receive
// them explicitly rather than re-deriving from group state.
type Principal struct {
	AccountID   string
	Permissions PermissionMap
	GroupIDs    []string
}

// WithPrincipal stores a Principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the Principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
