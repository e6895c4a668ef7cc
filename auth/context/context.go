package authcontext

import (
	"context"

	"github.com/nasermirzaei89/bazaar/auth"
)

type contextKeyPrincipal struct{}

// GetPrincipal returns the principal stored in ctx, or the zero (anonymous) principal.
func GetPrincipal(ctx context.Context) auth.Principal {
	principal, ok := ctx.Value(contextKeyPrincipal{}).(auth.Principal)
	if !ok {
		return auth.Principal{}
	}

	return principal
}

func WithPrincipal(ctx context.Context, principal auth.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal{}, principal)
}

func GetSubject(ctx context.Context) string {
	return GetPrincipal(ctx).UserID
}
