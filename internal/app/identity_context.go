package app

import (
	"context"
	"strings"

	"github.com/hylla/tickit/internal/domain"
)

// WithIdentity attaches the authenticated identity to context.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	identity.ID = strings.TrimSpace(identity.ID)
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the authenticated identity when present.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	raw := ctx.Value(identityContextKey{})
	identity, ok := raw.(domain.Identity)
	if !ok || identity.ID == "" {
		return domain.Identity{}, false
	}
	return identity, true
}

// identityContextKey stores context keys for identity values.
type identityContextKey struct{}
