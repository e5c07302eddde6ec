package domain

import "context"

type identityKey struct{}

// ContextIdentity carries the authenticated identity through request context.
// Groups is the set of directory group identifiers asserted by the
// authentication layer; the authorization core treats them as given facts and
// never performs membership lookups itself.
type ContextIdentity struct {
	Username string
	Groups   []string
}

// WithIdentity stores a ContextIdentity in the context.
func WithIdentity(ctx context.Context, id ContextIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the ContextIdentity from the context.
func IdentityFromContext(ctx context.Context) (ContextIdentity, bool) {
	id, ok := ctx.Value(identityKey{}).(ContextIdentity)
	return id, ok
}
