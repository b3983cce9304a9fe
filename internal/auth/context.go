package auth

import (
	"context"
	"net/http"
)

// Identity is the resolved caller identity the auth middleware injects into
// the request context. Handlers receive it explicitly instead of reading
// ambient session state.
type Identity struct {
	AccountID string
	CompanyID string
	IsAdmin   bool
}

// contextKey is the type used for context keys.
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// FromContext retrieves the resolved identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// FromRequest retrieves the resolved identity from the request context.
func FromRequest(r *http.Request) (Identity, bool) {
	return FromContext(r.Context())
}
