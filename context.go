package authcore

import "context"

// Identity is the request-scoped identity the gate binds after a credential
// passes every check.
type Identity struct {
	PrincipalID string
	Address     string
	TokenID     string
}

type identityContextKey struct{}
type clientIPContextKey struct{}

// WithIdentity attaches a validated identity to ctx for downstream
// handlers.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity bound by the gate, if any. The
// optional gate variant admits requests without one.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok
}

// WithClientIP attaches the caller's IP address to ctx. The engine uses it
// for audit events; the throttle middleware uses it as the caller key for
// IP-scoped tiers.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// ClientIPFromContext returns the caller IP attached by the middleware, or
// the empty string.
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
