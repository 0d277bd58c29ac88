package middleware

import (
	"net"
	"net/http"
	"strings"

	authcore "github.com/veilmail/authcore"
)

// KeyFunc derives the caller key a tier's budget is tracked against.
type KeyFunc func(*http.Request) string

// ByClientIP keys the budget on the caller IP: the first X-Forwarded-For
// hop when present, the remote address otherwise.
func ByClientIP(r *http.Request) string {
	return clientIP(r)
}

// ByPrincipal keys the budget on the authenticated principal id and falls
// back to the given key func (typically [ByClientIP]) for unauthenticated
// requests. Mount it after the auth gate so the identity is already bound.
func ByPrincipal(fallback KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		if identity, ok := authcore.IdentityFromContext(r.Context()); ok {
			return identity.PrincipalID
		}
		return fallback(r)
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
