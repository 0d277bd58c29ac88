package middleware

import (
	"net/http"

	authcore "github.com/veilmail/authcore"
)

// authorizationHeader returns the credential header the gate inspects.
// When a request carries multiple Authorization headers, the first
// occurrence wins and the rest are ignored; this is a deliberate,
// deterministic policy rather than platform behavior.
func authorizationHeader(r *http.Request) string {
	values := r.Header.Values("Authorization")
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// RequireAuth gates the wrapped handler: the request proceeds only with a
// fully validated identity bound to its context. Rejections answer 401
// with the structured error envelope.
func RequireAuth(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := authcore.WithClientIP(r.Context(), clientIP(r))

			identity, rej := engine.Authenticate(ctx, authorizationHeader(r))
			if rej != nil {
				writeRejection(w, rej)
				return
			}

			ctx = authcore.WithIdentity(ctx, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth personalizes without requiring identity: a valid credential
// binds one, anything else lets the request through anonymously.
func OptionalAuth(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := authcore.WithClientIP(r.Context(), clientIP(r))

			if identity := engine.AuthenticateOptional(ctx, authorizationHeader(r)); identity != nil {
				ctx = authcore.WithIdentity(ctx, identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
