package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type hostKey struct{}

// TokenVerifier checks a host bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) error
}

// IsHost reports whether the request was made with a valid host token.
func IsHost(ctx context.Context) bool {
	host, _ := ctx.Value(hostKey{}).(bool)
	return host
}

// WithHost marks ctx as carrying host privileges.
func WithHost(ctx context.Context) context.Context {
	return context.WithValue(ctx, hostKey{}, true)
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// AuthMiddleware identifies host requests. It never rejects: voter routes
// are open and host routes are guarded by RequireHost. A nil verifier
// disables authentication and treats every caller as the host.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r.WithContext(WithHost(r.Context())))
				return
			}

			token := BearerToken(r)
			if token != "" && verifier.Verify(r.Context(), token) == nil {
				next.ServeHTTP(w, r.WithContext(WithHost(r.Context())))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireHost rejects requests without host privileges.
func RequireHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsHost(r.Context()) {
			WriteError(w, ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
