package transport

import (
	"context"
	"net/http"
	"strings"
)

// VoterHeader carries the caller's voter id on voter routes.
const VoterHeader = "X-Voter-Id"

type voterKey struct{}

// VoterIDFromContext returns the voter id from context, if present.
func VoterIDFromContext(ctx context.Context) (string, bool) {
	voterID, ok := ctx.Value(voterKey{}).(string)
	return voterID, ok
}

// VoterMiddleware extracts X-Voter-Id and stores it in context.
func VoterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		voterID := strings.TrimSpace(r.Header.Get(VoterHeader))
		if voterID != "" {
			ctx := context.WithValue(r.Context(), voterKey{}, voterID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// voterID prefers an explicit id from the request body over the header.
func voterID(r *http.Request, fromBody string) string {
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	id, _ := VoterIDFromContext(r.Context())
	return id
}
