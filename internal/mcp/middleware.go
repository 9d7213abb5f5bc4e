package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const callerKey contextKey = iota

// caller returns how the request was authenticated, for logs.
func caller(ctx context.Context) string {
	v, _ := ctx.Value(callerKey).(string)
	return v
}

// TokenVerifier checks a host bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) error
}

// authMiddleware requires a host bearer token on every call except protocol
// handshakes and notifications.
func authMiddleware(verifier TokenVerifier) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}
			if verifier == nil {
				return nil, fmt.Errorf("unauthorized: no token verifier configured")
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}
			if err := verifier.Verify(ctx, token); err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}

			ctx = context.WithValue(ctx, callerKey, "host")
			return next(ctx, method, req)
		}
	}
}

// noAuthMiddleware treats every caller as the host.
func noAuthMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, callerKey, "local")
			return next(ctx, method, req)
		}
	}
}
