package access

import (
	"context"
	"time"
)

// TokenRepository persists host tokens by hash.
type TokenRepository interface {
	Create(ctx context.Context, token *Token) error
	Get(ctx context.Context, hash string) (*Token, error)
	Delete(ctx context.Context, hash string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
