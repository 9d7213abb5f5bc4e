package session

import (
	"context"
	"time"

	"github.com/rpggio/rateroom/internal/domain/activity"
)

// SessionRepository provides document persistence for sessions.
//
// Update must only succeed when the stored version equals expectedVersion and
// return repository.ErrConflict otherwise. Get must treat an expired document
// as missing.
type SessionRepository interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, sess *Session, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
	ListSaved(ctx context.Context) ([]SessionInfo, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// ActivityLogger receives session events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
