package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rpggio/rateroom/internal/domain/session"
	"github.com/rpggio/rateroom/internal/repository"
	"go.etcd.io/bbolt"
)

// SessionRepository implements session.SessionRepository on BoltDB.
// Non-live sessions are also keyed in the saved bucket.
type SessionRepository struct {
	store *Store
}

// Create stores a new session document.
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(sess.ID) == "" {
		return fmt.Errorf("%w: session id is required", repository.ErrInvalidInput)
	}

	return r.store.db.Update(func(tx *bbolt.Tx) error {
		sessions, err := bucket(tx, sessionBucket)
		if err != nil {
			return err
		}
		if sessions.Get([]byte(sess.ID)) != nil {
			return repository.ErrAlreadyExists
		}
		return r.put(tx, sess)
	})
}

// Get fetches a session document. Expired sessions are reported as not found.
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	if err := r.store.ready(ctx); err != nil {
		return nil, err
	}

	var sess *session.Session
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		var err error
		sess, err = r.load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Update writes the document inside a transaction that first checks the
// stored version.
func (r *SessionRepository) Update(ctx context.Context, sess *session.Session, expectedVersion int64) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}

	return r.store.db.Update(func(tx *bbolt.Tx) error {
		current, err := r.load(tx, sess.ID)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return repository.ErrConflict
		}
		return r.put(tx, sess)
	})
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}

	return r.store.db.Update(func(tx *bbolt.Tx) error {
		sessions, err := bucket(tx, sessionBucket)
		if err != nil {
			return err
		}
		if sessions.Get([]byte(id)) == nil {
			return repository.ErrNotFound
		}
		return r.remove(tx, id)
	})
}

// ListSaved returns saved sessions, most recently updated first.
func (r *SessionRepository) ListSaved(ctx context.Context) ([]session.SessionInfo, error) {
	if err := r.store.ready(ctx); err != nil {
		return nil, err
	}

	infos := []session.SessionInfo{}
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		saved, err := bucket(tx, savedBucket)
		if err != nil {
			return err
		}
		return saved.ForEach(func(k, _ []byte) error {
			sess, err := r.load(tx, string(k))
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			infos = append(infos, sess.Info())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// PurgeExpired deletes sessions whose expiry is at or before now.
func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if err := r.store.ready(ctx); err != nil {
		return 0, err
	}

	purged := 0
	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		sessions, err := bucket(tx, sessionBucket)
		if err != nil {
			return err
		}
		var expired []string
		err = sessions.ForEach(func(k, v []byte) error {
			var sess session.Session
			if err := json.Unmarshal(v, &sess); err != nil {
				return fmt.Errorf("unmarshal session: %w", err)
			}
			if isExpired(&sess, now) {
				expired = append(expired, string(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range expired {
			if err := r.remove(tx, id); err != nil {
				return err
			}
		}
		purged = len(expired)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

func (r *SessionRepository) load(tx *bbolt.Tx, id string) (*session.Session, error) {
	sessions, err := bucket(tx, sessionBucket)
	if err != nil {
		return nil, err
	}
	payload := sessions.Get([]byte(id))
	if payload == nil {
		return nil, repository.ErrNotFound
	}
	var sess session.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if isExpired(&sess, r.store.now()) {
		return nil, repository.ErrNotFound
	}
	sess.Normalize()
	return &sess, nil
}

func (r *SessionRepository) put(tx *bbolt.Tx, sess *session.Session) error {
	sessions, err := bucket(tx, sessionBucket)
	if err != nil {
		return err
	}
	saved, err := bucket(tx, savedBucket)
	if err != nil {
		return err
	}
	if err := putJSON(sessions, []byte(sess.ID), sess); err != nil {
		return err
	}
	if sess.IsLive {
		return saved.Delete([]byte(sess.ID))
	}
	return saved.Put([]byte(sess.ID), []byte{})
}

func (r *SessionRepository) remove(tx *bbolt.Tx, id string) error {
	sessions, err := bucket(tx, sessionBucket)
	if err != nil {
		return err
	}
	saved, err := bucket(tx, savedBucket)
	if err != nil {
		return err
	}
	if err := sessions.Delete([]byte(id)); err != nil {
		return err
	}
	return saved.Delete([]byte(id))
}

func isExpired(sess *session.Session, now time.Time) bool {
	return sess.ExpiresAt != nil && !now.Before(*sess.ExpiresAt)
}
