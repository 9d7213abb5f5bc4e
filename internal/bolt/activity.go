package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/rateroom/internal/domain/activity"
	"go.etcd.io/bbolt"
)

// ActivityRepository implements activity.Repository on BoltDB. Entries are
// keyed by the bucket sequence so a reverse cursor walk is newest first.
type ActivityRepository struct {
	store *Store
}

// Log appends an activity entry.
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		log, err := bucket(tx, activityBucket)
		if err != nil {
			return err
		}
		seq, err := log.NextSequence()
		if err != nil {
			return fmt.Errorf("next activity sequence: %w", err)
		}
		entry.ID = int64(seq)
		return putJSON(log, sequenceKey(seq), entry)
	})
}

// List returns matching entries, newest first.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	if err := r.store.ready(ctx); err != nil {
		return nil, err
	}

	entries := []activity.ActivityEntry{}
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		log, err := bucket(tx, activityBucket)
		if err != nil {
			return err
		}
		skipped := 0
		c := log.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var entry activity.ActivityEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshal activity: %w", err)
			}
			if !matches(entry, opts) {
				continue
			}
			if skipped < opts.Offset {
				skipped++
				continue
			}
			entries = append(entries, entry)
			if opts.Limit > 0 && len(entries) >= opts.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func matches(entry activity.ActivityEntry, opts activity.ListActivityOptions) bool {
	if opts.SessionID != "" && entry.SessionID != opts.SessionID {
		return false
	}
	if opts.PollID != nil && (entry.PollID == nil || *entry.PollID != *opts.PollID) {
		return false
	}
	if opts.ActivityType != nil && entry.ActivityType != *opts.ActivityType {
		return false
	}
	return true
}
