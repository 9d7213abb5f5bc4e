package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/rateroom/internal/domain/access"
	"github.com/rpggio/rateroom/internal/repository"
	"go.etcd.io/bbolt"
)

// TokenRepository implements access.TokenRepository on BoltDB.
type TokenRepository struct {
	store *Store
}

// Create stores a token keyed by its hash.
func (r *TokenRepository) Create(ctx context.Context, token *access.Token) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		tokens, err := bucket(tx, tokenBucket)
		if err != nil {
			return err
		}
		if tokens.Get([]byte(token.Hash)) != nil {
			return repository.ErrAlreadyExists
		}
		return putJSON(tokens, []byte(token.Hash), token)
	})
}

// Get fetches a token by hash.
func (r *TokenRepository) Get(ctx context.Context, hash string) (*access.Token, error) {
	if err := r.store.ready(ctx); err != nil {
		return nil, err
	}
	var token access.Token
	err := r.store.db.View(func(tx *bbolt.Tx) error {
		tokens, err := bucket(tx, tokenBucket)
		if err != nil {
			return err
		}
		payload := tokens.Get([]byte(hash))
		if payload == nil {
			return repository.ErrNotFound
		}
		if err := json.Unmarshal(payload, &token); err != nil {
			return fmt.Errorf("unmarshal token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Delete removes a token.
func (r *TokenRepository) Delete(ctx context.Context, hash string) error {
	if err := r.store.ready(ctx); err != nil {
		return err
	}
	return r.store.db.Update(func(tx *bbolt.Tx) error {
		tokens, err := bucket(tx, tokenBucket)
		if err != nil {
			return err
		}
		if tokens.Get([]byte(hash)) == nil {
			return repository.ErrNotFound
		}
		return tokens.Delete([]byte(hash))
	})
}

// PurgeExpired deletes tokens that expired at or before now.
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if err := r.store.ready(ctx); err != nil {
		return 0, err
	}
	purged := 0
	err := r.store.db.Update(func(tx *bbolt.Tx) error {
		tokens, err := bucket(tx, tokenBucket)
		if err != nil {
			return err
		}
		var expired [][]byte
		err = tokens.ForEach(func(k, v []byte) error {
			var token access.Token
			if err := json.Unmarshal(v, &token); err != nil {
				return fmt.Errorf("unmarshal token: %w", err)
			}
			if token.Expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := tokens.Delete(k); err != nil {
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
