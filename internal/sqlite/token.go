package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/rateroom/internal/domain/access"
	"github.com/rpggio/rateroom/internal/repository"
)

// TokenRepository implements access.TokenRepository for SQLite
type TokenRepository struct {
	db *DB
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a token hash
func (r *TokenRepository) Create(ctx context.Context, token *access.Token) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (token_hash, created_at, expires_at) VALUES (?, ?, ?)`,
		token.Hash, token.CreatedAt, token.ExpiresAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// Get looks up a token by hash
func (r *TokenRepository) Get(ctx context.Context, hash string) (*access.Token, error) {
	var token access.Token
	var expiresAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT token_hash, created_at, expires_at FROM access_tokens WHERE token_hash = ?`,
		hash).Scan(&token.Hash, &token.CreatedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	token.ExpiresAt = time.Unix(0, expiresAt)
	return &token, nil
}

// Delete removes a token
func (r *TokenRepository) Delete(ctx context.Context, hash string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE token_hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// PurgeExpired deletes tokens that expired at or before now
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE expires_at <= ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge tokens: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}
