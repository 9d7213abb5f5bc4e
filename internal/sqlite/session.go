package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/rateroom/internal/domain/session"
	"github.com/rpggio/rateroom/internal/repository"
)

// SessionRepository implements session.SessionRepository for SQLite.
// The document is stored as JSON next to the columns used for listing,
// expiry and version checks.
type SessionRepository struct {
	db  *DB
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Create inserts a new session document
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	query := `
		INSERT INTO sessions (
			id, name, is_live, status, poll_count, document,
			version, created_at, updated_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		sess.ID,
		sess.Name,
		sess.IsLive,
		sess.Status,
		len(sess.Polls),
		string(doc),
		sess.Version,
		sess.CreatedAt,
		sess.UpdatedAt,
		expiryValue(sess.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID. Expired sessions are reported as not found.
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT document, version
		FROM sessions
		WHERE id = ? AND (expires_at IS NULL OR expires_at > ?)
	`

	var doc string
	var version int64
	err := r.db.QueryRowContext(ctx, query, id, r.now().UnixNano()).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(doc), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	sess.Version = version
	sess.Normalize()

	return &sess, nil
}

// Update writes the document if the stored version still equals
// expectedVersion.
func (r *SessionRepository) Update(ctx context.Context, sess *session.Session, expectedVersion int64) error {
	doc, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	query := `
		UPDATE sessions
		SET name = ?, is_live = ?, status = ?, poll_count = ?, document = ?,
		    version = ?, updated_at = ?, expires_at = ?
		WHERE id = ? AND version = ? AND (expires_at IS NULL OR expires_at > ?)
	`

	now := r.now().UnixNano()
	result, err := r.db.ExecContext(ctx, query,
		sess.Name,
		sess.IsLive,
		sess.Status,
		len(sess.Polls),
		string(doc),
		sess.Version,
		sess.UpdatedAt,
		expiryValue(sess.ExpiresAt),
		sess.ID,
		expectedVersion,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM sessions WHERE id = ? AND (expires_at IS NULL OR expires_at > ?))`
		err = r.db.QueryRowContext(ctx, checkQuery, sess.ID, now).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		if !exists {
			return repository.ErrNotFound
		}

		// Session exists but version doesn't match - conflict
		return repository.ErrConflict
	}

	return nil
}

// Delete removes a session
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
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

// ListSaved returns sessions that are not live, most recently updated first
func (r *SessionRepository) ListSaved(ctx context.Context) ([]session.SessionInfo, error) {
	query := `
		SELECT id, name, status, poll_count, created_at, updated_at
		FROM sessions
		WHERE is_live = 0
		ORDER BY updated_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []session.SessionInfo{}
	for rows.Next() {
		var info session.SessionInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Status, &info.PollCount, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session info: %w", err)
		}
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// PurgeExpired deletes live sessions whose expiry is at or before now
func (r *SessionRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func expiryValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
