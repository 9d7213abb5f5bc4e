// Package access issues and checks the host's bearer tokens.
package access

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/rateroom/internal/repository"
)

// DefaultTokenTTL applies when no TTL is configured.
const DefaultTokenTTL = 12 * time.Hour

// Service exchanges the host password for expiring tokens.
type Service struct {
	repo     TokenRepository
	password string
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new access service. An empty password disables login.
func NewService(repo TokenRepository, password string, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{repo: repo, password: password, ttl: ttl, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Login checks the password and returns a fresh token.
func (s *Service) Login(ctx context.Context, password string) (*Grant, error) {
	if s.password == "" {
		return nil, ErrDisabled
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		if s.logger != nil {
			s.logger.Warn("host login rejected")
		}
		return nil, ErrUnauthorized
	}

	value := rand.Text()
	now := s.now()
	token := &Token{
		Hash:      HashToken(value),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("storing token: %w", err)
	}
	return &Grant{Value: value, ExpiresAt: token.ExpiresAt}, nil
}

// Verify checks that value is a live token.
func (s *Service) Verify(ctx context.Context, value string) error {
	if value == "" {
		return ErrUnauthorized
	}
	token, err := s.repo.Get(ctx, HashToken(value))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("loading token: %w", err)
	}
	if token.Expired(s.now()) {
		return ErrUnauthorized
	}
	return nil
}

// Revoke deletes a token. Unknown tokens are ignored.
func (s *Service) Revoke(ctx context.Context, value string) error {
	err := s.repo.Delete(ctx, HashToken(value))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// PurgeExpired removes expired tokens.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.repo.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purging tokens: %w", err)
	}
	return n, nil
}

// HashToken returns the stored form of a bearer value.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
