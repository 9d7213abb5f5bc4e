package access

import "time"

// Token is a stored host credential. Only the hash of the bearer value is
// persisted.
type Token struct {
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is no longer valid at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Grant is returned on login. Value is shown once and never stored.
type Grant struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
