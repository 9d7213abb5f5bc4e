package access

import "errors"

var (
	// ErrUnauthorized indicates a wrong password or an unknown, expired or
	// revoked token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDisabled indicates host login is not configured.
	ErrDisabled = errors.New("host login disabled")
)
