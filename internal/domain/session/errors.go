package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist or has expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPollNotFound indicates the poll id or index is not in the session.
	ErrPollNotFound = errors.New("poll not found")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
	// ErrForbidden indicates the requester may not perform the action.
	ErrForbidden = errors.New("requester not allowed")
	// ErrNameTaken indicates the name is already in the ready room.
	ErrNameTaken = errors.New("name already taken")
	// ErrConflict indicates the session kept changing underneath a write.
	ErrConflict = errors.New("session modified concurrently")
)
