package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/rateroom/internal/domain/ledger"
	"github.com/rpggio/rateroom/internal/domain/poll"
	"github.com/rpggio/rateroom/internal/domain/session"
)

// APIError is the error text returned from a failed tool call.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	cause        error
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	apiErr := func(code, hint string) *APIError {
		return &APIError{Code: code, Message: err.Error(), RecoveryHint: hint, cause: err}
	}
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return apiErr("SESSION_NOT_FOUND", "Call list_sessions for saved sessions; live sessions expire when idle")
	case errors.Is(err, session.ErrPollNotFound):
		return apiErr("POLL_NOT_FOUND", "Call get_session to see current poll ids")
	case errors.Is(err, session.ErrForbidden):
		return apiErr("FORBIDDEN", "Pass a requester on the authorized actor list")
	case errors.Is(err, session.ErrConflict):
		return apiErr("CONFLICT", "Retry the call")
	case errors.Is(err, ledger.ErrPollNotActive):
		return apiErr("POLL_NOT_ACTIVE", "Start the poll first")
	case errors.Is(err, poll.ErrVotingClosed):
		return apiErr("VOTING_CLOSED", "")
	case errors.Is(err, poll.ErrInvalidURL):
		return apiErr("INVALID_URL", "Links must be absolute http(s) URLs")
	case errors.Is(err, session.ErrInvalidInput), errors.Is(err, poll.ErrInvalidInput), errors.Is(err, poll.ErrInvalidRating):
		return apiErr("INVALID_INPUT", "")
	default:
		return nil
	}
}

// toolError converts a service error for a tool result.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
