package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/rpggio/rateroom/internal/domain/access"
	"github.com/rpggio/rateroom/internal/domain/ledger"
	"github.com/rpggio/rateroom/internal/domain/poll"
	"github.com/rpggio/rateroom/internal/domain/session"
)

const maxBodyBytes = 1 << 20

var errInternal = errors.New("internal error")

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps a domain error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrPollNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, poll.ErrInvalidInput),
		errors.Is(err, poll.ErrInvalidURL),
		errors.Is(err, poll.ErrInvalidRating),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, access.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrForbidden), errors.Is(err, access.ErrDisabled):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNameTaken),
		errors.Is(err, session.ErrConflict),
		errors.Is(err, ledger.ErrPollNotActive):
		return http.StatusConflict
	case errors.Is(err, poll.ErrVotingClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes err with its mapped status. Unmapped errors are hidden
// behind a generic message.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		err = errInternal
	}
	WriteJSON(w, status, ErrorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func decodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if StatusFor(err) == http.StatusInternalServerError && s.logger != nil {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else if s.logger != nil {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, slog.String("error", err.Error()))
	}
	WriteError(w, err)
}
