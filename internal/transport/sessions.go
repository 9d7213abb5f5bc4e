package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/rpggio/rateroom/internal/domain/poll"
	"github.com/rpggio/rateroom/internal/domain/session"
)

type createSessionRequest struct {
	Name   string `json:"name"`
	IsLive *bool  `json:"isLive,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	isLive := true
	if req.IsLive != nil {
		isLive = *req.IsLive
	}
	sess, err := s.services.Sessions.Create(r.Context(), req.Name, isLive)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos, err := s.services.Sessions.ListSaved(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.services.Sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddPoll(w http.ResponseWriter, r *http.Request) {
	var in poll.Input
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.services.Sessions.AddPoll(r.Context(), chi.URLParam(r, "sessionID"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) handleIngestPoll(w http.ResponseWriter, r *http.Request) {
	var req poll.IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.services.Sessions.IngestPoll(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePoll(w http.ResponseWriter, r *http.Request) {
	var in poll.Input
	if err := decodeJSON(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.services.Sessions.UpdatePoll(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "pollID"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePoll(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r)(s.services.Sessions.DeletePoll(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "pollID")))
}

func (s *Server) handleDuplicatePoll(w http.ResponseWriter, r *http.Request) {
	p, err := s.services.Sessions.DuplicatePoll(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "pollID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

type reorderRequest struct {
	PollIDs []string `json:"pollIds"`
}

func (s *Server) handleReorderPolls(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, r)(s.services.Sessions.ReorderPolls(r.Context(), chi.URLParam(r, "sessionID"), req.PollIDs))
}

type startRequest struct {
	Index *int `json:"index"`
}

func (s *Server) handleStartPoll(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Index == nil {
		s.fail(w, r, fmt.Errorf("%w: index is required", errBadRequest))
		return
	}
	s.writeSession(w, r)(s.services.Sessions.StartPoll(r.Context(), chi.URLParam(r, "sessionID"), *req.Index))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r)(s.services.Sessions.Pause(r.Context(), chi.URLParam(r, "sessionID")))
}

type resumeRequest struct {
	Restart bool `json:"restart"`
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, r)(s.services.Sessions.Resume(r.Context(), chi.URLParam(r, "sessionID"), req.Restart))
}

type advanceRequest struct {
	Requester string `json:"requester"`
}

// handleAdvance is open to the host and to allow-listed automation actors
// that name themselves in the body.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	requester := strings.TrimSpace(req.Requester)
	if IsHost(r.Context()) {
		requester = ""
	} else if requester == "" {
		s.fail(w, r, ErrUnauthorized)
		return
	}
	s.writeSession(w, r)(s.services.Sessions.Advance(r.Context(), chi.URLParam(r, "sessionID"), requester))
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r)(s.services.Sessions.Complete(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleClearVotes(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r)(s.services.Sessions.ClearVotes(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req session.SettingsUpdate
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, r)(s.services.Sessions.UpdateSettings(r.Context(), chi.URLParam(r, "sessionID"), req))
}

func (s *Server) handlePauseTimer(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r)(s.services.Sessions.PauseTimer(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleResumeTimer(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r)(s.services.Sessions.ResumeTimer(r.Context(), chi.URLParam(r, "sessionID")))
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	opts := activity.ListActivityOptions{SessionID: chi.URLParam(r, "sessionID"), Limit: 50}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.fail(w, r, errBadRequest)
			return
		}
		opts.Limit = limit
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		kind := activity.ActivityType(raw)
		opts.ActivityType = &kind
	}
	entries, err := s.services.Activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

// writeSession returns a responder for operations that yield the document.
func (s *Server) writeSession(w http.ResponseWriter, r *http.Request) func(*session.Session, error) {
	return func(sess *session.Session, err error) {
		if err != nil {
			s.fail(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, sess)
	}
}
