package transport

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/rateroom/internal/domain/poll"
)

type nameRequest struct {
	Name string `json:"name"`
}

type voterResponse struct {
	VoterID string `json:"voterId"`
	Name    string `json:"name"`
}

func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.services.Sessions.RegisterVoter(r.Context(), chi.URLParam(r, "sessionID"), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, voterResponse{VoterID: id, Name: req.Name})
}

type voteRequest struct {
	PollID  string   `json:"pollId"`
	VoterID string   `json:"voterId"`
	Rating  *float64 `json:"rating"`
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Rating == nil {
		s.fail(w, r, fmt.Errorf("%w: rating is required", poll.ErrInvalidRating))
		return
	}
	res, err := s.services.Sessions.CastVote(r.Context(), chi.URLParam(r, "sessionID"), req.PollID, voterID(r, req.VoterID), *req.Rating)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

type voterRequest struct {
	VoterID string `json:"voterId"`
}

func (s *Server) handleRequestSkip(w http.ResponseWriter, r *http.Request) {
	var req voterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSession(w, r)(s.services.Sessions.RequestSkip(r.Context(), chi.URLParam(r, "sessionID"), voterID(r, req.VoterID)))
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	res, err := s.services.Sessions.Results(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "pollID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleTop10(w http.ResponseWriter, r *http.Request) {
	board, err := s.services.Sessions.Top10(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, board)
}

func (s *Server) handleMarkReady(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	status, err := s.services.Sessions.MarkReady(r.Context(), chi.URLParam(r, "sessionID"), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

func (s *Server) handleReadyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.services.Sessions.ReadyStatus(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

func (s *Server) handleStartCountdown(w http.ResponseWriter, r *http.Request) {
	status, err := s.services.Sessions.StartCountdown(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

func (s *Server) handleClearReady(w http.ResponseWriter, r *http.Request) {
	status, err := s.services.Sessions.ClearReady(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

func (s *Server) handleVoteExpose(w http.ResponseWriter, r *http.Request) {
	var req voterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	status, err := s.services.Sessions.VoteExpose(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "pollID"), voterID(r, req.VoterID))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

func (s *Server) handleExposeStatus(w http.ResponseWriter, r *http.Request) {
	id := voterID(r, r.URL.Query().Get("voterId"))
	status, err := s.services.Sessions.ExposeStatus(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "pollID"), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

type chatRequest struct {
	VoterID string `json:"voterId"`
	Name    string `json:"name"`
	Text    string `json:"text"`
}

func (s *Server) handlePostChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	msg, err := s.services.Sessions.PostChat(r.Context(), chi.URLParam(r, "sessionID"), voterID(r, req.VoterID), req.Name, req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, msg)
}

type feedbackRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	entry, err := s.services.Sessions.SubmitFeedback(r.Context(), chi.URLParam(r, "sessionID"), req.Name, req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleFeedbackDigest(w http.ResponseWriter, r *http.Request) {
	digest, err := s.services.Sessions.FeedbackDigest(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(digest))
}
