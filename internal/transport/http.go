package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/rateroom/internal/domain/access"
	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/rpggio/rateroom/internal/domain/session"
)

// Services groups the domain services behind the HTTP API.
type Services struct {
	Sessions *session.Service
	Access   *access.Service
	Activity *activity.Service
}

// Server wires HTTP handlers.
type Server struct {
	services Services
	logger   *slog.Logger
}

// NewServer creates the API router. authMiddleware identifies host requests;
// nil leaves every route open.
func NewServer(services Services, authMiddleware func(http.Handler) http.Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	if authMiddleware == nil {
		authMiddleware = AuthMiddleware(nil)
	}

	srv := &Server{services: services, logger: logger}

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(VoterMiddleware)

		r.Post("/login", srv.handleLogin)
		r.With(RequireHost).Post("/logout", srv.handleLogout)
		r.With(RequireHost).Post("/automation/polls", srv.handleIngestPoll)

		r.Route("/sessions", func(r chi.Router) {
			r.With(RequireHost).Post("/", srv.handleCreateSession)
			r.With(RequireHost).Get("/", srv.handleListSessions)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", srv.handleGetSession)

				// voter routes
				r.Post("/voters", srv.handleRegisterVoter)
				r.Post("/votes", srv.handleCastVote)
				r.Post("/skip", srv.handleRequestSkip)
				r.Post("/advance", srv.handleAdvance)
				r.Get("/polls/{pollID}/results", srv.handleResults)
				r.Get("/top10", srv.handleTop10)
				r.Post("/ready", srv.handleMarkReady)
				r.Get("/ready", srv.handleReadyStatus)
				r.Post("/polls/{pollID}/expose", srv.handleVoteExpose)
				r.Get("/polls/{pollID}/expose", srv.handleExposeStatus)
				r.Post("/chat", srv.handlePostChat)
				r.Post("/feedback", srv.handleSubmitFeedback)

				r.Group(func(r chi.Router) {
					r.Use(RequireHost)

					r.Delete("/", srv.handleDeleteSession)
					r.Post("/polls", srv.handleAddPoll)
					r.Put("/polls/order", srv.handleReorderPolls)
					r.Put("/polls/{pollID}", srv.handleUpdatePoll)
					r.Delete("/polls/{pollID}", srv.handleDeletePoll)
					r.Post("/polls/{pollID}/duplicate", srv.handleDuplicatePoll)

					r.Post("/start", srv.handleStartPoll)
					r.Post("/pause", srv.handlePause)
					r.Post("/resume", srv.handleResume)
					r.Post("/complete", srv.handleComplete)
					r.Post("/clear-votes", srv.handleClearVotes)
					r.Post("/settings", srv.handleSettings)
					r.Post("/timer/pause", srv.handlePauseTimer)
					r.Post("/timer/resume", srv.handleResumeTimer)
					r.Post("/countdown", srv.handleStartCountdown)
					r.Delete("/ready", srv.handleClearReady)
					r.Get("/feedback", srv.handleFeedbackDigest)
					r.Get("/activity", srv.handleActivity)
				})
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	grant, err := s.services.Access.Login(r.Context(), req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, grant)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := BearerToken(r); token != "" && s.services.Access != nil {
		if err := s.services.Access.Revoke(r.Context(), token); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
