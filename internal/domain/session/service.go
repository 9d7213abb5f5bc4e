package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/rpggio/rateroom/internal/domain/ledger"
	"github.com/rpggio/rateroom/internal/domain/poll"
	"github.com/rpggio/rateroom/internal/repository"
)

const maxWriteAttempts = 5

// Settings holds host-level configuration for the state machine.
type Settings struct {
	// AuthorizedActors may advance the presentation without the host token.
	AuthorizedActors []string
	// LiveTTL is how long an idle live session is kept. Zero keeps it forever.
	LiveTTL time.Duration
	// DefaultExpectedAttendance seeds new sessions.
	DefaultExpectedAttendance int
	// DefaultTimer is the voting window for polls created without one.
	// Zero falls back to poll.DefaultTimer.
	DefaultTimer int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the id source used for sessions, polls, voters
// and chat messages.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// Service runs session operations as read-modify-write transactions.
type Service struct {
	sessions SessionRepository
	activity ActivityLogger
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService creates a new session service.
func NewService(
	sessions SessionRepository,
	activityLog ActivityLogger,
	settings Settings,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		sessions: sessions,
		activity: activityLog,
		settings: settings,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new draft session. Sessions that are not live are kept in
// the saved-sessions index and do not expire.
func (s *Service) Create(ctx context.Context, name string, isLive bool) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	now := s.now()
	sess := New(s.newID(), name, isLive, now)
	sess.ExpectedAttendance = s.settings.DefaultExpectedAttendance
	s.refreshExpiry(sess, now)

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.record(ctx, sess.ID, nil, activity.TypeSessionCreated, fmt.Sprintf("created session %q", name), nil)
	return sess, nil
}

// Get returns a session document.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.load(ctx, id)
}

// ListSaved returns sessions in the saved index.
func (s *Service) ListSaved(ctx context.Context) ([]SessionInfo, error) {
	infos, err := s.sessions.ListSaved(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return infos, nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("deleting session: %w", err)
	}
	s.record(ctx, id, nil, activity.TypeSessionDeleted, "deleted session", nil)
	return nil
}

// PurgeExpired removes live sessions whose TTL has passed.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.sessions.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	if n > 0 && s.logger != nil {
		s.logger.Info("purged expired sessions", "count", n)
	}
	return n, nil
}

// StartPoll makes the poll at index active.
func (s *Service) StartPoll(ctx context.Context, id string, index int) (*Session, error) {
	sess, err := s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		return sess.StartPoll(index, now)
	})
	if err != nil {
		return nil, err
	}
	s.recordPollStarted(ctx, sess)
	return sess, nil
}

// Pause stops the presentation at the current poll.
func (s *Service) Pause(ctx context.Context, id string) (*Session, error) {
	sess, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		sess.Pause()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, nil, activity.TypeSessionPaused, fmt.Sprintf("paused at poll index %d", sess.PausedAtPollIndex), nil)
	return sess, nil
}

// Resume continues or restarts a paused session.
func (s *Service) Resume(ctx context.Context, id string, restart bool) (*Session, error) {
	sess, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		sess.Resume(restart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	summary := "resumed session"
	if restart {
		summary = "restarted session"
	}
	s.record(ctx, id, nil, activity.TypeSessionResumed, summary, map[string]bool{"restart": restart})
	return sess, nil
}

// Advance moves to the next poll, completing the session after the last one.
// An empty requester is the host, whose token the caller has checked; any
// other requester must be on the authorized actor list.
func (s *Service) Advance(ctx context.Context, id, requester string) (*Session, error) {
	if err := s.authorizeActor(requester); err != nil {
		return nil, err
	}

	var left *poll.Poll
	var leftResult ledger.Result
	var completed bool
	sess, err := s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		left = nil
		if cur := sess.CurrentPoll(); cur != nil {
			copied := *cur
			left = &copied
			leftResult = ledger.Results(cur, sess.Votes[cur.ID], sess.Voters)
		}
		var err error
		completed, err = sess.Advance(now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if left != nil {
		s.record(ctx, id, &left.ID, activity.TypePollFinalized, fmt.Sprintf("finalized poll by %s", left.Creator), PollDigest{Poll: *left, Results: leftResult})
	}
	if completed {
		s.record(ctx, id, nil, activity.TypeSessionCompleted, "completed session", nil)
	} else {
		s.recordPollStarted(ctx, sess)
	}
	return sess, nil
}

// RequestSkip flags a voter's request to move on.
func (s *Service) RequestSkip(ctx context.Context, id, voterID string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		if err := sess.checkVoter(voterID); err != nil {
			return err
		}
		sess.RequestSkip()
		return nil
	})
}

// Complete ends the session.
func (s *Service) Complete(ctx context.Context, id string) (*Session, error) {
	sess, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		sess.Complete()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, nil, activity.TypeSessionCompleted, "completed session", nil)
	return sess, nil
}

// ClearVotes drops all ledgers and reveal requests.
func (s *Service) ClearVotes(ctx context.Context, id string) (*Session, error) {
	sess, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		sess.ClearVotes()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, nil, activity.TypeVotesCleared, "cleared votes", nil)
	return sess, nil
}

// UpdateSettings changes expected attendance or auto-advance mode.
func (s *Service) UpdateSettings(ctx context.Context, id string, u SettingsUpdate) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		return sess.ApplySettings(u)
	})
}

// PauseTimer freezes the current poll's timer.
func (s *Service) PauseTimer(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		return sess.PauseTimer(now)
	})
}

// ResumeTimer restarts the current poll's timer.
func (s *Service) ResumeTimer(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		return sess.ResumeTimer(now)
	})
}

// AddPoll appends a poll built from input.
func (s *Service) AddPoll(ctx context.Context, id string, in poll.Input) (*poll.Poll, error) {
	if in.Timer == nil && s.settings.DefaultTimer > 0 {
		timer := s.settings.DefaultTimer
		in.Timer = &timer
	}
	var added poll.Poll
	_, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		p, err := poll.New(s.newID(), in)
		if err != nil {
			return err
		}
		sess.AddPoll(p)
		added = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// IngestPoll creates a poll from an automation payload of raw links.
func (s *Service) IngestPoll(ctx context.Context, req poll.IngestRequest) (*poll.Poll, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if req.Timer == nil && s.settings.DefaultTimer > 0 {
		timer := s.settings.DefaultTimer
		req.Timer = &timer
	}
	var added poll.Poll
	_, err := s.mutate(ctx, req.SessionID, func(sess *Session, _ time.Time) error {
		p, err := poll.FromIngest(s.newID(), req)
		if err != nil {
			return err
		}
		sess.AddPoll(p)
		added = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("ingested poll", "session_id", req.SessionID, "poll_id", added.ID, "media_items", len(added.MediaItems))
	}
	return &added, nil
}

// UpdatePoll edits a poll's content.
func (s *Service) UpdatePoll(ctx context.Context, id, pollID string, in poll.Input) (*poll.Poll, error) {
	var updated poll.Poll
	_, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		p, err := sess.UpdatePoll(pollID, in)
		if err != nil {
			return err
		}
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePoll removes a poll.
func (s *Service) DeletePoll(ctx context.Context, id, pollID string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		return sess.DeletePoll(pollID)
	})
}

// DuplicatePoll copies a poll right after the original.
func (s *Service) DuplicatePoll(ctx context.Context, id, pollID string) (*poll.Poll, error) {
	var dup poll.Poll
	_, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		p, err := sess.DuplicatePoll(pollID, s.newID())
		if err != nil {
			return err
		}
		dup = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dup, nil
}

// ReorderPolls sets the presentation order.
func (s *Service) ReorderPolls(ctx context.Context, id string, pollIDs []string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		return sess.ReorderPolls(pollIDs)
	})
}

// RegisterVoter verifies a display name and returns its voter id.
func (s *Service) RegisterVoter(ctx context.Context, id, name string) (string, error) {
	var voterID string
	_, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		var err error
		voterID, err = sess.RegisterVoter(name, s.newID)
		return err
	})
	if err != nil {
		return "", err
	}
	return voterID, nil
}

// CastVote records a rating. Re-sending the same vote is safe.
func (s *Service) CastVote(ctx context.Context, id, pollID, voterID string, rating float64) (ledger.Result, error) {
	var result ledger.Result
	_, err := s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		if err := sess.CastVote(pollID, voterID, rating, now); err != nil {
			return err
		}
		var err error
		result, err = sess.Results(pollID)
		return err
	})
	if err != nil {
		return ledger.Result{}, err
	}
	return result, nil
}

// Results aggregates one poll.
func (s *Service) Results(ctx context.Context, id, pollID string) (ledger.Result, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return ledger.Result{}, err
	}
	return sess.Results(pollID)
}

// Top10 ranks the session's polls and creators.
func (s *Service) Top10(ctx context.Context, id string) (ledger.Leaderboard, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return ledger.Leaderboard{}, err
	}
	return sess.Leaderboard(), nil
}

// MarkReady adds a name to the waiting room.
func (s *Service) MarkReady(ctx context.Context, id, name string) (ReadyStatus, error) {
	var status ReadyStatus
	_, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		var err error
		status, err = sess.MarkReady(name, s.newID)
		return err
	})
	if err != nil {
		return ReadyStatus{}, err
	}
	return status, nil
}

// ReadyStatus reports the waiting room.
func (s *Service) ReadyStatus(ctx context.Context, id string) (ReadyStatus, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return ReadyStatus{}, err
	}
	return sess.ReadyStatus(), nil
}

// StartCountdown begins the countdown to start or reveal.
func (s *Service) StartCountdown(ctx context.Context, id string) (ReadyStatus, error) {
	var started bool
	sess, err := s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		started = sess.StartCountdown(now)
		return nil
	})
	if err != nil {
		return ReadyStatus{}, err
	}
	if started {
		s.record(ctx, id, nil, activity.TypeCountdownStarted, "started countdown", nil)
	}
	return sess.ReadyStatus(), nil
}

// ClearReady resets the waiting room.
func (s *Service) ClearReady(ctx context.Context, id string) (ReadyStatus, error) {
	sess, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		sess.ClearReady()
		return nil
	})
	if err != nil {
		return ReadyStatus{}, err
	}
	return sess.ReadyStatus(), nil
}

// VoteExpose records a reveal request and returns the updated status.
func (s *Service) VoteExpose(ctx context.Context, id, pollID, voterID string) (ExposeStatus, error) {
	var status ExposeStatus
	_, err := s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		if err := sess.VoteExpose(pollID, voterID); err != nil {
			return err
		}
		var err error
		status, err = sess.ExposeStatus(pollID, voterID)
		return err
	})
	if err != nil {
		return ExposeStatus{}, err
	}
	return status, nil
}

// ExposeStatus reports the reveal vote for a poll.
func (s *Service) ExposeStatus(ctx context.Context, id, pollID, voterID string) (ExposeStatus, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return ExposeStatus{}, err
	}
	return sess.ExposeStatus(pollID, voterID)
}

// PostChat adds a chat message.
func (s *Service) PostChat(ctx context.Context, id, voterID, name, text string) (ChatMessage, error) {
	var msg ChatMessage
	_, err := s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		var err error
		msg, err = sess.PostChat(s.newID(), voterID, name, text, now)
		return err
	})
	if err != nil {
		return ChatMessage{}, err
	}
	return msg, nil
}

// SubmitFeedback stores feedback and emits it for ticketing.
func (s *Service) SubmitFeedback(ctx context.Context, id, name, text string) (FeedbackEntry, error) {
	var entry FeedbackEntry
	_, err := s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		var err error
		entry, err = sess.AddFeedback(name, text, now)
		return err
	})
	if err != nil {
		return FeedbackEntry{}, err
	}
	s.record(ctx, id, nil, activity.TypeFeedbackSubmitted, fmt.Sprintf("feedback from %s", entry.Name), entry)
	return entry, nil
}

// FeedbackDigest returns the session's feedback as plain text.
func (s *Service) FeedbackDigest(ctx context.Context, id string) (string, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	return sess.FeedbackDigest(), nil
}

// PollDigest is the payload emitted when a poll's content is final.
type PollDigest struct {
	Poll    poll.Poll     `json:"poll"`
	Results ledger.Result `json:"results"`
}

func (s *Service) authorizeActor(requester string) error {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return nil
	}
	for _, actor := range s.settings.AuthorizedActors {
		if strings.EqualFold(strings.TrimSpace(actor), requester) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not advance", ErrForbidden, requester)
}

func (s *Service) load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	sess.Normalize()
	return sess, nil
}

// mutate applies fn to a fresh copy of the session and writes it back with a
// version check, retrying when another writer got there first. fn may run
// more than once and must not have side effects outside the session.
func (s *Service) mutate(ctx context.Context, id string, fn func(sess *Session, now time.Time) error) (*Session, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		sess, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		now := s.now()
		if err := fn(sess, now); err != nil {
			return nil, err
		}

		expected := sess.Version
		sess.Version++
		sess.UpdatedAt = now
		s.refreshExpiry(sess, now)

		err = s.sessions.Update(ctx, sess, expected)
		if err == nil {
			return sess, nil
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("updating session: %w", err)
		}
		if s.logger != nil {
			s.logger.Debug("session write conflict", "session_id", id, "attempt", attempt)
		}
	}
	return nil, ErrConflict
}

func (s *Service) refreshExpiry(sess *Session, now time.Time) {
	if !sess.IsLive || s.settings.LiveTTL <= 0 {
		sess.ExpiresAt = nil
		return
	}
	expires := now.Add(s.settings.LiveTTL)
	sess.ExpiresAt = &expires
}

func (s *Service) recordPollStarted(ctx context.Context, sess *Session) {
	p := sess.CurrentPoll()
	if p == nil {
		return
	}
	s.record(ctx, sess.ID, &p.ID, activity.TypePollStarted, fmt.Sprintf("started poll %d by %s", sess.CurrentPollIndex+1, p.Creator), nil)
}

// record logs a session event. Failures are logged and otherwise ignored.
func (s *Service) record(ctx context.Context, sessionID string, pollID *string, kind activity.ActivityType, summary string, details any) {
	if s.activity == nil {
		return
	}
	entry := &activity.ActivityEntry{
		SessionID:    sessionID,
		PollID:       pollID,
		ActivityType: kind,
		Summary:      summary,
		CreatedAt:    s.now(),
	}
	if details != nil {
		entry.Details = activity.Details(details)
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("activity log failed", "session_id", sessionID, "type", kind, "error", err)
	}
}
