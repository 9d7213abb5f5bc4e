package session

import (
	"time"

	"github.com/rpggio/rateroom/internal/domain/ledger"
	"github.com/rpggio/rateroom/internal/domain/poll"
)

// Status represents the presentation lifecycle of a session.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPresenting Status = "presenting"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

const (
	// NotStarted is the poll index of a session that is not presenting.
	NotStarted = -1
	// DefaultExpectedAttendance applies when the host has not set a headcount.
	DefaultExpectedAttendance = 10
	// MaxChatMessages bounds the chat history kept on the document.
	MaxChatMessages = 100
	// MaxFeedbackEntries bounds the feedback kept on the document.
	MaxFeedbackEntries = 100
	// MaxMessageLength bounds chat and feedback text, in runes.
	MaxMessageLength = 500
)

// ChatMessage is a single chat entry.
type ChatMessage struct {
	ID        string    `json:"id"`
	VoterID   string    `json:"voterId,omitempty"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackEntry is free-text feedback about the session.
type FeedbackEntry struct {
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the persisted document for one rating session. Every field is
// part of the wire contract read by dashboards and automation.
type Session struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	IsLive             bool                `json:"isLive"`
	Polls              []poll.Poll         `json:"polls"`
	CurrentPollIndex   int                 `json:"currentPollIndex"`
	Status             Status              `json:"status"`
	PausedAtPollIndex  int                 `json:"pausedAtPollIndex"`
	Votes              ledger.Votes        `json:"votes"`
	Voters             map[string]string   `json:"voters"`
	ReadyVoters        []string            `json:"readyVoters"`
	ExpectedAttendance int                 `json:"expectedAttendance"`
	CountdownStarted   bool                `json:"countdownStarted"`
	CountdownStartTime *time.Time          `json:"countdownStartTime"`
	AutoAdvanceOn      bool                `json:"autoAdvanceOn"`
	TimerPaused        bool                `json:"timerPaused"`
	PausedTimeLeft     int                 `json:"pausedTimeLeft"`
	ExposeVotes        map[string][]string `json:"exposeVotes"`
	SkipRequested      bool                `json:"skipRequested"`
	ChatMessages       []ChatMessage       `json:"chatMessages"`
	FeedbackCount      int                 `json:"feedbackCount"`
	Feedback           []FeedbackEntry     `json:"feedback"`
	Version            int64               `json:"version"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
	ExpiresAt          *time.Time          `json:"expiresAt,omitempty"`
}

// SessionInfo is a lightweight listing entry for the saved-sessions index.
type SessionInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	PollCount int       `json:"pollCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New returns an empty draft session.
func New(id, name string, isLive bool, now time.Time) *Session {
	s := &Session{
		ID:                id,
		Name:              name,
		IsLive:            isLive,
		CurrentPollIndex:  NotStarted,
		PausedAtPollIndex: NotStarted,
		Status:            StatusDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.Normalize()
	return s
}

// Normalize fills nil collections so a decoded document can be mutated.
func (s *Session) Normalize() {
	if s.Polls == nil {
		s.Polls = []poll.Poll{}
	}
	if s.Votes == nil {
		s.Votes = ledger.Votes{}
	}
	if s.Voters == nil {
		s.Voters = map[string]string{}
	}
	if s.ReadyVoters == nil {
		s.ReadyVoters = []string{}
	}
	if s.ExposeVotes == nil {
		s.ExposeVotes = map[string][]string{}
	}
	if s.ChatMessages == nil {
		s.ChatMessages = []ChatMessage{}
	}
	if s.Feedback == nil {
		s.Feedback = []FeedbackEntry{}
	}
	if s.Status == "" {
		s.Status = StatusDraft
	}
}

// Info summarizes the session for listings.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		PollCount: len(s.Polls),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Expected returns the headcount used for thresholds.
func (s *Session) Expected() int {
	if s.ExpectedAttendance <= 0 {
		return DefaultExpectedAttendance
	}
	return s.ExpectedAttendance
}

// CurrentPoll returns the active poll, if any.
func (s *Session) CurrentPoll() *poll.Poll {
	if s.CurrentPollIndex < 0 || s.CurrentPollIndex >= len(s.Polls) {
		return nil
	}
	return &s.Polls[s.CurrentPollIndex]
}

func (s *Session) pollIndex(pollID string) int {
	for i := range s.Polls {
		if s.Polls[i].ID == pollID {
			return i
		}
	}
	return -1
}

// Poll returns the poll with the given id.
func (s *Session) Poll(pollID string) (*poll.Poll, error) {
	i := s.pollIndex(pollID)
	if i < 0 {
		return nil, ErrPollNotFound
	}
	return &s.Polls[i], nil
}

func (s *Session) window() poll.Window {
	return poll.Window{
		AutoAdvanceOn:    s.AutoAdvanceOn,
		CountdownStarted: s.CountdownStarted,
		TimerPaused:      s.TimerPaused,
		PausedTimeLeft:   s.PausedTimeLeft,
	}
}
