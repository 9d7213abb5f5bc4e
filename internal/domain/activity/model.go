package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeSessionCreated    ActivityType = "session_created"
	TypeSessionDeleted    ActivityType = "session_deleted"
	TypePollStarted       ActivityType = "poll_started"
	TypePollFinalized     ActivityType = "poll_finalized"
	TypeSessionPaused     ActivityType = "session_paused"
	TypeSessionResumed    ActivityType = "session_resumed"
	TypeSessionCompleted  ActivityType = "session_completed"
	TypeVotesCleared      ActivityType = "votes_cleared"
	TypeCountdownStarted  ActivityType = "countdown_started"
	TypeFeedbackSubmitted ActivityType = "feedback_submitted"
)

// ActivityEntry represents an event in the activity log. Details holds a JSON
// payload for downstream collaborators such as notes sync or ticketing.
type ActivityEntry struct {
	ID           int64        `json:"id"`
	SessionID    string       `json:"session_id"`
	PollID       *string      `json:"poll_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
