package poll

import "time"

// MediaType classifies a media item for presentation.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// DefaultTimer is the voting window in seconds when none is given.
const DefaultTimer = 60

// Ratings are whole numbers in [MinRating, MaxRating].
const (
	MinRating = 0
	MaxRating = 10
)

// MediaItem is a single piece of content shown during a poll.
type MediaItem struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
}

// LastVoter records who voted most recently on a poll.
type LastVoter struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// Poll is one content item presented to voters within a session.
type Poll struct {
	ID           string      `json:"id"`
	Creator      string      `json:"creator"`
	Company      string      `json:"company"`
	MediaItems   []MediaItem `json:"mediaItems"`
	Timer        int         `json:"timer"`
	StartTime    *time.Time  `json:"startTime"`
	ExposeThem   bool        `json:"exposeThem"`
	ExposeThemV2 bool        `json:"exposeThemV2"`
	LastVoter    *LastVoter  `json:"lastVoter"`
}

// Input carries the user-editable fields of a poll.
type Input struct {
	Creator      string      `json:"creator"`
	Company      string      `json:"company"`
	MediaItems   []MediaItem `json:"mediaItems"`
	Timer        *int        `json:"timer,omitempty"`
	ExposeThem   bool        `json:"exposeThem"`
	ExposeThemV2 bool        `json:"exposeThemV2"`
}

// IngestRequest is the payload an automation client submits to create a poll
// from raw links.
type IngestRequest struct {
	SessionID  string   `json:"sessionId"`
	Creator    string   `json:"creator"`
	Company    string   `json:"company"`
	Links      []string `json:"links"`
	Timer      *int     `json:"timer,omitempty"`
	ExposeThem bool     `json:"exposeThem"`
}
