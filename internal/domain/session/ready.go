package session

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ReadyStatus describes the waiting room before a session starts.
type ReadyStatus struct {
	VoterID            string     `json:"voterId,omitempty"`
	ReadyCount         int        `json:"readyCount"`
	ExpectedAttendance int        `json:"expectedAttendance"`
	Threshold          int        `json:"threshold"`
	ThresholdReached   bool       `json:"thresholdReached"`
	SessionStatus      Status     `json:"sessionStatus"`
	CountdownStarted   bool       `json:"countdownStarted"`
	CountdownStartTime *time.Time `json:"countdownStartTime"`
	ReadyVoters        []string   `json:"readyVoters"`
}

// ReadyThreshold is 80% of expected attendance, rounded up.
func ReadyThreshold(expected int) int {
	return (expected*4 + 4) / 5
}

// MarkReady adds name to the waiting room and binds it to a voter id.
// Names are unique within a ready window.
func (s *Session) MarkReady(name string, newID func() string) (ReadyStatus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ReadyStatus{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if slices.Contains(s.ReadyVoters, name) {
		return ReadyStatus{}, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	voterID, err := s.RegisterVoter(name, newID)
	if err != nil {
		return ReadyStatus{}, err
	}
	s.ReadyVoters = append(s.ReadyVoters, name)

	status := s.ReadyStatus()
	status.VoterID = voterID
	return status, nil
}

// ReadyStatus reports waiting room counts without changing anything.
func (s *Session) ReadyStatus() ReadyStatus {
	expected := s.Expected()
	threshold := ReadyThreshold(expected)
	count := len(s.ReadyVoters)
	return ReadyStatus{
		ReadyCount:         count,
		ExpectedAttendance: expected,
		Threshold:          threshold,
		ThresholdReached:   count >= threshold,
		SessionStatus:      s.Status,
		CountdownStarted:   s.CountdownStarted,
		CountdownStartTime: s.CountdownStartTime,
		ReadyVoters:        slices.Clone(s.ReadyVoters),
	}
}

// StartCountdown starts the countdown. Repeat calls keep the first start time.
func (s *Session) StartCountdown(now time.Time) bool {
	if s.CountdownStarted && s.CountdownStartTime != nil {
		return false
	}
	started := now
	s.CountdownStarted = true
	s.CountdownStartTime = &started
	return true
}

// ClearReady empties the waiting room for a new gathering.
func (s *Session) ClearReady() {
	s.ReadyVoters = []string{}
	s.CountdownStarted = false
	s.CountdownStartTime = nil
}
