package session

import (
	"fmt"
	"time"
)

// StartPoll makes the poll at index active. A ledger is created only if the
// poll has none, so restarting a poll keeps its votes.
func (s *Session) StartPoll(index int, now time.Time) error {
	if index < 0 || index >= len(s.Polls) {
		return fmt.Errorf("%w: index %d out of range", ErrPollNotFound, index)
	}
	s.CurrentPollIndex = index
	p := &s.Polls[index]
	p.Start(now)
	s.Votes.Ensure(p.ID)
	s.Status = StatusPresenting
	return nil
}

// Pause records where the presentation stopped.
func (s *Session) Pause() {
	s.Status = StatusPaused
	s.PausedAtPollIndex = s.CurrentPollIndex
}

// Resume continues a paused session. A restart discards every ledger and
// returns to draft. Otherwise ledgers from the interrupted poll onward are
// dropped so that poll is voted again, and earlier results are kept.
func (s *Session) Resume(restart bool) {
	if restart {
		s.Votes.Clear()
		s.CurrentPollIndex = NotStarted
		s.PausedAtPollIndex = NotStarted
		s.Status = StatusDraft
		return
	}
	from := max(s.PausedAtPollIndex, 0)
	for i := from; i < len(s.Polls); i++ {
		s.Votes.Drop(s.Polls[i].ID)
	}
	s.Status = StatusPresenting
}

// Advance leaves the current poll and starts the next one. It reports true
// when the session ran out of polls and completed instead.
func (s *Session) Advance(now time.Time) (bool, error) {
	if left := s.CurrentPoll(); left != nil {
		delete(s.ExposeVotes, left.ID)
	}
	s.TimerPaused = false
	s.PausedTimeLeft = 0
	s.CountdownStarted = false
	s.CountdownStartTime = nil
	s.SkipRequested = false

	next := s.CurrentPollIndex + 1
	if next >= len(s.Polls) {
		s.Status = StatusCompleted
		s.CurrentPollIndex = NotStarted
		return true, nil
	}
	return false, s.StartPoll(next, now)
}

// Complete ends the session unconditionally.
func (s *Session) Complete() {
	s.Status = StatusCompleted
}

// ClearVotes drops every ledger and expose request without moving the
// presentation.
func (s *Session) ClearVotes() {
	s.Votes.Clear()
	for id := range s.ExposeVotes {
		delete(s.ExposeVotes, id)
	}
	s.CountdownStarted = false
}

// RequestSkip flags that a voter asked the host to move on.
func (s *Session) RequestSkip() {
	s.SkipRequested = true
}

// PauseTimer freezes the current poll's remaining time.
func (s *Session) PauseTimer(now time.Time) error {
	p := s.CurrentPoll()
	if p == nil {
		return fmt.Errorf("%w: no poll is active", ErrInvalidInput)
	}
	if s.TimerPaused {
		return nil
	}
	left, _ := p.TimeLeft(now, s.window())
	s.TimerPaused = true
	s.PausedTimeLeft = left
	return nil
}

// ResumeTimer restarts the clock with the time that was left at pause.
func (s *Session) ResumeTimer(now time.Time) error {
	p := s.CurrentPoll()
	if p == nil {
		return fmt.Errorf("%w: no poll is active", ErrInvalidInput)
	}
	if !s.TimerPaused {
		return nil
	}
	elapsed := time.Duration(p.Timer-s.PausedTimeLeft) * time.Second
	p.Start(now.Add(-elapsed))
	s.TimerPaused = false
	s.PausedTimeLeft = 0
	return nil
}

// SettingsUpdate carries optional host settings.
type SettingsUpdate struct {
	ExpectedAttendance *int  `json:"expectedAttendance,omitempty"`
	AutoAdvanceOn      *bool `json:"autoAdvanceOn,omitempty"`
}

// ApplySettings updates host-configured values.
func (s *Session) ApplySettings(u SettingsUpdate) error {
	if u.ExpectedAttendance != nil {
		if *u.ExpectedAttendance < 1 {
			return fmt.Errorf("%w: expected attendance must be positive", ErrInvalidInput)
		}
		s.ExpectedAttendance = *u.ExpectedAttendance
	}
	if u.AutoAdvanceOn != nil {
		s.AutoAdvanceOn = *u.AutoAdvanceOn
	}
	return nil
}
