package poll

import (
	"fmt"
	"math"
	"time"
)

// Window carries the session-level flags that affect the voting window.
type Window struct {
	AutoAdvanceOn    bool
	CountdownStarted bool
	TimerPaused      bool
	PausedTimeLeft   int
}

// TimeLeft returns the seconds remaining in the voting window, never below
// zero. The second result is false when the poll has no timer or has not
// started, in which case the window is unbounded.
func (p *Poll) TimeLeft(now time.Time, w Window) (int, bool) {
	if p.Timer <= 0 || p.StartTime == nil {
		return 0, false
	}
	if w.TimerPaused {
		return max(0, w.PausedTimeLeft), true
	}
	elapsed := now.Sub(*p.StartTime).Seconds()
	left := int(math.Ceil(float64(p.Timer) - elapsed))
	return max(0, left), true
}

// CheckVotingOpen returns ErrVotingClosed once the timer has run out.
// In auto-advance mode the timer is ignored until the reveal countdown begins.
func (p *Poll) CheckVotingOpen(now time.Time, w Window) error {
	if w.AutoAdvanceOn && !w.CountdownStarted {
		return nil
	}
	left, timed := p.TimeLeft(now, w)
	if timed && left <= 0 {
		return fmt.Errorf("%w: poll %s timer expired", ErrVotingClosed, p.ID)
	}
	return nil
}

// ValidateRating converts a submitted rating to an int in [0, 10].
func ValidateRating(value float64) (int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value != math.Trunc(value) {
		return 0, ErrInvalidRating
	}
	if value < MinRating || value > MaxRating {
		return 0, ErrInvalidRating
	}
	return int(value), nil
}
