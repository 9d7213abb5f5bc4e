package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rpggio/rateroom/internal/domain/ledger"
)

// Exposure kinds.
const (
	ExposeLastVoter = "lastVoter"
	ExposeNonVoters = "nonVoters"
)

// Exposure is what the group agreed to reveal.
type Exposure struct {
	Type  string   `json:"type"`
	Name  string   `json:"name,omitempty"`
	Names []string `json:"names,omitempty"`
}

// ExposeStatus reports the reveal vote for one poll.
type ExposeStatus struct {
	PollID           string    `json:"pollId"`
	Votes            int       `json:"votes"`
	Threshold        int       `json:"threshold"`
	ThresholdReached bool      `json:"thresholdReached"`
	HasVoted         bool      `json:"hasVoted"`
	ShouldReveal     bool      `json:"shouldReveal"`
	Exposed          *Exposure `json:"exposed,omitempty"`
}

// ExposeThreshold is half of expected attendance, rounded up.
func ExposeThreshold(expected int) int {
	return (expected + 1) / 2
}

// VoteExpose records that a registered voter wants the reveal. Repeat
// requests are no-ops.
func (s *Session) VoteExpose(pollID, voterID string) error {
	if strings.TrimSpace(voterID) == "" {
		return fmt.Errorf("%w: voter id is required", ErrInvalidInput)
	}
	if _, err := s.Poll(pollID); err != nil {
		return err
	}
	if err := s.checkVoter(voterID); err != nil {
		return err
	}
	if !slices.Contains(s.ExposeVotes[pollID], voterID) {
		s.ExposeVotes[pollID] = append(s.ExposeVotes[pollID], voterID)
	}
	return nil
}

// ExposeStatus evaluates the reveal vote. In auto-advance mode nothing is
// revealed before the advance countdown starts, so voters cannot learn who is
// missing while the timer can still be gamed.
func (s *Session) ExposeStatus(pollID, voterID string) (ExposeStatus, error) {
	p, err := s.Poll(pollID)
	if err != nil {
		return ExposeStatus{}, err
	}
	expected := s.Expected()
	requests := s.ExposeVotes[pollID]
	threshold := ExposeThreshold(expected)

	status := ExposeStatus{
		PollID:           pollID,
		Votes:            len(requests),
		Threshold:        threshold,
		ThresholdReached: len(requests) >= threshold,
		HasVoted:         voterID != "" && slices.Contains(requests, voterID),
	}
	status.ShouldReveal = status.ThresholdReached && (!s.AutoAdvanceOn || s.CountdownStarted)
	if !status.ShouldReveal {
		return status, nil
	}

	l := s.Votes[pollID]
	if len(l) >= expected {
		name := ""
		if p.LastVoter != nil {
			name = p.LastVoter.Name
		}
		status.Exposed = &Exposure{Type: ExposeLastVoter, Name: name}
	} else {
		status.Exposed = &Exposure{Type: ExposeNonVoters, Names: ledger.NonVoters(s.Voters, l)}
	}
	return status, nil
}
