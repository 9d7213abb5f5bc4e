package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rpggio/rateroom/internal/domain/ledger"
	"github.com/rpggio/rateroom/internal/domain/poll"
)

// RegisterVoter returns the voter id bound to name, minting one with newID
// when the exact name is not registered yet.
func (s *Session) RegisterVoter(name string, newID func() string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if id, ok := s.voterIDByName(name); ok {
		return id, nil
	}
	id := newID()
	s.Voters[id] = name
	return id, nil
}

func (s *Session) voterIDByName(name string) (string, bool) {
	var ids []string
	for id, n := range s.Voters {
		if n == name {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return ids[0], true
}

// checkVoter requires voterID to be registered in the session.
func (s *Session) checkVoter(voterID string) error {
	if strings.TrimSpace(voterID) == "" {
		return fmt.Errorf("%w: voter id is required", ErrInvalidInput)
	}
	if _, ok := s.Voters[voterID]; !ok {
		return fmt.Errorf("%w: unknown voter %s", ErrInvalidInput, voterID)
	}
	return nil
}

// CastVote validates and records a rating, then stamps the poll's last voter.
func (s *Session) CastVote(pollID, voterID string, rating float64, now time.Time) error {
	if strings.TrimSpace(voterID) == "" {
		return fmt.Errorf("%w: voter id is required", ErrInvalidInput)
	}
	p, err := s.Poll(pollID)
	if err != nil {
		return err
	}
	if err := s.checkVoter(voterID); err != nil {
		return err
	}
	value, err := poll.ValidateRating(rating)
	if err != nil {
		return err
	}
	if err := p.CheckVotingOpen(now, s.window()); err != nil {
		return err
	}
	if err := s.Votes.Record(pollID, voterID, value); err != nil {
		return err
	}
	p.RecordVoter(s.Voters[voterID], now)
	return nil
}

// Results aggregates the ledger of one poll.
func (s *Session) Results(pollID string) (ledger.Result, error) {
	p, err := s.Poll(pollID)
	if err != nil {
		return ledger.Result{}, err
	}
	return ledger.Results(p, s.Votes[pollID], s.Voters), nil
}

// Leaderboard ranks the session's polls.
func (s *Session) Leaderboard() ledger.Leaderboard {
	return ledger.Top10(s.Polls, s.Votes)
}
