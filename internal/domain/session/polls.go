package session

import (
	"fmt"

	"github.com/rpggio/rateroom/internal/domain/poll"
)

// AddPoll appends a poll to the presentation order.
func (s *Session) AddPoll(p *poll.Poll) {
	s.Polls = append(s.Polls, *p)
}

// UpdatePoll edits a poll in place, keeping its id and last voter.
func (s *Session) UpdatePoll(pollID string, in poll.Input) (*poll.Poll, error) {
	p, err := s.Poll(pollID)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(in); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePoll removes a poll with its ledger and expose requests. The
// current index is reset when it no longer points inside the list; it is not
// otherwise shifted.
func (s *Session) DeletePoll(pollID string) error {
	i := s.pollIndex(pollID)
	if i < 0 {
		return ErrPollNotFound
	}
	s.Polls = append(s.Polls[:i], s.Polls[i+1:]...)
	s.Votes.Drop(pollID)
	delete(s.ExposeVotes, pollID)
	if s.CurrentPollIndex >= len(s.Polls) {
		s.CurrentPollIndex = NotStarted
	}
	return nil
}

// DuplicatePoll inserts a copy of a poll right after the original.
func (s *Session) DuplicatePoll(pollID, newID string) (*poll.Poll, error) {
	i := s.pollIndex(pollID)
	if i < 0 {
		return nil, ErrPollNotFound
	}
	dup := s.Polls[i].Duplicate(newID)
	s.Polls = append(s.Polls[:i+1], append([]poll.Poll{*dup}, s.Polls[i+1:]...)...)
	return &s.Polls[i+1], nil
}

// ReorderPolls rearranges polls to match ids, which must name every poll
// exactly once.
func (s *Session) ReorderPolls(ids []string) error {
	if len(ids) != len(s.Polls) {
		return fmt.Errorf("%w: order must list all %d polls", ErrInvalidInput, len(s.Polls))
	}
	byID := make(map[string]poll.Poll, len(s.Polls))
	for _, p := range s.Polls {
		byID[p.ID] = p
	}
	reordered := make([]poll.Poll, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrPollNotFound, id)
		}
		delete(byID, id)
		reordered = append(reordered, p)
	}
	s.Polls = reordered
	return nil
}
