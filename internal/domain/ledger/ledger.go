// Package ledger records per-poll ratings and aggregates them into results.
package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/rpggio/rateroom/internal/domain/poll"
)

// ErrPollNotActive indicates a vote for a poll that was never started.
var ErrPollNotActive = errors.New("poll not active")

// Ledger maps voter id to rating for a single poll.
type Ledger map[string]int

// Votes maps poll id to that poll's ledger.
type Votes map[string]Ledger

// Ensure returns the ledger for pollID, creating an empty one only when none
// exists. Existing ratings are kept, which is what makes resuming a poll
// non-destructive.
func (v Votes) Ensure(pollID string) Ledger {
	if l, ok := v[pollID]; ok && l != nil {
		return l
	}
	l := Ledger{}
	v[pollID] = l
	return l
}

// Record upserts a rating. One rating is kept per voter.
func (v Votes) Record(pollID, voterID string, rating int) error {
	l, ok := v[pollID]
	if !ok || l == nil {
		return fmt.Errorf("%w: %s", ErrPollNotActive, pollID)
	}
	if rating < poll.MinRating || rating > poll.MaxRating {
		return fmt.Errorf("%w: got %d", poll.ErrInvalidRating, rating)
	}
	l[voterID] = rating
	return nil
}

// Drop removes the ledger for a poll.
func (v Votes) Drop(pollID string) {
	delete(v, pollID)
}

// Clear removes every ledger.
func (v Votes) Clear() {
	for id := range v {
		delete(v, id)
	}
}

// Count returns the number of voters who rated pollID.
func (v Votes) Count(pollID string) int {
	return len(v[pollID])
}

// Average returns the mean rating rounded to two decimals, or 0 when empty.
func (l Ledger) Average() float64 {
	if len(l) == 0 {
		return 0
	}
	sum := 0
	for _, rating := range l {
		sum += rating
	}
	return Round2(float64(sum) / float64(len(l)))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
