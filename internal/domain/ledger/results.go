package ledger

import (
	"sort"

	"github.com/rpggio/rateroom/internal/domain/poll"
)

// VoteBreakdown is one voter's rating with their display name.
type VoteBreakdown struct {
	VoterID string `json:"voterId"`
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
}

// Result aggregates a poll's ledger.
type Result struct {
	PollID     string          `json:"pollId"`
	TotalVotes int             `json:"totalVotes"`
	Average    float64         `json:"average"`
	Breakdown  []VoteBreakdown `json:"perVoterBreakdown"`
	LastVoter  *poll.LastVoter `json:"lastVoter,omitempty"`
	NonVoters  []string        `json:"nonVoters,omitempty"`
}

// Results summarizes the ledger for p. voters maps voter id to display name.
// LastVoter is only surfaced under the v1 reveal policy and NonVoters only
// under v2.
func Results(p *poll.Poll, l Ledger, voters map[string]string) Result {
	breakdown := make([]VoteBreakdown, 0, len(l))
	for voterID, rating := range l {
		name, ok := voters[voterID]
		if !ok {
			name = "Unknown"
		}
		breakdown = append(breakdown, VoteBreakdown{VoterID: voterID, Name: name, Rating: rating})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Name != breakdown[j].Name {
			return breakdown[i].Name < breakdown[j].Name
		}
		return breakdown[i].VoterID < breakdown[j].VoterID
	})

	res := Result{
		PollID:     p.ID,
		TotalVotes: len(l),
		Average:    l.Average(),
		Breakdown:  breakdown,
	}
	if p.ExposeThem && p.LastVoter != nil {
		last := *p.LastVoter
		res.LastVoter = &last
	}
	if p.ExposeThemV2 {
		res.NonVoters = NonVoters(voters, l)
	}
	return res
}

// NonVoters returns the unique display names in voters that have no rating
// in l. Identity is the display name: two voter ids sharing a name count as
// one person, and that person has voted if either id has. The result is
// sorted.
func NonVoters(voters map[string]string, l Ledger) []string {
	voted := make(map[string]bool, len(l))
	for voterID := range l {
		if name, ok := voters[voterID]; ok {
			voted[name] = true
		}
	}

	seen := make(map[string]bool, len(voters))
	names := []string{}
	for _, name := range voters {
		if seen[name] || voted[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
