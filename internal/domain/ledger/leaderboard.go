package ledger

import (
	"sort"

	"github.com/rpggio/rateroom/internal/domain/poll"
)

// TopN is the number of polls kept on the leaderboard.
const TopN = 10

// RankedPoll is a poll's standing on the leaderboard.
type RankedPoll struct {
	PollID     string  `json:"pollId"`
	Creator    string  `json:"creator"`
	Company    string  `json:"company"`
	Average    float64 `json:"average"`
	TotalVotes int     `json:"totalVotes"`
}

// Leaderboard holds the top polls and the best-scoring creators.
type Leaderboard struct {
	Top               []RankedPoll `json:"top10"`
	TopCreators       []string     `json:"topCreators"`
	TopCreatorAverage float64      `json:"topCreatorAverage"`
}

// Top10 ranks polls with at least one vote by average, highest first. Ties
// keep presentation order. Creators are scored by the unweighted mean of
// their polls' averages; every creator matching the best rounded mean is
// reported, in order of first appearance.
func Top10(polls []poll.Poll, votes Votes) Leaderboard {
	ranked := make([]RankedPoll, 0, len(polls))
	creatorSums := map[string]float64{}
	creatorCounts := map[string]int{}
	var creatorOrder []string

	for _, p := range polls {
		l := votes[p.ID]
		if len(l) == 0 {
			continue
		}
		avg := l.Average()
		ranked = append(ranked, RankedPoll{
			PollID:     p.ID,
			Creator:    p.Creator,
			Company:    p.Company,
			Average:    avg,
			TotalVotes: len(l),
		})
		if _, ok := creatorCounts[p.Creator]; !ok {
			creatorOrder = append(creatorOrder, p.Creator)
		}
		creatorSums[p.Creator] += avg
		creatorCounts[p.Creator]++
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Average > ranked[j].Average
	})
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}

	board := Leaderboard{Top: ranked, TopCreators: []string{}}
	best := -1.0
	for _, creator := range creatorOrder {
		mean := Round2(creatorSums[creator] / float64(creatorCounts[creator]))
		switch {
		case mean > best:
			best = mean
			board.TopCreators = []string{creator}
		case mean == best:
			board.TopCreators = append(board.TopCreators, creator)
		}
	}
	if best >= 0 {
		board.TopCreatorAverage = best
	}
	return board
}
