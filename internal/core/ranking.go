package core

// Ranking spacing constants. Ranks are sparse integers: lower sorts earlier,
// gaps of rankSpacing are expected, and an empty column starts at rankSeed.
const (
	rankSpacing = 100
	rankSeed    = 1000
)

// RankingLedger produces sparse ordering keys for kanban columns.
//
// Repeated midpoint insertion between two adjacent ranks collapses (floor
// division yields a duplicate rank). That is an accepted limitation, not an
// error: the kanban caller periodically reflows full columns to restore
// spacing.
type RankingLedger interface {
	InsertBetween(after, before *int) int
	Reflow(orderedIDs []int64) map[int64]int
}

type rankingLedger struct{}

// NewRankingLedger creates the ledger. It is stateless; ranks live on tasks.
func NewRankingLedger() RankingLedger {
	return rankingLedger{}
}

// InsertBetween returns the rank for a task dropped between two neighbors.
// Either neighbor may be nil (insertion at an edge); with no neighbors the
// column seed is used. A negative result clamps to 0.
func (rankingLedger) InsertBetween(after, before *int) int {
	switch {
	case after != nil && before != nil:
		// Floor division, also for negative sums.
		sum := *after + *before
		r := sum / 2
		if sum < 0 && sum%2 != 0 {
			r--
		}
		if r < 0 {
			return 0
		}
		return r
	case after != nil:
		return *after + rankSpacing
	case before != nil:
		r := *before - rankSpacing
		if r < 0 {
			return 0
		}
		return r
	default:
		return rankSeed
	}
}

// Reflow assigns (index+1)*spacing to each ID in the given order, normalizing
// a column after repeated fractional insertion.
func (rankingLedger) Reflow(orderedIDs []int64) map[int64]int {
	ranks := make(map[int64]int, len(orderedIDs))
	for i, id := range orderedIDs {
		ranks[id] = (i + 1) * rankSpacing
	}
	return ranks
}
