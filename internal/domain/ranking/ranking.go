// Package ranking computes per-player ranking values from aged results.
package ranking

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/emahq/mers/internal/domain/model"
)

// Ranking algorithm constants, fixed by federation rules.
const (
	// minEligible is the number of weighted results needed before a
	// player has a ranking at all.
	minEligible = 2

	// paddedLength is the minimum list length the averages run over;
	// shorter lists are padded with synthetic zero entries.
	paddedLength = 5

	// partBWindow is the fixed narrow window for Part B.
	partBWindow = 4

	// extraShare is the fraction of results beyond five that still
	// count toward Part A's window.
	extraShare = 0.8

	// syntheticWeight is the aged weight carried by padding entries.
	syntheticWeight = 1.0
)

// entry is one result flattened to the two numbers the algorithm needs.
type entry struct {
	baseRank float64
	weight   float64
}

// sortKey orders entries best-first: higher base rank wins, and among
// equal base ranks the heavier aged weight wins.
func (e entry) sortKey() float64 {
	return -e.baseRank - e.weight/1000
}

// RankPlayer computes the player's ranking value for one ruleset from the
// given results and stores it on the player. Results for other rulesets
// and results with zero aged weight are ignored. The returned pointer is
// nil when the player is not yet eligible.
func RankPlayer(p *model.Player, rs model.Ruleset, results []*model.Result) *float64 {
	v := Value(rs, results)
	p.Rating(rs).Rank = v
	return v
}

// Value is the pure form of RankPlayer: it computes the ranking value for
// one ruleset without touching any record.
func Value(rs model.Ruleset, results []*model.Result) *float64 {
	eligible := eligibleSet(rs, results)
	if eligible == nil {
		return nil
	}

	partA := weightedMean(eligible)
	partB := weightedMean(eligible[:partBWindow])

	final := round2(0.5*partA + 0.5*partB)
	return &final
}

// eligibleSet selects, sorts and pads the results that count toward the
// ranking. It returns nil when the player has fewer than two weighted
// results for the ruleset. Otherwise the returned list is at least five
// entries long and truncated to Part A's window.
func eligibleSet(rs model.Ruleset, results []*model.Result) []entry {
	var entries []entry
	for _, r := range results {
		if r.Ruleset != rs || r.AgedMERS <= 0 {
			continue
		}
		entries = append(entries, entry{baseRank: float64(r.BaseRank), weight: r.AgedMERS})
	}
	played := len(entries)
	if played < minEligible {
		return nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].sortKey() < entries[j].sortKey()
	})

	for len(entries) < paddedLength {
		entries = append(entries, entry{baseRank: 0, weight: syntheticWeight})
	}

	// Window widens by 80% of every result beyond the fifth.
	window := int(math.Ceil(paddedLength + extraShare*math.Max(float64(played-paddedLength), 0)))
	return entries[:window]
}

// weightedMean averages base ranks weighted by aged MERS. The entries
// always include at least the synthetic weight-1 padding, so the weight
// sum is never zero.
func weightedMean(entries []entry) float64 {
	ranks := make([]float64, len(entries))
	weights := make([]float64, len(entries))
	for i, e := range entries {
		ranks[i] = e.baseRank
		weights[i] = e.weight
	}
	return stat.Mean(ranks, weights)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AssignPositions orders all ranked, affiliated players descending by
// ranking value and writes 1-based ordinals for the ruleset. Unranked and
// unaffiliated players keep position 0. Ties keep the incoming order, so
// the result is deterministic for a stable input order. Returns the
// number of ranked players.
func AssignPositions(players []*model.Player, rs model.Ruleset) int {
	ranked := make([]*model.Player, 0, len(players))
	for _, p := range players {
		p.Rating(rs).Position = 0
		if p.Affiliated() && p.Rating(rs).Rank != nil {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Rating(rs).Rank > *ranked[j].Rating(rs).Rank
	})
	for i, p := range ranked {
		p.Rating(rs).Position = i + 1
	}
	return len(ranked)
}
