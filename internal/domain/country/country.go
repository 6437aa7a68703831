// Package country aggregates player rankings into per-country standings
// and an ordered country ranking.
package country

import (
	"math"
	"sort"

	"github.com/emahq/mers/internal/domain/model"
)

// StrongRank is the personal rank above which a player counts toward a
// country's "700+" statistics.
const StrongRank = 700.0

// top3Divisor is fixed: a country with fewer than three ranked players
// still has its top ranks divided by three.
const top3Divisor = 3

// Aggregate is one country's entry in the final ordering, the shape the
// quota engine consumes.
type Aggregate struct {
	Code        string
	Ranking     int
	PlayerCount int
	Over700     int
	AvgTop3     float64
	ShareRanked float64
	Share700    float64
}

// Totals are the federation-wide counts the per-country shares divide by.
type Totals struct {
	Players int
	Over700 int
}

// Rank recomputes every country's standing for the ruleset and returns
// the ordered country ranking. Standings are derived wholesale: every
// per-country field for the ruleset is overwritten. Countries with no
// ranked players keep their counts but stay out of the ordering. Players
// affiliated to the unknown-country sentinel are excluded throughout.
//
// Ties on the top-3 average are broken by country code ascending.
func Rank(rs model.Ruleset, players []*model.Player, countries []*model.Country) ([]Aggregate, Totals) {
	byCountry := make(map[string][]*model.Player)
	var totals Totals
	for _, p := range players {
		if !p.Affiliated() || p.Rating(rs).Rank == nil {
			continue
		}
		if p.CountryID == "" || p.CountryID == model.UnknownCountry {
			continue
		}
		totals.Players++
		if *p.Rating(rs).Rank > StrongRank {
			totals.Over700++
		}
		byCountry[p.CountryID] = append(byCountry[p.CountryID], p)
	}

	var ordered []Aggregate
	for _, c := range countries {
		if c.Code == model.UnknownCountry {
			continue
		}
		st := c.Standing(rs)
		locals := byCountry[c.Code]

		st.Ranking = nil
		st.PlayerCount = len(locals)
		st.Over700 = 0
		for _, p := range locals {
			if *p.Rating(rs).Rank > StrongRank {
				st.Over700++
			}
		}
		st.ShareRanked = share(st.PlayerCount, totals.Players)
		st.Share700 = share(st.Over700, totals.Over700)

		if len(locals) == 0 {
			st.AvgTop3 = nil
			continue
		}

		sort.SliceStable(locals, func(i, j int) bool {
			return *locals[i].Rating(rs).Rank > *locals[j].Rating(rs).Rank
		})
		sum := 0.0
		for i, p := range locals {
			if i == top3Divisor {
				break
			}
			sum += *p.Rating(rs).Rank
		}
		avg := round2(sum / top3Divisor)
		st.AvgTop3 = &avg

		ordered = append(ordered, Aggregate{
			Code:        c.Code,
			PlayerCount: st.PlayerCount,
			Over700:     st.Over700,
			AvgTop3:     avg,
			ShareRanked: st.ShareRanked,
			Share700:    st.Share700,
		})
	}

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].AvgTop3 != ordered[j].AvgTop3 {
			return ordered[i].AvgTop3 > ordered[j].AvgTop3
		}
		return ordered[i].Code < ordered[j].Code
	})
	for i := range ordered {
		ordered[i].Ranking = i + 1
		for _, c := range countries {
			if c.Code == ordered[i].Code {
				pos := i + 1
				c.Standing(rs).Ranking = &pos
				break
			}
		}
	}
	return ordered, totals
}

func share(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
