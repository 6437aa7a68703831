// Package quota distributes event seats across ranked countries under
// caps and blended fairness criteria.
package quota

import (
	"context"
	"fmt"

	"github.com/emahq/mers/internal/domain/country"
	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/pkg/logger"
)

// topSeats is how many of the highest-ranked countries receive the
// top-of-table bonus seat.
const topSeats = 3

// Seat is one country's final allocation.
type Seat struct {
	Code    string
	Ranking int
	Quota   int

	// Cap is the most seats the country may hold: its count of players
	// ranked above the global average, floored at one.
	Cap int

	// B2 is the country's share of all 700+ players, B3 the blend of
	// B2 with its share of all ranked players.
	B2 float64
	B3 float64
}

// Allocation is the outcome of one quota run. Conservation always holds:
// the quotas and the unallocated remainder sum to the requested total.
type Allocation struct {
	Ruleset   model.Ruleset
	Total     int
	Entries   []Seat
	Remaining int
}

// Allocated returns the number of seats placed.
func (a Allocation) Allocated() int {
	return a.Total - a.Remaining
}

// Engine allocates seats for one ruleset against a country ranking.
type Engine struct {
	log logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the logger used for allocation diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates a quota engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allocate distributes total seats across the ranked countries. The
// ordering and fairness inputs come from the country aggregates; caps
// derive from the players' personal ranks against the global average.
// The country ordering and cap vector are fixed once at the start.
//
// Phases, in order: one baseline seat per country; a bonus seat for the
// top three; a bonus seat for every country with a 700+ player; greedy
// proportional redistribution toward each country's B3 share; cap
// enforcement returning clipped seats to the pool; round-robin passes in
// ranking order until the pool is empty or every country is at cap. An
// unplaceable remainder is reported, never dropped.
func (e *Engine) Allocate(ctx context.Context, total int, rs model.Ruleset, ordered []country.Aggregate, players []*model.Player) (Allocation, error) {
	if total < 0 {
		return Allocation{}, fmt.Errorf("%w: %d", ErrNegativeSeats, total)
	}
	if !rs.Valid() {
		return Allocation{}, fmt.Errorf("%w: %q", model.ErrUnknownRuleset, rs)
	}

	alloc := Allocation{Ruleset: rs, Total: total, Remaining: total}
	if len(ordered) == 0 {
		e.log.Error(ctx, "no ranked countries; nothing to allocate",
			logger.Int("seats", total))
		return alloc, nil
	}

	alloc.Entries = e.buildSeats(rs, ordered, players)

	// Baseline: one seat per country, capped.
	for i := range alloc.Entries {
		e.award(&alloc, i, 1, true)
	}

	// Bonus seat for the three strongest countries.
	for i := 0; i < topSeats && i < len(alloc.Entries); i++ {
		e.award(&alloc, i, 1, true)
	}

	// Bonus seat for every country fielding a 700+ player.
	for i := range alloc.Entries {
		if alloc.Entries[i].B2 > 0 {
			e.award(&alloc, i, 1, true)
		}
	}

	e.redistributeProportional(ctx, &alloc)
	e.enforceCaps(&alloc)
	e.redistributeLeftover(ctx, &alloc)

	e.report(ctx, alloc)
	return alloc, nil
}

// buildSeats fixes the working list: ordering, caps and fairness inputs.
func (e *Engine) buildSeats(rs model.Ruleset, ordered []country.Aggregate, players []*model.Player) []Seat {
	eligible := make([]*model.Player, 0, len(players))
	sum := 0.0
	for _, p := range players {
		r := p.Rating(rs).Rank
		if !p.Affiliated() || r == nil || p.CountryID == "" || p.CountryID == model.UnknownCountry {
			continue
		}
		eligible = append(eligible, p)
		sum += *r
	}
	average := 0.0
	if len(eligible) > 0 {
		average = sum / float64(len(eligible))
	}

	aboveAverage := make(map[string]int)
	for _, p := range eligible {
		if *p.Rating(rs).Rank > average {
			aboveAverage[p.CountryID]++
		}
	}

	seats := make([]Seat, len(ordered))
	for i, agg := range ordered {
		limit := aboveAverage[agg.Code]
		if limit < 1 {
			limit = 1
		}
		seats[i] = Seat{
			Code:    agg.Code,
			Ranking: agg.Ranking,
			Cap:     limit,
			B2:      agg.Share700,
			B3:      (agg.ShareRanked + agg.Share700) / 2,
		}
	}
	return seats
}

// award gives a country up to n seats, bounded by the remaining pool
// and, when capped is set, by the country's cap.
func (e *Engine) award(alloc *Allocation, idx, n int, capped bool) int {
	s := &alloc.Entries[idx]
	if n > alloc.Remaining {
		n = alloc.Remaining
	}
	if capped && n > s.Cap-s.Quota {
		n = s.Cap - s.Quota
	}
	if n <= 0 {
		return 0
	}
	s.Quota += n
	alloc.Remaining -= n
	return n
}

// redistributeProportional walks the remaining pool one seat at a time
// toward each country's cumulative B3 share: at step k the country with
// the largest discrepancy k*B3 - seatsGiven takes the next seat. Caps
// are deliberately ignored here; the enforcement phase claws back any
// excess. Equal discrepancies are a defect in the inputs: they are
// logged, and the country ranked higher wins.
func (e *Engine) redistributeProportional(ctx context.Context, alloc *Allocation) {
	given := make([]int, len(alloc.Entries))
	for k := 1; alloc.Remaining > 0; k++ {
		best := -1
		bestDisc := 0.0
		tied := false
		for i := range alloc.Entries {
			disc := float64(k)*alloc.Entries[i].B3 - float64(given[i])
			switch {
			case best < 0 || disc > bestDisc:
				best, bestDisc, tied = i, disc, false
			case disc == bestDisc:
				tied = true
			}
		}
		if tied {
			e.log.Warn(ctx, "discrepancy tie during proportional redistribution",
				logger.String("country", alloc.Entries[best].Code),
				logger.Int("step", k))
		}
		if e.award(alloc, best, 1, false) == 0 {
			break
		}
		given[best]++
	}
}

// enforceCaps clips every over-cap quota and returns the excess to the
// pool.
func (e *Engine) enforceCaps(alloc *Allocation) {
	for i := range alloc.Entries {
		s := &alloc.Entries[i]
		if s.Quota > s.Cap {
			alloc.Remaining += s.Quota - s.Cap
			s.Quota = s.Cap
		}
	}
}

// redistributeLeftover hands the pool back one seat per country in
// ranking order, repeating until the pool empties or a full pass places
// nothing.
func (e *Engine) redistributeLeftover(ctx context.Context, alloc *Allocation) {
	for alloc.Remaining > 0 {
		placed := 0
		for i := range alloc.Entries {
			placed += e.award(alloc, i, 1, true)
		}
		if placed == 0 {
			e.log.Error(ctx, "unable to allocate remaining seats",
				logger.Int("remaining", alloc.Remaining),
				logger.String("ruleset", string(alloc.Ruleset)))
			return
		}
	}
}

func (e *Engine) report(ctx context.Context, alloc Allocation) {
	for _, s := range alloc.Entries {
		e.log.Info(ctx, "quota",
			logger.Int("position", s.Ranking),
			logger.String("country", s.Code),
			logger.Int("seats", s.Quota),
			logger.Int("cap", s.Cap))
	}
	if alloc.Remaining > 0 {
		e.log.Warn(ctx, "quota incomplete",
			logger.Int("unallocated", alloc.Remaining))
		return
	}
	e.log.Info(ctx, "full quota allocated",
		logger.Int("seats", alloc.Total),
		logger.String("ruleset", string(alloc.Ruleset)))
}
