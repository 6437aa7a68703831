// Package aging computes time-decayed tournament weights for a reckoning
// date and propagates them onto results.
package aging

import (
	"fmt"
	"time"

	"github.com/emahq/mers/internal/domain/model"
)

// Age factor buckets. A tournament keeps its full MERS weight for one
// year, half of it for the second year, and nothing after two years.
const (
	factorFull    = 1.0
	factorHalved  = 0.5
	factorExpired = 0.0
)

// OverrideKey identifies a tournament whose effective end date is pinned.
type OverrideKey struct {
	Ruleset model.Ruleset
	ID      int
}

// Overrides maps tournaments to pinned effective end dates. The table is
// data handed to the engine, not logic inside it; it exists to compensate
// for the multi-year scheduling freeze around 2020-2022.
type Overrides map[OverrideKey]time.Time

// DefaultOverrides returns the federation's known pinned tournaments: the
// five lockdown-era events whose ranking eligibility was extended to
// 1 July 2022.
func DefaultOverrides() Overrides {
	pinned := time.Date(2022, time.July, 1, 0, 0, 0, 0, time.UTC)
	return Overrides{
		{model.MCR, 350}:    pinned,
		{model.MCR, 351}:    pinned,
		{model.MCR, 352}:    pinned,
		{model.MCR, 353}:    pinned,
		{model.Riichi, 269}: pinned,
	}
}

// Engine ages tournaments against a reckoning date.
type Engine struct {
	overrides Overrides
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithOverrides replaces the effective-end-date override table.
func WithOverrides(o Overrides) Option {
	return func(e *Engine) {
		if o != nil {
			e.overrides = o
		}
	}
}

// New creates an aging engine carrying the default override table.
func New(opts ...Option) *Engine {
	e := &Engine{overrides: DefaultOverrides()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// YearsBefore subtracts whole calendar years from a date. Subtracting
// years rather than 365-day blocks keeps the thresholds stable across
// leap years.
func YearsBefore(years int, t time.Time) time.Time {
	return t.AddDate(-years, 0, 0)
}

// AgeTournaments assigns every tournament its age factor as of the
// reckoning date and copies the resulting aged weight onto every result.
// The pass is idempotent and order-independent: re-running it for the
// same reckoning date yields identical weights.
func (e *Engine) AgeTournaments(reckoning time.Time, tournaments []*model.Tournament, results []*model.Result) error {
	if reckoning.IsZero() {
		return fmt.Errorf("%w: zero reckoning date", ErrBadReckoningDate)
	}

	expiry := YearsBefore(2, reckoning)
	halving := YearsBefore(1, reckoning)

	byKey := make(map[OverrideKey]*model.Tournament, len(tournaments))
	for _, t := range tournaments {
		effective := t.EndDate
		if pinned, ok := e.overrides[OverrideKey{t.Ruleset, t.ID}]; ok {
			effective = pinned
		}
		t.EffectiveEndDate = effective

		switch {
		case t.EndDate.After(reckoning):
			// Cannot count toward a ranking computed as of an
			// earlier date.
			t.AgeFactor = factorExpired
		case effective.Before(expiry):
			t.AgeFactor = factorExpired
		case effective.Before(halving):
			t.AgeFactor = factorHalved
		default:
			t.AgeFactor = factorFull
		}
		byKey[OverrideKey{t.Ruleset, t.ID}] = t
	}

	for _, r := range results {
		t, ok := byKey[OverrideKey{r.Ruleset, r.TournamentID}]
		if !ok {
			return fmt.Errorf("%w: result for %s tournament %d", ErrOrphanResult, r.Ruleset, r.TournamentID)
		}
		r.AgedMERS = t.AgedMERS()
		r.AgedRank = r.AgedMERS * float64(r.BaseRank)
	}
	return nil
}
