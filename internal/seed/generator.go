// Package seed generates synthetic federation datasets for development
// and load testing. The output is shaped like real federation records:
// member countries, affiliated players, dated tournaments in both
// rulesets and per-tournament results with base ranks fixed at close.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	repository "github.com/emahq/mers/internal/adapters/repository"
	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/pkg/logger"
)

// Default generation parameters.
const (
	DefaultCountries   = 12
	DefaultPlayers     = 40
	DefaultTournaments = 30
	DefaultSpanYears   = 4
)

// unaffiliatedEvery marks one in this many players as never having held
// federation membership.
const unaffiliatedEvery = 17

// minField is the smallest tournament field generated.
const minField = 16

// Config controls the shape of a generated dataset.
type Config struct {
	// Countries is how many member countries to create.
	Countries int

	// Players is how many players each country fields.
	Players int

	// Tournaments is how many events to create per ruleset.
	Tournaments int

	// SpanYears is how far back tournament end dates reach.
	SpanYears int

	// Seed fixes the random source; equal seeds give equal datasets.
	Seed int64
}

// member is one entry in the fixed country pool.
type member struct {
	code string
	name string
}

var pool = []member{
	{"at", "Austria"}, {"be", "Belgium"}, {"ch", "Switzerland"},
	{"de", "Germany"}, {"dk", "Denmark"}, {"es", "Spain"},
	{"fi", "Finland"}, {"fr", "France"}, {"gb", "United Kingdom"},
	{"hu", "Hungary"}, {"it", "Italy"}, {"nl", "Netherlands"},
	{"no", "Norway"}, {"pl", "Poland"}, {"pt", "Portugal"},
	{"ru", "Russia"}, {"se", "Sweden"}, {"ua", "Ukraine"},
}

var weights = []float64{1.0, 1.0, 1.5, 2.0, 2.0, 2.5, 3.0}

// Generate builds a synthetic dataset as of now.
func Generate(cfg Config, now time.Time) (*repository.Dataset, error) {
	if cfg.Countries < 1 || cfg.Countries > len(pool) {
		return nil, fmt.Errorf("%w: countries must be 1..%d", ErrBadShape, len(pool))
	}
	if cfg.Players < 1 || cfg.Tournaments < 1 || cfg.SpanYears < 1 {
		return nil, fmt.Errorf("%w: players, tournaments and span must be positive", ErrBadShape)
	}
	if cfg.Countries*cfg.Players < minField {
		return nil, fmt.Errorf("%w: need at least %d players total", ErrBadShape, minField)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ds := &repository.Dataset{}

	for _, m := range pool[:cfg.Countries] {
		ds.Countries = append(ds.Countries, &model.Country{Code: m.code, Name: m.name})
	}

	for i, m := range pool[:cfg.Countries] {
		for j := 0; j < cfg.Players; j++ {
			id := i*cfg.Players + j + 1
			emaID := fmt.Sprintf("%02d%06d", i+1, j+1)
			if id%unaffiliatedEvery == 0 {
				emaID = model.UnaffiliatedID
			}
			name := fmt.Sprintf("%s Player %02d", strings.ToUpper(m.code), j+1)
			ds.Players = append(ds.Players, &model.Player{
				ID:          id,
				SortingName: name,
				CallingName: name,
				EMAID:       emaID,
				CountryID:   m.code,
			})
		}
	}

	id := 0
	for _, rs := range model.Rulesets() {
		for i := 0; i < cfg.Tournaments; i++ {
			id++
			end := now.AddDate(0, 0, -rng.Intn(cfg.SpanYears*365)-1)
			field := minField + 4*rng.Intn(9)
			if field > len(ds.Players) {
				field = len(ds.Players)
			}
			t := &model.Tournament{
				ID:          id,
				Title:       fmt.Sprintf("%s Open %d", strings.ToUpper(string(rs)), id),
				Place:       pool[rng.Intn(cfg.Countries)].name,
				Ruleset:     rs,
				MERS:        weights[rng.Intn(len(weights))],
				StartDate:   end.AddDate(0, 0, -1),
				EndDate:     end,
				PlayerCount: field,
			}
			ds.Tournaments = append(ds.Tournaments, t)
			ds.Results = append(ds.Results, sampleResults(rng, t, ds.Players)...)
		}
	}

	return ds, nil
}

// sampleResults draws a random field and records one result per seat.
func sampleResults(rng *rand.Rand, t *model.Tournament, players []*model.Player) []*model.Result {
	perm := rng.Perm(len(players))
	results := make([]*model.Result, 0, t.PlayerCount)
	for pos := 1; pos <= t.PlayerCount; pos++ {
		p := players[perm[pos-1]]
		base, err := model.BaseRank(t.PlayerCount, pos)
		if err != nil {
			// Field sizes are validated above; a failure here is a bug.
			panic(err)
		}
		results = append(results, &model.Result{
			PlayerID:     p.ID,
			TournamentID: t.ID,
			Ruleset:      t.Ruleset,
			Position:     pos,
			Score:        (t.PlayerCount - pos) * 4,
			BaseRank:     base,
			WasEMA:       p.Affiliated(),
			CountryID:    p.CountryID,
		})
	}
	return results
}

// Run generates a dataset and replaces the store's content with it.
func Run(ctx context.Context, log logger.Logger, store repository.Store, cfg Config) error {
	ds, err := Generate(cfg, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := store.Replace(ctx, ds); err != nil {
		return fmt.Errorf("replacing store content: %w", err)
	}
	log.Info(ctx, "seeded dataset",
		logger.Int("countries", len(ds.Countries)),
		logger.Int("players", len(ds.Players)),
		logger.Int("tournaments", len(ds.Tournaments)),
		logger.Int("results", len(ds.Results)),
	)
	return nil
}
