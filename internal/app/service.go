// Package service orchestrates the ranking passes: aging, player
// ranking, country aggregation and quota allocation, reading from and
// writing derived fields back to the record store.
package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	repository "github.com/emahq/mers/internal/adapters/repository"
	"github.com/emahq/mers/internal/domain/aging"
	"github.com/emahq/mers/internal/domain/country"
	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/internal/domain/quota"
	"github.com/emahq/mers/internal/domain/ranking"
	"github.com/emahq/mers/pkg/logger"
	"github.com/emahq/mers/pkg/metrics"
)

// Service implements the ranking engine operations exposed by the CLI
// and the HTTP API. Passes are serialized: the two rulesets run
// sequentially and a pass never overlaps another.
type Service struct {
	mu sync.Mutex

	// Core components
	store     repository.Store
	ager      *aging.Engine
	allocator *quota.Engine
	pool      *rankPool

	// Configuration
	workerCount int

	// Official published country standings used by assessment runs,
	// keyed by ruleset. Player assessment reads the official ranks
	// stored on the players themselves.
	countryReference map[model.Ruleset][]country.Reference

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store the service operates on.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithOverrides pins effective end dates for specific tournaments
// during aging.
func WithOverrides(o aging.Overrides) Option {
	return func(s *Service) {
		s.ager = aging.New(aging.WithOverrides(o))
	}
}

// WithWorkers sets the number of goroutines ranking players in
// parallel. Zero or negative means one per CPU.
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.workerCount = count
	}
}

// WithCountryReference supplies official country standings to assess
// computed aggregates against.
func WithCountryReference(rs model.Ruleset, refs []country.Reference) Option {
	return func(s *Service) {
		s.countryReference[rs] = refs
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:            repository.NewMemoryStore(),
		ager:             aging.New(aging.WithOverrides(aging.DefaultOverrides())),
		countryReference: make(map[model.Ruleset][]country.Reference),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.allocator = quota.New(quota.WithLogger(s.logger))
	s.pool = newRankPool(s.workerCount, s.logger)

	return s
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// AgeTournaments runs the aging pass at the given reckoning date and
// persists the resulting age factors and aged result weights.
func (s *Service) AgeTournaments(ctx context.Context, reckoning time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	return s.age(ctx, reckoning, ds)
}

// age runs aging over a loaded dataset and persists it. Callers hold
// the service lock.
func (s *Service) age(ctx context.Context, reckoning time.Time, ds *repository.Dataset) error {
	run := uuid.NewString()
	start := time.Now()

	if err := s.ager.AgeTournaments(reckoning, ds.Tournaments, ds.Results); err != nil {
		return fmt.Errorf("aging tournaments: %w", err)
	}
	if err := s.store.SaveAging(ctx, ds.Tournaments, ds.Results); err != nil {
		return fmt.Errorf("saving aging pass: %w", err)
	}

	metrics.ObservePassDuration("aging", time.Since(start).Seconds())
	s.logger.Info(ctx, "aging pass complete",
		logger.String("run", run),
		logger.String("reckoning", reckoning.Format("2006-01-02")),
		logger.Int("tournaments", len(ds.Tournaments)),
		logger.Int("results", len(ds.Results)),
	)
	return nil
}

// RankAllPlayers runs aging at the reckoning date, then computes the
// ranking value and leaderboard position of every player in both
// rulesets and persists them. When assess is set, computed values are
// checked against the official ranks stored on the players.
func (s *Service) RankAllPlayers(ctx context.Context, reckoning time.Time, assess bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := uuid.NewString()
	start := time.Now()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	if err := s.age(ctx, reckoning, ds); err != nil {
		return err
	}

	byPlayer := groupResults(ds.Results)
	for _, rs := range model.Rulesets() {
		if err := s.pool.rankAll(ctx, rs, ds.Players, byPlayer); err != nil {
			return err
		}
		ranked := ranking.AssignPositions(ds.Players, rs)

		key := repository.SettingPlayerCount(rs)
		if err := s.store.PutSetting(ctx, key, strconv.Itoa(ranked)); err != nil {
			return fmt.Errorf("saving %s: %w", key, err)
		}

		metrics.SetPlayersRanked(string(rs), ranked)
		s.logger.Info(ctx, "players ranked",
			logger.String("run", run),
			logger.String("ruleset", string(rs)),
			logger.Int("ranked", ranked),
		)
	}

	if err := s.store.SaveRatings(ctx, ds.Players); err != nil {
		return fmt.Errorf("saving ratings: %w", err)
	}

	if assess {
		sum := ranking.AssessPlayers(ctx, s.logger, ds.Players)
		metrics.RecordAssessment("player", sum.Total, sum.Bad)
		s.logger.Info(ctx, "player assessment complete",
			logger.String("run", run),
			logger.Int("checked", sum.Total),
			logger.Int("mismatches", sum.Bad),
		)
	}

	metrics.ObservePassDuration("ranking", time.Since(start).Seconds())
	return nil
}

// RankCountries aggregates ranked players into country standings for
// one ruleset and persists them. When reckoning is non-nil the player
// ranking pass is re-run first so the aggregates reflect that date.
func (s *Service) RankCountries(ctx context.Context, rs model.Ruleset, reckoning *time.Time, assess bool) ([]country.Aggregate, error) {
	if !rs.Valid() {
		return nil, model.ErrUnknownRuleset
	}
	if reckoning != nil {
		if err := s.RankAllPlayers(ctx, *reckoning, false); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := uuid.NewString()
	start := time.Now()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	aggs, totals := country.Rank(rs, ds.Players, ds.Countries)
	if err := s.store.SaveStandings(ctx, ds.Countries); err != nil {
		return nil, fmt.Errorf("saving standings: %w", err)
	}

	metrics.SetCountriesRanked(string(rs), len(aggs))
	s.logger.Info(ctx, "countries ranked",
		logger.String("run", run),
		logger.String("ruleset", string(rs)),
		logger.Int("countries", len(aggs)),
		logger.Int("players", totals.Players),
		logger.Int("over700", totals.Over700),
	)

	if assess {
		if refs := s.countryReference[rs]; len(refs) > 0 {
			sum := country.Assess(ctx, s.logger, aggs, refs)
			metrics.RecordAssessment("country", sum.Total, sum.Bad)
			s.logger.Info(ctx, "country assessment complete",
				logger.String("run", run),
				logger.Int("checked", sum.Total),
				logger.Int("mismatches", sum.Bad),
			)
		} else {
			s.logger.Warn(ctx, "no official country standings to assess against",
				logger.String("ruleset", string(rs)),
			)
		}
	}

	metrics.ObservePassDuration("country", time.Since(start).Seconds())
	return aggs, nil
}

// AllocateQuota distributes the seat pool across the current country
// standings for one ruleset. Standings must have been computed first;
// an empty standing table yields a fully unallocated pool.
func (s *Service) AllocateQuota(ctx context.Context, total int, rs model.Ruleset) (quota.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return quota.Allocation{}, fmt.Errorf("loading dataset: %w", err)
	}

	ordered := standings(rs, ds.Countries)
	alloc, err := s.allocator.Allocate(ctx, total, rs, ordered, ds.Players)
	if err != nil {
		return quota.Allocation{}, err
	}

	metrics.SetQuotaSeats(string(rs), alloc.Allocated(), alloc.Remaining)
	metrics.ObservePassDuration("quota", time.Since(start).Seconds())
	return alloc, nil
}

// Leaderboard returns a page of ranked players for one ruleset,
// ordered by position, plus the total ranked count.
func (s *Service) Leaderboard(ctx context.Context, rs model.Ruleset, offset, limit int) ([]*model.Player, int, error) {
	if !rs.Valid() {
		return nil, 0, model.ErrUnknownRuleset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("loading dataset: %w", err)
	}

	ranked := make([]*model.Player, 0, len(ds.Players))
	for _, p := range ds.Players {
		if p.Rating(rs).Position > 0 {
			ranked = append(ranked, p)
		}
	}
	sortByPosition(ranked, rs)

	total := len(ranked)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*model.Player{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return ranked[offset:end], total, nil
}

// CountryStandings returns the persisted country standings for one
// ruleset, ordered by ranking.
func (s *Service) CountryStandings(ctx context.Context, rs model.Ruleset) ([]*model.Country, error) {
	if !rs.Valid() {
		return nil, model.ErrUnknownRuleset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	ranked := make([]*model.Country, 0, len(ds.Countries))
	for _, c := range ds.Countries {
		if st := c.Standing(rs); st.Ranking != nil {
			ranked = append(ranked, c)
		}
	}
	sortCountries(ranked, rs)
	return ranked, nil
}

func sortByPosition(players []*model.Player, rs model.Ruleset) {
	sort.Slice(players, func(i, j int) bool {
		return players[i].Rating(rs).Position < players[j].Rating(rs).Position
	})
}

func sortCountries(countries []*model.Country, rs model.Ruleset) {
	sort.Slice(countries, func(i, j int) bool {
		return *countries[i].Standing(rs).Ranking < *countries[j].Standing(rs).Ranking
	})
}

func sortAggregates(aggs []country.Aggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		return aggs[i].Ranking < aggs[j].Ranking
	})
}

// groupResults indexes results by player id.
func groupResults(results []*model.Result) map[int][]*model.Result {
	byPlayer := make(map[int][]*model.Result, len(results))
	for _, r := range results {
		byPlayer[r.PlayerID] = append(byPlayer[r.PlayerID], r)
	}
	return byPlayer
}

// standings converts persisted country standings into the ordered
// aggregate slice the allocator consumes.
func standings(rs model.Ruleset, countries []*model.Country) []country.Aggregate {
	aggs := make([]country.Aggregate, 0, len(countries))
	for _, c := range countries {
		st := c.Standing(rs)
		if st.Ranking == nil || st.AvgTop3 == nil {
			continue
		}
		aggs = append(aggs, country.Aggregate{
			Code:        c.Code,
			Ranking:     *st.Ranking,
			PlayerCount: st.PlayerCount,
			Over700:     st.Over700,
			AvgTop3:     *st.AvgTop3,
			ShareRanked: st.ShareRanked,
			Share700:    st.Share700,
		})
	}
	sortAggregates(aggs)
	return aggs
}
