package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emahq/mers/internal/adapters/repository"
	"github.com/emahq/mers/internal/domain/integrity"
	"github.com/emahq/mers/internal/domain/model"
)

func openTestStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mers.db")
	store, err := repository.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleDataset() *repository.Dataset {
	rank := 712.5
	end := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	return &repository.Dataset{
		Countries: []*model.Country{
			{Code: "de", Name: "Germany"},
			{Code: "fr", Name: "France"},
		},
		Players: []*model.Player{
			{ID: 1, SortingName: "Muster, Max", CallingName: "Max Muster", EMAID: "04250001", CountryID: "de",
				MCR: model.Rating{Rank: &rank, Position: 1}},
			{ID: 2, SortingName: "Durand, Anne", CallingName: "Anne Durand", EMAID: "07250002", CountryID: "fr"},
		},
		Tournaments: []*model.Tournament{
			{ID: 400, Ruleset: model.MCR, Title: "Open 2025", Place: "Berlin", MERS: 2.0,
				StartDate: end.AddDate(0, 0, -1), EndDate: end, EffectiveEndDate: end, PlayerCount: 32},
		},
		Results: []*model.Result{
			{PlayerID: 1, TournamentID: 400, Ruleset: model.MCR, Position: 3, BaseRank: 935, WasEMA: true, CountryID: "de"},
			{PlayerID: 2, TournamentID: 400, Ruleset: model.MCR, Position: 30, BaseRank: 65, WasEMA: true, CountryID: "fr"},
		},
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Replace(ctx, sampleDataset()))

	ds, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Countries, 2)
	require.Len(t, ds.Players, 2)
	require.Len(t, ds.Tournaments, 1)
	require.Len(t, ds.Results, 2)

	var max *model.Player
	for _, p := range ds.Players {
		if p.ID == 1 {
			max = p
		}
	}
	require.NotNil(t, max)
	require.NotNil(t, max.MCR.Rank)
	require.Equal(t, 712.5, *max.MCR.Rank)
	require.Equal(t, 1, max.MCR.Position)
	require.Nil(t, max.Riichi.Rank)

	tn := ds.Tournaments[0]
	require.Equal(t, model.MCR, tn.Ruleset)
	require.True(t, tn.EndDate.Equal(time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)))
}

func TestSQLiteSaveDerivedFields(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.Replace(ctx, sampleDataset()))

	ds, err := store.Load(ctx)
	require.NoError(t, err)

	// Mutate derived fields the way the passes do, then persist.
	ds.Tournaments[0].AgeFactor = 0.5
	for _, r := range ds.Results {
		r.AgedMERS = 1.0
		r.AgedRank = float64(r.BaseRank)
	}
	require.NoError(t, store.SaveAging(ctx, ds.Tournaments, ds.Results))

	v := 650.25
	for _, p := range ds.Players {
		p.MCR.Rank = &v
		p.MCR.Position = p.ID
	}
	require.NoError(t, store.SaveRatings(ctx, ds.Players))

	pos := 1
	avg := 420.42
	ds.Countries[0].MCR = model.Standing{
		Ranking: &pos, PlayerCount: 2, Over700: 1, AvgTop3: &avg, ShareRanked: 1, Share700: 1,
	}
	require.NoError(t, store.SaveStandings(ctx, ds.Countries))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 0.5, got.Tournaments[0].AgeFactor)
	for _, r := range got.Results {
		require.Equal(t, 1.0, r.AgedMERS)
		require.Equal(t, float64(r.BaseRank), r.AgedRank)
	}
	for _, p := range got.Players {
		require.NotNil(t, p.MCR.Rank)
		require.Equal(t, 650.25, *p.MCR.Rank)
	}
	var de *model.Country
	for _, c := range got.Countries {
		if c.Code == "de" {
			de = c
		}
	}
	require.NotNil(t, de)
	require.NotNil(t, de.MCR.Ranking)
	require.Equal(t, 1, *de.MCR.Ranking)
	require.NotNil(t, de.MCR.AvgTop3)
	require.Equal(t, 420.42, *de.MCR.AvgTop3)
}

func TestSQLiteSettings(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Setting(ctx, repository.SettingPlayerCountMCR)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.PutSetting(ctx, repository.SettingPlayerCountMCR, "42"))
	require.NoError(t, store.PutSetting(ctx, repository.SettingPlayerCountMCR, "43"))

	v, err := store.Setting(ctx, repository.SettingPlayerCountMCR)
	require.NoError(t, err)
	require.Equal(t, "43", v)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	require.NoError(t, store.Replace(ctx, sampleDataset()))
	ds, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Players, 2)

	require.NoError(t, store.PutSetting(ctx, "k", "v"))
	v, err := store.Setting(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	_, err = store.Setting(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Close())
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, repository.ErrClosed)
}

func TestReplaceRejectsCorruptDataset(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	ds := sampleDataset()
	ds.Results = append(ds.Results, &model.Result{
		PlayerID: 1, TournamentID: 400, Ruleset: model.MCR, Position: 4, BaseRank: 900,
	})
	require.ErrorIs(t, store.Replace(ctx, ds), integrity.ErrDuplicate)

	ds = sampleDataset()
	ds.Results[0].TournamentID = 999
	require.ErrorIs(t, store.Replace(ctx, ds), integrity.ErrDangling)
}
