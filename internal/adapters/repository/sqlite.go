package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/emahq/mers/internal/domain/integrity"
	"github.com/emahq/mers/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS country (
	id                TEXT PRIMARY KEY,
	name_english      TEXT NOT NULL DEFAULT '',
	ranking_mcr       INTEGER,
	player_count_mcr  INTEGER NOT NULL DEFAULT 0,
	over700_mcr       INTEGER NOT NULL DEFAULT 0,
	avg_top3_mcr      REAL,
	share_ranked_mcr  REAL NOT NULL DEFAULT 0,
	share_700_mcr     REAL NOT NULL DEFAULT 0,
	ranking_riichi      INTEGER,
	player_count_riichi INTEGER NOT NULL DEFAULT 0,
	over700_riichi      INTEGER NOT NULL DEFAULT 0,
	avg_top3_riichi     REAL,
	share_ranked_riichi REAL NOT NULL DEFAULT 0,
	share_700_riichi    REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS player (
	id            INTEGER PRIMARY KEY,
	sorting_name  TEXT NOT NULL DEFAULT '',
	calling_name  TEXT NOT NULL DEFAULT '',
	ema_id        TEXT NOT NULL DEFAULT '',
	country_id    TEXT NOT NULL DEFAULT '',
	rank_mcr          REAL,
	official_mcr      REAL,
	position_mcr      INTEGER NOT NULL DEFAULT 0,
	rank_riichi       REAL,
	official_riichi   REAL,
	position_riichi   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS tournament (
	id            INTEGER NOT NULL,
	ruleset       TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	place         TEXT NOT NULL DEFAULT '',
	mers          REAL NOT NULL DEFAULT 0,
	start_date    TEXT NOT NULL,
	end_date      TEXT NOT NULL,
	effective_end TEXT NOT NULL,
	player_count  INTEGER NOT NULL DEFAULT 0,
	age_factor    REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (id, ruleset)
);
CREATE TABLE IF NOT EXISTS result (
	player_id     INTEGER NOT NULL,
	tournament_id INTEGER NOT NULL,
	ruleset       TEXT NOT NULL,
	position      INTEGER NOT NULL,
	score         INTEGER NOT NULL DEFAULT 0,
	base_rank     INTEGER NOT NULL,
	was_ema       INTEGER NOT NULL DEFAULT 0,
	country_id    TEXT NOT NULL DEFAULT '',
	aged_mers     REAL NOT NULL DEFAULT 0,
	aged_rank     REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (player_id, tournament_id, ruleset)
);
CREATE TABLE IF NOT EXISTS setting (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_result_player ON result (player_id, ruleset);
CREATE INDEX IF NOT EXISTS idx_player_country ON player (country_id);
`

// dateLayout is how dates are stored; the engine only needs day
// precision.
const dateLayout = "2006-01-02"

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists the record store in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if necessary creates) the database at path and
// ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// The driver is single-writer; serializing access avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the complete working set.
func (s *SQLiteStore) Load(ctx context.Context) (*Dataset, error) {
	ds := &Dataset{}
	if err := s.loadCountries(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.loadPlayers(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.loadTournaments(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.loadResults(ctx, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *SQLiteStore) loadCountries(ctx context.Context, ds *Dataset) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name_english,
		       ranking_mcr, player_count_mcr, over700_mcr, avg_top3_mcr, share_ranked_mcr, share_700_mcr,
		       ranking_riichi, player_count_riichi, over700_riichi, avg_top3_riichi, share_ranked_riichi, share_700_riichi
		FROM country`)
	if err != nil {
		return fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c := &model.Country{}
		var mcrRank, riichiRank sql.NullInt64
		var mcrAvg, riichiAvg sql.NullFloat64
		if err := rows.Scan(&c.Code, &c.Name,
			&mcrRank, &c.MCR.PlayerCount, &c.MCR.Over700, &mcrAvg, &c.MCR.ShareRanked, &c.MCR.Share700,
			&riichiRank, &c.Riichi.PlayerCount, &c.Riichi.Over700, &riichiAvg, &c.Riichi.ShareRanked, &c.Riichi.Share700,
		); err != nil {
			return fmt.Errorf("scan country: %w", err)
		}
		c.MCR.Ranking = nullableInt(mcrRank)
		c.MCR.AvgTop3 = nullableFloat(mcrAvg)
		c.Riichi.Ranking = nullableInt(riichiRank)
		c.Riichi.AvgTop3 = nullableFloat(riichiAvg)
		ds.Countries = append(ds.Countries, c)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadPlayers(ctx context.Context, ds *Dataset) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sorting_name, calling_name, ema_id, country_id,
		       rank_mcr, official_mcr, position_mcr,
		       rank_riichi, official_riichi, position_riichi
		FROM player`)
	if err != nil {
		return fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p := &model.Player{}
		var rankM, offM, rankR, offR sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.SortingName, &p.CallingName, &p.EMAID, &p.CountryID,
			&rankM, &offM, &p.MCR.Position,
			&rankR, &offR, &p.Riichi.Position,
		); err != nil {
			return fmt.Errorf("scan player: %w", err)
		}
		p.MCR.Rank = nullableFloat(rankM)
		p.MCR.Official = nullableFloat(offM)
		p.Riichi.Rank = nullableFloat(rankR)
		p.Riichi.Official = nullableFloat(offR)
		ds.Players = append(ds.Players, p)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadTournaments(ctx context.Context, ds *Dataset) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ruleset, title, place, mers, start_date, end_date, effective_end, player_count, age_factor
		FROM tournament`)
	if err != nil {
		return fmt.Errorf("query tournaments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t := &model.Tournament{}
		var rs, start, end, effective string
		if err := rows.Scan(&t.ID, &rs, &t.Title, &t.Place, &t.MERS, &start, &end, &effective, &t.PlayerCount, &t.AgeFactor); err != nil {
			return fmt.Errorf("scan tournament: %w", err)
		}
		ruleset, err := model.ParseRuleset(rs)
		if err != nil {
			return fmt.Errorf("tournament %d: %w", t.ID, err)
		}
		t.Ruleset = ruleset
		if t.StartDate, err = time.Parse(dateLayout, start); err != nil {
			return fmt.Errorf("tournament %d start date: %w", t.ID, err)
		}
		if t.EndDate, err = time.Parse(dateLayout, end); err != nil {
			return fmt.Errorf("tournament %d end date: %w", t.ID, err)
		}
		if t.EffectiveEndDate, err = time.Parse(dateLayout, effective); err != nil {
			return fmt.Errorf("tournament %d effective end date: %w", t.ID, err)
		}
		ds.Tournaments = append(ds.Tournaments, t)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadResults(ctx context.Context, ds *Dataset) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, tournament_id, ruleset, position, score, base_rank, was_ema, country_id, aged_mers, aged_rank
		FROM result`)
	if err != nil {
		return fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		r := &model.Result{}
		var rs string
		if err := rows.Scan(&r.PlayerID, &r.TournamentID, &rs, &r.Position, &r.Score, &r.BaseRank, &r.WasEMA, &r.CountryID, &r.AgedMERS, &r.AgedRank); err != nil {
			return fmt.Errorf("scan result: %w", err)
		}
		ruleset, err := model.ParseRuleset(rs)
		if err != nil {
			return fmt.Errorf("result %d/%d: %w", r.PlayerID, r.TournamentID, err)
		}
		r.Ruleset = ruleset
		ds.Results = append(ds.Results, r)
	}
	return rows.Err()
}

// Replace swaps the entire store content inside one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, ds *Dataset) error {
	if err := integrity.Check(ds.Countries, ds.Players, ds.Tournaments, ds.Results); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"result", "tournament", "player", "country", "setting"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		for _, c := range ds.Countries {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO country (id, name_english,
					ranking_mcr, player_count_mcr, over700_mcr, avg_top3_mcr, share_ranked_mcr, share_700_mcr,
					ranking_riichi, player_count_riichi, over700_riichi, avg_top3_riichi, share_ranked_riichi, share_700_riichi)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.Code, c.Name,
				intOrNull(c.MCR.Ranking), c.MCR.PlayerCount, c.MCR.Over700, floatOrNull(c.MCR.AvgTop3), c.MCR.ShareRanked, c.MCR.Share700,
				intOrNull(c.Riichi.Ranking), c.Riichi.PlayerCount, c.Riichi.Over700, floatOrNull(c.Riichi.AvgTop3), c.Riichi.ShareRanked, c.Riichi.Share700,
			); err != nil {
				return fmt.Errorf("insert country %s: %w", c.Code, err)
			}
		}
		for _, p := range ds.Players {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO player (id, sorting_name, calling_name, ema_id, country_id,
					rank_mcr, official_mcr, position_mcr, rank_riichi, official_riichi, position_riichi)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, p.SortingName, p.CallingName, p.EMAID, p.CountryID,
				floatOrNull(p.MCR.Rank), floatOrNull(p.MCR.Official), p.MCR.Position,
				floatOrNull(p.Riichi.Rank), floatOrNull(p.Riichi.Official), p.Riichi.Position,
			); err != nil {
				return fmt.Errorf("insert player %d: %w", p.ID, err)
			}
		}
		for _, t := range ds.Tournaments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO tournament (id, ruleset, title, place, mers, start_date, end_date, effective_end, player_count, age_factor)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, string(t.Ruleset), t.Title, t.Place, t.MERS,
				t.StartDate.Format(dateLayout), t.EndDate.Format(dateLayout), t.EffectiveEndDate.Format(dateLayout),
				t.PlayerCount, t.AgeFactor,
			); err != nil {
				return fmt.Errorf("insert tournament %d: %w", t.ID, err)
			}
		}
		for _, r := range ds.Results {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO result (player_id, tournament_id, ruleset, position, score, base_rank, was_ema, country_id, aged_mers, aged_rank)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.PlayerID, r.TournamentID, string(r.Ruleset), r.Position, r.Score, r.BaseRank, r.WasEMA, r.CountryID, r.AgedMERS, r.AgedRank,
			); err != nil {
				return fmt.Errorf("insert result %d/%d: %w", r.PlayerID, r.TournamentID, err)
			}
		}
		return nil
	})
}

// SaveAging writes tournament age factors and result aged weights.
func (s *SQLiteStore) SaveAging(ctx context.Context, ts []*model.Tournament, rs []*model.Result) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range ts {
			if _, err := tx.ExecContext(ctx,
				`UPDATE tournament SET age_factor = ?, effective_end = ? WHERE id = ? AND ruleset = ?`,
				t.AgeFactor, t.EffectiveEndDate.Format(dateLayout), t.ID, string(t.Ruleset),
			); err != nil {
				return fmt.Errorf("update tournament %d: %w", t.ID, err)
			}
		}
		for _, r := range rs {
			if _, err := tx.ExecContext(ctx,
				`UPDATE result SET aged_mers = ?, aged_rank = ? WHERE player_id = ? AND tournament_id = ? AND ruleset = ?`,
				r.AgedMERS, r.AgedRank, r.PlayerID, r.TournamentID, string(r.Ruleset),
			); err != nil {
				return fmt.Errorf("update result %d/%d: %w", r.PlayerID, r.TournamentID, err)
			}
		}
		return nil
	})
}

// SaveRatings writes per-player ranking values and positions.
func (s *SQLiteStore) SaveRatings(ctx context.Context, ps []*model.Player) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range ps {
			if _, err := tx.ExecContext(ctx, `
				UPDATE player SET rank_mcr = ?, position_mcr = ?, rank_riichi = ?, position_riichi = ?
				WHERE id = ?`,
				floatOrNull(p.MCR.Rank), p.MCR.Position, floatOrNull(p.Riichi.Rank), p.Riichi.Position, p.ID,
			); err != nil {
				return fmt.Errorf("update player %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

// SaveStandings writes per-country derived aggregates.
func (s *SQLiteStore) SaveStandings(ctx context.Context, cs []*model.Country) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range cs {
			if _, err := tx.ExecContext(ctx, `
				UPDATE country SET
					ranking_mcr = ?, player_count_mcr = ?, over700_mcr = ?, avg_top3_mcr = ?, share_ranked_mcr = ?, share_700_mcr = ?,
					ranking_riichi = ?, player_count_riichi = ?, over700_riichi = ?, avg_top3_riichi = ?, share_ranked_riichi = ?, share_700_riichi = ?
				WHERE id = ?`,
				intOrNull(c.MCR.Ranking), c.MCR.PlayerCount, c.MCR.Over700, floatOrNull(c.MCR.AvgTop3), c.MCR.ShareRanked, c.MCR.Share700,
				intOrNull(c.Riichi.Ranking), c.Riichi.PlayerCount, c.Riichi.Over700, floatOrNull(c.Riichi.AvgTop3), c.Riichi.ShareRanked, c.Riichi.Share700,
				c.Code,
			); err != nil {
				return fmt.Errorf("update country %s: %w", c.Code, err)
			}
		}
		return nil
	})
}

// PutSetting upserts a loose key/value pair.
func (s *SQLiteStore) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO setting (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}
	return nil
}

// Setting returns a stored value or ErrNotFound.
func (s *SQLiteStore) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM setting WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: setting %q", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return v, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatOrNull(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intOrNull(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
