// Package repository defines the record store the engine reads from and
// writes computed fields back to.
package repository

import (
	"context"

	"github.com/emahq/mers/internal/domain/model"
)

// Dataset is the full in-memory working set for one ranking pass.
type Dataset struct {
	Countries   []*model.Country
	Players     []*model.Player
	Tournaments []*model.Tournament
	Results     []*model.Result
}

// Setting keys written by ranking passes.
const (
	SettingPlayerCountMCR    = "player_count_mcr"
	SettingPlayerCountRiichi = "player_count_riichi"
)

// SettingPlayerCount returns the setting key for a ruleset's ranked
// player count.
func SettingPlayerCount(rs model.Ruleset) string {
	if rs == model.MCR {
		return SettingPlayerCountMCR
	}
	return SettingPlayerCountRiichi
}

// Store provides access to the record store. Each Save method persists
// exactly the derived fields its pass owns; base records are never
// rewritten by the engine.
type Store interface {
	// Load reads the complete working set.
	Load(ctx context.Context) (*Dataset, error)

	// Replace swaps the entire store content for the dataset. Used by
	// import/seed tooling, not by ranking passes.
	Replace(ctx context.Context, ds *Dataset) error

	// SaveAging persists tournament age factors and result aged
	// weights after an aging pass.
	SaveAging(ctx context.Context, ts []*model.Tournament, rs []*model.Result) error

	// SaveRatings persists per-player ranking values and positions.
	SaveRatings(ctx context.Context, ps []*model.Player) error

	// SaveStandings persists per-country derived aggregates.
	SaveStandings(ctx context.Context, cs []*model.Country) error

	// PutSetting and Setting store loose key/value state such as the
	// global ranked player counts.
	PutSetting(ctx context.Context, key, value string) error
	Setting(ctx context.Context, key string) (string, error)

	Close() error
}
