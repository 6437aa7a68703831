// Package integrity checks imported federation records for duplicate
// identities and dangling references before they reach the store.
package integrity

import (
	"fmt"

	"github.com/emahq/mers/internal/domain/model"
)

// resultKey identifies one result: a player appears at most once per
// tournament and ruleset.
type resultKey struct {
	player     int
	tournament int
	ruleset    model.Ruleset
}

// tournamentKey is (id, ruleset): the two rulesets number their events
// independently.
type tournamentKey struct {
	id      int
	ruleset model.Ruleset
}

// Check validates a full working set. It reports the first defect found:
// duplicate country codes, player ids or tournament ids, duplicate
// results, or results referencing unknown players or tournaments.
func Check(countries []*model.Country, players []*model.Player, tournaments []*model.Tournament, results []*model.Result) error {
	codes := make(map[string]bool, len(countries))
	for _, c := range countries {
		if codes[c.Code] {
			return fmt.Errorf("%w: country %q", ErrDuplicate, c.Code)
		}
		codes[c.Code] = true
	}

	playerIDs := make(map[int]bool, len(players))
	for _, p := range players {
		if playerIDs[p.ID] {
			return fmt.Errorf("%w: player %d", ErrDuplicate, p.ID)
		}
		playerIDs[p.ID] = true
	}

	tournamentIDs := make(map[tournamentKey]bool, len(tournaments))
	for _, t := range tournaments {
		key := tournamentKey{id: t.ID, ruleset: t.Ruleset}
		if tournamentIDs[key] {
			return fmt.Errorf("%w: tournament %d (%s)", ErrDuplicate, t.ID, t.Ruleset)
		}
		tournamentIDs[key] = true
	}

	seen := make(map[resultKey]bool, len(results))
	for _, r := range results {
		key := resultKey{player: r.PlayerID, tournament: r.TournamentID, ruleset: r.Ruleset}
		if seen[key] {
			return fmt.Errorf("%w: result for player %d in tournament %d (%s)",
				ErrDuplicate, r.PlayerID, r.TournamentID, r.Ruleset)
		}
		seen[key] = true

		if !playerIDs[r.PlayerID] {
			return fmt.Errorf("%w: result references player %d", ErrDangling, r.PlayerID)
		}
		if !tournamentIDs[tournamentKey{id: r.TournamentID, ruleset: r.Ruleset}] {
			return fmt.Errorf("%w: result references tournament %d (%s)",
				ErrDangling, r.TournamentID, r.Ruleset)
		}
	}
	return nil
}
