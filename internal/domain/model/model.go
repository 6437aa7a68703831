// Package model contains domain records passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Ruleset identifies one of the two independent rule-sets the federation
// ranks under. Every tournament, result and ranking value belongs to
// exactly one ruleset.
type Ruleset string

// The two recognized rulesets.
const (
	MCR    Ruleset = "mcr"
	Riichi Ruleset = "riichi"
)

// Rulesets returns both rulesets in a fixed order.
func Rulesets() [2]Ruleset {
	return [2]Ruleset{MCR, Riichi}
}

// Valid reports whether rs is a recognized ruleset.
func (rs Ruleset) Valid() bool {
	return rs == MCR || rs == Riichi
}

// ParseRuleset converts a string to a Ruleset, case-insensitively.
func ParseRuleset(s string) (Ruleset, error) {
	switch Ruleset(strings.ToLower(strings.TrimSpace(s))) {
	case MCR:
		return MCR, nil
	case Riichi:
		return Riichi, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRuleset, s)
}

// Sentinel identity values carried over from the federation's records.
const (
	// UnknownCountry marks a player or tournament with no known country.
	// It is excluded from all country ranking and quota computations.
	UnknownCountry = "??"

	// UnaffiliatedID is the EMA id given to players who never held
	// federation membership. Such players are never ranked.
	UnaffiliatedID = "-1"
)

// MaxBaseRank is the base rank awarded to a tournament winner.
const MaxBaseRank = 1000

// BaseRank computes the fixed-at-close score for a finishing position in a
// field of playerCount players: round(1000 * (N-pos) / (N-1)). The winner
// gets 1000, the last place gets 0. A field of one player has no defined
// base rank.
func BaseRank(playerCount, position int) (int, error) {
	if playerCount < 2 {
		return 0, fmt.Errorf("%w: field of %d", ErrFieldTooSmall, playerCount)
	}
	if position < 1 || position > playerCount {
		return 0, fmt.Errorf("%w: position %d in field of %d", ErrInvalidPosition, position, playerCount)
	}
	return int(math.Round(MaxBaseRank * float64(playerCount-position) / float64(playerCount-1))), nil
}

// Tournament is one ranked event. MERS is the base weight fixed at
// creation; AgeFactor is derived by the aging pass and is only valid for
// the reckoning date it was computed against.
type Tournament struct {
	ID          int
	Title       string
	Place       string
	Ruleset     Ruleset
	MERS        float64
	StartDate   time.Time
	EndDate     time.Time
	PlayerCount int

	// EffectiveEndDate is the date used for aging. Normally equal to
	// EndDate; a small set of historical tournaments carry a pinned
	// override (see the aging package's override table).
	EffectiveEndDate time.Time

	// AgeFactor is 1.0, 0.5 or 0 depending on the tournament's age at
	// the last reckoning date.
	AgeFactor float64
}

// AgedMERS returns the tournament's weight on the last reckoning date.
func (t *Tournament) AgedMERS() float64 {
	return t.AgeFactor * t.MERS
}

// Result is one player's finishing record in one tournament. BaseRank is
// immutable after tournament close; AgedMERS and AgedRank are recomputed
// in lock-step with the tournament's aging.
type Result struct {
	PlayerID     int
	TournamentID int
	Ruleset      Ruleset
	Position     int
	Score        int
	BaseRank     int

	// WasEMA records whether the player held federation membership at
	// event time. Affiliation can change later; the result keeps the
	// historical value.
	WasEMA bool

	// CountryID is the player's affiliation at event time.
	CountryID string

	AgedMERS float64
	AgedRank float64
}

// Rating holds a player's derived standing for one ruleset. A nil Rank
// means "not yet eligible". Position is 0 until a ranking pass assigns
// ordinals.
type Rating struct {
	Rank     *float64
	Official *float64
	Position int
}

// Player is one ranked individual. The EMA id is a stable federation
// identifier; UnaffiliatedID marks players outside the federation.
type Player struct {
	ID          int
	SortingName string
	CallingName string
	EMAID       string
	CountryID   string

	MCR    Rating
	Riichi Rating
}

// Rating selects the per-ruleset rating struct. The two rulesets live in
// parallel fields rather than behind string-keyed lookup.
func (p *Player) Rating(rs Ruleset) *Rating {
	if rs == MCR {
		return &p.MCR
	}
	return &p.Riichi
}

// Affiliated reports whether the player counts toward rankings at all.
func (p *Player) Affiliated() bool {
	return p.EMAID != UnaffiliatedID && p.EMAID != ""
}

// Standing holds a country's derived aggregates for one ruleset. All
// fields are recomputed wholesale on each country ranking pass.
type Standing struct {
	// Ranking is the ordinal position among countries, nil when the
	// country has no ranked players.
	Ranking *int

	// PlayerCount is the number of ranked players affiliated here.
	PlayerCount int

	// Over700 is the number of those players with a personal rank
	// above 700.
	Over700 int

	// AvgTop3 is the average rank of the top 3 players, always divided
	// by 3 even when fewer are available. Nil when PlayerCount is 0.
	AvgTop3 *float64

	// ShareRanked and Share700 are this country's proportion of all
	// ranked players and of all 700+ players.
	ShareRanked float64
	Share700    float64
}

// Country is a federation member nation, keyed by ISO-3166 alpha-2 code.
type Country struct {
	Code string
	Name string

	MCR    Standing
	Riichi Standing
}

// Standing selects the per-ruleset standing struct.
func (c *Country) Standing(rs Ruleset) *Standing {
	if rs == MCR {
		return &c.MCR
	}
	return &c.Riichi
}
