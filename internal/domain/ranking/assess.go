package ranking

import (
	"context"
	"math"

	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/pkg/logger"
)

// Tolerance is the largest difference between a computed ranking value
// and the official one that still counts as agreement.
const Tolerance = 0.02

// Summary reports the outcome of a cross-check against official values.
type Summary struct {
	Total int
	Bad   int
}

// AssessPlayers compares every player's computed ranking value against
// the official value stored on the record, for both rulesets. Mismatches
// beyond Tolerance, and nil-versus-value disagreements, are logged and
// counted. Assessment never aborts a run.
func AssessPlayers(ctx context.Context, log logger.Logger, players []*model.Player) Summary {
	var s Summary
	for _, p := range players {
		s.Total++
		for _, rs := range model.Rulesets() {
			r := p.Rating(rs)
			if !mismatch(r.Official, r.Rank) {
				continue
			}
			s.Bad++
			log.Warn(ctx, "rank mismatch",
				logger.String("player", p.CallingName),
				logger.String("ema_id", p.EMAID),
				logger.String("ruleset", string(rs)),
				logger.Any("official", deref(r.Official)),
				logger.Any("computed", deref(r.Rank)),
			)
		}
	}
	log.Info(ctx, "player ranks assessed",
		logger.Int("total", s.Total),
		logger.Int("bad", s.Bad),
	)
	return s
}

func mismatch(official, computed *float64) bool {
	switch {
	case official == nil && computed == nil:
		return false
	case official == nil || computed == nil:
		return true
	default:
		return math.Abs(*official-*computed) >= Tolerance
	}
}

// deref renders an optional float for logging; nil stays nil.
func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
