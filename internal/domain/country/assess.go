package country

import (
	"context"
	"math"

	"github.com/emahq/mers/pkg/logger"
)

// Tolerance mirrors the player-ranking assessment tolerance for the
// top-3 average comparison.
const Tolerance = 0.02

// Reference is one row of an externally supplied official country
// ranking, ordered by position.
type Reference struct {
	Code        string
	PlayerCount int
	AvgTop3     float64
}

// Summary reports the outcome of a cross-check against a reference
// ordering.
type Summary struct {
	Total int
	Bad   int
}

// Assess compares a computed ordering position by position against an
// official reference. Country code and player count must match exactly;
// the top-3 average may differ by up to Tolerance. Every mismatch is
// logged and counted; the run always continues.
func Assess(ctx context.Context, log logger.Logger, got []Aggregate, official []Reference) Summary {
	var s Summary
	for i, agg := range got {
		if i >= len(official) {
			break
		}
		ref := official[i]
		s.Total++
		if agg.Code != ref.Code {
			s.Bad++
			log.Warn(ctx, "country mismatch",
				logger.Int("position", i+1),
				logger.String("official", ref.Code),
				logger.String("computed", agg.Code),
			)
		}
		if agg.PlayerCount != ref.PlayerCount {
			s.Bad++
			log.Warn(ctx, "player count mismatch",
				logger.Int("position", i+1),
				logger.Int("official", ref.PlayerCount),
				logger.Int("computed", agg.PlayerCount),
			)
		}
		if math.Abs(agg.AvgTop3-ref.AvgTop3) > Tolerance {
			s.Bad++
			log.Warn(ctx, "top3 average mismatch",
				logger.Int("position", i+1),
				logger.Float64("official", ref.AvgTop3),
				logger.Float64("computed", agg.AvgTop3),
			)
		}
	}
	log.Info(ctx, "country ranking assessed",
		logger.Int("rows", s.Total),
		logger.Int("bad", s.Bad),
	)
	return s
}
