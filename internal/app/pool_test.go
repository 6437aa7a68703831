package service

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/pkg/logger"
)

func TestRankPool(t *testing.T) {
	Convey("Given many players with identical result sets", t, func() {
		ctx := context.Background()
		const n = 200

		players := make([]*model.Player, n)
		byPlayer := make(map[int][]*model.Result, n)
		for i := 0; i < n; i++ {
			players[i] = &model.Player{ID: i + 1, EMAID: fmt.Sprintf("%08d", i+1), CountryID: "de"}
			byPlayer[i+1] = []*model.Result{
				{PlayerID: i + 1, TournamentID: 1, Ruleset: model.MCR, BaseRank: 1000, AgedMERS: 1.0},
				{PlayerID: i + 1, TournamentID: 2, Ruleset: model.MCR, BaseRank: 1000, AgedMERS: 1.0},
			}
		}

		Convey("When the pool ranks them with several workers", func() {
			pool := newRankPool(8, logger.Nop())
			err := pool.rankAll(ctx, model.MCR, players, byPlayer)
			So(err, ShouldBeNil)

			Convey("Then every player ends up with the same value", func() {
				for _, p := range players {
					So(p.MCR.Rank, ShouldNotBeNil)
					So(*p.MCR.Rank, ShouldEqual, *players[0].MCR.Rank)
				}
			})
		})

		Convey("When the context is already canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			pool := newRankPool(2, logger.Nop())
			err := pool.rankAll(canceled, model.MCR, players, byPlayer)
			So(err, ShouldNotBeNil)
		})

		Convey("When the worker count is not positive it still ranks", func() {
			pool := newRankPool(0, logger.Nop())
			So(pool.workers, ShouldBeGreaterThan, 0)
			err := pool.rankAll(ctx, model.MCR, players[:2], byPlayer)
			So(err, ShouldBeNil)
			So(players[0].MCR.Rank, ShouldNotBeNil)
		})
	})
}
