package ranking_test

import (
	"testing"

	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func result(base int, weight float64) *model.Result {
	return &model.Result{Ruleset: model.MCR, BaseRank: base, AgedMERS: weight}
}

func TestValueEligibility(t *testing.T) {
	Convey("Given a player with a single weighted result", t, func() {
		results := []*model.Result{result(1000, 2)}

		Convey("Then no ranking value is produced", func() {
			So(ranking.Value(model.MCR, results), ShouldBeNil)
		})

		Convey("When a second weighted result arrives", func() {
			results = append(results, result(500, 1))

			Convey("Then the player becomes ranked", func() {
				So(ranking.Value(model.MCR, results), ShouldNotBeNil)
			})
		})
	})

	Convey("Given two results where one has zero aged weight", t, func() {
		results := []*model.Result{result(1000, 2), result(800, 0)}

		Convey("Then the expired result does not count toward eligibility", func() {
			So(ranking.Value(model.MCR, results), ShouldBeNil)
		})
	})

	Convey("Given two weighted results under the other ruleset", t, func() {
		results := []*model.Result{
			{Ruleset: model.Riichi, BaseRank: 1000, AgedMERS: 1},
			{Ruleset: model.Riichi, BaseRank: 900, AgedMERS: 1},
		}

		Convey("Then they contribute nothing to an MCR ranking", func() {
			So(ranking.Value(model.MCR, results), ShouldBeNil)
			So(ranking.Value(model.Riichi, results), ShouldNotBeNil)
		})
	})
}

func TestValuePadding(t *testing.T) {
	Convey("Given exactly two real results", t, func() {
		results := []*model.Result{result(1000, 1), result(1000, 1)}

		Convey("Then three synthetic zero entries join the averages", func() {
			// Part A: 2000 over weight 5; Part B: 2000 over weight 4.
			v := ranking.Value(model.MCR, results)
			So(v, ShouldNotBeNil)
			So(*v, ShouldEqual, 450)
		})
	})

	Convey("Given mixed weights", t, func() {
		results := []*model.Result{result(1000, 2), result(500, 1)}

		Convey("Then both windows weight by aged MERS", func() {
			// Part A: 2500/6, Part B: 2500/5, averaged and rounded.
			v := ranking.Value(model.MCR, results)
			So(v, ShouldNotBeNil)
			So(*v, ShouldEqual, 458.33)
		})
	})
}

func TestValueWindow(t *testing.T) {
	Convey("Given ten equally weighted results", t, func() {
		// Best-first: 1000 x5, then 100 x5. The Part A window takes
		// ceil(5 + 0.8*5) = 9 of them.
		var results []*model.Result
		for i := 0; i < 5; i++ {
			results = append(results, result(1000, 1))
		}
		for i := 0; i < 5; i++ {
			results = append(results, result(100, 1))
		}

		Convey("Then the wide window drops the single worst result", func() {
			// Part A: (5*1000 + 4*100)/9 = 600; Part B: 1000.
			v := ranking.Value(model.MCR, results)
			So(v, ShouldNotBeNil)
			So(*v, ShouldEqual, 800)
		})
	})

	Convey("Given equal base ranks with different weights at the Part B cut", t, func() {
		heavy := result(800, 4)
		light := result(800, 1)
		filler := []*model.Result{result(900, 1), result(850, 1), result(820, 1)}

		Convey("Then the heavier result wins the narrow window", func() {
			// Sorted: 900, 850, 820, 800(w4), 800(w1). Part B must
			// take the weight-4 result as its fourth entry:
			// A = 6570/8, B = 5770/7.
			for _, in := range [][]*model.Result{
				append([]*model.Result{light, heavy}, filler...),
				append([]*model.Result{heavy, light}, filler...),
			} {
				v := ranking.Value(model.MCR, in)
				So(v, ShouldNotBeNil)
				So(*v, ShouldEqual, 822.77)
			}
		})
	})
}

func TestRankPlayer(t *testing.T) {
	Convey("Given a player and their results", t, func() {
		p := &model.Player{EMAID: "04250001"}
		results := []*model.Result{result(1000, 1), result(1000, 1)}

		Convey("When ranked for MCR", func() {
			v := ranking.RankPlayer(p, model.MCR, results)

			Convey("Then the value lands on the MCR rating only", func() {
				So(v, ShouldNotBeNil)
				So(p.MCR.Rank, ShouldEqual, v)
				So(p.Riichi.Rank, ShouldBeNil)
			})
		})
	})
}

func TestAssignPositions(t *testing.T) {
	rank := func(v float64) *float64 { return &v }

	Convey("Given a mix of ranked, unranked and unaffiliated players", t, func() {
		a := &model.Player{ID: 1, EMAID: "1", MCR: model.Rating{Rank: rank(900)}}
		b := &model.Player{ID: 2, EMAID: "2", MCR: model.Rating{Rank: rank(950)}}
		c := &model.Player{ID: 3, EMAID: "3"}
		d := &model.Player{ID: 4, EMAID: model.UnaffiliatedID, MCR: model.Rating{Rank: rank(999)}}
		e := &model.Player{ID: 5, EMAID: "5", MCR: model.Rating{Rank: rank(900)}}

		players := []*model.Player{a, b, c, d, e}

		Convey("When positions are assigned", func() {
			n := ranking.AssignPositions(players, model.MCR)

			Convey("Then only affiliated ranked players receive ordinals", func() {
				So(n, ShouldEqual, 3)
				So(b.MCR.Position, ShouldEqual, 1)
				So(a.MCR.Position, ShouldEqual, 2)
				So(e.MCR.Position, ShouldEqual, 3)
				So(c.MCR.Position, ShouldEqual, 0)
				So(d.MCR.Position, ShouldEqual, 0)
			})

			Convey("Then equal values keep the incoming order", func() {
				So(a.MCR.Position, ShouldBeLessThan, e.MCR.Position)
			})
		})
	})
}
