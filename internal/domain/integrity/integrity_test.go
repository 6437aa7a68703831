package integrity

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/emahq/mers/internal/domain/model"
)

func valid() ([]*model.Country, []*model.Player, []*model.Tournament, []*model.Result) {
	countries := []*model.Country{{Code: "de"}, {Code: "fr"}}
	players := []*model.Player{
		{ID: 1, EMAID: "04000001", CountryID: "de"},
		{ID: 2, EMAID: "07000001", CountryID: "fr"},
	}
	tournaments := []*model.Tournament{
		{ID: 1, Ruleset: model.MCR, PlayerCount: 2},
		{ID: 1, Ruleset: model.Riichi, PlayerCount: 2},
	}
	results := []*model.Result{
		{PlayerID: 1, TournamentID: 1, Ruleset: model.MCR, Position: 1},
		{PlayerID: 2, TournamentID: 1, Ruleset: model.MCR, Position: 2},
		{PlayerID: 1, TournamentID: 1, Ruleset: model.Riichi, Position: 1},
	}
	return countries, players, tournaments, results
}

func TestCheck(t *testing.T) {
	Convey("Given a consistent working set", t, func() {
		countries, players, tournaments, results := valid()

		Convey("It passes", func() {
			So(Check(countries, players, tournaments, results), ShouldBeNil)
		})

		Convey("The same tournament id in both rulesets is fine", func() {
			So(tournaments[0].ID, ShouldEqual, tournaments[1].ID)
			So(Check(countries, players, tournaments, results), ShouldBeNil)
		})

		Convey("A duplicate country code is a defect", func() {
			countries = append(countries, &model.Country{Code: "de"})
			err := Check(countries, players, tournaments, results)
			So(errors.Is(err, ErrDuplicate), ShouldBeTrue)
		})

		Convey("A duplicate player id is a defect", func() {
			players = append(players, &model.Player{ID: 2})
			err := Check(countries, players, tournaments, results)
			So(errors.Is(err, ErrDuplicate), ShouldBeTrue)
		})

		Convey("A repeated result for one player and event is a defect", func() {
			results = append(results, &model.Result{PlayerID: 1, TournamentID: 1, Ruleset: model.MCR, Position: 2})
			err := Check(countries, players, tournaments, results)
			So(errors.Is(err, ErrDuplicate), ShouldBeTrue)
		})

		Convey("A result for an unknown player is a defect", func() {
			results = append(results, &model.Result{PlayerID: 9, TournamentID: 1, Ruleset: model.MCR})
			err := Check(countries, players, tournaments, results)
			So(errors.Is(err, ErrDangling), ShouldBeTrue)
		})

		Convey("A result for an unknown tournament is a defect", func() {
			results = append(results, &model.Result{PlayerID: 1, TournamentID: 9, Ruleset: model.MCR})
			err := Check(countries, players, tournaments, results)
			So(errors.Is(err, ErrDangling), ShouldBeTrue)
		})
	})
}
