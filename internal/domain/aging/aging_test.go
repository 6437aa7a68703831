package aging_test

import (
	"testing"
	"time"

	"github.com/emahq/mers/internal/domain/aging"
	"github.com/emahq/mers/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tournament(id int, rs model.Ruleset, mers float64, end time.Time) *model.Tournament {
	return &model.Tournament{
		ID:          id,
		Ruleset:     rs,
		MERS:        mers,
		StartDate:   end.AddDate(0, 0, -1),
		EndDate:     end,
		PlayerCount: 16,
	}
}

func TestAgeTournaments(t *testing.T) {
	reckoning := day(2025, time.June, 15)

	Convey("Given tournaments across the aging thresholds", t, func() {
		fresh := tournament(1, model.MCR, 2.0, day(2025, time.January, 10))
		halved := tournament(2, model.MCR, 2.0, day(2024, time.March, 3))
		expired := tournament(3, model.MCR, 2.0, day(2023, time.February, 1))
		future := tournament(4, model.MCR, 2.0, day(2025, time.December, 24))

		results := []*model.Result{
			{PlayerID: 1, TournamentID: 1, Ruleset: model.MCR, BaseRank: 1000},
			{PlayerID: 1, TournamentID: 2, Ruleset: model.MCR, BaseRank: 500},
			{PlayerID: 1, TournamentID: 3, Ruleset: model.MCR, BaseRank: 250},
			{PlayerID: 1, TournamentID: 4, Ruleset: model.MCR, BaseRank: 750},
		}
		ts := []*model.Tournament{fresh, halved, expired, future}

		engine := aging.New(aging.WithOverrides(aging.Overrides{}))

		Convey("When aging runs", func() {
			err := engine.AgeTournaments(reckoning, ts, results)
			So(err, ShouldBeNil)

			Convey("Then weights land in the expected buckets", func() {
				So(fresh.AgeFactor, ShouldEqual, 1.0)
				So(halved.AgeFactor, ShouldEqual, 0.5)
				So(expired.AgeFactor, ShouldEqual, 0.0)
			})

			Convey("Then a tournament still in the future gets zero weight", func() {
				So(future.AgeFactor, ShouldEqual, 0.0)
			})

			Convey("Then every result carries its tournament's aged weight", func() {
				So(results[0].AgedMERS, ShouldEqual, 2.0)
				So(results[0].AgedRank, ShouldEqual, 2000.0)
				So(results[1].AgedMERS, ShouldEqual, 1.0)
				So(results[1].AgedRank, ShouldEqual, 500.0)
				So(results[2].AgedMERS, ShouldEqual, 0.0)
				So(results[3].AgedMERS, ShouldEqual, 0.0)
			})
		})

		Convey("When aging runs twice for the same reckoning date", func() {
			So(engine.AgeTournaments(reckoning, ts, results), ShouldBeNil)
			first := []float64{fresh.AgeFactor, halved.AgeFactor, expired.AgeFactor, future.AgeFactor}
			firstAged := results[1].AgedMERS

			So(engine.AgeTournaments(reckoning, ts, results), ShouldBeNil)

			Convey("Then the outcome is identical", func() {
				So(fresh.AgeFactor, ShouldEqual, first[0])
				So(halved.AgeFactor, ShouldEqual, first[1])
				So(expired.AgeFactor, ShouldEqual, first[2])
				So(future.AgeFactor, ShouldEqual, first[3])
				So(results[1].AgedMERS, ShouldEqual, firstAged)
			})
		})
	})

	Convey("Given a fixed tournament and a reckoning date moving forward", t, func() {
		engine := aging.New(aging.WithOverrides(aging.Overrides{}))
		end := day(2024, time.May, 20)

		Convey("Then the aged weight never increases", func() {
			prev := 10.0
			for _, r := range []time.Time{
				day(2024, time.June, 1),
				day(2025, time.January, 1),
				day(2025, time.July, 1),
				day(2026, time.July, 1),
				day(2030, time.July, 1),
			} {
				tn := tournament(7, model.Riichi, 3.0, end)
				So(engine.AgeTournaments(r, []*model.Tournament{tn}, nil), ShouldBeNil)
				So(tn.AgedMERS(), ShouldBeLessThanOrEqualTo, prev)
				prev = tn.AgedMERS()
			}
		})
	})

	Convey("Given the lockdown override table", t, func() {
		engine := aging.New()

		Convey("When a pinned tournament is aged two years past the pin", func() {
			tn := tournament(350, model.MCR, 4.0, day(2020, time.October, 10))
			err := engine.AgeTournaments(day(2024, time.July, 2), []*model.Tournament{tn}, nil)
			So(err, ShouldBeNil)

			Convey("Then the pinned date, not the real end date, decides the bucket", func() {
				So(tn.EffectiveEndDate.Equal(day(2022, time.July, 1)), ShouldBeTrue)
				So(tn.AgeFactor, ShouldEqual, 0.0)
			})
		})

		Convey("When the same tournament is aged between one and two years past the pin", func() {
			tn := tournament(350, model.MCR, 4.0, day(2020, time.October, 10))
			err := engine.AgeTournaments(day(2024, time.June, 30), []*model.Tournament{tn}, nil)
			So(err, ShouldBeNil)
			So(tn.AgeFactor, ShouldEqual, 0.5)
		})

		Convey("When the same tournament is aged within a year of the pin", func() {
			tn := tournament(350, model.MCR, 4.0, day(2020, time.October, 10))
			err := engine.AgeTournaments(day(2023, time.June, 30), []*model.Tournament{tn}, nil)
			So(err, ShouldBeNil)
			So(tn.AgeFactor, ShouldEqual, 1.0)
		})

		Convey("When a riichi tournament shares an id with a pinned MCR one", func() {
			tn := tournament(351, model.Riichi, 4.0, day(2020, time.October, 10))
			err := engine.AgeTournaments(day(2023, time.June, 30), []*model.Tournament{tn}, nil)
			So(err, ShouldBeNil)

			Convey("Then it is not pinned", func() {
				So(tn.EffectiveEndDate.Equal(day(2020, time.October, 10)), ShouldBeTrue)
				So(tn.AgeFactor, ShouldEqual, 0.0)
			})
		})
	})

	Convey("Given invalid input", t, func() {
		engine := aging.New()

		Convey("Then a zero reckoning date fails the call", func() {
			err := engine.AgeTournaments(time.Time{}, nil, nil)
			So(err, ShouldWrap, aging.ErrBadReckoningDate)
		})

		Convey("Then a result without its tournament fails the call", func() {
			rs := []*model.Result{{TournamentID: 99, Ruleset: model.MCR}}
			err := engine.AgeTournaments(day(2025, time.January, 1), nil, rs)
			So(err, ShouldWrap, aging.ErrOrphanResult)
		})
	})
}

func TestYearsBefore(t *testing.T) {
	Convey("Given dates around leap years", t, func() {
		Convey("Then whole-year subtraction is used", func() {
			So(aging.YearsBefore(1, day(2024, time.February, 29)).Equal(day(2023, time.March, 1)), ShouldBeTrue)
			So(aging.YearsBefore(2, day(2025, time.June, 15)).Equal(day(2023, time.June, 15)), ShouldBeTrue)
		})
	})
}
