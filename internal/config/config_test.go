package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/emahq/mers/internal/config"
	"github.com/emahq/mers/internal/domain/aging"
	"github.com/emahq/mers/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given default configuration", t, func() {
		cfg := config.New()

		Convey("Then sane defaults apply", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Addr, ShouldNotBeEmpty)
			So(cfg.DBPath, ShouldNotBeEmpty)
			So(cfg.TotalSeats, ShouldEqual, 140)
			So(cfg.MaxPageSize, ShouldBeGreaterThan, 0)
		})

		Convey("Then the reckoning date defaults to today at midnight UTC", func() {
			r, err := cfg.Reckoning()
			So(err, ShouldBeNil)
			So(r.Hour(), ShouldEqual, 0)
			So(r.Location(), ShouldEqual, time.UTC)
		})

		Convey("Then the override table defaults to the lockdown pins", func() {
			o, err := cfg.Overrides()
			So(err, ShouldBeNil)
			So(o, ShouldResemble, aging.DefaultOverrides())
		})
	})
}

func TestReckoningParsing(t *testing.T) {
	Convey("Given a pinned reckoning date", t, func() {
		cfg := config.New()
		cfg.ReckoningDate = "2024-07-01"

		Convey("Then it parses as midnight UTC", func() {
			r, err := cfg.Reckoning()
			So(err, ShouldBeNil)
			So(r.Equal(time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})
	})

	Convey("Given an unparseable reckoning date", t, func() {
		cfg := config.New()
		cfg.ReckoningDate = "01/07/2024"

		Convey("Then it is rejected", func() {
			_, err := cfg.Reckoning()
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})
}

func TestOverrideParsing(t *testing.T) {
	Convey("Given a configured override table", t, func() {
		cfg := config.New()
		cfg.AgingOverrides = map[string]string{
			"mcr/350":    "2022-07-01",
			"riichi/269": "2022-07-01",
		}

		Convey("Then keys parse into ruleset and id", func() {
			o, err := cfg.Overrides()
			So(err, ShouldBeNil)
			So(len(o), ShouldEqual, 2)
			pinned, ok := o[aging.OverrideKey{Ruleset: model.MCR, ID: 350}]
			So(ok, ShouldBeTrue)
			So(pinned.Equal(time.Date(2022, time.July, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
		})
	})

	Convey("Given malformed override entries", t, func() {
		for _, bad := range []map[string]string{
			{"mcr350": "2022-07-01"},
			{"chess/1": "2022-07-01"},
			{"mcr/abc": "2022-07-01"},
			{"mcr/350": "July 2022"},
		} {
			cfg := config.New()
			cfg.AgingOverrides = bad

			Convey("Then they are rejected: "+keys(bad), func() {
				_, err := cfg.Overrides()
				So(err, ShouldWrap, config.ErrInvalidConfig)
			})
		}
	})
}

func keys(m map[string]string) string {
	for k := range m {
		return k
	}
	return ""
}

func TestLoadEnv(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		t.Setenv("MERS_ADDR", ":7070")
		t.Setenv("MERS_TOTAL_SEATS", "200")

		Convey("When configuration loads", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)

			Convey("Then env wins over defaults", func() {
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.TotalSeats, ShouldEqual, 200)
				So(cfg.LogLevel, ShouldEqual, "info")
			})
		})
	})
}
