package metrics_test

import (
	"testing"

	"github.com/emahq/mers/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("Then all recorders accept values without panicking", func() {
			So(func() {
				metrics.ObservePassDuration("aging", 0.01)
				metrics.SetPlayersRanked("mcr", 120)
				metrics.SetCountriesRanked("riichi", 18)
				metrics.RecordAssessment("player", 120, 2)
				metrics.SetQuotaSeats("mcr", 138, 2)
				metrics.RecordHTTPRequest("rankings", "GET", "200")
				metrics.RecordHTTPRequestDuration("rankings", "GET", "200", 0.002)
			}, ShouldNotPanic)
		})

		Convey("Then the registry gathers the recorded families", func() {
			families, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a custom manager", t, func() {
		Convey("Then options shape its configuration without conflict", func() {
			So(func() {
				metrics.NewManager(
					metrics.WithNamespace("test"),
					metrics.WithSubsystem("engine"),
					metrics.WithHistogramBuckets([]float64{0.1, 1, 10}),
				)
			}, ShouldNotPanic)
		})
	})
}
