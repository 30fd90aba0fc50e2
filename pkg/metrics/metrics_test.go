package metrics_test

import (
	"testing"

	"github.com/gesturelab/distill/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording serving metrics", func() {
			So(func() {
				metrics.RecordPrediction("shadow", true)
				metrics.RecordPrediction("active", false)
				metrics.RecordPredictLatency(1.5)
				metrics.RecordModelReload()
				metrics.RecordModelLoadError()
				metrics.UpdateModelLoaded(true)
				metrics.UpdateModelLoaded(false)
				metrics.RecordDegradedResponse()
				metrics.RecordPredictionError()
			}, ShouldNotPanic)
		})

		Convey("When recording teacher and pipeline metrics", func() {
			So(func() {
				metrics.RecordTeacherCall()
				metrics.RecordTeacherCallError()
				metrics.RecordTeacherCallLatency(250)
				metrics.RecordEventDistilled()
				metrics.RecordEventSkipped("low_confidence")
				metrics.RecordCalibrationAccepted()
				metrics.RecordCalibrationSkipped("disagreement")
				metrics.RecordTrainingRun("published")
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and system metrics", func() {
			So(func() {
				metrics.RecordHTTPRequest("predict", "POST", "200")
				metrics.RecordHTTPRequestDuration("predict", "POST", "200", 3.2)
				metrics.UpdateSystemMemoryUsage(1 << 20)
				metrics.UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("When fetching the registry", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
		})

		Convey("When building a manager with a fresh registry", func() {
			reg := prometheus.NewRegistry()
			m := metrics.NewManager(
				metrics.WithPrometheusRegistry(reg),
				metrics.WithNamespace("test"),
				metrics.WithSubsystem("student"),
			)
			So(m, ShouldNotBeNil)
		})
	})
}
