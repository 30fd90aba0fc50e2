package logger_test

import (
	"context"
	"testing"

	"github.com/gesturelab/distill/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When fetching the global instance", func() {
			l := logger.Get()

			Convey("Then it should accept all levels without panicking", func() {
				ctx := context.Background()
				So(func() {
					l.Debug(ctx, "debug message", logger.String("k", "v"))
					l.Info(ctx, "info message", logger.Int("n", 1))
					l.Warn(ctx, "warn message", logger.Float64("f", 0.5))
					l.Error(ctx, "error message", logger.Bool("b", true))
				}, ShouldNotPanic)
			})

			Convey("Then named loggers should be derived without panicking", func() {
				So(func() { logger.Named("harness").Info(context.Background(), "named") }, ShouldNotPanic)
			})
		})

		Convey("When setting the level from a string", func() {
			Convey("Then known levels should parse", func() {
				So(logger.SetLevelString("debug"), ShouldBeNil)
				So(logger.SetLevelString("info"), ShouldBeNil)
				So(logger.SetLevelString("warning"), ShouldBeNil)
				So(logger.SetLevelString("error"), ShouldBeNil)
				So(logger.SetLevelString(""), ShouldBeNil)
			})

			Convey("Then an unknown level should error", func() {
				So(logger.SetLevelString("chatty"), ShouldNotBeNil)
			})
		})
	})
}
