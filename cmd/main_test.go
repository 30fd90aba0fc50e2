package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/gesturelab/distill/internal/adapters/http/api"
	"github.com/gesturelab/distill/internal/adapters/http/swagger"
	"github.com/gesturelab/distill/internal/adapters/registry"
	service "github.com/gesturelab/distill/internal/app"
	"github.com/gesturelab/distill/internal/config"
	"github.com/gesturelab/distill/internal/domain/types"
	"github.com/gesturelab/distill/pkg/logger"
	"github.com/gesturelab/distill/pkg/metrics"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("DISTILL_ADDR", ":8080")
			_ = os.Setenv("DISTILL_MODE", "active")
			defer func() {
				_ = os.Unsetenv("DISTILL_ADDR")
				_ = os.Unsetenv("DISTILL_MODE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Mode, convey.ShouldEqual, "active")
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := service.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := service.New(
					service.WithRegistry(registry.New(registry.WithDir(t.TempDir()))),
					service.WithMode(types.ModeActive),
				)
				convey.So(svc, convey.ShouldNotBeNil)
				convey.So(svc.Mode(), convey.ShouldEqual, types.ModeActive)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := service.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then HTTP server should be creatable", func() {
				server := api.NewServer(svc, svc)
				convey.So(server, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then the custom registry should be available", func() {
				convey.So(metrics.GetRegistry(), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should stop when the context is cancelled", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given main application integration", t, func() {
		convey.Convey("When testing full application setup", func() {
			_ = os.Setenv("DISTILL_ADDR", ":8080")
			_ = os.Setenv("DISTILL_MODE", "shadow")
			defer func() {
				_ = os.Unsetenv("DISTILL_ADDR")
				_ = os.Unsetenv("DISTILL_MODE")
			}()

			convey.Convey("Then all components should work together", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)

				store := registry.New(registry.WithDir(t.TempDir()))
				svc := service.New(
					service.WithRegistry(store),
					service.WithMode(types.Mode(cfg.Mode)),
				)
				convey.So(svc, convey.ShouldNotBeNil)

				server := api.NewServer(svc, svc)
				convey.So(server, convey.ShouldNotBeNil)

				mux := http.NewServeMux()
				convey.So(mux, convey.ShouldNotBeNil)

				server.Register(ctx, mux)
				swagger.Register(ctx, mux)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("DISTILL_MODE", "sideways")
			defer func() { _ = os.Unsetenv("DISTILL_MODE") }()

			convey.Convey("Then configuration loading should fail", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
