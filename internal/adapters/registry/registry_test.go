package registry_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/gesturelab/distill/internal/adapters/registry"
	"github.com/gesturelab/distill/internal/domain/classifier"
	"github.com/gesturelab/distill/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

func testBundle(acc float64) *registry.Bundle {
	return &registry.Bundle{
		Model: &classifier.Model{
			Family: classifier.FamilyLogistic,
			Logistic: &classifier.LogisticRegression{
				Bias:  0.1,
				Coefs: []float64{0.5, -0.3},
			},
		},
		ModelType:    classifier.FamilyLogistic,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		NumSamples:   40,
		TestAccuracy: acc,
		FeatureNames: []string{"a", "b"},
	}
}

func TestPublish(t *testing.T) {
	Convey("Given an empty registry directory", t, func() {
		dir := t.TempDir()
		store := registry.New(registry.WithDir(dir))
		ctx := context.Background()

		Convey("When no model has been published", func() {
			Convey("Then LoadCurrent reports no model", func() {
				_, _, err := store.LoadCurrent(ctx)
				So(errors.Is(err, registry.ErrNoModel), ShouldBeTrue)
			})

			Convey("Then CurrentModTime reports absence", func() {
				_, ok := store.CurrentModTime()
				So(ok, ShouldBeFalse)
			})

			Convey("Then the next version is 1", func() {
				n, err := store.NextVersion()
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When publishing three models", func() {
			var versions []string
			for i := 0; i < 3; i++ {
				v, err := store.Publish(ctx, testBundle(0.8+float64(i)*0.01), registry.RunRecord{
					RunID:      "run",
					Timestamp:  time.Now().UTC().Format(time.RFC3339),
					NumSamples: 40,
					ModelType:  classifier.FamilyLogistic,
				})
				So(err, ShouldBeNil)
				versions = append(versions, v)
			}

			Convey("Then versions are assigned monotonically", func() {
				So(versions, ShouldResemble, []string{"v1", "v2", "v3"})
			})

			Convey("Then every versioned artifact exists", func() {
				for _, v := range versions {
					_, err := os.Stat(filepath.Join(dir, v+"_model.json"))
					So(err, ShouldBeNil)
				}
			})

			Convey("Then current holds the latest bundle", func() {
				bundle, mtime, err := store.LoadCurrent(ctx)
				So(err, ShouldBeNil)
				So(bundle.Version, ShouldEqual, "v3")
				So(bundle.TestAccuracy, ShouldAlmostEqual, 0.82)
				So(mtime.IsZero(), ShouldBeFalse)
			})

			Convey("Then the audit log holds one record per run, oldest first", func() {
				runs, err := store.Runs()
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 3)
				So(runs[0].Version, ShouldEqual, "v1")
				So(runs[2].Version, ShouldEqual, "v3")
			})
		})
	})
}

func TestLoadCurrent(t *testing.T) {
	Convey("Given a registry with a published model", t, func() {
		dir := t.TempDir()
		store := registry.New(registry.WithDir(dir))
		ctx := context.Background()

		_, err := store.Publish(ctx, testBundle(0.9), registry.RunRecord{RunID: "r1"})
		So(err, ShouldBeNil)

		Convey("When the current artifact is loaded", func() {
			bundle, _, err := store.LoadCurrent(ctx)

			Convey("Then the decoded model is usable", func() {
				So(err, ShouldBeNil)
				So(bundle.Model, ShouldNotBeNil)
				So(bundle.Model.Validate(), ShouldBeNil)
				So(bundle.FeatureNames, ShouldResemble, []string{"a", "b"})
			})
		})

		Convey("When the current artifact is truncated", func() {
			err := os.WriteFile(filepath.Join(dir, "current_model.json"), []byte("{"), 0o600)
			So(err, ShouldBeNil)

			Convey("Then loading reports a corrupt bundle", func() {
				_, _, err := store.LoadCurrent(ctx)
				So(errors.Is(err, registry.ErrCorruptBundle), ShouldBeTrue)
			})
		})

		Convey("When the current artifact carries no model", func() {
			data, merr := json.Marshal(registry.Bundle{Version: "v1"})
			So(merr, ShouldBeNil)
			err := os.WriteFile(filepath.Join(dir, "current_model.json"), data, 0o600)
			So(err, ShouldBeNil)

			Convey("Then loading reports a corrupt bundle", func() {
				_, _, err := store.LoadCurrent(ctx)
				So(errors.Is(err, registry.ErrCorruptBundle), ShouldBeTrue)
			})
		})
	})
}
