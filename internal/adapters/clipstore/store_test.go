package clipstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gesturelab/distill/internal/adapters/clipstore"
	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestStoreLoad(t *testing.T) {
	Convey("Given clip files and a session bundle", t, func() {
		root := t.TempDir()
		clipsDir := filepath.Join(root, "clips")
		sessionsDir := filepath.Join(root, "sessions")

		write(t, filepath.Join(clipsDir, "clip_001.json"),
			`{"clip_id":"c1","label":"TP_OPEN_MENU","features":{"peakVelocity":2.0}}`)
		write(t, filepath.Join(clipsDir, "clip_002.json"),
			`[{"clip_id":"c2","label":"NEG_WAVE"},{"clip_id":"c3","label":"unlabeled"}]`)
		// Session bundles override per-clip files on ID collision.
		write(t, filepath.Join(sessionsDir, "eval_session_2026-03-01.json"),
			`[{"clip_id":"c1","label":"TP_CLOSE_MENU"},{"clip_id":"c4","label":"NEG_REACH"}]`)

		store := clipstore.New(
			clipstore.WithClipsDir(clipsDir),
			clipstore.WithSessionsDir(sessionsDir),
		)

		Convey("When loading", func() {
			clips, err := store.Load(context.Background())

			Convey("Then all clips should merge by id with later sources winning", func() {
				So(err, ShouldBeNil)
				So(len(clips), ShouldEqual, 4)

				byID := clipstore.MapByID(clips)
				So(byID["c1"].Label, ShouldEqual, gesture.LabelTPCloseMenu)
				So(byID["c2"].Label, ShouldEqual, gesture.LabelNegWave)
				So(byID["c4"].Label, ShouldEqual, gesture.LabelNegReach)
			})

			Convey("Then feature bags should survive the round trip", func() {
				byID := clipstore.MapByID(clips)
				So(byID["c1"].Features, ShouldBeNil) // overridden by session entry without features
				So(byID["c2"].Features, ShouldBeNil)
			})
		})

		Convey("When a clip file is malformed", func() {
			write(t, filepath.Join(clipsDir, "clip_003.json"), `{broken`)
			_, err := store.Load(context.Background())

			Convey("Then loading should fail with a read error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given missing directories", t, func() {
		store := clipstore.New(
			clipstore.WithClipsDir(filepath.Join(t.TempDir(), "nope")),
			clipstore.WithSessionsDir(filepath.Join(t.TempDir(), "also-nope")),
		)

		Convey("Then loading should succeed with zero clips", func() {
			clips, err := store.Load(context.Background())
			So(err, ShouldBeNil)
			So(len(clips), ShouldEqual, 0)
		})
	})
}
