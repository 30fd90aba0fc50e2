package distill_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/internal/pipeline/distill"
	"github.com/gesturelab/distill/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

func writeLog(t *testing.T, dir string, lines ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "verifier_events.jsonl"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

const goodLine = `{"event_id":"e1","proposed_intent":"OPEN_MENU","features":{"peakVelocity":2.1,"gestureType":"OPEN_MENU"},"response_json":{"final_intent":"OPEN_MENU","intentional":true,"confidence":0.92,"reason_category":"intentional_command"}}`

func TestScan(t *testing.T) {
	Convey("Given a log tree with one good record per filter violation", t, func() {
		root := t.TempDir()
		writeLog(t, filepath.Join(root, "sess1"),
			goodLine,
			`not json at all`,
			`{"event_id":"e2","response_json":{"intentional":true,"confidence":0.9,"reason_category":"intentional_command"}}`,
			`{"event_id":"e3","features":{"a":1},"response_json":{"intentional":true,"confidence":0.9,"reason_category":"intentional_command","schema_valid":false},"proposed_intent":"OPEN_MENU"}`,
			`{"event_id":"e4","features":{"a":1},"response_json":{"intentional":true,"confidence":0.5,"reason_category":"intentional_command"},"proposed_intent":"OPEN_MENU"}`,
			`{"event_id":"e5","features":{"a":1},"response_json":{"intentional":true,"confidence":0.9,"reason_category":"unknown"},"proposed_intent":"OPEN_MENU"}`,
			`{"event_id":"e6","features":{"a":1},"response_json":{"confidence":0.9,"reason_category":"intentional_command"},"proposed_intent":"OPEN_MENU"}`,
			`{"event_id":"e7","features":{"a":1},"response_json":{"intentional":false,"confidence":0.9,"reason_category":"accidental_motion"}}`,
		)
		scanner := distill.New(distill.WithRoot(root))

		Convey("When the tree is scanned", func() {
			events, summary, err := scanner.Scan(context.Background())

			Convey("Then only the clean record survives", func() {
				So(err, ShouldBeNil)
				So(summary.Accepted, ShouldEqual, 1)
				So(len(events), ShouldEqual, 1)
				So(events[0].EventID, ShouldEqual, "e1")
				So(events[0].Label, ShouldEqual, 1)
				So(events[0].GestureType, ShouldEqual, gesture.IntentOpenMenu)
			})

			Convey("Then each violation is counted under its reason", func() {
				So(err, ShouldBeNil)
				So(summary.Skipped[distill.SkipMalformed], ShouldEqual, 1)
				So(summary.Skipped[distill.SkipMissingFields], ShouldEqual, 1)
				So(summary.Skipped[distill.SkipSchemaInvalid], ShouldEqual, 1)
				So(summary.Skipped[distill.SkipLowConfidence], ShouldEqual, 1)
				So(summary.Skipped[distill.SkipUnknownReason], ShouldEqual, 1)
				So(summary.Skipped[distill.SkipMissingLabel], ShouldEqual, 2)
				So(summary.Lines, ShouldEqual, 8)
			})
		})
	})

	Convey("Given logs spread across nested session directories", t, func() {
		root := t.TempDir()
		writeLog(t, filepath.Join(root, "a"), goodLine)
		writeLog(t, filepath.Join(root, "b", "nested"), strings.ReplaceAll(goodLine, "e1", "e2"))

		Convey("When the tree is scanned", func() {
			events, summary, err := distill.New(distill.WithRoot(root)).Scan(context.Background())

			Convey("Then every log file contributes", func() {
				So(err, ShouldBeNil)
				So(summary.Files, ShouldEqual, 2)
				So(len(events), ShouldEqual, 2)
			})
		})
	})

	Convey("Given the same event archived into two log files", t, func() {
		root := t.TempDir()
		writeLog(t, filepath.Join(root, "live"), goodLine)
		writeLog(t, filepath.Join(root, "archive"), goodLine)

		Convey("When the tree is scanned", func() {
			events, summary, err := distill.New(distill.WithRoot(root)).Scan(context.Background())

			Convey("Then the event contributes one label", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
				So(summary.Skipped[distill.SkipDuplicate], ShouldEqual, 1)
			})
		})
	})

	Convey("Given an empty log root", t, func() {
		root := t.TempDir()

		Convey("When the tree is scanned", func() {
			_, _, err := distill.New(distill.WithRoot(root)).Scan(context.Background())

			Convey("Then the absence of logs is its own error", func() {
				So(errors.Is(err, distill.ErrNoLogs), ShouldBeTrue)
			})
		})
	})

	Convey("Given a record without an embedded gesture type tag", t, func() {
		root := t.TempDir()
		writeLog(t, root,
			`{"event_id":"e8","proposed_intent":"SWITCH_LEFT","features":{"peakVelocity":1.0},"response_json":{"intentional":false,"confidence":0.9,"reason_category":"self_grooming"}}`,
		)

		Convey("When the tree is scanned", func() {
			events, _, err := distill.New(distill.WithRoot(root)).Scan(context.Background())

			Convey("Then the proposed intent fills in", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
				So(events[0].GestureType, ShouldEqual, gesture.IntentSwitchLeft)
				So(events[0].Label, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an old record with no schema_valid flag", t, func() {
		root := t.TempDir()
		writeLog(t, root,
			`{"event_id":"e9","proposed_intent":"OPEN_MENU","features":{"a":1},"response_json":{"intentional":true,"confidence":0.8,"reason_category":"intentional_command"}}`,
		)

		Convey("When the tree is scanned", func() {
			events, _, err := distill.New(distill.WithRoot(root)).Scan(context.Background())

			Convey("Then the record is admitted by default", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
			})
		})
	})
}
