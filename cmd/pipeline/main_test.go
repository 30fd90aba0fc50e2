package main

import (
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/gesturelab/distill/internal/domain/classifier"
	"github.com/gesturelab/distill/internal/pipeline/train"
	"github.com/gesturelab/distill/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

func TestAuditRecord(t *testing.T) {
	Convey("Given a gate decision comparing candidate and current models", t, func() {
		candAcc := 0.91
		currAcc := 0.87
		decision := train.Decision{
			Accepted:          true,
			Reason:            "improved",
			CandidateAccuracy: &candAcc,
			CurrentAccuracy:   &currAcc,
		}
		outcome := &train.Outcome{
			ModelType:    classifier.FamilyLogistic,
			TestAccuracy: 0.94,
			NumSamples:   120,
			PosSamples:   70,
			NegSamples:   50,
			FeatureNames: []string{"peakVelocity", "pathLength"},
		}
		ts := time.Now().UTC().Format(time.RFC3339)

		Convey("When the training-log entry is assembled", func() {
			record := auditRecord(outcome, decision, "run-1", ts)

			Convey("Then training counts and accuracy carry over", func() {
				So(record.RunID, ShouldEqual, "run-1")
				So(record.Timestamp, ShouldEqual, ts)
				So(record.NumSamples, ShouldEqual, 120)
				So(record.PosSamples, ShouldEqual, 70)
				So(record.NegSamples, ShouldEqual, 50)
				So(record.ModelType, ShouldEqual, classifier.FamilyLogistic)
				So(record.TestAccuracy, ShouldEqual, 0.94)
				So(record.FeatureNames, ShouldResemble, []string{"peakVelocity", "pathLength"})
			})

			Convey("Then the previous accuracy is the gate's measure of the outgoing model", func() {
				So(record.CalibAccuracy, ShouldEqual, decision.CandidateAccuracy)
				So(record.CalibAccuracyPrev, ShouldEqual, decision.CurrentAccuracy)
				So(*record.CalibAccuracyPrev, ShouldEqual, 0.87)
			})
		})

		Convey("When there was no current model to compare against", func() {
			decision.CurrentAccuracy = nil
			record := auditRecord(outcome, decision, "run-2", ts)

			Convey("Then the previous accuracy stays unset", func() {
				So(record.CalibAccuracyPrev, ShouldBeNil)
			})
		})
	})
}

func TestModelOf(t *testing.T) {
	Convey("Given an optional bundle", t, func() {
		Convey("Then a nil bundle yields a nil model", func() {
			So(modelOf(nil), ShouldBeNil)
		})
	})
}

func TestFormatAccuracy(t *testing.T) {
	Convey("Given an optional accuracy", t, func() {
		acc := 0.8125
		So(formatAccuracy(&acc), ShouldEqual, "0.813")
		So(formatAccuracy(nil), ShouldEqual, "n/a")
	})
}
