package train_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/gesturelab/distill/internal/domain/classifier"
	"github.com/gesturelab/distill/internal/domain/feature"
	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/internal/domain/model"
	"github.com/gesturelab/distill/internal/pipeline/train"
	"github.com/gesturelab/distill/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

// separableEvents builds an evenly split dataset where intentional events
// carry a high peak velocity and the OPEN_MENU type, and non-intentional
// events a low velocity and the neutral type.
func separableEvents(n int) []model.LabeledEvent {
	events := make([]model.LabeledEvent, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			events = append(events, model.LabeledEvent{
				EventID:     fmt.Sprintf("pos%d", i),
				Features:    gesture.FeatureBag{"peakVelocity": 3.0 + float64(i%5)*0.1, "swipeDisplacement": 0.4},
				GestureType: gesture.IntentOpenMenu,
				Label:       1,
			})
		} else {
			events = append(events, model.LabeledEvent{
				EventID:     fmt.Sprintf("neg%d", i),
				Features:    gesture.FeatureBag{"peakVelocity": 0.2 + float64(i%5)*0.05, "swipeDisplacement": 0.05},
				GestureType: gesture.FallbackIntent,
				Label:       0,
			})
		}
	}
	return events
}

func TestBuildMatrix(t *testing.T) {
	Convey("Given events with and without an embedded type tag", t, func() {
		events := []model.LabeledEvent{
			{Features: gesture.FeatureBag{"peakVelocity": 1.5, "gestureType": "OPEN_MENU"}, GestureType: gesture.IntentSwitchRight, Label: 1},
			{Features: gesture.FeatureBag{"peakVelocity": 0.1}, GestureType: gesture.IntentSwitchLeft, Label: 0},
		}

		Convey("When the matrix is built", func() {
			X, y := train.BuildMatrix(events)
			rows, cols := X.Dims()

			Convey("Then dimensions match the codec contract", func() {
				So(rows, ShouldEqual, 2)
				So(cols, ShouldEqual, feature.VectorLen())
				So(y, ShouldResemble, []int{1, 0})
			})

			Convey("Then the embedded tag wins over the event field", func() {
				// One-hot columns follow the numeric features in intent order.
				So(X.At(0, len(feature.Names)), ShouldEqual, 1.0)
				So(X.At(0, len(feature.Names)+2), ShouldEqual, 0.0)
			})
		})
	})
}

func TestTrain(t *testing.T) {
	Convey("Given a cleanly separable distilled set", t, func() {
		trainer := train.New()
		ctx := context.Background()

		Convey("When training on 30 events", func() {
			outcome, err := trainer.Train(ctx, separableEvents(30))

			Convey("Then the selected model separates the held-out split", func() {
				So(err, ShouldBeNil)
				So(outcome.TestAccuracy, ShouldEqual, 1.0)
				So(outcome.Model, ShouldNotBeNil)
				So(outcome.Model.Validate(), ShouldBeNil)
			})

			Convey("Then both families were scored", func() {
				So(err, ShouldBeNil)
				So(len(outcome.Candidates), ShouldEqual, 2)
				So(outcome.Candidates[0].Family, ShouldEqual, classifier.FamilyLogistic)
				So(outcome.Candidates[1].Family, ShouldEqual, classifier.FamilyForest)
			})

			Convey("Then the sample accounting adds up", func() {
				So(err, ShouldBeNil)
				So(outcome.NumSamples, ShouldEqual, 30)
				So(outcome.PosSamples, ShouldEqual, 15)
				So(outcome.NegSamples, ShouldEqual, 15)
				So(outcome.TrainSize+outcome.TestSize, ShouldEqual, 30)
				So(outcome.TestSize, ShouldBeGreaterThan, 0)
				So(outcome.FeatureNames, ShouldResemble, feature.ColumnNames())
			})

			Convey("Then the report covers the held-out split", func() {
				So(err, ShouldBeNil)
				So(outcome.Report.Accuracy, ShouldEqual, outcome.TestAccuracy)
			})
		})

		Convey("When the set is below the training floor", func() {
			_, err := trainer.Train(ctx, separableEvents(5))

			Convey("Then training aborts with the clean no-op error", func() {
				So(errors.Is(err, train.ErrNotEnoughSamples), ShouldBeTrue)
			})
		})

		Convey("When a lower floor is configured", func() {
			outcome, err := train.New(train.WithMinSamples(10)).Train(ctx, separableEvents(10))

			Convey("Then training proceeds", func() {
				So(err, ShouldBeNil)
				So(outcome.Model, ShouldNotBeNil)
			})
		})
	})
}

// thresholdModel predicts 1 iff the named feature is positive.
func thresholdModel(featureName string) *classifier.Model {
	coefs := make([]float64, feature.VectorLen())
	for i, name := range feature.Names {
		if name == featureName {
			coefs[i] = 10.0
		}
	}
	return &classifier.Model{
		Family:   classifier.FamilyLogistic,
		Logistic: &classifier.LogisticRegression{Coefs: coefs},
	}
}

// gateCalib builds 100 events where the current model (peakVelocity sign)
// errs on the last currentWrong and the candidate (wristX sign) errs on the
// last candidateWrong.
func gateCalib(currentWrong, candidateWrong int) []model.LabeledEvent {
	const n = 100
	events := make([]model.LabeledEvent, 0, n)
	for i := 0; i < n; i++ {
		label := i % 2
		aligned := 1.0
		if label == 0 {
			aligned = -1.0
		}
		pv, wx := aligned, aligned
		if i >= n-currentWrong {
			pv = -aligned
		}
		if i >= n-candidateWrong {
			wx = -aligned
		}
		events = append(events, model.LabeledEvent{
			Features:    gesture.FeatureBag{"peakVelocity": pv, "wristX": wx},
			GestureType: gesture.IntentOpenMenu,
			Label:       label,
		})
	}
	return events
}

func TestGate(t *testing.T) {
	Convey("Given a regression gate with the default tolerance", t, func() {
		gate := train.NewGate()
		ctx := context.Background()
		current := thresholdModel("peakVelocity")
		candidate := thresholdModel("wristX")

		Convey("When no calibration set exists", func() {
			decision := gate.Check(ctx, candidate, current, nil)

			Convey("Then the candidate passes as a bootstrap", func() {
				So(decision.Accepted, ShouldBeTrue)
				So(decision.CandidateAccuracy, ShouldBeNil)
				So(decision.CurrentAccuracy, ShouldBeNil)
			})
		})

		Convey("When no current model exists", func() {
			decision := gate.Check(ctx, candidate, nil, gateCalib(0, 13))

			Convey("Then the candidate passes with its accuracy recorded", func() {
				So(decision.Accepted, ShouldBeTrue)
				So(decision.CandidateAccuracy, ShouldNotBeNil)
				So(*decision.CandidateAccuracy, ShouldAlmostEqual, 0.87)
				So(decision.CurrentAccuracy, ShouldBeNil)
			})
		})

		Convey("When the candidate scores 0.87 against a current 0.90", func() {
			decision := gate.Check(ctx, candidate, current, gateCalib(10, 13))

			Convey("Then publication is blocked", func() {
				So(decision.Accepted, ShouldBeFalse)
				So(*decision.CandidateAccuracy, ShouldAlmostEqual, 0.87)
				So(*decision.CurrentAccuracy, ShouldAlmostEqual, 0.90)
			})
		})

		Convey("When the candidate scores 0.89 against a current 0.90", func() {
			decision := gate.Check(ctx, candidate, current, gateCalib(10, 11))

			Convey("Then publication is allowed", func() {
				So(decision.Accepted, ShouldBeTrue)
				So(*decision.CandidateAccuracy, ShouldAlmostEqual, 0.89)
			})
		})
	})
}
