package feature_test

import (
	"testing"

	"github.com/gesturelab/distill/internal/domain/feature"
	"github.com/gesturelab/distill/internal/domain/gesture"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEncode(t *testing.T) {
	Convey("Given the feature codec", t, func() {
		bag := gesture.FeatureBag{
			"swipeDisplacement": 0.3,
			"swipeDuration":     120.0,
			"peakVelocity":      2.5,
		}

		Convey("When encoding any bag and gesture type", func() {
			Convey("Then the vector length should be constant across calls", func() {
				a := feature.Encode(bag, gesture.IntentOpenMenu)
				b := feature.Encode(gesture.FeatureBag{}, gesture.IntentNone)
				c := feature.Encode(nil, "BOGUS")
				So(len(a), ShouldEqual, feature.VectorLen())
				So(len(b), ShouldEqual, feature.VectorLen())
				So(len(c), ShouldEqual, feature.VectorLen())
			})
		})

		Convey("When features are missing from the bag", func() {
			row := feature.Encode(bag, gesture.IntentOpenMenu)

			Convey("Then missing names should encode as zero", func() {
				// wristX is the seventh numeric column and absent from bag.
				So(row[6], ShouldEqual, 0.0)
			})

			Convey("Then present names should keep their values in order", func() {
				So(row[0], ShouldEqual, 0.3)
				So(row[1], ShouldEqual, 120.0)
				So(row[2], ShouldEqual, 2.5)
			})
		})

		Convey("When encoding the one-hot segment", func() {
			Convey("Then a known gesture type should set exactly one slot", func() {
				row := feature.Encode(bag, gesture.IntentCloseMenu)
				onehot := row[len(feature.Names):]
				So(onehot, ShouldResemble, []float64{0, 1, 0, 0})
			})

			Convey("Then an unknown gesture type should produce an all-zero segment", func() {
				row := feature.Encode(bag, "WIGGLE")
				onehot := row[len(feature.Names):]
				So(onehot, ShouldResemble, []float64{0, 0, 0, 0})
			})
		})

		Convey("When listing column names", func() {
			cols := feature.ColumnNames()

			Convey("Then they should cover the numeric and one-hot segments in order", func() {
				So(len(cols), ShouldEqual, feature.VectorLen())
				So(cols[0], ShouldEqual, "swipeDisplacement")
				So(cols[len(feature.Names)], ShouldEqual, "gesture_OPEN_MENU")
				So(cols[len(cols)-1], ShouldEqual, "gesture_SWITCH_LEFT")
			})
		})
	})
}
