package gesture_test

import (
	"testing"

	"github.com/gesturelab/distill/internal/domain/gesture"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLabels(t *testing.T) {
	Convey("Given the human label vocabulary", t, func() {
		Convey("Then TP labels should be positive and map to their intent", func() {
			So(gesture.LabelTPOpenMenu.IsPositive(), ShouldBeTrue)
			So(gesture.LabelToIntent[gesture.LabelTPOpenMenu], ShouldEqual, gesture.IntentOpenMenu)
			So(gesture.LabelToIntent[gesture.LabelTPSwitchLeft], ShouldEqual, gesture.IntentSwitchLeft)
		})

		Convey("Then NEG labels should be negative and not positive", func() {
			So(gesture.LabelNegHeadScratch.IsNegative(), ShouldBeTrue)
			So(gesture.LabelNegHeadScratch.IsPositive(), ShouldBeFalse)
		})

		Convey("Then unlabeled and empty labels should not count as labeled", func() {
			So(gesture.LabelUnlabeled.IsLabeled(), ShouldBeFalse)
			So(gesture.Label("").IsLabeled(), ShouldBeFalse)
			So(gesture.LabelTPCloseMenu.IsLabeled(), ShouldBeTrue)
		})

		Convey("Then every label should have a default proposed intent", func() {
			for _, l := range []gesture.Label{
				gesture.LabelTPOpenMenu, gesture.LabelTPCloseMenu,
				gesture.LabelTPSwitchRight, gesture.LabelTPSwitchLeft,
				gesture.LabelNegHeadScratch, gesture.LabelNegReach,
				gesture.LabelNegWave, gesture.LabelNegPhone,
				gesture.LabelNegStretch, gesture.LabelNegOther,
			} {
				_, ok := gesture.DefaultProposedIntent[l]
				So(ok, ShouldBeTrue)
			}
		})
	})
}

func TestVerdict(t *testing.T) {
	Convey("Given teacher verdicts", t, func() {
		yes, no := true, false

		Convey("Then intentional should require an explicit true", func() {
			So((&gesture.Verdict{Intentional: &yes}).IsIntentional(), ShouldBeTrue)
			So((&gesture.Verdict{Intentional: &no}).IsIntentional(), ShouldBeFalse)
			So((&gesture.Verdict{}).IsIntentional(), ShouldBeFalse)
			So((*gesture.Verdict)(nil).IsIntentional(), ShouldBeFalse)
		})

		Convey("Then schema validity should default to valid when absent", func() {
			So((&gesture.Verdict{}).IsSchemaValid(), ShouldBeTrue)
			So((&gesture.Verdict{SchemaValid: &no}).IsSchemaValid(), ShouldBeFalse)
			So((&gesture.Verdict{SchemaValid: &yes}).IsSchemaValid(), ShouldBeTrue)
		})
	})
}

func TestFeatureBag(t *testing.T) {
	Convey("Given a feature bag decoded from JSON", t, func() {
		bag := gesture.FeatureBag{
			"swipeDisplacement": 0.42,
			"fingersExtended":   3,
			"palmFacing":        true,
			"handSide":          "left",
			"gestureType":       "OPEN_MENU",
		}

		Convey("Then Float should coerce numbers and booleans", func() {
			So(bag.Float("swipeDisplacement"), ShouldEqual, 0.42)
			So(bag.Float("fingersExtended"), ShouldEqual, 3.0)
			So(bag.Float("palmFacing"), ShouldEqual, 1.0)
		})

		Convey("Then Float should default missing or non-numeric values to zero", func() {
			So(bag.Float("peakVelocity"), ShouldEqual, 0.0)
			So(bag.Float("handSide"), ShouldEqual, 0.0)
		})

		Convey("Then GestureType should read the embedded tag", func() {
			gt, ok := bag.GestureType()
			So(ok, ShouldBeTrue)
			So(gt, ShouldEqual, gesture.IntentOpenMenu)
		})

		Convey("Then GestureType should report absence", func() {
			_, ok := gesture.FeatureBag{"a": 1.0}.GestureType()
			So(ok, ShouldBeFalse)
		})
	})
}
