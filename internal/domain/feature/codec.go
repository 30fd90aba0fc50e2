// Package feature implements the fixed-order feature codec shared by the
// trainer and the serving runtime. Training-time matrix construction and
// serving-time inference MUST encode through this package; a second encoder
// would silently corrupt both.
package feature

import (
	"github.com/gesturelab/distill/internal/domain/gesture"
)

// Names is the fixed order of the numeric feature segment. Appending is
// safe for new models; reordering breaks every published artifact.
var Names = []string{
	"swipeDisplacement", "swipeDuration", "peakVelocity",
	"fingersExtended", "handSide", "handSpan",
	"wristX", "wristY", "palmFacing",
	"wristVelocityX", "wristVelocityY", "stateConfidence",
}

// VectorLen returns the length of every encoded vector: the numeric segment
// followed by a one-hot over the positive intents.
func VectorLen() int {
	return len(Names) + len(gesture.Intents)
}

// Encode maps a feature bag and a gesture type to the fixed-order vector.
// Missing features default to 0.0 and an unknown gesture type yields an
// all-zero one-hot segment; Encode never fails.
func Encode(bag gesture.FeatureBag, gestureType gesture.Intent) []float64 {
	row := make([]float64, 0, VectorLen())
	for _, name := range Names {
		row = append(row, bag.Float(name))
	}
	for _, g := range gesture.Intents {
		if gestureType == g {
			row = append(row, 1.0)
		} else {
			row = append(row, 0.0)
		}
	}
	return row
}

// ColumnNames returns the column labels for an encoded vector, in order.
// Model bundles persist these for drift detection against future codecs.
func ColumnNames() []string {
	cols := make([]string, 0, VectorLen())
	cols = append(cols, Names...)
	for _, g := range gesture.Intents {
		cols = append(cols, "gesture_"+string(g))
	}
	return cols
}
