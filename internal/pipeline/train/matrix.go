package train

import (
	"gonum.org/v1/gonum/mat"

	"github.com/gesturelab/distill/internal/domain/feature"
	"github.com/gesturelab/distill/internal/domain/model"
)

// BuildMatrix encodes labeled events into a design matrix and label vector.
// The gesture type embedded in the feature bag wins over the event's own
// field, matching what the serving path sees at inference time.
func BuildMatrix(events []model.LabeledEvent) (*mat.Dense, []int) {
	X := mat.NewDense(len(events), feature.VectorLen(), nil)
	y := make([]int, len(events))
	for i, e := range events {
		gestureType := e.GestureType
		if tagged, ok := e.Features.GestureType(); ok {
			gestureType = tagged
		}
		X.SetRow(i, feature.Encode(e.Features, gestureType))
		y[i] = e.Label
	}
	return X, y
}
