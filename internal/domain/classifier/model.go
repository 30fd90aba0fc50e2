package classifier

import (
	"encoding/json"
	"fmt"
	"io"
)

// Family tags which model family a trained Model belongs to.
type Family string

// Known model families, in selection priority order: accuracy ties during
// selection break toward the earlier family.
const (
	FamilyLogistic Family = "logistic_regression"
	FamilyForest   Family = "random_forest"
)

// Model is a tagged-variant trained classifier. Exactly one of the variant
// fields is set, matching Family.
type Model struct {
	Family   Family              `json:"family"`
	Logistic *LogisticRegression `json:"logistic,omitempty"`
	Forest   *Ensemble           `json:"forest,omitempty"`
}

// PredictProba returns the probability of class 1 for the encoded vector.
func (m *Model) PredictProba(x []float64) float64 {
	switch m.Family {
	case FamilyLogistic:
		if m.Logistic != nil {
			return m.Logistic.EvaluateProba(x)
		}
	case FamilyForest:
		if m.Forest != nil {
			return m.Forest.EvaluateProba(x)
		}
	}
	return 0.5
}

// Predict returns the binary verdict at the 0.5 threshold.
func (m *Model) Predict(x []float64) int {
	if m.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// Confidence returns the maximum class probability for the encoded vector.
func (m *Model) Confidence(x []float64) float64 {
	p := m.PredictProba(x)
	if p >= 0.5 {
		return p
	}
	return 1 - p
}

// Validate checks that the tagged variant is consistent.
func (m *Model) Validate() error {
	switch m.Family {
	case FamilyLogistic:
		if m.Logistic == nil {
			return fmt.Errorf("%w: family %s without parameters", ErrInvalidModel, m.Family)
		}
		if len(m.Logistic.Coefs) == 0 {
			return fmt.Errorf("%w: logistic model has no coefficients", ErrInvalidModel)
		}
	case FamilyForest:
		if m.Forest == nil {
			return fmt.Errorf("%w: family %s without parameters", ErrInvalidModel, m.Family)
		}
		if len(m.Forest.Trees) == 0 {
			return fmt.Errorf("%w: forest model has no trees", ErrInvalidModel)
		}
	default:
		return fmt.Errorf("%w: unknown family %q", ErrInvalidModel, m.Family)
	}
	return nil
}

// Load decodes a Model from JSON and validates the tagged variant.
func Load(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
