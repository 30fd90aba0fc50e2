// Package types contains common API shapes used across the application.
package types

// Mode selects how a prediction affects the actual decision.
type Mode string

// Serving modes.
const (
	// ModeShadow computes and logs predictions but never suppresses: the
	// response always carries execute=true.
	ModeShadow Mode = "shadow"
	// ModeActive lets the model's verdict drive the execute decision.
	ModeActive Mode = "active"
)

// Valid reports whether m is a known serving mode.
func (m Mode) Valid() bool {
	return m == ModeShadow || m == ModeActive
}

// Prediction mirrors the response shape of POST /predict.
type Prediction struct {
	Execute      bool    `json:"execute"`
	Confidence   float64 `json:"confidence"`
	ModelVersion *string `json:"model_version"`
	Mode         Mode    `json:"mode"`
}

// Status mirrors the response shape of GET /status.
type Status struct {
	ModelLoaded      bool    `json:"model_loaded"`
	ModelVersion     *string `json:"model_version"`
	Mode             Mode    `json:"mode"`
	TotalPredictions int64   `json:"total_predictions"`
}
