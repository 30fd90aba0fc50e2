// Package model contains domain records passed between pipeline layers.
package model

import (
	"github.com/gesturelab/distill/internal/domain/gesture"
)

// Clip is a recorded interaction sample: media references, the human label,
// and the extracted feature bag. Immutable once recorded.
type Clip struct {
	ClipID          string             `json:"clip_id"`
	Label           gesture.Label      `json:"label,omitempty"`
	Category        string             `json:"category,omitempty"`
	GestureDetected gesture.Intent     `json:"gesture_detected,omitempty"`
	Confidence      float64            `json:"confidence,omitempty"`
	NumFrames       int                `json:"num_frames,omitempty"`
	Frames          []string           `json:"frames,omitempty"`
	Features        gesture.FeatureBag `json:"features,omitempty"`
	Metadata        map[string]any     `json:"metadata,omitempty"`
}

// EvalResult records one clip's teacher verdict alongside its human label.
type EvalResult struct {
	ClipID          string         `json:"clip_id"`
	UserLabel       gesture.Label  `json:"user_label"`
	UserCategory    string         `json:"user_category,omitempty"`
	GestureDetected gesture.Intent `json:"gesture_detected,omitempty"`

	TeacherIntentional *bool          `json:"teacher_intentional"`
	TeacherIntent      gesture.Intent `json:"teacher_final_intent"`
	TeacherConfidence  float64        `json:"teacher_confidence"`
	TeacherReason      gesture.Reason `json:"teacher_reason"`

	// TeacherError marks per-sample call failures; failed samples stay in
	// the result set but are excluded from metrics and calibration.
	TeacherError    bool   `json:"teacher_error"`
	TeacherErrorMsg string `json:"teacher_error_msg,omitempty"`
}

// Intentional reports the teacher verdict, defaulting to false when absent.
func (r EvalResult) Intentional() bool {
	return r.TeacherIntentional != nil && *r.TeacherIntentional
}

// EvalResults is a persisted evaluation batch.
type EvalResults struct {
	GeneratedAt string       `json:"generated_at"`
	TeacherURL  string       `json:"teacher_url"`
	TotalClips  int          `json:"total_clips"`
	Results     []EvalResult `json:"results"`
}

// LabeledEvent is a (feature bag, binary label) pair: 1 means the teacher
// asserted an intentional gesture of the matching type, 0 means not
// intentional. Calibration and training sets are collections of these.
type LabeledEvent struct {
	EventID     string             `json:"event_id,omitempty"`
	ClipID      string             `json:"clip_id,omitempty"`
	Features    gesture.FeatureBag `json:"features"`
	GestureType gesture.Intent     `json:"gesture_type"`
	Label       int                `json:"label"`

	// Provenance, informational only.
	UserLabel         gesture.Label  `json:"user_label,omitempty"`
	TeacherIntent     gesture.Intent `json:"teacher_intent,omitempty"`
	TeacherConfidence float64        `json:"teacher_confidence,omitempty"`
	TeacherReason     gesture.Reason `json:"teacher_reason,omitempty"`
}

// LogRecord is one line of the verification front-end's append-only JSONL
// production log, as consumed by the label distiller.
type LogRecord struct {
	EventID        string             `json:"event_id"`
	ProposedIntent gesture.Intent     `json:"proposed_intent"`
	Response       *gesture.Verdict   `json:"response_json"`
	Features       gesture.FeatureBag `json:"features,omitempty"`
	LatencyMS      float64            `json:"latency_ms,omitempty"`
	SchemaValid    *bool              `json:"schema_valid,omitempty"`
}
