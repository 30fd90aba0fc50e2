package testclips

import (
	"time"

	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/internal/domain/types"
)

// Config holds configuration for the prediction load test
type Config struct {
	BaseURL    string        // Base URL of the student service
	NumClips   int           // Number of synthetic clips to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for generated clips
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Clip is a synthetic gesture sample posted to the service
type Clip struct {
	ClipID   string             `json:"clip_id"`
	Scenario string             `json:"scenario"`
	Type     gesture.Intent     `json:"type"`
	Features gesture.FeatureBag `json:"features"`
}

// PredictRequest mirrors the request shape of POST /predict
type PredictRequest struct {
	Features gesture.FeatureBag `json:"features"`
	Type     gesture.Intent     `json:"type"`
}

// Stats holds test statistics
type Stats struct {
	ClipsGenerated  int
	ClipsSubmitted  int
	ClipsSuccessful int
	ClipsFailed     int
	Executed        int
	Suppressed      int
	StatusBefore    *types.Status
	StatusAfter     *types.Status
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
