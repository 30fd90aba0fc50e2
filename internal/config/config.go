// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration for both the serving daemon and the
// offline pipeline. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address of the student service.
	Addr string `koanf:"addr"`

	// Mode selects the serving policy: shadow or active.
	Mode string `koanf:"mode"`

	// ClipsDir holds recorded clip_*.json files.
	ClipsDir string `koanf:"clips_dir"`

	// SessionsDir holds eval_session_*.json bundles downloaded from the web app.
	SessionsDir string `koanf:"sessions_dir"`

	// ResultsPath is where the evaluation harness persists its results.
	ResultsPath string `koanf:"results_path"`

	// CalibrationPath is the frozen calibration set written by the builder.
	CalibrationPath string `koanf:"calibration_path"`

	// LogsDir is walked for verifier_events.jsonl production logs.
	LogsDir string `koanf:"logs_dir"`

	// ModelDir holds versioned model artifacts, the current pointer, and
	// the training audit log.
	ModelDir string `koanf:"model_dir"`

	// TeacherURL is the base URL of the teacher verify endpoint.
	TeacherURL string `koanf:"teacher_url"`

	// TeacherTimeoutSec bounds each teacher call.
	TeacherTimeoutSec int `koanf:"teacher_timeout_sec"`

	// TeacherDelayMS is the pause between successive teacher calls. The
	// teacher shares one GPU; the harness must not hammer it.
	TeacherDelayMS int `koanf:"teacher_delay_ms"`

	// ConfidenceThreshold is the minimum teacher confidence the distiller
	// accepts into the training set.
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`

	// MinTrainSamples is the floor below which training is skipped.
	MinTrainSamples int `koanf:"min_train_samples"`

	// MinCalibrationSamples triggers a warning when the calibration set is
	// too small to be a trustworthy regression oracle.
	MinCalibrationSamples int `koanf:"min_calibration_samples"`

	// RegressionTolerance is the calibration-accuracy drop that blocks a
	// candidate model from publishing.
	RegressionTolerance float64 `koanf:"regression_tolerance"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8789",
		Mode:                  "shadow",
		ClipsDir:              "data/eval/clips",
		SessionsDir:           "data/eval/sessions",
		ResultsPath:           "data/eval/results/eval_results.json",
		CalibrationPath:       "data/calibration/calibration.jsonl",
		LogsDir:               "data/logs",
		ModelDir:              "models/student",
		TeacherURL:            "http://localhost:8788",
		TeacherTimeoutSec:     60,
		TeacherDelayMS:        1000,
		ConfidenceThreshold:   0.75,
		MinTrainSamples:       20,
		MinCalibrationSamples: 10,
		RegressionTolerance:   0.02,
	}
}
