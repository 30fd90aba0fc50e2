// Package calibration builds the frozen regression-check set from evaluation
// results where the human label and the teacher verdict agree. The output is
// a snapshot, fully rewritten on each build, and is never used for training.
package calibration

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/internal/domain/model"
	"github.com/gesturelab/distill/pkg/logger"
	"github.com/gesturelab/distill/pkg/metrics"
)

// MinViableSamples is the accepted-count floor below which the regression
// gate is too thin to trust.
const MinViableSamples = 10

// Summary counts each selection outcome of one build.
type Summary struct {
	Accepted        int `json:"accepted"`
	Intentional     int `json:"intentional"`
	NotIntentional  int `json:"not_intentional"`
	Disagreements   int `json:"disagreements"`
	MissingFeatures int `json:"missing_features"`
	TeacherErrors   int `json:"teacher_errors"`
}

// Builder selects agreeing samples and writes the calibration snapshot.
type Builder struct {
	minSamples int
	logger     logger.Logger
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithMinSamples sets the accepted-count warning threshold.
func WithMinSamples(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.minSamples = n
		}
	}
}

// WithLogger sets a custom logger for the builder.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a calibration builder with configuration options.
func New(opts ...Option) *Builder {
	b := &Builder{
		minSamples: MinViableSamples,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.Get().Named("calibration")
	}
	return b
}

// Build selects evaluation results where human and teacher agree, pairs them
// with the clip feature bags, and returns the labeled events plus outcome
// counts. A positive label is accepted with label 1 only when the teacher
// asserted intentional with the matching intent; a negative label with label
// 0 only when the teacher rejected. Everything else is a disagreement.
// Samples without features are unusable and dropped last.
func (b *Builder) Build(ctx context.Context, results []model.EvalResult, clipsByID map[string]model.Clip) ([]model.LabeledEvent, Summary) {
	var (
		accepted []model.LabeledEvent
		summary  Summary
	)

	for _, r := range results {
		if r.TeacherError {
			summary.TeacherErrors++
			metrics.RecordCalibrationSkipped("teacher_error")
			continue
		}

		var (
			label       int
			gestureType gesture.Intent
		)
		switch {
		case r.UserLabel.IsPositive():
			expected := gesture.LabelToIntent[r.UserLabel]
			if !r.Intentional() || r.TeacherIntent != expected {
				summary.Disagreements++
				metrics.RecordCalibrationSkipped("disagreement")
				continue
			}
			label = 1
			gestureType = expected

		case r.UserLabel.IsNegative():
			if r.TeacherIntentional == nil || *r.TeacherIntentional {
				summary.Disagreements++
				metrics.RecordCalibrationSkipped("disagreement")
				continue
			}
			label = 0
			// Negatives carry no true gesture type; reuse the detection
			// when one exists so the one-hot segment stays plausible.
			gestureType = gesture.FallbackIntent
			if clip, ok := clipsByID[r.ClipID]; ok && clip.GestureDetected != "" {
				gestureType = clip.GestureDetected
			}

		default:
			summary.Disagreements++
			metrics.RecordCalibrationSkipped("disagreement")
			continue
		}

		clip, ok := clipsByID[r.ClipID]
		if !ok || len(clip.Features) == 0 {
			summary.MissingFeatures++
			metrics.RecordCalibrationSkipped("missing_features")
			continue
		}

		accepted = append(accepted, model.LabeledEvent{
			ClipID:        r.ClipID,
			Features:      clip.Features,
			GestureType:   gestureType,
			Label:         label,
			UserLabel:     r.UserLabel,
			TeacherIntent: r.TeacherIntent,
		})
		summary.Accepted++
		metrics.RecordCalibrationAccepted()
		if label == 1 {
			summary.Intentional++
		} else {
			summary.NotIntentional++
		}
	}

	b.logger.Info(ctx, "calibration build complete",
		logger.Int("accepted", summary.Accepted),
		logger.Int("disagreements", summary.Disagreements),
		logger.Int("missingFeatures", summary.MissingFeatures),
		logger.Int("teacherErrors", summary.TeacherErrors),
	)
	if summary.Accepted < b.minSamples {
		b.logger.Warn(ctx, "calibration set below viable size",
			logger.Int("accepted", summary.Accepted),
			logger.Int("minimum", b.minSamples),
		)
	}
	return accepted, summary
}

// Write rewrites the calibration snapshot as one JSON line per event,
// replacing any previous snapshot via a temp-file rename.
func Write(path string, events []model.LabeledEvent) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCalibration, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteCalibration, err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			return fmt.Errorf("%w: %w", ErrWriteCalibration, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrWriteCalibration, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrWriteCalibration, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrWriteCalibration, err)
	}
	return nil
}

// Load reads a calibration snapshot. A missing file is not an error; it
// means no calibration set has been built yet and yields no events.
func Load(path string) ([]model.LabeledEvent, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadCalibration, err)
	}
	defer func() { _ = f.Close() }()

	var events []model.LabeledEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event model.LabeledEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadCalibration, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadCalibration, err)
	}
	return events, nil
}
