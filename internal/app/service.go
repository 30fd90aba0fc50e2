// Package service provides the core prediction service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gesturelab/distill/internal/adapters/registry"
	"github.com/gesturelab/distill/internal/domain/feature"
	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/internal/domain/types"
	"github.com/gesturelab/distill/pkg/logger"
	"github.com/gesturelab/distill/pkg/metrics"
)

// loadedModel snapshots one reload: the decoded bundle and the artifact
// modification time it was read at. Swapped as a unit so concurrent readers
// never see a half-updated pair.
type loadedModel struct {
	bundle *registry.Bundle
	mtime  time.Time
}

// Service serves predictions from the current student model, hot-reloading
// it lazily whenever the registry's current artifact changes on disk.
type Service struct {
	// reloadMu serializes the check-then-load sequence; readers go through
	// the atomic pointer and never block on it.
	reloadMu sync.Mutex
	current  atomic.Pointer[loadedModel]

	registry *registry.Store
	mode     types.Mode

	totalPredictions atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRegistry sets the model registry store.
func WithRegistry(store *registry.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.registry = store
		}
	}
}

// WithMode sets the serving mode.
func WithMode(mode types.Mode) Option {
	return func(s *Service) {
		if mode.Valid() {
			s.mode = mode
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		mode: types.ModeShadow,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = registry.New()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("student")
	}
	return s
}

// Mode returns the configured serving mode.
func (s *Service) Mode() types.Mode {
	return s.mode
}

// Predict encodes the feature bag, runs the current model, and applies the
// serving-mode policy. With no model loaded the response degrades to a safe
// default rather than failing: execute stays true so the gesture path keeps
// working before any model exists.
func (s *Service) Predict(ctx context.Context, features gesture.FeatureBag, gestureType gesture.Intent) types.Prediction {
	start := time.Now()
	s.maybeReload(ctx)

	loaded := s.current.Load()
	if loaded == nil {
		metrics.RecordDegradedResponse()
		metrics.RecordPrediction(string(s.mode), true)
		return types.Prediction{
			Execute:    true,
			Confidence: 0.0,
			Mode:       s.mode,
		}
	}

	x := feature.Encode(features, gestureType)
	pred := loaded.bundle.Model.Predict(x)
	conf := loaded.bundle.Model.Confidence(x)

	s.totalPredictions.Add(1)

	// Shadow mode never suppresses; the verdict is returned for analysis.
	execute := true
	if s.mode == types.ModeActive {
		execute = pred == 1
	}

	metrics.RecordPrediction(string(s.mode), execute)
	metrics.RecordPredictLatency(float64(time.Since(start).Milliseconds()))

	version := loaded.bundle.Version
	return types.Prediction{
		Execute:      execute,
		Confidence:   conf,
		ModelVersion: &version,
		Mode:         s.mode,
	}
}

// Status reports the serving state, refreshing the model first so the
// version reflects the artifact currently on disk.
func (s *Service) Status(ctx context.Context) types.Status {
	s.maybeReload(ctx)

	status := types.Status{
		Mode:             s.mode,
		TotalPredictions: s.totalPredictions.Load(),
	}
	if loaded := s.current.Load(); loaded != nil {
		version := loaded.bundle.Version
		status.ModelLoaded = true
		status.ModelVersion = &version
	}
	return status
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"mode":             string(s.mode),
		"totalPredictions": s.totalPredictions.Load(),
		"modelLoaded":      false,
	}
	if loaded := s.current.Load(); loaded != nil {
		stats["modelLoaded"] = true
		stats["modelVersion"] = loaded.bundle.Version
		stats["modelType"] = string(loaded.bundle.ModelType)
		stats["testAccuracy"] = loaded.bundle.TestAccuracy
	}
	return stats
}

// maybeReload compares the current artifact's modification time against the
// loaded snapshot and reloads on mismatch. The fast path is a single stat
// plus an atomic load; only an actual change takes the lock.
func (s *Service) maybeReload(ctx context.Context) {
	mtime, exists := s.registry.CurrentModTime()
	loaded := s.current.Load()

	if !exists {
		if loaded != nil {
			s.reloadMu.Lock()
			defer s.reloadMu.Unlock()
			if _, still := s.registry.CurrentModTime(); !still {
				s.current.Store(nil)
				metrics.UpdateModelLoaded(false)
				s.logger.Warn(ctx, "current model artifact removed")
			}
		}
		return
	}
	if loaded != nil && loaded.mtime.Equal(mtime) {
		return
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	// Another request may have finished the same reload while we waited.
	if loaded = s.current.Load(); loaded != nil && loaded.mtime.Equal(mtime) {
		return
	}

	bundle, mtime, err := s.registry.LoadCurrent(ctx)
	if err != nil {
		metrics.RecordModelLoadError()
		s.logger.Error(ctx, "model reload failed", logger.Error(err))
		return
	}

	// A bundle trained against different codec columns would silently score
	// garbage (or index past the vector); refuse to serve it.
	if len(bundle.FeatureNames) > 0 && !slices.Equal(bundle.FeatureNames, feature.ColumnNames()) {
		metrics.RecordModelLoadError()
		s.logger.Error(ctx, "model feature columns do not match codec, keeping previous model",
			logger.String("version", bundle.Version),
			logger.Int("modelColumns", len(bundle.FeatureNames)),
			logger.Int("codecColumns", feature.VectorLen()),
		)
		return
	}

	s.current.Store(&loadedModel{bundle: bundle, mtime: mtime})
	metrics.RecordModelReload()
	metrics.UpdateModelLoaded(true)
	s.logger.Info(ctx, "loaded model",
		logger.String("version", bundle.Version),
		logger.String("modelType", string(bundle.ModelType)),
	)
}
