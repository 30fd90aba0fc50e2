// Package registry implements the append-only versioned model artifact
// store: immutable v{N} artifacts, a single mutable "current" slot, and a
// durable training audit log.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gesturelab/distill/internal/domain/classifier"
	"github.com/gesturelab/distill/pkg/logger"
)

// Artifact file names within the registry directory.
const (
	currentName    = "current_model.json"
	auditName      = "training_log.json"
	versionPattern = "v*_model.json"

	dirPermission  = 0o750
	filePermission = 0o600
)

// Bundle is one trained model artifact plus its metadata. Created once by a
// training run and read-only thereafter.
type Bundle struct {
	Model        *classifier.Model `json:"model"`
	Version      string            `json:"version"`
	ModelType    classifier.Family `json:"model_type"`
	Timestamp    string            `json:"timestamp"`
	NumSamples   int               `json:"num_samples"`
	TestAccuracy float64           `json:"test_accuracy"`
	// CalibAccuracy is nil when no calibration set existed at train time.
	CalibAccuracy *float64 `json:"calib_accuracy"`
	// FeatureNames records the exact column order the model was trained
	// with, for codec drift detection at serving time.
	FeatureNames []string `json:"feature_names"`
}

// RunRecord is one entry of the append-only training audit log.
type RunRecord struct {
	RunID             string            `json:"run_id"`
	Version           string            `json:"version"`
	Timestamp         string            `json:"timestamp"`
	NumSamples        int               `json:"num_samples"`
	PosSamples        int               `json:"pos_samples"`
	NegSamples        int               `json:"neg_samples"`
	ModelType         classifier.Family `json:"model_type"`
	TestAccuracy      float64           `json:"test_accuracy"`
	CalibAccuracy     *float64          `json:"calib_accuracy"`
	CalibAccuracyPrev *float64          `json:"calib_accuracy_prev"`
	FeatureNames      []string          `json:"feature_names"`
}

// Store provides access to the registry directory.
type Store struct {
	dir    string
	logger logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithDir sets the registry directory.
func WithDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.dir = dir
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a registry store with configuration options.
func New(opts ...Option) *Store {
	s := &Store{
		dir: "models/student",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("registry")
	}
	return s
}

// Dir returns the registry directory.
func (s *Store) Dir() string {
	return s.dir
}

// NextVersion returns the next monotonic version number: one past the count
// of existing versioned artifacts.
func (s *Store) NextVersion() (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, versionPattern))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRegistry, err)
	}
	return len(matches) + 1, nil
}

// Publish writes the next versioned artifact, atomically repoints the
// current slot, and appends one audit record, in that order, so a crash
// mid-write never leaves current pointing at a partial artifact. The bundle
// and record receive the assigned version. Returns the version string.
func (s *Store) Publish(ctx context.Context, bundle *Bundle, record RunRecord) (string, error) {
	if err := os.MkdirAll(s.dir, dirPermission); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRegistry, err)
	}

	n, err := s.NextVersion()
	if err != nil {
		return "", err
	}
	version := fmt.Sprintf("v%d", n)
	bundle.Version = version
	record.Version = version

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal bundle: %w", ErrRegistry, err)
	}

	// Versioned artifact first: immutable once written.
	versionedPath := filepath.Join(s.dir, fmt.Sprintf("%s_model.json", version))
	if err := os.WriteFile(versionedPath, data, filePermission); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRegistry, err)
	}

	// Then repoint current via temp-file rename.
	if err := s.writeAtomic(currentName, data); err != nil {
		return "", err
	}

	// Audit last; the artifact is already live if this fails.
	if err := s.appendRun(record); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "published model",
		logger.String("version", version),
		logger.String("modelType", string(bundle.ModelType)),
		logger.Float64("testAccuracy", bundle.TestAccuracy),
	)
	return version, nil
}

// LoadCurrent reads the current bundle and its modification time.
// Returns ErrNoModel when no model has been published yet.
func (s *Store) LoadCurrent(ctx context.Context) (*Bundle, time.Time, error) {
	path := filepath.Join(s.dir, currentName)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, time.Time{}, ErrNoModel
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", ErrRegistry, err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // registry dir comes from operator config
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", ErrRegistry, err)
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", ErrCorruptBundle, err)
	}
	if bundle.Model == nil {
		return nil, time.Time{}, fmt.Errorf("%w: bundle has no model", ErrCorruptBundle)
	}
	if err := bundle.Model.Validate(); err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", ErrCorruptBundle, err)
	}
	return &bundle, info.ModTime(), nil
}

// CurrentModTime stats the current slot without decoding it. The bool
// reports whether a current artifact exists.
func (s *Store) CurrentModTime() (time.Time, bool) {
	info, err := os.Stat(filepath.Join(s.dir, currentName))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Runs reads the audit log, oldest first. A missing log yields no runs.
func (s *Store) Runs() ([]RunRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, auditName)) //nolint:gosec // registry dir comes from operator config
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistry, err)
	}
	var runs []RunRecord
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistry, err)
	}
	return runs, nil
}

// appendRun appends one record to the audit log, rewriting the document
// atomically. The log is only ever appended to, never truncated.
func (s *Store) appendRun(record RunRecord) error {
	runs, err := s.Runs()
	if err != nil {
		return err
	}
	runs = append(runs, record)

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal audit log: %w", ErrRegistry, err)
	}
	return s.writeAtomic(auditName, data)
}

// writeAtomic writes name via a temp file and rename so readers never
// observe a partially written file.
func (s *Store) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistry, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrRegistry, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrRegistry, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrRegistry, err)
	}
	return nil
}
