// Package clipstore loads recorded evaluation clips from per-clip files and
// session bundles.
package clipstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gesturelab/distill/internal/domain/model"
	"github.com/gesturelab/distill/pkg/logger"
)

// File name patterns for clip sources.
const (
	clipPattern    = "clip_*.json"
	sessionPattern = "eval_session_*.json"
)

// Store reads clips from a clips directory and a sessions directory. Both
// are optional; a missing directory simply contributes nothing.
type Store struct {
	clipsDir    string
	sessionsDir string
	logger      logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithClipsDir sets the directory scanned for clip_*.json files.
func WithClipsDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.clipsDir = dir
		}
	}
}

// WithSessionsDir sets the directory scanned for eval_session_*.json bundles.
func WithSessionsDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.sessionsDir = dir
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

// New creates a clip store with configuration options.
func New(opts ...Option) *Store {
	s := &Store{
		clipsDir:    "data/eval/clips",
		sessionsDir: "data/eval/sessions",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("clipstore")
	}
	return s
}

// Load reads all clips, merged by clip_id with later sources overriding
// earlier ones: per-clip files first, then session bundles.
func (s *Store) Load(ctx context.Context) ([]model.Clip, error) {
	order := make([]string, 0)
	byID := make(map[string]model.Clip)

	merge := func(clips []model.Clip) {
		for _, c := range clips {
			if c.ClipID == "" {
				continue
			}
			if _, seen := byID[c.ClipID]; !seen {
				order = append(order, c.ClipID)
			}
			byID[c.ClipID] = c
		}
	}

	clipFiles, err := sortedGlob(s.clipsDir, clipPattern)
	if err != nil {
		return nil, err
	}
	for _, path := range clipFiles {
		clips, err := readClipFile(path)
		if err != nil {
			return nil, err
		}
		merge(clips)
	}

	sessionFiles, err := sortedGlob(s.sessionsDir, sessionPattern)
	if err != nil {
		return nil, err
	}
	for _, path := range sessionFiles {
		clips, err := readClipFile(path)
		if err != nil {
			return nil, err
		}
		merge(clips)
	}

	out := make([]model.Clip, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}

	s.logger.Debug(ctx, "loaded clips",
		logger.Int("clipFiles", len(clipFiles)),
		logger.Int("sessionFiles", len(sessionFiles)),
		logger.Int("clips", len(out)),
	)
	return out, nil
}

// MapByID indexes clips by their identity.
func MapByID(clips []model.Clip) map[string]model.Clip {
	byID := make(map[string]model.Clip, len(clips))
	for _, c := range clips {
		byID[c.ClipID] = c
	}
	return byID
}

// sortedGlob lists files matching pattern under dir in name order. A missing
// directory yields no matches, not an error.
func sortedGlob(dir, pattern string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadClips, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// readClipFile decodes a file holding either a single clip or an array.
func readClipFile(path string) ([]model.Clip, error) {
	data, err := os.ReadFile(path) //nolint:gosec // paths come from operator config
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadClips, path, err)
	}

	var many []model.Clip
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var one model.Clip
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadClips, path, err)
	}
	return []model.Clip{one}, nil
}
