package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gesturelab/distill/internal/domain/model"
)

// WriteResults persists an evaluation batch for downstream reuse, creating
// parent directories as needed.
func WriteResults(path string, results *model.EvalResults) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteResults, err)
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteResults, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteResults, err)
	}
	return nil
}

// LoadResults reads a previously persisted evaluation batch.
func LoadResults(path string) (*model.EvalResults, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadResults, err)
	}
	var results model.EvalResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadResults, err)
	}
	return &results, nil
}
