package harness

import "errors"

var (
	// ErrNoLabeledClips indicates the batch input held no labeled clips.
	ErrNoLabeledClips = errors.New("no labeled clips")
	// ErrWriteResults indicates the result set could not be persisted.
	ErrWriteResults = errors.New("write eval results failed")
	// ErrReadResults indicates a persisted result set could not be read.
	ErrReadResults = errors.New("read eval results failed")
)
