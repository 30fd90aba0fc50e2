// Package clipstore loads recorded evaluation clips from per-clip files and
// session bundles.
package clipstore

import "errors"

// Sentinel kinds for clip loading errors.
var (
	ErrReadClips = errors.New("read clips failed")
)
