package classifier

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrInvalidModel = errors.New("invalid model")
)
