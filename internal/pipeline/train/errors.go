package train

import "errors"

// ErrNotEnoughSamples indicates the distilled set is below the training
// floor. Callers treat it as a clean no-op, not a failure.
var ErrNotEnoughSamples = errors.New("not enough training samples")
