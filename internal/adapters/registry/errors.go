package registry

import "errors"

var (
	// ErrRegistry indicates a failure reading or writing registry artifacts.
	ErrRegistry = errors.New("registry error")
	// ErrNoModel indicates no model has been published yet.
	ErrNoModel = errors.New("no current model")
	// ErrCorruptBundle indicates the current artifact failed to decode or
	// validate.
	ErrCorruptBundle = errors.New("corrupt model bundle")
)
