package teacher

import "errors"

// Sentinel kinds for teacher client errors.
var (
	ErrTeacherCall = errors.New("teacher call failed")
)
