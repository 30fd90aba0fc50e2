package calibration

import "errors"

var (
	// ErrWriteCalibration indicates the snapshot could not be written.
	ErrWriteCalibration = errors.New("write calibration set failed")
	// ErrReadCalibration indicates the snapshot could not be read.
	ErrReadCalibration = errors.New("read calibration set failed")
)
