package distill

import "errors"

var (
	// ErrNoLogs indicates no log files were found under the scan root.
	ErrNoLogs = errors.New("no verifier logs found")
	// ErrScanLogs indicates a log file could not be read.
	ErrScanLogs = errors.New("scan verifier logs failed")
)
