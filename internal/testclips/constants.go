package testclips

import "time"

// HTTP status code constants.
const (
	StatusOK = 200
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	StatusSettleDelay    = 500 * time.Millisecond
	PercentageMultiplier = 100
)
