package service

import "time"

const (
	// Athlete settings bounds
	MinRestingHR = 30
	MaxRestingHR = 100
	MinMaxHR     = 120
	MaxMaxHR     = 220

	// DefaultFetchTimeout bounds a single activity fetch when none is configured
	DefaultFetchTimeout = 15 * time.Second

	// MaxChartDays caps the daily minutes series length
	MaxChartDays = 31
)

// User-facing failure messages. The orchestrator is the only place that
// turns errors into these strings.
const (
	MsgFetchFailed       = "Failed to fetch activities"
	MsgFetchTimeout      = "Timed out waiting for activities"
	MsgUnsupportedMethod = "Unsupported zone method: %s"
	MsgMalformedData     = "Malformed activity data"
	MsgCalculationFailed = "Failed to calculate zones"
)
