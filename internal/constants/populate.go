package constants

import "time"

const (
	// DefaultPopulateSchedule is the cron spec used when none is configured.
	DefaultPopulateSchedule = "@every 15m"

	// DefaultPopulateWorkers bounds concurrent cache writes during a populate run.
	DefaultPopulateWorkers = 8

	// DefaultPopulateTimeout caps a single populate run.
	DefaultPopulateTimeout = 5 * time.Minute
)

// Outcome labels for a single device write.
const (
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
)
