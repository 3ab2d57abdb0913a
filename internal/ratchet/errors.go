package ratchet

import "errors"

// Sentinel errors for the ratchet package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrMetricNotFound is returned when a baseline snapshot has no entry
	// for the requested metric.
	ErrMetricNotFound = errors.New("metric not found in baseline")

	// ErrLockContention is returned when the baseline lock could not be
	// acquired after all retries. Another writer holds it.
	ErrLockContention = errors.New("baseline lock contention")
)
