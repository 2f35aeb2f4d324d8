package models

import "time"

// LimitTypeSwipesDaily tags the per-agent daily swipe counter.
const LimitTypeSwipesDaily = "swipes_daily"

// RateLimitResult is the outcome of a rate limit consumption attempt.
// When Allowed is false the caller must reject the action and report
// ResetAt, the UTC instant at which the counter restarts.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// NextUTCMidnight returns the first UTC midnight strictly after now.
func NextUTCMidnight(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
