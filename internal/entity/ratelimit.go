package entity

import "time"

// Decision is the outcome of a single rate limit check.
type Decision struct {
	Allowed bool
	// Remaining attempts left in the current window after this check.
	Remaining int
	// RetryAfter is set when the check was rejected.
	RetryAfter time.Duration
	Limit      int
	Window     time.Duration
}
