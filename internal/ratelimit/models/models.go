package models

import "time"

// Scope names a throttled resource. Only census-backed verification is
// throttled: every attempt there costs an external call.
type Scope string

const (
	ScopeCensus Scope = "census"
)

// RateLimitResult is the outcome of one sliding-window check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when denied
}

// Key builds the bucket key for a scope and caller identifier.
func Key(scope Scope, identifier string) string {
	return string(scope) + ":" + identifier
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
