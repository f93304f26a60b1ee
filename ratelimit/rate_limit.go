/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"fmt"
	"time"
)

// RateLimit describes the maximum frequency of events: at most Count events per Period.
// The zero value is not a valid limit, use NewRateLimit.
type RateLimit struct {
	count  int
	period time.Duration
}

// NewRateLimit returns a RateLimit that allows count events per period.
// The second return value is false if count is not positive or period is negative.
func NewRateLimit(count int, period time.Duration) (RateLimit, bool) {
	if count <= 0 || period < 0 {
		return RateLimit{}, false
	}
	return RateLimit{count: count, period: period}, true
}

// MustRateLimit is a version of NewRateLimit that panics if the limit is invalid.
func MustRateLimit(count int, period time.Duration) RateLimit {
	rl, ok := NewRateLimit(count, period)
	if !ok {
		panic(fmt.Errorf("ratelimit: invalid rate limit: %d per %s", count, period))
	}
	return rl
}

// Count returns the maximum number of events within Period.
func (rl RateLimit) Count() int {
	return rl.count
}

// Period returns the length of the sliding window.
func (rl RateLimit) Period() time.Duration {
	return rl.period
}

// String implements fmt.Stringer.
func (rl RateLimit) String() string {
	return fmt.Sprintf("%d/%s", rl.count, rl.period)
}
