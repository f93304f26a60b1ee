/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"time"

	"github.com/acronis/go-ratelimit/internal/ringbuf"
)

// for testing purposes
var timeNow = time.Now

// RateLimiter implements the sliding window rate limiting algorithm.
// It keeps the instants of admitted events (at most RateLimit.Count of them)
// and admits a new event when there is a free slot or when some recorded instant has left the window.
//
// RateLimiter is not safe for concurrent use.
type RateLimiter struct {
	limit    RateLimit
	readings *ringbuf.Ring[time.Time]
}

// New creates a new RateLimiter whose memory grows on demand.
// It suits limiters that are expected to be used lightly.
// New panics if limit was not obtained from NewRateLimit.
func New(limit RateLimit) *RateLimiter {
	mustBeValid(limit)
	return &RateLimiter{limit: limit, readings: ringbuf.New[time.Time](limit.count)}
}

// NewPreallocated creates a new RateLimiter that allocates memory for all limit.Count instants at once.
// It suits heavily used limiters: no allocations happen after construction.
// NewPreallocated panics if limit was not obtained from NewRateLimit.
func NewPreallocated(limit RateLimit) *RateLimiter {
	mustBeValid(limit)
	return &RateLimiter{limit: limit, readings: ringbuf.NewPreallocated[time.Time](limit.count)}
}

func mustBeValid(limit RateLimit) {
	if limit.count <= 0 {
		panic("ratelimit: rate limit count must be positive")
	}
}

// Limit returns the rate limit the limiter enforces.
func (l *RateLimiter) Limit() RateLimit {
	return l.limit
}

// Len returns the number of recorded admissions.
// Some of them may already be outside the window if no sweep happened since.
func (l *RateLimiter) Len() int {
	return l.readings.Len()
}

// Check reports whether an event happening now is permitted, recording it if so.
func (l *RateLimiter) Check() bool {
	return l.CheckAt(timeNow())
}

// CheckAt reports whether an event happening at instant is permitted, recording it if so.
// Instants must not decrease between calls, otherwise the result is unspecified.
//
// Stale instants are swept only when the limiter is full.
// A denied event leaves the limiter unchanged.
func (l *RateLimiter) CheckAt(instant time.Time) bool {
	if l.readings.Push(instant) {
		return true
	}
	if !l.Sweep(instant) {
		return false
	}
	l.readings.Push(instant) // Always succeeds, at least one slot was just freed.
	return true
}

// Sweep removes all recorded instants that are older than instant minus the period.
// It returns true if at least one of them was removed.
func (l *RateLimiter) Sweep(instant time.Time) bool {
	cutoff := instant.Add(-l.limit.period)
	swept := false
	for {
		oldest, ok := l.readings.Peek()
		if !ok || !oldest.Before(cutoff) {
			// instants are ordered, everything after this one is in the window too
			return swept
		}
		l.readings.Pop()
		swept = true
	}
}

// RetryAfterAt returns how long after instant the next event would be admitted.
// Zero means that an event at instant would be admitted right away.
// RetryAfterAt does not modify the limiter.
func (l *RateLimiter) RetryAfterAt(instant time.Time) time.Duration {
	if l.readings.Len() < l.limit.count {
		return 0
	}
	oldest, _ := l.readings.Peek()
	// the oldest instant is evicted once it is strictly older than the window start
	retryAfter := oldest.Add(l.limit.period).Sub(instant) + time.Nanosecond
	if retryAfter < 0 {
		return 0
	}
	return retryAfter
}
