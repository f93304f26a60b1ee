/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides an in-memory sliding window rate limiter.
//
// RateLimiter answers for every event whether it is permitted under a RateLimit
// ("at most Count events per Period") and records the permitted ones.
// Admitted timestamps are kept in a bounded ring buffer sized to the limit's count,
// and stale entries are swept away only when the buffer is full.
//
// RateLimiter is deliberately simple:
//   - it never blocks and starts no goroutines;
//   - it does no internal locking, so concurrent callers must synchronize access themselves;
//   - it expects instants passed to CheckAt and Sweep to be non-decreasing.
//
// Configuration for a limiter may be loaded with the config package (see Config).
package ratelimit
