/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package httpclient contains http.RoundTripper implementations for outgoing requests:
// client-side sliding-window rate limiting and request id propagation.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-ratelimit/log"
	"github.com/acronis/go-ratelimit/ratelimit"
)

// DefaultRateLimitingWaitTimeout is the default maximum time a request may wait for the limiter.
const DefaultRateLimitingWaitTimeout = 15 * time.Second

// ErrRateLimitExceeded is wrapped by RateLimitingWaitError when the limiter
// would not admit the request before the wait timeout expires.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

var timeNow = time.Now

// RateLimitingRoundTripperOpts represents an options for RateLimitingRoundTripper.
type RateLimitingRoundTripperOpts struct {
	WaitTimeout time.Duration
	Preallocate bool
	Logger      log.FieldLogger
}

// RateLimitingRoundTripper wraps implementing http.RoundTripper interface object
// and passes every outgoing request through a sliding-window rate limiter.
// A request that is not admitted waits until the oldest recorded request leaves the window.
type RateLimitingRoundTripper struct {
	Delegate    http.RoundTripper
	WaitTimeout time.Duration

	logger  log.FieldLogger
	mu      sync.Mutex
	limiter *ratelimit.RateLimiter
}

// NewRateLimitingRoundTripper creates a new RateLimitingRoundTripper with specified rate limit.
func NewRateLimitingRoundTripper(delegate http.RoundTripper, limit ratelimit.RateLimit) (*RateLimitingRoundTripper, error) {
	return NewRateLimitingRoundTripperWithOpts(delegate, limit, RateLimitingRoundTripperOpts{})
}

// NewRateLimitingRoundTripperWithOpts creates a new RateLimitingRoundTripper with specified rate limit and options.
// For options that are not presented, the default values will be used.
func NewRateLimitingRoundTripperWithOpts(
	delegate http.RoundTripper, limit ratelimit.RateLimit, opts RateLimitingRoundTripperOpts,
) (*RateLimitingRoundTripper, error) {
	if limit.Count() <= 0 {
		return nil, fmt.Errorf("rate limit count must be positive")
	}
	if opts.WaitTimeout < 0 {
		return nil, fmt.Errorf("wait timeout must not be negative")
	}
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = DefaultRateLimitingWaitTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}

	limiter := ratelimit.New(limit)
	if opts.Preallocate {
		limiter = ratelimit.NewPreallocated(limit)
	}
	return &RateLimitingRoundTripper{
		Delegate:    delegate,
		WaitTimeout: opts.WaitTimeout,
		logger:      opts.Logger,
		limiter:     limiter,
	}, nil
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *RateLimitingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), rt.WaitTimeout)
	defer cancel()

	if err := rt.wait(ctx); err != nil {
		if r.Body != nil {
			_ = r.Body.Close() // Per RoundTripper contract.
		}
		return nil, &RateLimitingWaitError{Inner: err}
	}
	return rt.Delegate.RoundTrip(r)
}

// Limit returns the rate limit applied to outgoing requests.
func (rt *RateLimitingRoundTripper) Limit() ratelimit.RateLimit {
	return rt.limiter.Limit()
}

func (rt *RateLimitingRoundTripper) wait(ctx context.Context) error {
	bo := backoff.WithContext(&retryAfterBackOff{rt: rt, ctx: ctx}, ctx)
	return backoff.Retry(func() error {
		rt.mu.Lock()
		defer rt.mu.Unlock()
		if rt.limiter.CheckAt(timeNow()) {
			return nil
		}
		return ErrRateLimitExceeded
	}, bo)
}

func (rt *RateLimitingRoundTripper) retryAfter() time.Duration {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.limiter.RetryAfterAt(timeNow())
}

// retryAfterBackOff is a backoff.BackOff that waits exactly until the limiter is expected to admit the next request.
// It stops when that moment is past the context deadline.
type retryAfterBackOff struct {
	rt  *RateLimitingRoundTripper
	ctx context.Context
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	retryAfter := b.rt.retryAfter()
	if deadline, ok := b.ctx.Deadline(); ok && timeNow().Add(retryAfter).After(deadline) {
		return backoff.Stop
	}
	b.rt.logger.Debug("waiting due to client side rate limiting",
		log.String("rate_limit", b.rt.limiter.Limit().String()),
		log.Duration("retry_after", retryAfter),
	)
	return retryAfter
}

func (b *retryAfterBackOff) Reset() {}

// RateLimitingWaitError is returned in RoundTrip method of RateLimitingRoundTripper
// when the request could not be admitted by the limiter in time.
type RateLimitingWaitError struct {
	Inner error
}

func (e *RateLimitingWaitError) Error() string {
	return fmt.Sprintf("wait due to client side rate limiting: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RateLimitingWaitError) Unwrap() error {
	return e.Inner
}
