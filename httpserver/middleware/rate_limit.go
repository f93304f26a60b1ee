/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/acronis/go-ratelimit/log"
	"github.com/acronis/go-ratelimit/ratelimit"
	"github.com/acronis/go-ratelimit/restapi"
)

// RateLimitErrCode is an error code that is used in a response body
// if the request is rejected by the middleware that limits the rate of HTTP requests.
const RateLimitErrCode = "tooManyRequests"

// RateLimitLogFieldLimit is the name of the logged field that contains the exceeded rate limit.
const RateLimitLogFieldLimit = "rate_limit"

var timeNow = time.Now

// RateLimitParams contains data that relates to the rejected request
// and could be used for building a custom response.
type RateLimitParams struct {
	ErrDomain          string
	ResponseStatusCode int
	Limit              ratelimit.RateLimit
	// RetryAfter is the time after which the same request would be admitted if no other request comes first.
	RetryAfter time.Duration
}

// RateLimitOnRejectFunc is a function that is called for rejecting HTTP request when the rate limit is exceeded.
type RateLimitOnRejectFunc func(
	rw http.ResponseWriter, r *http.Request, params RateLimitParams, next http.Handler, logger log.FieldLogger)

// RateLimitOpts represents an options for the RateLimit middleware.
type RateLimitOpts struct {
	// ResponseStatusCode is used for rejected requests. 503 is used if zero.
	ResponseStatusCode int
	DryRun             bool
	OnReject           RateLimitOnRejectFunc
	OnRejectInDryRun   RateLimitOnRejectFunc
	MetricsCollector   RateLimitMetricsCollector
}

type rateLimitHandler struct {
	next           http.Handler
	mu             *sync.Mutex
	limiter        *ratelimit.RateLimiter
	errDomain      string
	respStatusCode int
	dryRun         bool
	onReject       RateLimitOnRejectFunc
	metrics        RateLimitMetricsCollector
}

// RateLimit is a middleware that limits the rate of HTTP requests with a sliding-window limiter.
// Every request is an event: it is served if the limiter admits it and rejected otherwise.
// The limiter is guarded by the middleware and must not be used elsewhere while the middleware is serving.
func RateLimit(limiter *ratelimit.RateLimiter, errDomain string) func(next http.Handler) http.Handler {
	return RateLimitWithOpts(limiter, errDomain, RateLimitOpts{})
}

// RateLimitWithOpts is a configurable version of a middleware to limit the rate of HTTP requests.
// All handlers produced by the returned function share the limiter.
func RateLimitWithOpts(limiter *ratelimit.RateLimiter, errDomain string, opts RateLimitOpts) func(next http.Handler) http.Handler {
	respStatusCode := opts.ResponseStatusCode
	if respStatusCode == 0 {
		respStatusCode = http.StatusServiceUnavailable
	}
	metrics := opts.MetricsCollector
	if metrics == nil {
		metrics = disabledRateLimitMetrics{}
	}
	mu := &sync.Mutex{}
	onReject := makeRateLimitOnRejectFunc(opts)

	return func(next http.Handler) http.Handler {
		return &rateLimitHandler{
			next:           next,
			mu:             mu,
			limiter:        limiter,
			errDomain:      errDomain,
			respStatusCode: respStatusCode,
			dryRun:         opts.DryRun,
			onReject:       onReject,
			metrics:        metrics,
		}
	}
}

func (h *rateLimitHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	// the clock is read under the lock so that instants reach the limiter in non-decreasing order
	now := timeNow()
	admitted := h.limiter.CheckAt(now)
	var retryAfter time.Duration
	if !admitted {
		retryAfter = h.limiter.RetryAfterAt(now)
	}
	h.mu.Unlock()

	if admitted {
		h.metrics.IncAdmitted()
		h.next.ServeHTTP(rw, r)
		return
	}

	h.metrics.IncRejected(h.dryRun)
	params := RateLimitParams{
		ErrDomain:          h.errDomain,
		ResponseStatusCode: h.respStatusCode,
		Limit:              h.limiter.Limit(),
		RetryAfter:         retryAfter,
	}
	h.onReject(rw, r, params, h.next, GetLoggerFromContext(r.Context()))
}

// RetryAfterSeconds converts the limiter's retry-after duration into the value of the Retry-After header.
// Durations are rounded up to whole seconds.
func RetryAfterSeconds(retryAfter time.Duration) int {
	return int(math.Ceil(retryAfter.Seconds()))
}

// DefaultRateLimitOnReject sends HTTP response with the Retry-After header
// and a JSON error in the body when the rate limit is exceeded.
func DefaultRateLimitOnReject(
	rw http.ResponseWriter, r *http.Request, params RateLimitParams, next http.Handler, logger log.FieldLogger,
) {
	if logger != nil {
		logger = logger.With(
			log.String(RateLimitLogFieldLimit, params.Limit.String()),
			log.String(userAgentLogFieldKey, r.UserAgent()),
		)
	}
	rw.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(params.RetryAfter)))
	apiErr := restapi.NewError(params.ErrDomain, RateLimitErrCode, restapi.ErrMessageTooManyRequests)
	restapi.RespondError(rw, params.ResponseStatusCode, apiErr, logger)
}

// DefaultRateLimitOnRejectInDryRun logs the rejection and serves the request anyway.
func DefaultRateLimitOnRejectInDryRun(
	rw http.ResponseWriter, r *http.Request, params RateLimitParams, next http.Handler, logger log.FieldLogger,
) {
	if logger != nil {
		logger.Warn("too many requests, serving will be continued because of dry run mode",
			log.String(RateLimitLogFieldLimit, params.Limit.String()),
			log.String(userAgentLogFieldKey, r.UserAgent()),
		)
	}
	next.ServeHTTP(rw, r)
}

func makeRateLimitOnRejectFunc(opts RateLimitOpts) RateLimitOnRejectFunc {
	if opts.DryRun {
		if opts.OnRejectInDryRun != nil {
			return opts.OnRejectInDryRun
		}
		return DefaultRateLimitOnRejectInDryRun
	}
	if opts.OnReject != nil {
		return opts.OnReject
	}
	return DefaultRateLimitOnReject
}
