/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import "github.com/prometheus/client_golang/prometheus"

const (
	rateLimitMetricsLabelResult = "result"
	rateLimitMetricsLabelDryRun = "dry_run"
)

const (
	rateLimitMetricsValAdmitted = "admitted"
	rateLimitMetricsValRejected = "rejected"

	metricsValYes = "yes"
	metricsValNo  = "no"
)

// RateLimitMetricsCollector is called by the RateLimit middleware for every checked request.
type RateLimitMetricsCollector interface {
	IncAdmitted()
	IncRejected(dryRun bool)
}

type disabledRateLimitMetrics struct{}

func (disabledRateLimitMetrics) IncAdmitted()     {}
func (disabledRateLimitMetrics) IncRejected(bool) {}

// RateLimitPrometheusMetrics is a RateLimitMetricsCollector that counts checked requests in Prometheus.
type RateLimitPrometheusMetrics struct {
	Requests *prometheus.CounterVec
}

var _ RateLimitMetricsCollector = (*RateLimitPrometheusMetrics)(nil)

// NewRateLimitPrometheusMetrics creates a new instance of RateLimitPrometheusMetrics.
// The counter is named "<namespace>_rate_limit_requests_total".
func NewRateLimitPrometheusMetrics(namespace string) *RateLimitPrometheusMetrics {
	return &RateLimitPrometheusMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_requests_total",
			Help:      "Number of HTTP requests checked by the rate limiter.",
		}, []string{rateLimitMetricsLabelResult, rateLimitMetricsLabelDryRun}),
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *RateLimitPrometheusMetrics) MustCurryWith(labels prometheus.Labels) *RateLimitPrometheusMetrics {
	return &RateLimitPrometheusMetrics{Requests: pm.Requests.MustCurryWith(labels)}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *RateLimitPrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.Requests)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *RateLimitPrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.Requests)
}

// IncAdmitted increments the counter of admitted requests.
func (pm *RateLimitPrometheusMetrics) IncAdmitted() {
	pm.Requests.With(prometheus.Labels{
		rateLimitMetricsLabelResult: rateLimitMetricsValAdmitted,
		rateLimitMetricsLabelDryRun: metricsValNo,
	}).Inc()
}

// IncRejected increments the counter of rejected requests.
func (pm *RateLimitPrometheusMetrics) IncRejected(dryRun bool) {
	dryRunVal := metricsValNo
	if dryRun {
		dryRunVal = metricsValYes
	}
	pm.Requests.With(prometheus.Labels{
		rateLimitMetricsLabelResult: rateLimitMetricsValRejected,
		rateLimitMetricsLabelDryRun: dryRunVal,
	}).Inc()
}
