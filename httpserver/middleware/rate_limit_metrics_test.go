/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRateLimitPrometheusMetrics(t *testing.T) {
	metrics := NewRateLimitPrometheusMetrics("ratelimit_test")
	metrics.MustRegister()
	defer metrics.Unregister()

	metrics.IncAdmitted()
	metrics.IncAdmitted()
	metrics.IncRejected(false)
	metrics.IncRejected(true)
	metrics.IncRejected(true)

	require.Equal(t, 2.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(rateLimitMetricsValAdmitted, metricsValNo)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(rateLimitMetricsValRejected, metricsValNo)))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(rateLimitMetricsValRejected, metricsValYes)))
	require.Equal(t, 3, testutil.CollectAndCount(metrics.Requests, "ratelimit_test_rate_limit_requests_total"))
}

func TestRateLimitPrometheusMetrics_MustCurryWith(t *testing.T) {
	metrics := NewRateLimitPrometheusMetrics("")
	metrics.Requests = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rate_limit_requests_total"},
		[]string{"route", rateLimitMetricsLabelResult, rateLimitMetricsLabelDryRun})

	curried := metrics.MustCurryWith(prometheus.Labels{"route": "/hello"})
	curried.IncRejected(false)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("/hello", rateLimitMetricsValRejected, metricsValNo)))
}
