// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

// Package metrics holds the Prometheus collectors for Cohortlens.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Record Store Metrics
	StoreFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_fetch_duration_seconds",
			Help:    "Duration of record store fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "entity"},
	)

	StoreFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_fetch_errors_total",
			Help: "Total number of failed record store fetches",
		},
		[]string{"driver", "entity"},
	)

	StoreRowsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_rows_fetched_total",
			Help: "Total number of rows returned by the record store",
		},
		[]string{"driver", "entity"},
	)

	StoreFetchCapped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_fetch_capped_total",
			Help: "Fetches that returned exactly the row cap and may be truncated",
		},
		[]string{"entity"},
	)

	StoreUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_up",
			Help: "Whether the last record store health probe succeeded (1) or not (0)",
		},
	)

	StoreRateLimitRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_rate_limit_retries_total",
			Help: "HTTP 429 responses retried by the PostgREST client",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Analytics Engine Metrics
	AnalyticsStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_stage_duration_seconds",
			Help:    "Duration of each analytics stage in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"stage"},
	)

	AnalyticsExcludedUsers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_excluded_test_accounts_total",
			Help: "Users excluded from analytics by the test-account rule",
		},
	)

	AnalyticsUnrecognizedMetrics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_unrecognized_metrics_total",
			Help: "Metric snapshots whose metric name is outside the known set",
		},
	)

	AnalyticsSkippedSamples = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_skipped_samples_total",
			Help: "Samples skipped because they fell outside their expected input scale",
		},
		[]string{"source"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreFetch records one entity fetch.
func RecordStoreFetch(driver, entity string, rows int, duration time.Duration, err error) {
	StoreFetchDuration.WithLabelValues(driver, entity).Observe(duration.Seconds())
	if err != nil {
		StoreFetchErrors.WithLabelValues(driver, entity).Inc()
		return
	}
	StoreRowsFetched.WithLabelValues(driver, entity).Add(float64(rows))
}

// RecordStageDuration records how long an analytics stage took.
func RecordStageDuration(stage string, duration time.Duration) {
	AnalyticsStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// SetStoreUp records the health probe outcome.
func SetStoreUp(up bool) {
	if up {
		StoreUp.Set(1)
		return
	}
	StoreUp.Set(0)
}
