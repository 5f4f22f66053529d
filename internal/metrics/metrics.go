// Reelrec - Movie Recommendations and Watchlist Service
// Copyright 2026 Reelrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrec/reelrec

// Package metrics provides Prometheus instrumentation for:
//   - API endpoint latency and throughput
//   - Recommendation engine lookups
//   - External metadata API calls and circuit breaker state
//   - Database query performance (DuckDB)
//   - Authentication outcomes
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Engine Metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Total number of recommendation lookups",
		},
		[]string{"result"}, // "success", "not_found"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end duration of recommendation lookups including enrichment",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationDegradedItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_degraded_items_total",
			Help: "Total number of recommended items returned with placeholder metadata",
		},
	)

	// External Metadata API Metrics
	MetadataLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_lookups_total",
			Help: "Total number of external metadata lookups",
		},
		[]string{"result"}, // "success", "failure", "timeout", "rejected"
	)

	MetadataLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metadata_lookup_duration_seconds",
			Help:    "Duration of external metadata API calls",
			Buckets: prometheus.DefBuckets,
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
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
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

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Authentication Metrics
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"}, // "success", "invalid_credentials", "error"
	)

	// Watchlist Metrics
	WatchlistOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchlist_operations_total",
			Help: "Total number of watchlist operations",
		},
		[]string{"operation", "success"}, // operation: "add", "remove", "list"
	)
)

// RecordDBQuery records the duration of a database query and counts errors.
func RecordDBQuery(operation, table string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordMetadataLookup records the outcome and duration of one external
// metadata call.
func RecordMetadataLookup(result string, start time.Time) {
	MetadataLookupsTotal.WithLabelValues(result).Inc()
	MetadataLookupDuration.Observe(time.Since(start).Seconds())
}

// RecordWatchlistOperation records a watchlist store operation.
func RecordWatchlistOperation(operation string, success bool) {
	successStr := "true"
	if !success {
		successStr = "false"
	}
	WatchlistOperationsTotal.WithLabelValues(operation, successStr).Inc()
}
