// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package metrics holds the Prometheus collectors for the service. All
// collectors register with the default registry through promauto and are
// served at /metrics.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of match store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of failed match store queries",
		},
		[]string{"backend", "operation", "error_type"},
	)

	// Result cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"namespace"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"namespace"},
	)

	// Circuit breaker
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

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Domain
	OddsScenarios = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_scenarios_total",
			Help: "Odds scenarios computed, by outcome (computed or undersampled)",
		},
		[]string{"scenario", "outcome"},
	)

	SearchFlagJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_flag_joins_total",
			Help: "Number of searches that joined each flag",
		},
		[]string{"flag"},
	)

	RecDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rec_downloads_total",
			Help: "Recorded game downloads by result",
		},
		[]string{"result"},
	)

	RecDownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rec_download_bytes_total",
			Help: "Uncompressed bytes served as recorded game downloads",
		},
	)

	// API
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

	StoreUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_up",
			Help: "Whether the last store ping succeeded (1) or failed (0)",
		},
		[]string{"backend"},
	)

	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_runs_total",
			Help: "Total number of periodic maintenance runs by task and status",
		},
		[]string{"task", "status"},
	)
)

// ErrorType buckets an error into a small label set.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "query"
	}
}

// RecordStoreQuery observes one store round-trip.
func RecordStoreQuery(backend, operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(backend, operation, ErrorType(err)).Inc()
	}
}

// RecordCacheLookup counts a hit or miss for namespace.
func RecordCacheLookup(namespace string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(namespace).Inc()
		return
	}
	CacheMisses.WithLabelValues(namespace).Inc()
}

// RecordOddsScenario counts a computed scenario; a nil result is undersampled.
func RecordOddsScenario(scenario string, undersampled bool) {
	outcome := "computed"
	if undersampled {
		outcome = "undersampled"
	}
	OddsScenarios.WithLabelValues(scenario, outcome).Inc()
}

// RecordDownload counts a recorded game download.
func RecordDownload(size int, err error) {
	if err != nil {
		RecDownloads.WithLabelValues("error").Inc()
		return
	}
	RecDownloads.WithLabelValues("success").Inc()
	RecDownloadBytes.Add(float64(size))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordMaintenanceRun counts one periodic task run.
func RecordMaintenanceRun(task string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	MaintenanceRuns.WithLabelValues(task, status).Inc()
}
