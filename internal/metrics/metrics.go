// Package metrics exposes Prometheus collectors for the resource service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchRequestsTotal     *prometheus.CounterVec
	fetchRetriesTotal      prometheus.Counter
	robotsDeniedTotal      prometheus.Counter
	linkProbesTotal        *prometheus.CounterVec
	validationRunsTotal    *prometheus.CounterVec
	recordsUpsertedTotal   *prometheus.CounterVec
	rateLimitDelaysSeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resources_fetch_requests_total",
				Help: "Total number of outbound fetch attempts, labeled by method and outcome.",
			},
			[]string{"method", "outcome"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "resources_fetch_retries_total",
				Help: "Total number of fetch retries after transient failures.",
			},
		)

		robotsDeniedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "resources_robots_denied_total",
				Help: "Total number of fetches denied by robots.txt policy.",
			},
		)

		linkProbesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resources_link_probes_total",
				Help: "Total number of liveness probes, labeled by result and status code.",
			},
			[]string{"result", "code"},
		)

		validationRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resources_validation_runs_total",
				Help: "Total number of validation runs, labeled by status.",
			},
			[]string{"status"},
		)

		recordsUpsertedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resources_records_upserted_total",
				Help: "Total number of records upserted by the scraper, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resources_rate_limit_delay_seconds",
				Help:    "Histogram of delays introduced by the outbound rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
		)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt with its outcome.
func ObserveFetch(method, outcome string) {
	if fetchRequestsTotal == nil {
		return
	}
	fetchRequestsTotal.WithLabelValues(method, outcome).Inc()
}

// ObserveFetchRetry records one retry after a transient failure.
func ObserveFetchRetry() {
	if fetchRetriesTotal == nil {
		return
	}
	fetchRetriesTotal.Inc()
}

// ObserveRobotsDenied records a fetch denied by robots policy.
func ObserveRobotsDenied() {
	if robotsDeniedTotal == nil {
		return
	}
	robotsDeniedTotal.Inc()
}

// ObserveLinkProbe records one liveness probe result.
func ObserveLinkProbe(live bool, statusCode int) {
	if linkProbesTotal == nil {
		return
	}
	result := "broken"
	if live {
		result = "live"
	}
	linkProbesTotal.WithLabelValues(result, strconv.Itoa(statusCode)).Inc()
}

// ObserveValidationRun records the completion of a validation run.
func ObserveValidationRun(status string) {
	if validationRunsTotal == nil {
		return
	}
	validationRunsTotal.WithLabelValues(status).Inc()
}

// ObserveUpsert records one scraper upsert outcome.
func ObserveUpsert(outcome string) {
	if recordsUpsertedTotal == nil {
		return
	}
	recordsUpsertedTotal.WithLabelValues(outcome).Inc()
}

// ObserveRateLimitDelay records a delay introduced by the rate limiter.
func ObserveRateLimitDelay(d time.Duration) {
	if rateLimitDelaysSeconds == nil {
		return
	}
	rateLimitDelaysSeconds.Observe(d.Seconds())
}
