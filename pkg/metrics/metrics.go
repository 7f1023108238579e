// Package metrics provides Prometheus metrics for tap-typo.
//
// The tap is a short-lived process, so metrics are not served over HTTP;
// WriteTextfile dumps the default registry in the text exposition format
// (suitable for the node exporter textfile collector) at exit.
//
// # Basic Usage
//
//	metrics.RecordsEmitted.WithLabelValues(streamID).Inc()
//
//	timer := metrics.NewTimer("sync_stream")
//	syncStream()
//	logger.Info("stream synced", zap.Duration("duration", timer.Stop()))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsEmitted counts RECORD messages written.
	// Labels: stream (tap stream id)
	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_typo_records_emitted_total",
			Help: "Total number of records emitted",
		},
		[]string{"stream"},
	)

	// PagesFetched counts result pages retrieved.
	// Labels: stream (tap stream id)
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_typo_pages_fetched_total",
			Help: "Total number of result pages fetched",
		},
		[]string{"stream"},
	)

	// StreamsSynced counts completed stream syncs.
	// Labels: outcome (done, limit_reached, failed)
	StreamsSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_typo_streams_synced_total",
			Help: "Total number of stream syncs by outcome",
		},
		[]string{"outcome"},
	)

	// HTTPRequests counts completed HTTP attempts.
	// Labels: method, code (status code, or "error" for transport failures)
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_typo_http_requests_total",
			Help: "Total number of HTTP request attempts",
		},
		[]string{"method", "code"},
	)

	// HTTPRetries counts retries after transient failures.
	HTTPRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_typo_http_retries_total",
			Help: "Total number of HTTP retries after transient failures",
		},
		[]string{"method"},
	)

	// HTTPRequestDuration tracks per-attempt latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tap_typo_http_request_duration_seconds",
			Help:    "HTTP request attempt latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"method"},
	)

	// TokenRequests counts bearer token requests.
	// Labels: reason (initial, refresh)
	TokenRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_typo_token_requests_total",
			Help: "Total number of token requests",
		},
		[]string{"reason"},
	)
)

// WriteTextfile writes all registered metrics to path.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
