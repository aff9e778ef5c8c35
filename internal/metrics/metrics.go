package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hcsync_remote_requests_total",
			Help: "GraphQL requests sent to Hardcover by outcome",
		},
		[]string{"outcome"}, // ok, rate_limited, auth, http_error, graphql_error, transport
	)

	RemoteRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hcsync_remote_request_duration_seconds",
			Help:    "Round trip time of Hardcover requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	ThrottleWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hcsync_throttle_wait_seconds",
			Help:    "Time callers spent waiting in the rate limiter",
			Buckets: []float64{0, 0.1, 0.5, 1, 2, 4, 10, 30, 60},
		},
	)

	BooksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hcsync_books_processed_total",
			Help: "Books reconciled into notes by result",
		},
		[]string{"result"}, // created, updated, unchanged, renamed, merged, failed
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hcsync_sync_runs_total",
			Help: "Sync passes by final status",
		},
		[]string{"status"},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hcsync_sync_duration_seconds",
			Help:    "Wall time of a full sync pass",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hcsync_last_successful_sync_timestamp_seconds",
			Help: "Unix time of the last pass that advanced the checkpoint",
		},
	)
)

func RecordRemoteRequest(outcome string, duration time.Duration) {
	RemoteRequests.WithLabelValues(outcome).Inc()
	RemoteRequestDuration.Observe(duration.Seconds())
}

func RecordThrottleWait(d time.Duration) {
	ThrottleWait.Observe(d.Seconds())
}

func RecordBook(result string) {
	BooksProcessed.WithLabelValues(result).Inc()
}

func RecordSyncRun(status string, duration time.Duration, checkpoint time.Time) {
	SyncRuns.WithLabelValues(status).Inc()
	SyncDuration.Observe(duration.Seconds())
	if !checkpoint.IsZero() {
		LastSuccessfulSync.Set(float64(checkpoint.Unix()))
	}
}
