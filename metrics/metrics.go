// Package metrics provides Prometheus metrics for the browser.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audionav_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audionav_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	navigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audionav_navigations_total",
			Help: "Navigator operations by outcome",
		},
		[]string{"operation", "result"},
	)

	discoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audionav_discovery_duration_seconds",
			Help:    "Time spent discovering storage volumes",
			Buckets: prometheus.DefBuckets,
		},
	)

	volumesDiscovered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audionav_volumes_discovered",
			Help: "Number of volumes found by the last discovery run",
		},
	)

	probeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audionav_discovery_probe_failures_total",
			Help: "Discovery probes that failed and were treated as empty",
		},
		[]string{"probe"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audionav_sessions_active",
			Help: "Number of open browsing sessions",
		},
	)

	staleSnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audionav_stale_snapshots_discarded_total",
			Help: "Snapshots dropped because a newer request superseded them",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordNavigation counts one navigator operation.
func RecordNavigation(operation, result string) {
	navigationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordDiscovery records a discovery run.
func RecordDiscovery(duration time.Duration, volumes int) {
	discoveryDuration.Observe(duration.Seconds())
	volumesDiscovered.Set(float64(volumes))
}

// RecordProbeFailure counts a failed discovery probe.
func RecordProbeFailure(probe string) {
	probeFailuresTotal.WithLabelValues(probe).Inc()
}

// SetSessionsActive sets the open session gauge.
func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

// RecordStaleSnapshot counts a discarded stale snapshot.
func RecordStaleSnapshot() {
	staleSnapshotsTotal.Inc()
}
