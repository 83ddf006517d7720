package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and upstream Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexspace",
			Name:      "searches_total",
			Help:      "Total number of norm searches",
		},
		[]string{"mode", "status"}, // mode: batch/stream, status: ok/error
	)

	StreamLinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexspace",
			Name:      "stream_lines_total",
			Help:      "NDJSON stream lines by processing outcome",
		},
		[]string{"outcome"}, // "processed" / "dropped"
	)

	AnnexSwitchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexspace",
			Name:      "annex_switch_total",
			Help:      "Annex auto-switch detector outcomes",
		},
		[]string{"outcome"},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexspace",
			Name:      "backend_requests_total",
			Help:      "Total requests to the upstream legal API",
		},
		[]string{"endpoint", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexspace",
			Name:      "backend_request_duration_seconds",
			Help:      "Upstream legal API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)
)

// RegisterSearchMetrics registers search and upstream metrics explicitly
// (no init side effects).
func RegisterSearchMetrics() {
	prometheus.MustRegister(
		SearchesTotal,
		StreamLinesTotal,
		AnnexSwitchTotal,
		BackendRequestsTotal,
		BackendRequestDuration,
	)
}
