package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backend engine Prometheus metrics.
var (
	BackendOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecscope",
			Name:      "backend_operations_total",
			Help:      "Total number of normalized operations sent to vector database engines",
		},
		[]string{"engine", "op", "status"},
	)

	BackendOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecscope",
			Name:      "backend_operation_duration_seconds",
			Help:      "Engine operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"engine", "op"},
	)

	// BackendRecordsFetched counts records pulled by bulk fetches (text search,
	// clear, export and engines without server-side paging).
	BackendRecordsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecscope",
			Name:      "backend_records_fetched_total",
			Help:      "Records fetched by bulk engine calls",
		},
		[]string{"engine", "op"},
	)

	SkippedRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecscope",
			Name:      "skipped_records_total",
			Help:      "Records skipped because their payload could not be serialized",
		},
		[]string{"op"},
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers Prometheus backend metrics. Must be called once from main.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendOperationsTotal)
	prometheus.MustRegister(BackendOperationDuration)
	prometheus.MustRegister(BackendRecordsFetched)
	prometheus.MustRegister(SkippedRecordsTotal)
	backendMetricsRegistered = true
}
