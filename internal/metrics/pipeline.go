package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indexing and search Prometheus metrics.
var (
	PropertiesIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "properties_indexed_total",
			Help:      "Total number of property index operations",
		},
		[]string{"status"},
	)

	ChunksIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "chunks_indexed_total",
			Help:      "Total number of chunks written to the vector store",
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "search_requests_total",
			Help:      "Total number of hybrid search requests",
		},
		[]string{"filtered", "status"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers indexing and search metrics. Must be
// called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PropertiesIndexedTotal)
	prometheus.MustRegister(ChunksIndexedTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	pipelineMetricsRegistered = true
}
