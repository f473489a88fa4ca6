package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	StageRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_stage_runs_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"},
	)
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qa_stage_duration_seconds",
			Help:    "Duration of pipeline stage executions",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"stage"},
	)
	QARequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qa_requests_total",
			Help: "Total number of answered or failed questions",
		},
		[]string{"status"},
	)
	ChunksIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qa_chunks_indexed_total",
			Help: "Total number of document chunks written to the vector store",
		},
	)
)

func init() {
	prometheus.MustRegister(StageRunsTotal)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(QARequestsTotal)
	prometheus.MustRegister(ChunksIndexedTotal)
}
