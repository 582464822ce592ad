package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	FieldFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pointcast_field_fetches_total",
			Help: "Total gridded field document fetches",
		},
		[]string{"source", "status"},
	)

	FieldFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pointcast_field_fetch_latency_seconds",
			Help:    "Gridded field fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	CycleFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pointcast_cycle_fallbacks_total",
			Help: "Forecast runs that fell back to an earlier initialization cycle",
		},
	)

	StepsExtractedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pointcast_steps_extracted_total",
			Help: "Total forecast step records derived",
		},
	)

	ObservationFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pointcast_observation_fetches_total",
			Help: "Total ground-truth observation fetches",
		},
		[]string{"status"},
	)

	DocumentWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pointcast_document_writes_total",
			Help: "Total document store writes",
		},
		[]string{"document", "status"},
	)

	DocumentWriteRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pointcast_document_write_retries_total",
			Help: "Document store write attempts beyond the first",
		},
	)

	AccuracyRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pointcast_accuracy_runs_total",
			Help: "Accuracy evaluation runs by outcome",
		},
		[]string{"outcome"},
	)
)

// Push sends the default registry's metrics to a Pushgateway. Batch runs call
// this once before exiting; an empty URL disables the push.
func Push(gatewayURL, job string) error {
	if gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
