package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wvskills"

var (
	dbOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weaviate_operation_duration_seconds",
			Help:      "Weaviate operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	dbOperationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weaviate_operation_errors_total",
			Help:      "Total failed Weaviate operations",
		},
		[]string{"op"},
	)

	batchObjectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_objects_total",
			Help:      "Objects sent through the batch endpoint by outcome",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(dbOperationDuration)
	prometheus.MustRegister(dbOperationErrors)
	prometheus.MustRegister(batchObjectsTotal)
}

// ObserveDB records the duration and outcome of a Weaviate operation.
func ObserveDB(op string, start time.Time, err error) {
	dbOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		dbOperationErrors.WithLabelValues(op).Inc()
	}
}

// ObserveBatch counts batched objects by outcome.
func ObserveBatch(ok, failed int) {
	batchObjectsTotal.WithLabelValues("ok").Add(float64(ok))
	batchObjectsTotal.WithLabelValues("error").Add(float64(failed))
}
