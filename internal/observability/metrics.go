package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	storedRecordsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_memory",
		Subsystem: "store",
		Name:      "records",
		Help:      "Number of activity records currently held in the store.",
	})
	insertCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_memory",
		Subsystem: "store",
		Name:      "inserts_total",
		Help:      "Total activity records accepted by the store.",
	})
	embeddingFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_memory",
		Subsystem: "store",
		Name:      "embedding_failures_total",
		Help:      "Inserts rejected because the embedder could not produce a vector.",
	})
	searchDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "activity_memory",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Wall time of similarity searches over the stored vectors.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(storedRecordsGauge, insertCounter, embeddingFailureCounter, searchDurationHistogram)
}

// RecordActivityStored updates the insert counter and the store size gauge.
func RecordActivityStored(total int) {
	insertCounter.Inc()
	storedRecordsGauge.Set(float64(total))
}

// RecordEmbeddingFailure counts an insert rejected by the embedder.
func RecordEmbeddingFailure() {
	embeddingFailureCounter.Inc()
}

// ObserveSearchDuration records the wall time of one similarity search.
func ObserveSearchDuration(d time.Duration) {
	searchDurationHistogram.Observe(d.Seconds())
}
