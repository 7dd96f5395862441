package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ingested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendtrail",
			Name:      "sms_ingested_total",
			Help:      "Incoming messages by outcome (submitted, queued, rejected, dropped).",
		},
		[]string{"outcome"},
	)

	syncProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spendtrail",
			Name:      "sync_processed_total",
			Help:      "Queue items successfully submitted during sync passes.",
		},
	)

	syncFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spendtrail",
			Name:      "sync_failed_total",
			Help:      "Queue items that failed during sync passes.",
		},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "spendtrail",
			Name:      "queue_depth",
			Help:      "Pending items currently in the transaction queue.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(ingested, syncProcessed, syncFailed, queueDepth)
	})
}

// IncIngested increments the ingestion counter for an outcome label.
func IncIngested(outcome string) {
	ingested.WithLabelValues(outcome).Inc()
}

// AddSyncProcessed records successfully synced items.
func AddSyncProcessed(n int) {
	syncProcessed.Add(float64(n))
}

// AddSyncFailed records failed sync items.
func AddSyncFailed(n int) {
	syncFailed.Add(float64(n))
}

// SetQueueDepth records the current queue length.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}
