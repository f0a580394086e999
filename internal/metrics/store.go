package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeIngestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solana_agg",
		Subsystem: "store",
		Name:      "ingest_total",
		Help:      "Count of ingested blocks.",
	}, []string{"status"})

	storeIngestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "solana_agg",
		Subsystem: "store",
		Name:      "ingest_duration_seconds",
		Help:      "Duration of block ingestion.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	storeQueryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solana_agg",
		Subsystem: "store",
		Name:      "query_total",
		Help:      "Count of served queries.",
	}, []string{"operation", "status"})

	storeQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "solana_agg",
		Subsystem: "store",
		Name:      "query_duration_seconds",
		Help:      "Duration of served queries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})

	storeLatestSlot = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "solana_agg",
		Subsystem: "store",
		Name:      "latest_finalized_slot",
		Help:      "Highest contiguously finalized slot.",
	})

	storePendingSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "solana_agg",
		Subsystem: "store",
		Name:      "pending_blocks",
		Help:      "Number of persisted blocks awaiting finalization.",
	})
)

// Store observes block ingestion and query serving.
type Store struct{}

// NewStore returns a Store metrics observer.
func NewStore() *Store {
	return &Store{}
}

func (m Store) ObserveIngest(err error, started time.Time) {
	status := statusOf(err)
	storeIngestTotal.WithLabelValues(status).Inc()
	storeIngestDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

func (m Store) ObserveQuery(operation string, err error, started time.Time) {
	status := statusOf(err)
	storeQueryTotal.WithLabelValues(operation, status).Inc()
	storeQueryDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}

func (m Store) SetLatestSlot(slot uint64) {
	storeLatestSlot.Set(float64(slot))
}

func (m Store) SetPendingSize(n int) {
	storePendingSize.Set(float64(n))
}
