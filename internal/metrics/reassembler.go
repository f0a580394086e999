package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reassemblerChunkTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solana_agg",
		Subsystem: "reassembler",
		Name:      "chunk_total",
		Help:      "Count of received chunks.",
	}, []string{"status"})

	reassemblerCompleteBlockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "solana_agg",
		Subsystem: "reassembler",
		Name:      "complete_block_total",
		Help:      "Count of fully reassembled blocks.",
	})

	reassemblerCompleteBlockChunks = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "solana_agg",
		Subsystem: "reassembler",
		Name:      "complete_block_chunks",
		Help:      "Number of chunks per completed block.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1..512
	})

	reassemblerEvictionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "solana_agg",
		Subsystem: "reassembler",
		Name:      "eviction_total",
		Help:      "Count of incomplete blocks evicted for staleness.",
	})

	reassemblerCollecting = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "solana_agg",
		Subsystem: "reassembler",
		Name:      "collecting",
		Help:      "Number of slots currently collecting chunks.",
	})
)

// Reassembler observes chunk collection and block completion.
type Reassembler struct{}

// NewReassembler returns a Reassembler metrics observer.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

func (m Reassembler) ObserveChunk(duplicate bool) {
	status := "accepted"
	if duplicate {
		status = "duplicate"
	}
	reassemblerChunkTotal.WithLabelValues(status).Inc()
}

func (m Reassembler) ObserveCompleteBlock(slot uint64, chunks int) {
	reassemblerCompleteBlockTotal.Inc()
	reassemblerCompleteBlockChunks.Observe(float64(chunks))
}

func (m Reassembler) ObserveEviction(slot uint64, age time.Duration) {
	reassemblerEvictionTotal.Inc()
}

func (m Reassembler) SetCollecting(n int) {
	reassemblerCollecting.Set(float64(n))
}
