// Package metrics exposes prometheus observers for the pipeline components.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollerPollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solana_agg",
		Subsystem: "poller",
		Name:      "poll_total",
		Help:      "Count of head-slot poll attempts.",
	}, []string{"status"})

	pollerPollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "solana_agg",
		Subsystem: "poller",
		Name:      "poll_duration_seconds",
		Help:      "Duration of head-slot polls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	pollerFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solana_agg",
		Subsystem: "poller",
		Name:      "fetch_total",
		Help:      "Count of block fetch attempts.",
	}, []string{"status"})

	pollerFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "solana_agg",
		Subsystem: "poller",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of block fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	pollerDecodeChunkTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solana_agg",
		Subsystem: "poller",
		Name:      "decode_chunk_total",
		Help:      "Count of decoded transaction chunks.",
	}, []string{"status"})

	pollerDecodeChunkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "solana_agg",
		Subsystem: "poller",
		Name:      "decode_chunk_duration_seconds",
		Help:      "Duration of chunk decoding.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
)

// Poller observes slot polling, block fetching and chunk decoding.
type Poller struct{}

// NewPoller returns a Poller metrics observer.
func NewPoller() *Poller {
	return &Poller{}
}

func (m Poller) ObservePoll(err error, started time.Time) {
	status := statusOf(err)
	pollerPollTotal.WithLabelValues(status).Inc()
	pollerPollDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

func (m Poller) ObserveFetch(err error, slot uint64, started time.Time) {
	status := statusOf(err)
	pollerFetchTotal.WithLabelValues(status).Inc()
	pollerFetchDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

func (m Poller) ObserveDecodeChunk(err error, started time.Time) {
	status := statusOf(err)
	pollerDecodeChunkTotal.WithLabelValues(status).Inc()
	pollerDecodeChunkDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
