// Package poller discovers new slots on the source chain and dispatches
// block fetches, splitting fetched transactions into decode chunks.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/zktony/solana-agg/internal/chain"
	"github.com/zktony/solana-agg/internal/clock"
	"github.com/zktony/solana-agg/internal/decoder"
	"github.com/zktony/solana-agg/internal/model"
	"github.com/zktony/solana-agg/pkg/safe"
	"github.com/zktony/solana-agg/pkg/workerpool"
)

// Metrics observes polling and fetching activity.
type Metrics interface {
	ObservePoll(err error, started time.Time)
	ObserveFetch(err error, slot uint64, started time.Time)
	ObserveDecodeChunk(err error, started time.Time)
}

// ChunkSink receives decoded chunks.
type ChunkSink interface {
	Enqueue(ctx context.Context, chunk model.ParsedChunk) error
}

// Config bounds the poller's fan-out and pacing. Zero values take defaults.
type Config struct {
	// SlotLag is subtracted from the local slot before fetching, trailing
	// the source's tip which is assumed not yet final.
	SlotLag uint64
	// ChunkSize is the number of transactions per decode chunk.
	ChunkSize int
	// DecodeWorkers bounds concurrent chunk decoding per fetched block.
	DecodeWorkers int
	// MaxInflightFetches bounds concurrent block fetches.
	MaxInflightFetches int
	// PollsPerSecond paces the head-slot poll loop.
	PollsPerSecond int
}

func (c *Config) applyDefaults() {
	if c.SlotLag == 0 {
		c.SlotLag = defaultSlotLag
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.DecodeWorkers <= 0 {
		c.DecodeWorkers = defaultDecodeWorkers
	}
	if c.MaxInflightFetches <= 0 {
		c.MaxInflightFetches = defaultMaxInflightFetches
	}
	if c.PollsPerSecond <= 0 {
		c.PollsPerSecond = defaultPollsPerSecond
	}
}

// Poller tracks the source head and advances a local slot counter by one per
// poll cycle, dispatching a bounded number of concurrent fetches.
type Poller struct {
	logger  *zap.Logger
	metrics Metrics
	source  chain.Source
	sink    ChunkSink

	cfg   Config
	rl    ratelimit.Limiter
	sleep func(context.Context, time.Duration) error

	// fetchSlots is a semaphore bounding in-flight fetch goroutines.
	fetchSlots chan struct{}
	wg         sync.WaitGroup

	localSlot uint64
}

// New builds a Poller over the source, forwarding decoded chunks to the sink.
func New(source chain.Source, sink ChunkSink, metrics Metrics, logger *zap.Logger, cfg Config) (*Poller, error) {
	if source == nil {
		return nil, errors.New("chain source is required")
	}
	if sink == nil {
		return nil, errors.New("chunk sink is required")
	}
	if metrics == nil {
		return nil, errors.New("poller metrics is required")
	}
	cfg.applyDefaults()

	return &Poller{
		logger:     logger,
		metrics:    metrics,
		source:     source,
		sink:       sink,
		cfg:        cfg,
		rl:         ratelimit.New(cfg.PollsPerSecond),
		sleep:      clock.SleepWithContext,
		fetchSlots: make(chan struct{}, cfg.MaxInflightFetches),
	}, nil
}

// Run polls the source head until the context is canceled. The local slot
// advances by exactly one per cycle when the head has moved past it; this
// throttles ingestion to one slot per poll cycle.
func (p *Poller) Run(ctx context.Context) error {
	defer p.wg.Wait()

	head, err := p.source.HeadSlot(ctx)
	if err != nil {
		return err
	}
	p.localSlot = head
	p.logger.Info("poller starting", zap.Uint64("head", head))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.rl.Take()

		started := time.Now()
		head, err := p.source.HeadSlot(ctx)
		p.metrics.ObservePoll(err, started)
		if err != nil {
			p.logger.Error("fetch head slot failed", zap.Error(err))
			if sleepErr := p.sleep(ctx, pollFailureBackoff); sleepErr != nil {
				return sleepErr
			}
			continue
		}

		if head <= p.localSlot {
			continue
		}
		p.localSlot++
		if err := p.dispatch(ctx, p.localSlot); err != nil {
			return err
		}
	}
}

// dispatch acquires a fetch slot and fetches in the background.
func (p *Poller) dispatch(ctx context.Context, slot uint64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.fetchSlots <- struct{}{}:
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.fetchSlots }()
		p.fetch(ctx, slot)
	}()
	return nil
}

// fetch pulls the block trailing the slot by the configured lag and fans its
// transactions out to the decode workers. Failures skip this slot; the next
// poll cycle is the only retry.
func (p *Poller) fetch(ctx context.Context, slot uint64) {
	target := slot
	if target >= p.cfg.SlotLag {
		target -= p.cfg.SlotLag
	} else {
		target = 0
	}

	started := time.Now()
	block, err := p.source.Block(ctx, target)
	p.metrics.ObserveFetch(err, target, started)
	if err != nil {
		if errors.Is(err, chain.ErrBlockNotFound) {
			p.logger.Warn("block not available, skipping slot", zap.Uint64("slot", target))
		} else {
			p.logger.Error("fetch block failed", zap.Uint64("slot", target), zap.Error(err))
		}
		return
	}
	if block.Height == nil {
		p.logger.Warn("block height not available, skipping slot", zap.Uint64("slot", target))
		return
	}

	if err := p.decodeBlock(ctx, *block.Height, block.Transactions); err != nil {
		p.logger.Error("decode block failed",
			zap.Uint64("slot", *block.Height), zap.Error(err))
	}
}

type decodeJob struct {
	index uint64
	txs   []model.RawTransaction
}

// decodeBlock splits transactions into fixed-size chunks and decodes them on
// a bounded worker pool. A chunk that fails to decode is dropped without
// aborting its siblings; the owning block can then never complete and is
// eventually evicted downstream.
func (p *Poller) decodeBlock(ctx context.Context, slot uint64, txs []model.RawTransaction) error {
	jobs := splitChunks(txs, p.cfg.ChunkSize)
	total, err := safe.Uint64(len(jobs))
	if err != nil {
		return err
	}

	return workerpool.Process(ctx, p.cfg.DecodeWorkers, jobs, func(ctx context.Context, job decodeJob) error {
		started := time.Now()
		partial, err := decoder.DecodeChunk(p.logger, job.txs)
		p.metrics.ObserveDecodeChunk(err, started)
		if err != nil {
			p.logger.Error("decode chunk failed",
				zap.Uint64("slot", slot),
				zap.Uint64("chunk", job.index),
				zap.Error(err))
			return nil
		}
		return p.sink.Enqueue(ctx, model.ParsedChunk{
			Slot:        slot,
			ChunkIndex:  job.index,
			TotalChunks: total,
			Partial:     partial,
		})
	}, nil)
}

func splitChunks(txs []model.RawTransaction, size int) []decodeJob {
	var jobs []decodeJob
	for start := 0; start < len(txs); start += size {
		end := start + size
		if end > len(txs) {
			end = len(txs)
		}
		jobs = append(jobs, decodeJob{
			index: uint64(len(jobs)),
			txs:   txs[start:end],
		})
	}
	return jobs
}
