// Package reassembly collects decoded chunks per slot and forwards whole
// blocks once every chunk has arrived.
package reassembly

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/zktony/solana-agg/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

const (
	defaultInboxSize  = 1024
	defaultEvictAfter = 10 * time.Minute
	defaultSweepEvery = time.Minute
)

// Metrics observes reassembly activity.
type Metrics interface {
	ObserveChunk(duplicate bool)
	ObserveCompleteBlock(slot uint64, chunks int)
	ObserveEviction(slot uint64, age time.Duration)
	SetCollecting(n int)
}

// BlockSink receives completed blocks.
type BlockSink interface {
	Enqueue(ctx context.Context, block model.CompletedBlock) error
}

// unprocessedBlock is the in-flight collection state for one slot. It exists
// from the first chunk's arrival until completion or eviction.
type unprocessedBlock struct {
	total     uint64
	chunks    map[uint64]model.PartialBlock
	firstSeen time.Time
}

func (u *unprocessedBlock) complete() bool {
	return uint64(len(u.chunks)) == u.total
}

// merge folds the collected partial blocks, in ascending chunk order, into
// one block.
func (u *unprocessedBlock) merge() model.Block {
	indexes := make([]uint64, 0, len(u.chunks))
	for index := range u.chunks {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	block := model.NewBlock()
	for _, index := range indexes {
		block.Merge(u.chunks[index])
	}
	return block
}

// Reassembler is the sole mutator of its collection state; a single
// goroutine drains the inbox, so no locks are needed.
type Reassembler struct {
	logger  *zap.Logger
	metrics Metrics
	sink    BlockSink

	inbox      chan model.ParsedChunk
	collecting map[uint64]*unprocessedBlock

	evictAfter time.Duration
	sweepEvery time.Duration
	now        func() time.Time
}

// New builds a Reassembler forwarding completed blocks to the sink.
func New(sink BlockSink, metrics Metrics, logger *zap.Logger) (*Reassembler, error) {
	if sink == nil {
		return nil, errors.New("block sink is required")
	}
	if metrics == nil {
		return nil, errors.New("reassembler metrics is required")
	}

	return &Reassembler{
		logger:     logger,
		metrics:    metrics,
		sink:       sink,
		inbox:      make(chan model.ParsedChunk, defaultInboxSize),
		collecting: make(map[uint64]*unprocessedBlock),
		evictAfter: defaultEvictAfter,
		sweepEvery: defaultSweepEvery,
		now:        time.Now,
	}, nil
}

// Enqueue hands a decoded chunk to the reassembler. The inbox is bounded;
// the send blocks until there is room or the context ends.
func (r *Reassembler) Enqueue(ctx context.Context, chunk model.ParsedChunk) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.inbox <- chunk:
		return nil
	}
}

// Run drains the inbox until the context is canceled, periodically evicting
// slots stuck below completion.
func (r *Reassembler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk := <-r.inbox:
			if err := r.handleChunk(ctx, chunk); err != nil {
				return err
			}
		case <-ticker.C:
			r.evictStale()
		}
	}
}

func (r *Reassembler) handleChunk(ctx context.Context, chunk model.ParsedChunk) error {
	if chunk.TotalChunks == 0 || chunk.ChunkIndex >= chunk.TotalChunks {
		r.logger.Warn("discarding chunk with inconsistent bounds",
			zap.Uint64("slot", chunk.Slot),
			zap.Uint64("chunk", chunk.ChunkIndex),
			zap.Uint64("total", chunk.TotalChunks))
		return nil
	}

	entry, ok := r.collecting[chunk.Slot]
	if !ok {
		entry = &unprocessedBlock{
			total:     chunk.TotalChunks,
			chunks:    make(map[uint64]model.PartialBlock),
			firstSeen: r.now(),
		}
		r.collecting[chunk.Slot] = entry
	}

	if _, dup := entry.chunks[chunk.ChunkIndex]; dup {
		r.metrics.ObserveChunk(true)
		r.logger.Warn("rejecting duplicate chunk",
			zap.Uint64("slot", chunk.Slot), zap.Uint64("chunk", chunk.ChunkIndex))
		return nil
	}

	entry.chunks[chunk.ChunkIndex] = chunk.Partial
	r.metrics.ObserveChunk(false)

	if !entry.complete() {
		r.metrics.SetCollecting(len(r.collecting))
		return nil
	}

	block := entry.merge()
	delete(r.collecting, chunk.Slot)
	r.metrics.SetCollecting(len(r.collecting))
	r.metrics.ObserveCompleteBlock(chunk.Slot, len(entry.chunks))

	r.logger.Info("block complete",
		zap.Uint64("slot", chunk.Slot),
		zap.Int("transactions", len(block.Transactions)))

	if err := r.sink.Enqueue(ctx, model.CompletedBlock{Slot: chunk.Slot, Block: block}); err != nil {
		return err
	}
	return nil
}

// evictStale drops slots whose first chunk arrived longer than evictAfter
// ago and that never completed; their memory would otherwise grow forever.
func (r *Reassembler) evictStale() {
	cutoff := r.now().Add(-r.evictAfter)
	for slot, entry := range r.collecting {
		if entry.firstSeen.After(cutoff) {
			continue
		}
		age := r.now().Sub(entry.firstSeen)
		r.logger.Warn("evicting incomplete block",
			zap.Uint64("slot", slot),
			zap.Uint64("collected", uint64(len(entry.chunks))),
			zap.Uint64("total", entry.total),
			zap.Duration("age", age))
		delete(r.collecting, slot)
		r.metrics.ObserveEviction(slot, age)
	}
	r.metrics.SetCollecting(len(r.collecting))
}
