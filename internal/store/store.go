// Package store implements the finalization store: it persists completed
// blocks, resolves out-of-order arrival into a contiguous finalized sequence
// with materialized balance snapshots, and answers point queries.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zktony/solana-agg/internal/model"
	"github.com/zktony/solana-agg/internal/storage"
)

// Typed not-found results; returned to query callers, never raised as panics.
var (
	ErrBlockNotFound    = errors.New("block not found")
	ErrTxNotFound       = errors.New("transaction not found")
	ErrNoBlockFinalized = errors.New("no block finalized yet")
)

// Metrics observes store activity.
type Metrics interface {
	ObserveIngest(err error, started time.Time)
	ObserveQuery(operation string, err error, started time.Time)
	SetLatestSlot(slot uint64)
	SetPendingSize(n int)
}

// Store is the single mutator of the persisted block state. One goroutine
// runs the Run loop and serializes ingestion with queries; that sequencing
// is the concurrency-safety mechanism, no locks are involved.
type Store struct {
	logger  *zap.Logger
	metrics Metrics
	repo    storage.Repository

	inbox    chan model.CompletedBlock
	requests chan request

	// pending holds persisted slots that are not yet chain-linked to the
	// finalized sequence.
	pending   map[uint64]struct{}
	latest    uint64
	hasLatest bool
}

// New builds a Store over the repository, restoring the latest pointer and
// rebuilding the pending set from persisted unfinalized blocks.
func New(repo storage.Repository, metrics Metrics, logger *zap.Logger, inboxSize int) (*Store, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if metrics == nil {
		return nil, errors.New("store metrics is required")
	}
	if inboxSize <= 0 {
		return nil, errors.New("positive inbox size is required")
	}

	s := &Store{
		logger:   logger,
		metrics:  metrics,
		repo:     repo,
		inbox:    make(chan model.CompletedBlock, inboxSize),
		requests: make(chan request, inboxSize),
		pending:  make(map[uint64]struct{}),
	}

	latest, ok, err := repo.LatestSlot()
	if err != nil {
		return nil, fmt.Errorf("load latest slot: %w", err)
	}
	s.latest, s.hasLatest = latest, ok

	if err := s.restorePending(); err != nil {
		return nil, fmt.Errorf("restore pending set: %w", err)
	}

	if s.hasLatest {
		metrics.SetLatestSlot(s.latest)
	}
	metrics.SetPendingSize(len(s.pending))
	return s, nil
}

// restorePending rebuilds the in-memory pending set from blocks that were
// persisted without a snapshot, so a restart does not orphan them.
func (s *Store) restorePending() error {
	slots, err := s.repo.UnfinalizedSlots()
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if s.hasLatest && slot <= s.latest {
			continue
		}
		s.pending[slot] = struct{}{}
	}
	if len(s.pending) > 0 {
		s.logger.Info("restored pending slots", zap.Int("count", len(s.pending)))
	}
	return nil
}

// Enqueue hands a completed block to the store. The inbox is bounded; the
// send blocks until there is room or the context ends.
func (s *Store) Enqueue(ctx context.Context, block model.CompletedBlock) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.inbox <- block:
		return nil
	}
}

// Run drains the inbox and the query channel until the context is canceled.
func (s *Store) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block := <-s.inbox:
			started := time.Now()
			err := s.ingest(block.Slot, block.Block)
			s.metrics.ObserveIngest(err, started)
			if err != nil {
				s.logger.Error("ingest block failed",
					zap.Uint64("slot", block.Slot), zap.Error(err))
			}
		case req := <-s.requests:
			req.serve(s)
		}
	}
}

// ingest applies the ordering protocol to one completed block:
//
//  1. persist the raw block and index its transactions, unconditionally;
//  2. first block ever: finalize against an empty snapshot;
//  3. immediate successor of latest: finalize, then drain every contiguous
//     pending successor;
//  4. anything else: park in the pending set.
func (s *Store) ingest(slot uint64, block model.Block) error {
	// A redelivered slot that already carries a snapshot keeps it; the
	// snapshot is never recomputed or dropped.
	existing, err := s.repo.Block(slot)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load existing block %d: %w", slot, err)
	}
	if err == nil && existing.Finalized() {
		block.Snapshot = existing.Snapshot
		if err := s.repo.PutBlock(slot, block); err != nil {
			return err
		}
		if err := s.repo.IndexTransactions(slot, block.TransactionHashes()); err != nil {
			return err
		}
		s.logger.Warn("ignoring redelivery of finalized block", zap.Uint64("slot", slot))
		return nil
	}

	if err := s.repo.PutBlock(slot, block); err != nil {
		return err
	}
	if err := s.repo.IndexTransactions(slot, block.TransactionHashes()); err != nil {
		return err
	}

	switch {
	case !s.hasLatest:
		if err := s.finalize(slot); err != nil {
			return err
		}
	case slot == s.latest+1:
		if err := s.finalize(slot); err != nil {
			return err
		}
		if err := s.drainPending(); err != nil {
			return err
		}
	default:
		s.pending[slot] = struct{}{}
		s.logger.Debug("parked out-of-order block",
			zap.Uint64("slot", slot), zap.Uint64("latest", s.latest))
	}

	s.metrics.SetPendingSize(len(s.pending))
	return nil
}

// finalize writes the balance snapshot of the slot and advances the latest
// pointer. The snapshot is the previous latest snapshot overlaid with this
// block's deltas; this block's values win on collision. A snapshot already
// present is never recomputed.
func (s *Store) finalize(slot uint64) error {
	block, err := s.repo.Block(slot)
	if err != nil {
		return fmt.Errorf("load block %d: %w", slot, err)
	}
	if block.Finalized() {
		s.logger.Warn("block already finalized, keeping snapshot", zap.Uint64("slot", slot))
		return s.advanceLatest(slot)
	}

	snapshot := make(map[string]uint64)
	if s.hasLatest {
		prev, err := s.repo.Block(s.latest)
		if err != nil {
			return fmt.Errorf("load previous block %d: %w", s.latest, err)
		}
		for account, balance := range prev.Snapshot {
			snapshot[account] = balance
		}
	}
	for account, balance := range block.Deltas {
		snapshot[account] = balance
	}

	block.Snapshot = snapshot
	if err := s.repo.PutBlock(slot, block); err != nil {
		return fmt.Errorf("store finalized block %d: %w", slot, err)
	}

	s.logger.Debug("finalized block",
		zap.Uint64("slot", slot), zap.Int("accounts", len(snapshot)))
	return s.advanceLatest(slot)
}

func (s *Store) advanceLatest(slot uint64) error {
	if err := s.repo.SetLatestSlot(slot); err != nil {
		return fmt.Errorf("advance latest slot to %d: %w", slot, err)
	}
	s.latest = slot
	s.hasLatest = true
	s.metrics.SetLatestSlot(slot)
	return nil
}

// drainPending finalizes contiguous successors of latest until a gap remains.
func (s *Store) drainPending() error {
	for {
		next := s.latest + 1
		if _, ok := s.pending[next]; !ok {
			return nil
		}
		if err := s.finalize(next); err != nil {
			return err
		}
		delete(s.pending, next)
	}
}
