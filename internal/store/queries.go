package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zktony/solana-agg/internal/model"
	"github.com/zktony/solana-agg/internal/storage"
)

// request is one query served inside the Run loop. Each request variant is
// paired with its own reply type; replies are buffered so a caller that gave
// up on its deadline never blocks the store.
type request interface {
	serve(s *Store)
}

type txDetailsReply struct {
	record model.TxRecord
	err    error
}

type txDetailsRequest struct {
	hash  string
	reply chan txDetailsReply
}

func (r txDetailsRequest) serve(s *Store) {
	record, err := s.transactionDetails(r.hash)
	r.reply <- txDetailsReply{record: record, err: err}
}

type blockDetailsReply struct {
	block model.Block
	err   error
}

type blockDetailsRequest struct {
	slot  uint64
	reply chan blockDetailsReply
}

func (r blockDetailsRequest) serve(s *Store) {
	block, err := s.blockDetails(r.slot)
	r.reply <- blockDetailsReply{block: block, err: err}
}

type latestBlockReply struct {
	slot  uint64
	block model.Block
	err   error
}

type latestBlockRequest struct {
	reply chan latestBlockReply
}

func (r latestBlockRequest) serve(s *Store) {
	slot, block, err := s.latestBlock()
	r.reply <- latestBlockReply{slot: slot, block: block, err: err}
}

type blockRangeReply struct {
	blocks map[uint64]model.Block
	err    error
}

type blockRangeRequest struct {
	start, end uint64
	reply      chan blockRangeReply
}

func (r blockRangeRequest) serve(s *Store) {
	blocks, err := s.blockRange(r.start, r.end)
	r.reply <- blockRangeReply{blocks: blocks, err: err}
}

type accountBalanceReply struct {
	balance uint64
	err     error
}

type accountBalanceRequest struct {
	account string
	slot    *uint64
	reply   chan accountBalanceReply
}

func (r accountBalanceRequest) serve(s *Store) {
	balance, err := s.accountBalance(r.account, r.slot)
	r.reply <- accountBalanceReply{balance: balance, err: err}
}

// TransactionDetails resolves a transaction hash through the secondary index.
// The index is populated on arrival, so transactions of still-pending blocks
// resolve too.
func (s *Store) TransactionDetails(ctx context.Context, hash string) (model.TxRecord, error) {
	started := time.Now()
	req := txDetailsRequest{hash: hash, reply: make(chan txDetailsReply, 1)}
	if err := s.submit(ctx, req); err != nil {
		s.metrics.ObserveQuery("tx_details", err, started)
		return model.TxRecord{}, err
	}
	select {
	case <-ctx.Done():
		s.metrics.ObserveQuery("tx_details", ctx.Err(), started)
		return model.TxRecord{}, ctx.Err()
	case reply := <-req.reply:
		s.metrics.ObserveQuery("tx_details", reply.err, started)
		return reply.record, reply.err
	}
}

// BlockDetails loads the persisted block at the slot.
func (s *Store) BlockDetails(ctx context.Context, slot uint64) (model.Block, error) {
	started := time.Now()
	req := blockDetailsRequest{slot: slot, reply: make(chan blockDetailsReply, 1)}
	if err := s.submit(ctx, req); err != nil {
		s.metrics.ObserveQuery("block_details", err, started)
		return model.Block{}, err
	}
	select {
	case <-ctx.Done():
		s.metrics.ObserveQuery("block_details", ctx.Err(), started)
		return model.Block{}, ctx.Err()
	case reply := <-req.reply:
		s.metrics.ObserveQuery("block_details", reply.err, started)
		return reply.block, reply.err
	}
}

// LatestBlock returns the highest contiguously finalized block.
func (s *Store) LatestBlock(ctx context.Context) (uint64, model.Block, error) {
	started := time.Now()
	req := latestBlockRequest{reply: make(chan latestBlockReply, 1)}
	if err := s.submit(ctx, req); err != nil {
		s.metrics.ObserveQuery("latest_block", err, started)
		return 0, model.Block{}, err
	}
	select {
	case <-ctx.Done():
		s.metrics.ObserveQuery("latest_block", ctx.Err(), started)
		return 0, model.Block{}, ctx.Err()
	case reply := <-req.reply:
		s.metrics.ObserveQuery("latest_block", reply.err, started)
		return reply.slot, reply.block, reply.err
	}
}

// BlockRange returns all present blocks in [start, end]; absent slots are
// skipped, not an error.
func (s *Store) BlockRange(ctx context.Context, start, end uint64) (map[uint64]model.Block, error) {
	started := time.Now()
	req := blockRangeRequest{start: start, end: end, reply: make(chan blockRangeReply, 1)}
	if err := s.submit(ctx, req); err != nil {
		s.metrics.ObserveQuery("block_range", err, started)
		return nil, err
	}
	select {
	case <-ctx.Done():
		s.metrics.ObserveQuery("block_range", ctx.Err(), started)
		return nil, ctx.Err()
	case reply := <-req.reply:
		s.metrics.ObserveQuery("block_range", reply.err, started)
		return reply.blocks, reply.err
	}
}

// AccountBalance reads an account balance from a slot's snapshot, or from
// the latest snapshot when slot is nil. A pending (unfinalized) slot reads
// as zero, not as an error.
func (s *Store) AccountBalance(ctx context.Context, account string, slot *uint64) (uint64, error) {
	started := time.Now()
	req := accountBalanceRequest{account: account, slot: slot, reply: make(chan accountBalanceReply, 1)}
	if err := s.submit(ctx, req); err != nil {
		s.metrics.ObserveQuery("account_balance", err, started)
		return 0, err
	}
	select {
	case <-ctx.Done():
		s.metrics.ObserveQuery("account_balance", ctx.Err(), started)
		return 0, ctx.Err()
	case reply := <-req.reply:
		s.metrics.ObserveQuery("account_balance", reply.err, started)
		return reply.balance, reply.err
	}
}

func (s *Store) submit(ctx context.Context, req request) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.requests <- req:
		return nil
	}
}

func (s *Store) transactionDetails(hash string) (model.TxRecord, error) {
	slot, err := s.repo.TransactionSlot(hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.TxRecord{}, ErrTxNotFound
		}
		return model.TxRecord{}, fmt.Errorf("resolve transaction slot: %w", err)
	}

	block, err := s.repo.Block(slot)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.TxRecord{}, ErrBlockNotFound
		}
		return model.TxRecord{}, fmt.Errorf("load block %d: %w", slot, err)
	}

	record, ok := block.Transactions[hash]
	if !ok {
		return model.TxRecord{}, ErrTxNotFound
	}
	return record, nil
}

func (s *Store) blockDetails(slot uint64) (model.Block, error) {
	block, err := s.repo.Block(slot)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Block{}, ErrBlockNotFound
		}
		return model.Block{}, fmt.Errorf("load block %d: %w", slot, err)
	}
	return block, nil
}

func (s *Store) latestBlock() (uint64, model.Block, error) {
	if !s.hasLatest {
		return 0, model.Block{}, ErrNoBlockFinalized
	}
	block, err := s.repo.Block(s.latest)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, model.Block{}, ErrBlockNotFound
		}
		return 0, model.Block{}, fmt.Errorf("load latest block %d: %w", s.latest, err)
	}
	return s.latest, block, nil
}

func (s *Store) blockRange(start, end uint64) (map[uint64]model.Block, error) {
	blocks := make(map[uint64]model.Block)
	for slot := start; slot <= end; slot++ {
		block, err := s.repo.Block(slot)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load block %d: %w", slot, err)
		}
		blocks[slot] = block
		if slot == end {
			break
		}
	}
	return blocks, nil
}

func (s *Store) accountBalance(account string, slot *uint64) (uint64, error) {
	target := s.latest
	if slot != nil {
		target = *slot
	} else if !s.hasLatest {
		return 0, ErrNoBlockFinalized
	}

	block, err := s.repo.Block(target)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrBlockNotFound
		}
		return 0, fmt.Errorf("load block %d: %w", target, err)
	}
	return block.BalanceAt(account), nil
}
