// Package storage defines the persistence contract of the finalization store.
package storage

import (
	"errors"

	"github.com/zktony/solana-agg/internal/model"
)

// ErrNotFound is returned when a requested key is absent.
var ErrNotFound = errors.New("not found")

// Repository persists blocks, the transaction index and the latest finalized
// slot pointer. Implementations are used by a single goroutine and need not
// be safe for concurrent use.
type Repository interface {
	// PutBlock persists the block under its slot key, overwriting any
	// previous value.
	PutBlock(slot uint64, block model.Block) error
	// Block loads the block stored at the slot, ErrNotFound when absent.
	Block(slot uint64) (model.Block, error)
	// IndexTransactions maps every hash to the slot, independent of the
	// block's finalization state.
	IndexTransactions(slot uint64, hashes []string) error
	// TransactionSlot resolves a transaction hash to its slot, ErrNotFound
	// when the hash was never indexed.
	TransactionSlot(hash string) (uint64, error)
	// LatestSlot reads the latest finalized slot pointer; ok is false when
	// no block has been finalized yet.
	LatestSlot() (slot uint64, ok bool, err error)
	// SetLatestSlot advances the latest finalized slot pointer.
	SetLatestSlot(slot uint64) error
	// UnfinalizedSlots lists persisted slots without a snapshot, ascending.
	UnfinalizedSlots() ([]uint64, error)
}
