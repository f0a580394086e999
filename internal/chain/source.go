// Package chain defines the contract with the remote ledger source.
package chain

import (
	"context"
	"errors"

	"github.com/zktony/solana-agg/internal/model"
)

// ErrBlockNotFound is returned when the source has no block for a slot.
var ErrBlockNotFound = errors.New("block not found on source")

// Source provides the remote ledger data the poller consumes.
type Source interface {
	// HeadSlot returns the source's current finalized head slot.
	HeadSlot(ctx context.Context) (uint64, error)
	// Block fetches the raw block persisted at the given slot.
	Block(ctx context.Context, slot uint64) (*Block, error)
}

// Block is the raw result of a block fetch. Height is nil when the source
// reported no block height for the slot.
type Block struct {
	Height       *uint64
	Transactions []model.RawTransaction
}
