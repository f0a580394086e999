// Package pebbledb implements the storage contract on a pebble key-value
// store.
//
// Layout:
//
//	"lst_blk_no"      -> big-endian uint64, latest finalized slot
//	"BlockNo{slot}"   -> CBOR-encoded model.Block
//	<tx hash bytes>   -> big-endian uint64 slot
package pebbledb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/fxamacker/cbor/v2"

	"github.com/zktony/solana-agg/internal/model"
	"github.com/zktony/solana-agg/internal/storage"
)

const (
	latestSlotKey  = "lst_blk_no"
	blockKeyPrefix = "BlockNo"
)

// Repository stores blocks and the transaction index in a pebble database.
type Repository struct {
	db *pebble.DB
}

// NewRepository opens (or creates) the database at path.
func NewRepository(path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("db path is required")
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble db: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func blockKey(slot uint64) []byte {
	return []byte(blockKeyPrefix + strconv.FormatUint(slot, 10))
}

func encodeSlot(slot uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, slot)
	return buf
}

// PutBlock persists the block under its slot key.
func (r *Repository) PutBlock(slot uint64, block model.Block) error {
	value, err := cbor.Marshal(block)
	if err != nil {
		return fmt.Errorf("encode block %d: %w", slot, err)
	}
	if err := r.db.Set(blockKey(slot), value, pebble.Sync); err != nil {
		return fmt.Errorf("put block %d: %w", slot, err)
	}
	return nil
}

// Block loads the block stored at the slot.
func (r *Repository) Block(slot uint64) (model.Block, error) {
	value, closer, err := r.db.Get(blockKey(slot))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return model.Block{}, storage.ErrNotFound
		}
		return model.Block{}, fmt.Errorf("get block %d: %w", slot, err)
	}
	defer func() {
		_ = closer.Close()
	}()

	var block model.Block
	if err := cbor.Unmarshal(value, &block); err != nil {
		return model.Block{}, fmt.Errorf("decode block %d: %w", slot, err)
	}
	return block, nil
}

// IndexTransactions maps every transaction hash to the slot in one batch.
func (r *Repository) IndexTransactions(slot uint64, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	batch := r.db.NewBatch()
	defer func() {
		_ = batch.Close()
	}()

	slotValue := encodeSlot(slot)
	for _, hash := range hashes {
		if err := batch.Set([]byte(hash), slotValue, nil); err != nil {
			return fmt.Errorf("index transaction %s: %w", hash, err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit transaction index for slot %d: %w", slot, err)
	}
	return nil
}

// TransactionSlot resolves a transaction hash to the slot it was indexed at.
func (r *Repository) TransactionSlot(hash string) (uint64, error) {
	value, closer, err := r.db.Get([]byte(hash))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("get transaction slot: %w", err)
	}
	defer func() {
		_ = closer.Close()
	}()

	if len(value) != 8 {
		return 0, fmt.Errorf("transaction index value has %d bytes, want 8", len(value))
	}
	return binary.BigEndian.Uint64(value), nil
}

// LatestSlot reads the latest finalized slot pointer.
func (r *Repository) LatestSlot() (uint64, bool, error) {
	value, closer, err := r.db.Get([]byte(latestSlotKey))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get latest slot: %w", err)
	}
	defer func() {
		_ = closer.Close()
	}()

	if len(value) != 8 {
		return 0, false, fmt.Errorf("latest slot value has %d bytes, want 8", len(value))
	}
	return binary.BigEndian.Uint64(value), true, nil
}

// SetLatestSlot advances the latest finalized slot pointer.
func (r *Repository) SetLatestSlot(slot uint64) error {
	if err := r.db.Set([]byte(latestSlotKey), encodeSlot(slot), pebble.Sync); err != nil {
		return fmt.Errorf("set latest slot %d: %w", slot, err)
	}
	return nil
}

// UnfinalizedSlots scans persisted blocks and returns the slots without a
// snapshot, in ascending order.
func (r *Repository) UnfinalizedSlots() ([]uint64, error) {
	// The prefix upper bound: "BlockNo" keys are followed by decimal
	// digits, all below 'o'+1.
	upper := []byte(blockKeyPrefix)
	upper[len(upper)-1]++

	iter, err := r.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(blockKeyPrefix),
		UpperBound: upper,
	})
	if err != nil {
		return nil, fmt.Errorf("create block iterator: %w", err)
	}
	defer func() {
		_ = iter.Close()
	}()

	var slots []uint64
	for iter.First(); iter.Valid(); iter.Next() {
		key := string(iter.Key())
		slot, err := strconv.ParseUint(strings.TrimPrefix(key, blockKeyPrefix), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse block key %q: %w", key, err)
		}

		var block model.Block
		if err := cbor.Unmarshal(iter.Value(), &block); err != nil {
			return nil, fmt.Errorf("decode block %d: %w", slot, err)
		}
		if !block.Finalized() {
			slots = append(slots, slot)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scan blocks: %w", err)
	}

	// Lexicographic key order is not numeric order for decimal slots.
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots, nil
}
