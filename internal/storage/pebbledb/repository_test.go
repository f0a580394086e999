package pebbledb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zktony/solana-agg/internal/model"
	"github.com/zktony/solana-agg/internal/storage"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})
	return repo
}

func TestRepository_BlockRoundTrip(t *testing.T) {
	repo := newTestRepository(t)

	block := model.NewBlock()
	block.AddTransaction("tx-hash", model.TxRecord{
		Instructions: []model.Instruction{model.Transfer("from", "to", 1.5)},
		Metadata:     `{"postBalances":[1,2]}`,
	})
	block.AddDelta("from", 100)

	require.NoError(t, repo.PutBlock(7, block))

	got, err := repo.Block(7)
	require.NoError(t, err)
	require.Equal(t, block.Transactions, got.Transactions)
	require.Equal(t, block.Deltas, got.Deltas)
	require.False(t, got.Finalized())

	// Attaching a snapshot and rewriting keeps the same key.
	block.Snapshot = map[string]uint64{"from": 100}
	require.NoError(t, repo.PutBlock(7, block))

	got, err = repo.Block(7)
	require.NoError(t, err)
	require.True(t, got.Finalized())
	require.Equal(t, uint64(100), got.Snapshot["from"])
}

func TestRepository_BlockNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Block(404)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRepository_TransactionIndex(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.IndexTransactions(9, []string{"tx-a", "tx-b"}))
	require.NoError(t, repo.IndexTransactions(9, nil))

	slot, err := repo.TransactionSlot("tx-a")
	require.NoError(t, err)
	require.Equal(t, uint64(9), slot)

	_, err = repo.TransactionSlot("tx-missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRepository_LatestSlot(t *testing.T) {
	repo := newTestRepository(t)

	_, ok, err := repo.LatestSlot()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.SetLatestSlot(12))

	slot, ok, err := repo.LatestSlot()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(12), slot)
}

func TestRepository_UnfinalizedSlots(t *testing.T) {
	repo := newTestRepository(t)

	finalized := model.NewBlock()
	finalized.Snapshot = map[string]uint64{}

	// Slot 2 and 10 stay unfinalized; their numeric order must survive the
	// lexicographic key layout ("BlockNo10" sorts before "BlockNo2").
	require.NoError(t, repo.PutBlock(1, finalized))
	require.NoError(t, repo.PutBlock(2, model.NewBlock()))
	require.NoError(t, repo.PutBlock(10, model.NewBlock()))

	// An indexed transaction hash must not leak into the block scan.
	require.NoError(t, repo.IndexTransactions(2, []string{"tx-a"}))

	slots, err := repo.UnfinalizedSlots()
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 10}, slots)
}
