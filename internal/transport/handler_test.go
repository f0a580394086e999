package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zktony/solana-agg/internal/model"
	"github.com/zktony/solana-agg/internal/store"
)

// fakeStore answers every query from fixed fixtures.
type fakeStore struct {
	txs     map[string]model.TxRecord
	blocks  map[uint64]model.Block
	latest  uint64
	lastErr error

	// balanceSlot records the slot argument of the last AccountBalance call.
	balanceSlot *uint64
}

func (f *fakeStore) TransactionDetails(_ context.Context, hash string) (model.TxRecord, error) {
	if f.lastErr != nil {
		return model.TxRecord{}, f.lastErr
	}
	record, ok := f.txs[hash]
	if !ok {
		return model.TxRecord{}, store.ErrTxNotFound
	}
	return record, nil
}

func (f *fakeStore) BlockDetails(_ context.Context, slot uint64) (model.Block, error) {
	if f.lastErr != nil {
		return model.Block{}, f.lastErr
	}
	block, ok := f.blocks[slot]
	if !ok {
		return model.Block{}, store.ErrBlockNotFound
	}
	return block, nil
}

func (f *fakeStore) LatestBlock(_ context.Context) (uint64, model.Block, error) {
	if f.lastErr != nil {
		return 0, model.Block{}, f.lastErr
	}
	block, ok := f.blocks[f.latest]
	if !ok {
		return 0, model.Block{}, store.ErrNoBlockFinalized
	}
	return f.latest, block, nil
}

func (f *fakeStore) BlockRange(_ context.Context, start, end uint64) (map[uint64]model.Block, error) {
	if f.lastErr != nil {
		return nil, f.lastErr
	}
	out := make(map[uint64]model.Block)
	for slot, block := range f.blocks {
		if slot >= start && slot <= end {
			out[slot] = block
		}
	}
	return out, nil
}

func (f *fakeStore) AccountBalance(_ context.Context, account string, slot *uint64) (uint64, error) {
	f.balanceSlot = slot
	if f.lastErr != nil {
		return 0, f.lastErr
	}
	target := f.latest
	if slot != nil {
		target = *slot
	}
	block, ok := f.blocks[target]
	if !ok {
		return 0, store.ErrBlockNotFound
	}
	return block.BalanceAt(account), nil
}

func newTestHandler(t *testing.T, s Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h, err := NewHandler(s, zap.NewNop(), time.Second)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	router := gin.New()
	h.Register(router)
	return router
}

func fixtureStore() *fakeStore {
	finalized := model.NewBlock()
	finalized.AddTransaction("tx-1", model.TxRecord{
		Instructions: []model.Instruction{model.Transfer("from", "to", 2.5)},
	})
	finalized.Snapshot = map[string]uint64{"acct": 77}

	return &fakeStore{
		txs: map[string]model.TxRecord{
			"tx-1": finalized.Transactions["tx-1"],
		},
		blocks: map[uint64]model.Block{
			4: finalized,
			6: model.NewBlock(),
		},
		latest: 4,
	}
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Routes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "health", path: "/health", wantStatus: http.StatusOK},
		{name: "tx details", path: "/tx_details/tx-1", wantStatus: http.StatusOK},
		{name: "tx details not found", path: "/tx_details/nope", wantStatus: http.StatusNotFound},
		{name: "block details", path: "/block_details/4", wantStatus: http.StatusOK},
		{name: "block details not found", path: "/block_details/5", wantStatus: http.StatusNotFound},
		{name: "block details bad slot", path: "/block_details/abc", wantStatus: http.StatusBadRequest},
		{name: "latest block", path: "/latest_block", wantStatus: http.StatusOK},
		{name: "block range", path: "/block_range/0/10", wantStatus: http.StatusOK},
		{name: "block range inverted", path: "/block_range/10/0", wantStatus: http.StatusBadRequest},
		{name: "block range bad bound", path: "/block_range/x/10", wantStatus: http.StatusBadRequest},
		{name: "account balance", path: "/account_balance/acct", wantStatus: http.StatusOK},
		{name: "account balance at slot", path: "/account_balance/acct?block_no=4", wantStatus: http.StatusOK},
		{name: "account balance bad slot", path: "/account_balance/acct?block_no=x", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestHandler(t, fixtureStore())
			rec := get(t, router, tt.path)
			if rec.Code != tt.wantStatus {
				t.Fatalf("GET %s = %d, want %d (body: %s)", tt.path, rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandler_AccountBalancePassesSlot(t *testing.T) {
	t.Parallel()

	fs := fixtureStore()
	router := newTestHandler(t, fs)

	rec := get(t, router, "/account_balance/acct?block_no=4")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET = %d, want 200", rec.Code)
	}
	if fs.balanceSlot == nil || *fs.balanceSlot != 4 {
		t.Fatalf("store received slot %v, want 4", fs.balanceSlot)
	}

	var body struct {
		Account string `json:"account"`
		Balance uint64 `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Account != "acct" || body.Balance != 77 {
		t.Fatalf("body = %+v, want acct/77", body)
	}

	// Without the query parameter the slot stays nil.
	rec = get(t, router, "/account_balance/acct")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET = %d, want 200", rec.Code)
	}
	if fs.balanceSlot != nil {
		t.Fatalf("store received slot %v, want nil", fs.balanceSlot)
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "no block finalized", err: store.ErrNoBlockFinalized, wantStatus: http.StatusNotFound},
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout},
		{name: "storage failure", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := fixtureStore()
			fs.lastErr = tt.err
			router := newTestHandler(t, fs)

			rec := get(t, router, "/latest_block")
			if rec.Code != tt.wantStatus {
				t.Fatalf("GET /latest_block = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestNewHandler_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewHandler(nil, zap.NewNop(), time.Second); err == nil {
		t.Fatal("NewHandler() must reject a nil store")
	}
	if _, err := NewHandler(&fakeStore{}, zap.NewNop(), 0); err == nil {
		t.Fatal("NewHandler() must reject a non-positive timeout")
	}
}
