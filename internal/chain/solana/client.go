// Package solana implements the chain.Source contract over Solana JSON-RPC.
package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zktony/solana-agg/internal/chain"
	"github.com/zktony/solana-agg/internal/model"
)

const (
	commitmentFinalized = "finalized"
	encodingBase64      = "base64"

	// jsonrpcSlotSkipped is returned by getBlock for slots the cluster
	// skipped or has not yet produced.
	jsonrpcSlotSkipped = -32007
	// jsonrpcSlotNotAvailable is returned for slots pruned from the node.
	jsonrpcSlotNotAvailable = -32009
)

// Client talks to a Solana node over HTTP JSON-RPC.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient validates the endpoint and builds a client. The timeout bounds
// every RPC call, including block fetches.
func NewClient(url string, timeout time.Duration) (*Client, error) {
	if url == "" {
		return nil, errors.New("chain url is required")
	}
	if timeout <= 0 {
		return nil, errors.New("positive rpc timeout is required")
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// HeadSlot returns the node's latest finalized slot.
func (c *Client) HeadSlot(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "getSlot", []any{
		map[string]any{"commitment": commitmentFinalized},
	})
	if err != nil {
		return 0, fmt.Errorf("get slot: %w", err)
	}

	var slot uint64
	if err := json.Unmarshal(result, &slot); err != nil {
		return 0, fmt.Errorf("decode slot: %w", err)
	}
	return slot, nil
}

type rpcBlock struct {
	BlockHeight  *uint64 `json:"blockHeight"`
	Transactions []struct {
		// Transaction is [payload, encoding] for base64 encoding.
		Transaction []string        `json:"transaction"`
		Meta        json.RawMessage `json:"meta"`
	} `json:"transactions"`
}

// Block fetches the block at the slot with base64-encoded transactions and
// finalized commitment. Skipped or unavailable slots map to
// chain.ErrBlockNotFound.
func (c *Client) Block(ctx context.Context, slot uint64) (*chain.Block, error) {
	result, err := c.call(ctx, "getBlock", []any{
		slot,
		map[string]any{
			"encoding":                       encodingBase64,
			"transactionDetails":             "full",
			"rewards":                        false,
			"commitment":                     commitmentFinalized,
			"maxSupportedTransactionVersion": 0,
		},
	})
	if err != nil {
		var rpcErr *rpcError
		if errors.As(err, &rpcErr) &&
			(rpcErr.Code == jsonrpcSlotSkipped || rpcErr.Code == jsonrpcSlotNotAvailable) {
			return nil, fmt.Errorf("slot %d: %w", slot, chain.ErrBlockNotFound)
		}
		return nil, fmt.Errorf("get block %d: %w", slot, err)
	}
	if bytes.Equal(result, []byte("null")) {
		return nil, fmt.Errorf("slot %d: %w", slot, chain.ErrBlockNotFound)
	}

	var raw rpcBlock
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("decode block %d: %w", slot, err)
	}

	block := &chain.Block{Height: raw.BlockHeight}
	for i, tx := range raw.Transactions {
		if len(tx.Transaction) == 0 {
			return nil, fmt.Errorf("block %d transaction %d: missing payload", slot, i)
		}
		payload, err := base64.StdEncoding.DecodeString(tx.Transaction[0])
		if err != nil {
			return nil, fmt.Errorf("block %d transaction %d: decode payload: %w", slot, i, err)
		}
		block.Transactions = append(block.Transactions, model.RawTransaction{
			Payload: payload,
			Meta:    tx.Meta,
		})
	}
	return block, nil
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post %s: unexpected status %s", method, resp.Status)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}
