// Package transport exposes the HTTP query façade over the finalization
// store.
package transport

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zktony/solana-agg/internal/model"
	"github.com/zktony/solana-agg/internal/store"
)

// Store answers the point queries the façade serves.
type Store interface {
	TransactionDetails(ctx context.Context, hash string) (model.TxRecord, error)
	BlockDetails(ctx context.Context, slot uint64) (model.Block, error)
	LatestBlock(ctx context.Context) (uint64, model.Block, error)
	BlockRange(ctx context.Context, start, end uint64) (map[uint64]model.Block, error)
	AccountBalance(ctx context.Context, account string, slot *uint64) (uint64, error)
}

// Handler serves the aggregator query API.
type Handler struct {
	store        Store
	logger       *zap.Logger
	queryTimeout time.Duration
}

// NewHandler builds a Handler; queryTimeout bounds every store query.
func NewHandler(store Store, logger *zap.Logger, queryTimeout time.Duration) (*Handler, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if queryTimeout <= 0 {
		return nil, errors.New("positive query timeout is required")
	}
	return &Handler{store: store, logger: logger, queryTimeout: queryTimeout}, nil
}

// Register mounts the query routes.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.health)
	r.GET("/tx_details/:tx_id", h.txDetails)
	r.GET("/block_details/:block_no", h.blockDetails)
	r.GET("/latest_block", h.latestBlock)
	r.GET("/block_range/:start/:end", h.blockRange)
	r.GET("/account_balance/:account_id", h.accountBalance)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) txDetails(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.queryTimeout)
	defer cancel()

	record, err := h.store.TransactionDetails(ctx, c.Param("tx_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) blockDetails(c *gin.Context) {
	slot, err := strconv.ParseUint(c.Param("block_no"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "block_no must be an unsigned integer"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.queryTimeout)
	defer cancel()

	block, err := h.store.BlockDetails(ctx, slot)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block_no": slot, "block": block})
}

func (h *Handler) latestBlock(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.queryTimeout)
	defer cancel()

	slot, block, err := h.store.LatestBlock(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block_no": slot, "block": block})
}

func (h *Handler) blockRange(c *gin.Context) {
	start, err := strconv.ParseUint(c.Param("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be an unsigned integer"})
		return
	}
	end, err := strconv.ParseUint(c.Param("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be an unsigned integer"})
		return
	}
	if start > end {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must not exceed end"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.queryTimeout)
	defer cancel()

	blocks, err := h.store.BlockRange(ctx, start, end)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

func (h *Handler) accountBalance(c *gin.Context) {
	var slot *uint64
	if raw, ok := c.GetQuery("block_no"); ok {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "block_no must be an unsigned integer"})
			return
		}
		slot = &parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.queryTimeout)
	defer cancel()

	account := c.Param("account_id")
	balance, err := h.store.AccountBalance(ctx, account, slot)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "balance": balance})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrTxNotFound),
		errors.Is(err, store.ErrBlockNotFound),
		errors.Is(err, store.ErrNoBlockFinalized):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "query timed out"})
	default:
		h.logger.Error("query failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
