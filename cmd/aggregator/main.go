package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/zktony/solana-agg/internal/chain/solana"
	"github.com/zktony/solana-agg/internal/metrics"
	"github.com/zktony/solana-agg/internal/poller"
	"github.com/zktony/solana-agg/internal/reassembly"
	"github.com/zktony/solana-agg/internal/storage/pebbledb"
	"github.com/zktony/solana-agg/internal/store"
	"github.com/zktony/solana-agg/internal/transport"
)

type config struct {
	ChainURL       string        `long:"chain-url" env:"SOLANA_AGG_CHAIN_URL" description:"Solana JSON-RPC endpoint" required:"true"`
	DBPath         string        `long:"db-path" env:"SOLANA_AGG_DB_PATH" description:"path to the pebble database" required:"true"`
	Addr           string        `long:"addr" env:"SOLANA_AGG_ADDR" description:"address for the query API" default:":9944"`
	MetricsAddr    string        `long:"metrics-addr" env:"SOLANA_AGG_METRICS_ADDR" description:"address for metrics server" default:":2112"`
	FetchTimeout   time.Duration `long:"fetch-timeout" env:"SOLANA_AGG_FETCH_TIMEOUT" description:"HTTP timeout for RPC requests" default:"30s"`
	QueryTimeout   time.Duration `long:"query-timeout" env:"SOLANA_AGG_QUERY_TIMEOUT" description:"per-request store query timeout" default:"5s"`
	SlotLag        uint64        `long:"slot-lag" env:"SOLANA_AGG_SLOT_LAG" description:"slots to trail behind the head" default:"500"`
	ChunkSize      int           `long:"chunk-size" env:"SOLANA_AGG_CHUNK_SIZE" description:"transactions per decode chunk" default:"10"`
	DecodeWorkers  int           `long:"decode-workers" env:"SOLANA_AGG_DECODE_WORKERS" description:"concurrent chunk decoders per block" default:"8"`
	MaxInflight    int           `long:"max-inflight" env:"SOLANA_AGG_MAX_INFLIGHT" description:"concurrent block fetches" default:"16"`
	PollsPerSecond int           `long:"polls-per-second" env:"SOLANA_AGG_POLLS_PER_SECOND" description:"head poll rate" default:"4"`
	StoreInboxSize int           `long:"store-inbox-size" env:"SOLANA_AGG_STORE_INBOX_SIZE" description:"completed block inbox capacity" default:"256"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("aggregator failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	repo, err := pebbledb.NewRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Error("failed to close repository", zap.Error(closeErr))
		}
	}()

	source, err := solana.NewClient(cfg.ChainURL, cfg.FetchTimeout)
	if err != nil {
		return fmt.Errorf("init chain client: %w", err)
	}

	blockStore, err := store.New(repo, metrics.NewStore(), logger.Named("store"), cfg.StoreInboxSize)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	reassembler, err := reassembly.New(blockStore, metrics.NewReassembler(), logger.Named("reassembler"))
	if err != nil {
		return fmt.Errorf("init reassembler: %w", err)
	}

	slotPoller, err := poller.New(source, reassembler, metrics.NewPoller(), logger.Named("poller"), poller.Config{
		SlotLag:            cfg.SlotLag,
		ChunkSize:          cfg.ChunkSize,
		DecodeWorkers:      cfg.DecodeWorkers,
		MaxInflightFetches: cfg.MaxInflight,
		PollsPerSecond:     cfg.PollsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("init poller: %w", err)
	}

	handler, err := transport.NewHandler(blockStore, logger.Named("transport"), cfg.QueryTimeout)
	if err != nil {
		return fmt.Errorf("init transport: %w", err)
	}

	errCh := make(chan error, 4)
	go func() { errCh <- blockStore.Run(ctx) }()
	go func() { errCh <- reassembler.Run(ctx) }()
	go func() { errCh <- slotPoller.Run(ctx) }()
	go func() { errCh <- serveAPI(ctx, cfg.Addr, handler, logger) }()

	for i := 0; i < 4; i++ {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

func serveAPI(ctx context.Context, addr string, handler *transport.Handler, logger *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.Register(router)

	srv := &http.Server{
		Addr:              addr,
		Handler:           cors.Default().Handler(router),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down the http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("starting HTTP server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
