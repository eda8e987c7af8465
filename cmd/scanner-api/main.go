package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/balance"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/metrics"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/extract"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/orchestrator"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/recovery"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/source"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scanstore"
	scanch "github.com/goodnatureofminers/keyinsight7000-backend/internal/scanstore/clickhouse"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scanstore/memory"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/transport"
)

type config struct {
	Addr        string `long:"addr" env:"SCANNER_API_ADDR" description:"API listen address" default:":8000"`
	MetricsAddr string `long:"metrics-addr" env:"SCANNER_API_METRICS_ADDR" description:"address for metrics server" default:":2112"`
	Network     string `long:"network" env:"SCANNER_API_NETWORK" description:"bitcoin network (mainnet, testnet3, regtest)" default:"mainnet"`

	EsploraURLs []string      `long:"esplora-url" env:"SCANNER_API_ESPLORA_URLS" env-delim:"," description:"Esplora API base URLs" default:"https://blockstream.info/api" default:"https://mempool.space/api"`
	RPCURL      string        `long:"rpc-url" env:"SCANNER_API_RPC_URL" description:"Bitcoin Core RPC URL, adds a local source when set"`
	RPCUser     string        `long:"rpc-user" env:"SCANNER_API_RPC_USER" description:"Bitcoin Core RPC username"`
	RPCPassword string        `long:"rpc-password" env:"SCANNER_API_RPC_PASSWORD" description:"Bitcoin Core RPC password"`
	HTTPTimeout time.Duration `long:"http-timeout" env:"SCANNER_API_HTTP_TIMEOUT" description:"HTTP timeout for provider requests" default:"30s"`

	SourceMaxConcurrent int           `long:"source-max-concurrent" env:"SCANNER_API_SOURCE_MAX_CONCURRENT" description:"max in-flight requests per source" default:"2"`
	SourceRPS           int           `long:"source-rps" env:"SCANNER_API_SOURCE_RPS" description:"requests per second per source" default:"4"`
	SourceMaxAttempts   int           `long:"source-max-attempts" env:"SCANNER_API_SOURCE_MAX_ATTEMPTS" description:"attempt budget per request across sources" default:"6"`
	SourceCooldown      time.Duration `long:"source-cooldown" env:"SCANNER_API_SOURCE_COOLDOWN" description:"cooldown for throttled sources" default:"15s"`

	BlockWorkers   int    `long:"block-workers" env:"SCANNER_API_BLOCK_WORKERS" description:"concurrent block workers per scan" default:"4"`
	TxWorkers      int    `long:"tx-workers" env:"SCANNER_API_TX_WORKERS" description:"concurrent transaction workers per block" default:"8"`
	MaxRangeBlocks uint64 `long:"max-range-blocks" env:"SCANNER_API_MAX_RANGE_BLOCKS" description:"largest accepted scan range" default:"10000"`

	ClickhouseDSN    string        `long:"clickhouse-dsn" env:"SCANNER_API_CLICKHOUSE_DSN" description:"ClickHouse DSN, results stay in memory when empty"`
	KeyFlushSize     int           `long:"key-flush-size" env:"SCANNER_API_KEY_FLUSH_SIZE" description:"recovered key batch size" default:"50"`
	KeyFlushInterval time.Duration `long:"key-flush-interval" env:"SCANNER_API_KEY_FLUSH_INTERVAL" description:"recovered key flush interval" default:"5s"`
	KeyFlushRPS      int           `long:"key-flush-rps" env:"SCANNER_API_KEY_FLUSH_RPS" description:"recovered key flushes per second" default:"1"`
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
		logger.Fatal("scanner api failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	params, err := networkParams(cfg.Network)
	if err != nil {
		return err
	}

	pool, shutdownRPC, err := buildSourcePool(cfg, logger)
	if err != nil {
		return err
	}
	if shutdownRPC != nil {
		defer shutdownRPC()
	}

	store, keyReader, stopWriter, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopWriter()

	orch, err := orchestrator.New(
		pool,
		extract.NewExtractor(),
		recovery.NewRecoverer(params),
		store,
		metrics.NewOrchestrator(),
		logger.Named("orchestrator"),
		orchestrator.Config{
			BlockWorkers:   cfg.BlockWorkers,
			TxWorkers:      cfg.TxWorkers,
			MaxRangeBlocks: cfg.MaxRangeBlocks,
		},
	)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	checker := balance.NewChecker(cfg.EsploraURLs[0], params, &http.Client{Timeout: cfg.HTTPTimeout})
	handler := transport.NewHandler(orch, pool, checker, keyReader, logger.Named("api"))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cors.Default().Handler(handler.Router()),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down the http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("starting scanner api",
		zap.String("addr", cfg.Addr),
		zap.String("network", cfg.Network),
		zap.Strings("esplora_urls", cfg.EsploraURLs))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func networkParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	}
	return nil, fmt.Errorf("unknown network %q", network)
}

func buildSourcePool(cfg config, logger *zap.Logger) (*source.Pool, func(), error) {
	if len(cfg.EsploraURLs) == 0 {
		return nil, nil, errors.New("at least one esplora url is required")
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	specs := make([]source.SourceSpec, 0, len(cfg.EsploraURLs)+1)
	for _, rawURL := range cfg.EsploraURLs {
		name, err := sourceName(rawURL)
		if err != nil {
			return nil, nil, err
		}
		specs = append(specs, source.SourceSpec{
			Source:            source.NewEsploraSource(name, rawURL, httpClient),
			MaxConcurrent:     cfg.SourceMaxConcurrent,
			RequestsPerSecond: cfg.SourceRPS,
		})
	}

	var shutdown func()
	if cfg.RPCURL != "" {
		rpcClient, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("init core rpc client: %w", err)
		}
		shutdown = func() {
			rpcClient.Shutdown()
			rpcClient.WaitForShutdown()
		}
		specs = append(specs, source.SourceSpec{
			Source:            source.NewCoreRPCSource("core-rpc", rpcClient),
			MaxConcurrent:     cfg.SourceMaxConcurrent,
			RequestsPerSecond: cfg.SourceRPS,
		})
	}

	poolCfg := source.DefaultConfig()
	if cfg.SourceMaxAttempts > 0 {
		poolCfg.MaxAttempts = cfg.SourceMaxAttempts
	}
	if cfg.SourceCooldown > 0 {
		poolCfg.Cooldown = cfg.SourceCooldown
	}

	pool, err := source.NewPool(specs, poolCfg, metrics.NewSourcePool(), logger.Named("source-pool"))
	if err != nil {
		if shutdown != nil {
			shutdown()
		}
		return nil, nil, fmt.Errorf("init source pool: %w", err)
	}
	return pool, shutdown, nil
}

func buildStore(ctx context.Context, cfg config, logger *zap.Logger) (orchestrator.Store, transport.KeyReader, func(), error) {
	var (
		scans  scanstore.ScanSink
		sink   scanstore.KeySink
		reader transport.KeyReader
	)

	if cfg.ClickhouseDSN != "" {
		repo, err := scanch.NewRepository(cfg.ClickhouseDSN, metrics.NewScanRepository())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init scan repository: %w", err)
		}
		scans, sink, reader = repo, repo, repo
		logger.Info("persisting scan results to clickhouse")
	} else {
		mem := memory.NewStore()
		scans, sink, reader = mem, mem, mem
		logger.Info("clickhouse dsn not set, keeping scan results in memory")
	}

	writer := scanstore.NewKeyWriter(logger.Named("key-writer"), sink, cfg.KeyFlushSize, cfg.KeyFlushInterval, cfg.KeyFlushRPS)
	writer.Start(ctx)

	return scanstore.NewStore(scans, writer), reader, writer.Stop, nil
}

func sourceName(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse esplora url %q: %w", rawURL, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("esplora url %q missing host", rawURL)
	}
	return parsed.Host, nil
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	connCfg := &rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}
	return rpcclient.New(connCfg, nil)
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
