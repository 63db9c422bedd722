package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/audit"
	"github.com/feral-file/consent-ledger/internal/block"
	"github.com/feral-file/consent-ledger/internal/config"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/metrics"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
	"github.com/feral-file/consent-ledger/internal/store"
	"github.com/feral-file/consent-ledger/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAuditSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "audit-sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Audit Sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	m := metrics.New("audit-sweeper")

	// Connect to the ledger node
	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ledger.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial ledger RPC", zap.Error(err), zap.String("rpc_url", cfg.Ledger.RPCURL))
	}
	defer ethClient.Close()

	blockProvider := block.NewBlockProvider(
		ethereum.NewBlockFetcher(ethClient, clock),
		block.Config{TTL: cfg.Ledger.BlockHeadTTL, StaleWindow: cfg.Ledger.BlockHeadStaleWindow},
		clock,
	)
	ledgerClient, err := ethereum.NewVerifiedClient(ctx, ethereum.ClientConfig{
		ChainID:         cfg.Ledger.ChainID,
		ContractAddress: cfg.Ledger.ContractAddress,
		LogStepSize:     cfg.Ledger.LogStepSize,
		RequestTimeout:  cfg.Ledger.RequestTimeout,
	}, ethClient, blockProvider, clock, m)
	if err != nil {
		logger.FatalCtx(ctx, "Ledger node failed chain verification", zap.Error(err), zap.Int64("chain_id", cfg.Ledger.ChainID))
	}

	auditSigner, err := ethereum.NewPrivateKeySigner(cfg.Ledger.AuditPrivateKey)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load audit key", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to ledger",
		zap.String("chain", string(cfg.Ledger.Chain())),
		zap.String("auditor", auditSigner.Address().Hex()),
	)

	delivery := audit.NewDelivery(audit.DeliveryConfig{
		GasLimit:   cfg.Ledger.AuditGasLimit,
		MaxBackoff: cfg.Outbox.MaxBackoff,
	}, ledgerClient, auditSigner, dataStore, clock, m)

	// Initialize audit outbox sweeper
	outboxSweeper := sweeper.NewAuditOutboxSweeper(&sweeper.AuditOutboxSweeperConfig{
		Interval:        cfg.Outbox.Interval,
		BatchSize:       cfg.Outbox.BatchSize,
		WorkerPoolSize:  cfg.Outbox.Worker.WorkerPoolSize,
		WorkerQueueSize: cfg.Outbox.Worker.WorkerQueueSize,
		ReceiptTimeout:  cfg.Outbox.ReceiptTimeout,
	}, dataStore, delivery, clock, m)

	logger.InfoCtx(ctx, "Initialized audit outbox sweeper",
		zap.Duration("interval", cfg.Outbox.Interval),
		zap.Int("batch_size", cfg.Outbox.BatchSize),
		zap.Int("worker_pool_size", cfg.Outbox.Worker.WorkerPoolSize),
		zap.Int("worker_queue_size", cfg.Outbox.Worker.WorkerQueueSize),
		zap.Duration("receipt_timeout", cfg.Outbox.ReceiptTimeout),
	)

	// Expose metrics
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = m.NewServer(cfg.MetricsAddr)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorCtx(ctx, err, zap.String("component", "metrics"))
			}
		}()
	}

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := outboxSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the sweeper
	cancel()

	// Give the sweeper time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := outboxSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logger.InfoCtx(shutdownCtx, "Audit Sweeper stopped")
}
