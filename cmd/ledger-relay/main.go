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
	"github.com/feral-file/consent-ledger/internal/block"
	"github.com/feral-file/consent-ledger/internal/config"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/metrics"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
	"github.com/feral-file/consent-ledger/internal/providers/jetstream"
	"github.com/feral-file/consent-ledger/internal/relay"
	"github.com/feral-file/consent-ledger/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadLedgerRelayConfig(*configFile, *envPath)
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
			"service": "ledger-relay",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Ledger Relay")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()
	m := metrics.New("ledger-relay")

	// Connect to the ledger node
	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ledger.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial ledger RPC", zap.Error(err), zap.String("rpc_url", cfg.Ledger.RPCURL))
	}
	defer ethClient.Close()

	blockProvider := block.NewBlockProvider(
		ethereum.NewBlockFetcher(ethClient, clockAdapter),
		block.Config{TTL: cfg.Ledger.BlockHeadTTL, StaleWindow: cfg.Ledger.BlockHeadStaleWindow},
		clockAdapter,
	)
	ledgerClient, err := ethereum.NewVerifiedClient(ctx, ethereum.ClientConfig{
		ChainID:         cfg.Ledger.ChainID,
		ContractAddress: cfg.Ledger.ContractAddress,
		LogStepSize:     cfg.Ledger.LogStepSize,
		RequestTimeout:  cfg.Ledger.RequestTimeout,
	}, ethClient, blockProvider, clockAdapter, m)
	if err != nil {
		logger.FatalCtx(ctx, "Ledger node failed chain verification", zap.Error(err), zap.Int64("chain_id", cfg.Ledger.ChainID))
	}

	// Initialize NATS publisher
	natsPublisher, err := jetstream.NewPublisher(
		ctx,
		jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, natsJS, jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	logger.InfoCtx(ctx, "Connected to NATS JetStream", zap.String("stream", cfg.NATS.StreamName))

	// Initialize ledger subscriber
	ledgerSubscriber := ethereum.NewSubscriber(ethereum.SubscriberConfig{
		PollInterval:    cfg.Relay.PollInterval,
		Confirmations:   cfg.Relay.Confirmations,
		MaxWindowBlocks: cfg.Ledger.AuditWindowBlocks,
	}, ledgerClient, clockAdapter)

	ledgerRelay := relay.NewRelay(
		ledgerSubscriber,
		natsPublisher,
		dataStore,
		relay.Config{
			Chain:           cfg.Ledger.Chain(),
			StartBlock:      cfg.Relay.StartBlock,
			WindowBlocks:    cfg.Ledger.AuditWindowBlocks,
			CursorSaveDelay: 30 * time.Second,
		},
		clockAdapter,
		m,
	)
	defer ledgerRelay.Close()

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

	// Channel for relay errors
	errCh := make(chan error, 1)

	// Start the relay
	go func() {
		if err := ledgerRelay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "relay"))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Ledger Relay stopped")
}
