package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/api/middleware"
	"github.com/feral-file/consent-ledger/internal/api/server"
	"github.com/feral-file/consent-ledger/internal/api/shared/executor"
	"github.com/feral-file/consent-ledger/internal/audit"
	"github.com/feral-file/consent-ledger/internal/block"
	"github.com/feral-file/consent-ledger/internal/config"
	"github.com/feral-file/consent-ledger/internal/consent"
	"github.com/feral-file/consent-ledger/internal/gate"
	"github.com/feral-file/consent-ledger/internal/identity"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/metrics"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
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
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "consent-ledger-api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Consent Ledger API")

	if err := cfg.ValidateLedger(); err != nil {
		logger.FatalCtx(ctx, "Invalid ledger configuration", zap.Error(err))
	}
	if cfg.Ledger.AuditPrivateKey == "" {
		logger.FatalCtx(ctx, "ledger.audit_private_key is required")
	}

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
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	jcsAdapter := adapter.NewJCS()
	m := metrics.New("api")

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
	logger.InfoCtx(ctx, "Connected to ledger",
		zap.String("chain", string(cfg.Ledger.Chain())),
		zap.String("contract", cfg.Ledger.ContractAddress),
	)

	// Server-side consent signing is optional; browser wallets sign on their own
	var signers ethereum.SignerProvider
	if cfg.Ledger.ExternalSignerURL != "" {
		signers, err = ethereum.NewExternalSignerProvider(cfg.Ledger.ExternalSignerURL)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to external signer", zap.Error(err))
		}
	} else {
		logger.WarnCtx(ctx, "External signer not configured, consent writes must be signed by the wallet")
	}

	auditSigner, err := ethereum.NewPrivateKeySigner(cfg.Ledger.AuditPrivateKey)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to load audit key", zap.Error(err))
	}

	// Domain services
	consentService := consent.NewService(consent.Config{
		View:                consent.View(cfg.Ledger.ConsentView),
		WindowBlocks:        cfg.Ledger.AuditWindowBlocks,
		ConfirmationTimeout: cfg.Ledger.ConfirmationTimeout,
		PollInterval:        cfg.Ledger.ConfirmationPollInterval,
	}, ledgerClient, signers, blockProvider, m)
	binder := identity.NewBinder(dataStore, cfg.Ledger.Chain(), clockAdapter)
	delivery := audit.NewDelivery(audit.DeliveryConfig{GasLimit: cfg.Ledger.AuditGasLimit},
		ledgerClient, auditSigner, dataStore, clockAdapter, m)
	recorder := audit.NewRecorder(dataStore, delivery, jsonAdapter, jcsAdapter, clockAdapter)
	accessGate := gate.NewGate(consentService, recorder, clockAdapter, m)
	reader := audit.NewReader(ledgerClient, cfg.Ledger.AuditWindowBlocks)

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSOrigins:  cfg.Auth.CORSOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}

	// Create and start server
	exec := executor.NewExecutor(binder, consentService, accessGate, reader)
	srv := server.New(serverConfig, exec, binder, m)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	// Shutdown server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}
