package relay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/block"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/messaging"
	"github.com/feral-file/consent-ledger/internal/metrics"
	"github.com/feral-file/consent-ledger/internal/store"
)

// Config holds the configuration for the ledger relay
type Config struct {
	Chain domain.Chain
	// StartBlock is used when no cursor is stored; 0 starts WindowBlocks behind the head
	StartBlock   uint64
	WindowBlocks uint64
	// CursorSaveDelay bounds how long an empty stretch of blocks goes without a cursor save
	CursorSaveDelay time.Duration
}

// Relay defines the interface for the ledger relay
//
//go:generate mockgen -source=relay.go -destination=../mocks/relay.go -package=mocks -mock_names=Relay=MockRelay
type Relay interface {
	// Run follows the ledger and publishes its events until ctx is canceled
	Run(ctx context.Context) error
	// Close closes the relay and cleans up resources
	Close()
}

// relay republishes ledger events to the message broker from a persisted block cursor
type relay struct {
	subscriber messaging.Subscriber
	publisher  messaging.Publisher
	store      store.Store
	config     Config
	clock      adapter.Clock
	metrics    *metrics.Metrics
}

// NewRelay creates a new ledger relay
func NewRelay(
	sub messaging.Subscriber,
	pub messaging.Publisher,
	st store.Store,
	cfg Config,
	clock adapter.Clock,
	m *metrics.Metrics,
) Relay {
	if cfg.WindowBlocks == 0 {
		cfg.WindowBlocks = domain.DEFAULT_AUDIT_WINDOW_BLOCKS
	}
	return &relay{
		subscriber: sub,
		publisher:  pub,
		store:      st,
		config:     cfg,
		clock:      clock,
		metrics:    m,
	}
}

// CursorName is the key the relay stores its last published block under
func CursorName(chain domain.Chain) string {
	return "relay:" + string(chain)
}

// startBlock resumes after the stored cursor, then falls back to the configured start
func (r *relay) startBlock(ctx context.Context) (uint64, error) {
	chain := string(r.config.Chain)

	lastBlock, err := r.store.GetBlockCursor(ctx, CursorName(r.config.Chain))
	if err != nil {
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}
	if lastBlock > 0 {
		logger.InfoCtx(ctx, "Resuming from last published block", zap.String("chain", chain), zap.Uint64("block", lastBlock+1))
		return lastBlock + 1, nil
	}

	if r.config.StartBlock > 0 {
		logger.InfoCtx(ctx, "Starting from configured block", zap.String("chain", chain), zap.Uint64("block", r.config.StartBlock))
		return r.config.StartBlock, nil
	}

	latestBlock, err := r.subscriber.GetLatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	start := block.WindowStartFrom(latestBlock, r.config.WindowBlocks)
	logger.InfoCtx(ctx, "Starting from the audit window", zap.String("chain", chain), zap.Uint64("block", start))
	return start, nil
}

// Run starts the relay
func (r *relay) Run(ctx context.Context) error {
	startBlock, err := r.startBlock(ctx)
	if err != nil {
		return err
	}

	lastSaveTime := r.clock.Now()
	handler := func(window *domain.LedgerWindow) error {
		for i := range window.Events {
			event := &window.Events[i]
			if err := r.publisher.PublishEvent(ctx, event); err != nil {
				return fmt.Errorf("failed to publish event %s: %w", event.ID(), err)
			}
			r.metrics.RecordRelayPublished(messaging.Subject(event))
		}

		// empty windows only move the cursor now and then
		if len(window.Events) == 0 && r.clock.Since(lastSaveTime) < r.config.CursorSaveDelay {
			return nil
		}
		if err := r.store.SetBlockCursor(ctx, CursorName(r.config.Chain), window.ToBlock); err != nil {
			// the next window is republished after a restart; the broker drops the duplicates
			logger.WarnCtx(ctx, "Failed to save block cursor", zap.Uint64("block", window.ToBlock), zap.Error(err))
			return nil
		}
		lastSaveTime = r.clock.Now()

		if len(window.Events) > 0 {
			logger.InfoCtx(ctx, "Relayed ledger window",
				zap.Uint64("fromBlock", window.FromBlock),
				zap.Uint64("toBlock", window.ToBlock),
				zap.Int("events", len(window.Events)))
		}
		return nil
	}

	logger.InfoCtx(ctx, "Starting ledger subscription", zap.String("chain", string(r.config.Chain)))
	return r.subscriber.SubscribeEvents(ctx, startBlock, handler)
}

// Close closes the relay and cleans up resources
func (r *relay) Close() {
	r.subscriber.Close()
	r.publisher.Close()
}
