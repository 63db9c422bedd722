package ethereum

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/messaging"
)

// SubscriberConfig holds the configuration for following the consent contract
type SubscriberConfig struct {
	PollInterval time.Duration
	// Confirmations is how many blocks behind the head windows end
	Confirmations uint64
	// MaxWindowBlocks caps the block span delivered at once while catching up
	MaxWindowBlocks uint64
}

const (
	defaultPollInterval    = 5 * time.Second
	defaultMaxWindowBlocks = 10_000
)

// pollingSubscriber turns windowed event reads into a stream.
// Nodes behind load balancers rarely keep log subscriptions alive, so the head is polled.
type pollingSubscriber struct {
	client Client
	config SubscriberConfig
	clock  adapter.Clock
}

// NewSubscriber creates a subscriber polling the consent contract through client
func NewSubscriber(cfg SubscriberConfig, client Client, clock adapter.Clock) messaging.Subscriber {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxWindowBlocks == 0 {
		cfg.MaxWindowBlocks = defaultMaxWindowBlocks
	}
	return &pollingSubscriber{client: client, config: cfg, clock: clock}
}

// SubscribeEvents delivers consent and access events window by window
func (s *pollingSubscriber) SubscribeEvents(ctx context.Context, fromBlock uint64, handler messaging.WindowHandler) error {
	next := fromBlock
	for {
		caughtUp := true

		head, err := s.client.LatestBlock(ctx)
		switch {
		case err != nil:
			logger.WarnCtx(ctx, "Failed to get latest block", zap.Error(err))
		case head >= s.config.Confirmations && next <= head-s.config.Confirmations:
			to := head - s.config.Confirmations
			if to-next+1 > s.config.MaxWindowBlocks {
				to = next + s.config.MaxWindowBlocks - 1
				caughtUp = false
			}

			window, err := s.readWindow(ctx, next, to)
			if err == nil {
				err = handler(window)
			}
			if err != nil {
				logger.ErrorCtx(ctx, err,
					zap.Uint64("fromBlock", next),
					zap.Uint64("toBlock", to))
				caughtUp = true
				break
			}
			next = to + 1
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !caughtUp {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.config.PollInterval):
		}
	}
}

// readWindow reads both event streams of the range and merges them in ledger order
func (s *pollingSubscriber) readWindow(ctx context.Context, from, to uint64) (*domain.LedgerWindow, error) {
	filter := EventFilter{FromBlock: from, ToBlock: &to}

	consentEvents, err := s.client.FilterConsentEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read consent events: %w", err)
	}
	accessEvents, err := s.client.FilterAccessEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read access events: %w", err)
	}

	chain := s.client.Chain()
	events := make([]domain.LedgerEvent, 0, len(consentEvents)+len(accessEvents))
	for _, e := range consentEvents {
		events = append(events, domain.NewConsentLedgerEvent(chain, e))
	}
	for _, e := range accessEvents {
		events = append(events, domain.NewAccessLedgerEvent(chain, e))
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Position().Before(events[j].Position())
	})

	return &domain.LedgerWindow{FromBlock: from, ToBlock: to, Events: events}, nil
}

// GetLatestBlock returns the latest block number
func (s *pollingSubscriber) GetLatestBlock(ctx context.Context) (uint64, error) {
	head, err := s.client.LatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return head, nil
}

// Close closes the connection
func (s *pollingSubscriber) Close() {
	if s.client == nil {
		return
	}

	s.client.Close()
	logger.Info("Ledger connection closed")
}
