package messaging

import (
	"context"

	"github.com/feral-file/consent-ledger/internal/domain"
)

// WindowHandler is called with each block window in ascending order.
// Returning an error makes the subscriber deliver the same window again.
type WindowHandler func(window *domain.LedgerWindow) error

// Subscriber defines the interface for following the ledger's consent and access events
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/subscriber.go -package=mocks -mock_names=Subscriber=MockSubscriber
type Subscriber interface {
	// SubscribeEvents delivers every window from fromBlock onwards until ctx is canceled
	SubscribeEvents(ctx context.Context, fromBlock uint64, handler WindowHandler) error

	// GetLatestBlock returns the latest block number
	GetLatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection and cleans up resources
	Close()
}
