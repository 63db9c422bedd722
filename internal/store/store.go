package store

import (
	"context"
	"time"

	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/store/schema"
)

// CreateWalletLinkInput represents the input for binding a wallet to a user
type CreateWalletLinkInput struct {
	UserID        string
	WalletAddress string
	Chain         domain.Chain
	Challenge     string
	Signature     string
	BoundAt       time.Time
}

// CreateAuditOutboxEntryInput represents the input for queueing an audit append
type CreateAuditOutboxEntryInput struct {
	ID              string
	IdempotencyKey  string
	PatientAddress  string
	ProviderAddress string
	ResourceID      string
	Payload         []byte
}

// AuditOutboxAttempt records the outcome of a single send attempt
type AuditOutboxAttempt struct {
	ID          string
	TxHash      *string
	Error       string
	AttemptedAt time.Time
	// NextAttemptAt is only used when Error is set
	NextAttemptAt time.Time
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// =============================================================================
	// Wallet links
	// =============================================================================

	// ActivateWalletLink makes the address the active wallet of the user, superseding any previous link.
	// Returns the active link and whether a new row was created. Re-binding the active address is a no-op.
	// Returns domain.ErrWalletAlreadyLinkedElsewhere when another user holds the address.
	ActivateWalletLink(ctx context.Context, input CreateWalletLinkInput) (*schema.WalletLink, bool, error)
	// GetActiveWalletLink retrieves the active link of a user, nil when none
	GetActiveWalletLink(ctx context.Context, userID string) (*schema.WalletLink, error)
	// GetActiveWalletLinkByAddress retrieves the active link holding an address, nil when none
	GetActiveWalletLinkByAddress(ctx context.Context, address string) (*schema.WalletLink, error)
	// ListWalletLinks retrieves every link of a user including superseded ones, newest first
	ListWalletLinks(ctx context.Context, userID string) ([]schema.WalletLink, error)

	// =============================================================================
	// Audit outbox
	// =============================================================================

	// CreateAuditOutboxEntry queues an audit append. An existing entry with the same idempotency key is returned as is.
	CreateAuditOutboxEntry(ctx context.Context, input CreateAuditOutboxEntryInput) (*schema.AuditOutboxEntry, error)
	// GetAuditOutboxEntry retrieves an entry by id, nil when none
	GetAuditOutboxEntry(ctx context.Context, id string) (*schema.AuditOutboxEntry, error)
	// RecordAuditOutboxAttempt stores the outcome of a send attempt, moving the entry to sent or failed
	RecordAuditOutboxAttempt(ctx context.Context, attempt AuditOutboxAttempt) error
	// MarkAuditOutboxConfirmed marks an entry as confirmed at the given block
	MarkAuditOutboxConfirmed(ctx context.Context, id string, blockNumber uint64, confirmedAt time.Time) error
	// ListDueAuditOutboxEntries retrieves entries that need work: pending or failed entries whose
	// next attempt is due, and sent entries whose last attempt is older than sentBefore. Oldest first.
	ListDueAuditOutboxEntries(ctx context.Context, now time.Time, sentBefore time.Time, limit int) ([]schema.AuditOutboxEntry, error)
	// CountAuditOutboxByStatus counts entries per status
	CountAuditOutboxByStatus(ctx context.Context) (map[schema.AuditOutboxStatus]int64, error)

	// =============================================================================
	// Cursors
	// =============================================================================

	// GetBlockCursor retrieves the last processed block number for a named stream
	GetBlockCursor(ctx context.Context, name string) (uint64, error)
	// SetBlockCursor stores the last processed block number for a named stream
	SetBlockCursor(ctx context.Context, name string, blockNumber uint64) error
}
