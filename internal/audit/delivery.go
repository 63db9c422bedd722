package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/metrics"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
	"github.com/feral-file/consent-ledger/internal/store"
	"github.com/feral-file/consent-ledger/internal/store/schema"
)

// Delivery results reported to metrics
const (
	DeliverySent      = "sent"
	DeliveryFailed    = "failed"
	DeliveryConfirmed = "confirmed"
	DeliveryReverted  = "reverted"
)

// DeliveryConfig holds the audit append settings
type DeliveryConfig struct {
	// GasLimit is fixed so appends never wait on an estimate
	GasLimit uint64
	// InitialBackoff is the delay before the first redelivery of a failed entry
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between redeliveries
	MaxBackoff time.Duration
}

// Delivery appends outbox entries to the ledger audit stream and tracks their receipts
//
//go:generate mockgen -source=delivery.go -destination=../mocks/audit_delivery.go -package=mocks -mock_names=Delivery=MockAuditDelivery
type Delivery interface {
	// Send signs and broadcasts the logDataAccess transaction of an entry and records the attempt.
	// A failed attempt is recorded with its next attempt time before the error is returned.
	Send(ctx context.Context, entry *schema.AuditOutboxEntry) error

	// Reconcile checks the receipt of a sent entry. Confirmed entries are marked, reverted
	// ones are scheduled for redelivery and dropped transactions are sent again.
	Reconcile(ctx context.Context, entry *schema.AuditOutboxEntry) error
}

type delivery struct {
	config  DeliveryConfig
	ledger  ethereum.Client
	signer  ethereum.Signer
	store   store.Store
	clock   adapter.Clock
	metrics *metrics.Metrics

	// sendMu keeps nonces of this process's appends from colliding
	sendMu sync.Mutex
}

const (
	defaultInitialBackoff = 15 * time.Second
	defaultMaxBackoff     = 30 * time.Minute
)

// NewDelivery creates an audit delivery signing with the service audit key
func NewDelivery(
	config DeliveryConfig,
	ledger ethereum.Client,
	signer ethereum.Signer,
	st store.Store,
	clock adapter.Clock,
	m *metrics.Metrics,
) Delivery {
	if config.GasLimit == 0 {
		config.GasLimit = domain.DEFAULT_AUDIT_GAS_LIMIT
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaultInitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaultMaxBackoff
	}
	return &delivery{
		config:  config,
		ledger:  ledger,
		signer:  signer,
		store:   st,
		clock:   clock,
		metrics: m,
	}
}

func (d *delivery) Send(ctx context.Context, entry *schema.AuditOutboxEntry) error {
	txHash, err := d.broadcast(ctx, entry)
	now := d.clock.Now()
	if err != nil {
		return d.recordFailure(ctx, entry, err, now)
	}

	if recErr := d.store.RecordAuditOutboxAttempt(ctx, store.AuditOutboxAttempt{
		ID:          entry.ID,
		TxHash:      &txHash,
		AttemptedAt: now,
	}); recErr != nil {
		// the append is on its way; the sweeper resends the entry and a duplicate is tolerated
		logger.ErrorCtx(ctx, errors.New("failed to record audit append"),
			zap.String("entryID", entry.ID),
			zap.String("txHash", txHash),
			zap.Error(recErr))
	}

	logger.InfoCtx(ctx, "Audit append sent",
		zap.String("entryID", entry.ID),
		zap.String("patient", entry.PatientAddress),
		zap.String("provider", entry.ProviderAddress),
		zap.String("resourceID", entry.ResourceID),
		zap.String("txHash", txHash))
	d.metrics.RecordAuditDelivery(DeliverySent)

	return nil
}

// broadcast builds, signs and sends the append, returning its hash
func (d *delivery) broadcast(ctx context.Context, entry *schema.AuditOutboxEntry) (string, error) {
	data, err := ethereum.PackLogDataAccess(entry.PatientAddress, entry.ProviderAddress, entry.ResourceID)
	if err != nil {
		return "", fmt.Errorf("failed to encode audit append: %w", err)
	}

	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	tx, err := d.ledger.BuildTransaction(ctx, d.signer.Address().Hex(), data, d.config.GasLimit)
	if err != nil {
		return "", err
	}
	signed, err := d.signer.SignTx(ctx, tx, d.ledger.ChainID())
	if err != nil {
		return "", fmt.Errorf("failed to sign audit append: %w", err)
	}
	if err := d.ledger.SendTransaction(ctx, signed); err != nil {
		return "", err
	}
	return signed.Hash().Hex(), nil
}

func (d *delivery) recordFailure(ctx context.Context, entry *schema.AuditOutboxEntry, cause error, now time.Time) error {
	next := now.Add(d.RetryDelay(entry.Attempts + 1))

	logger.WarnCtx(ctx, "Audit append failed",
		zap.String("entryID", entry.ID),
		zap.Int("attempt", entry.Attempts+1),
		zap.Time("nextAttemptAt", next),
		zap.Error(cause))
	d.metrics.RecordAuditDelivery(DeliveryFailed)

	if err := d.store.RecordAuditOutboxAttempt(ctx, store.AuditOutboxAttempt{
		ID:            entry.ID,
		Error:         cause.Error(),
		AttemptedAt:   now,
		NextAttemptAt: next,
	}); err != nil {
		return fmt.Errorf("%w (and failed to record attempt: %v)", cause, err)
	}
	return cause
}

// RetryDelay returns the backoff before the given attempt, doubling from InitialBackoff up to MaxBackoff
func (d *delivery) RetryDelay(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.InitialBackoff
	b.MaxInterval = d.config.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

func (d *delivery) Reconcile(ctx context.Context, entry *schema.AuditOutboxEntry) error {
	if entry.Status != schema.AuditOutboxStatusSent || entry.TxHash == nil {
		return d.Send(ctx, entry)
	}
	hash := common.HexToHash(*entry.TxHash)

	receipt, err := d.ledger.TransactionReceipt(ctx, hash)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		_, pending, lookupErr := d.ledger.TransactionByHash(ctx, hash)
		switch {
		case lookupErr == nil && pending:
			logger.DebugCtx(ctx, "Audit append still pending",
				zap.String("entryID", entry.ID),
				zap.String("txHash", *entry.TxHash))
			return nil
		case lookupErr == nil || errors.Is(lookupErr, domain.ErrTransactionNotFound):
			logger.WarnCtx(ctx, "Audit append dropped by the ledger node, resending",
				zap.String("entryID", entry.ID),
				zap.String("txHash", *entry.TxHash))
			return d.Send(ctx, entry)
		default:
			return lookupErr
		}
	}
	if err != nil {
		return err
	}

	now := d.clock.Now()
	if receipt.Status != types.ReceiptStatusSuccessful {
		d.metrics.RecordAuditDelivery(DeliveryReverted)
		return d.recordFailure(ctx, entry,
			&domain.TransactionRevertedError{TxHash: *entry.TxHash, Reason: "audit append reverted"}, now)
	}

	if err := d.store.MarkAuditOutboxConfirmed(ctx, entry.ID, receipt.BlockNumber.Uint64(), now); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "Audit append confirmed",
		zap.String("entryID", entry.ID),
		zap.String("txHash", *entry.TxHash),
		zap.Uint64("blockNumber", receipt.BlockNumber.Uint64()))
	d.metrics.RecordAuditDelivery(DeliveryConfirmed)
	return nil
}
