package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/audit"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/metrics"
	"github.com/feral-file/consent-ledger/internal/store"
	"github.com/feral-file/consent-ledger/internal/store/schema"
)

const (
	DEFAULT_SWEEP_INTERVAL = 15 * time.Second // Time to sleep between sweep cycles when the outbox is drained
)

// AuditOutboxSweeperConfig holds configuration for the audit outbox sweeper
type AuditOutboxSweeperConfig struct {
	Interval        time.Duration // Sleep between cycles
	BatchSize       int           // Entries handled per cycle
	WorkerPoolSize  int           // Concurrent deliveries
	WorkerQueueSize int           // Deliveries waiting for a worker; submitting blocks when full
	ReceiptTimeout  time.Duration // Sent entries older than this get their receipt checked
}

// auditOutboxSweeper implements the Sweeper interface for audit redelivery
type auditOutboxSweeper struct {
	config    *AuditOutboxSweeperConfig
	store     store.Store
	delivery  audit.Delivery
	pool      pond.Pool
	clock     adapter.Clock
	metrics   *metrics.Metrics
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewAuditOutboxSweeper creates a sweeper that redelivers failed audit appends
// and verifies the receipts of sent ones
func NewAuditOutboxSweeper(
	config *AuditOutboxSweeperConfig,
	st store.Store,
	delivery audit.Delivery,
	clock adapter.Clock,
	m *metrics.Metrics,
) Sweeper {
	if config.Interval <= 0 {
		config.Interval = DEFAULT_SWEEP_INTERVAL
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 1
	}
	if config.WorkerQueueSize <= 0 {
		config.WorkerQueueSize = config.BatchSize
	}
	return &auditOutboxSweeper{
		config:    config,
		store:     st,
		delivery:  delivery,
		clock:     clock,
		metrics:   m,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *auditOutboxSweeper) Name() string {
	return "audit-outbox-sweeper"
}

// Start begins the sweeper's main loop
func (s *auditOutboxSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting audit outbox sweeper",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
		zap.Int("worker_queue_size", s.config.WorkerQueueSize),
		zap.Duration("receipt_timeout", s.config.ReceiptTimeout),
	)

	s.pool = s.newPool(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Audit outbox sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			s.cleanup()
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Audit outbox sweeper stop requested")
			s.cleanup()
			return nil
		default:
			full, err := s.runSweepCycle(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(ctx, err)
			}
			if full {
				// more entries are due, go again right away
				continue
			}
			s.sleep(ctx, s.config.Interval)
		}
	}
}

func (s *auditOutboxSweeper) newPool(ctx context.Context) pond.Pool {
	return pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.WorkerQueueSize),
		pond.WithContext(ctx),
	)
}

// cleanup stops the worker pool and waits for tasks to complete
func (s *auditOutboxSweeper) cleanup() {
	if s.pool != nil {
		s.pool.StopAndWait()
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *auditOutboxSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping audit outbox sweeper")

	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Audit outbox sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Audit outbox sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle handles one batch of due entries and reports whether the batch was full
func (s *auditOutboxSweeper) runSweepCycle(ctx context.Context) (bool, error) {
	startTime := s.clock.Now()

	entries, err := s.store.ListDueAuditOutboxEntries(ctx, startTime, startTime.Add(-s.config.ReceiptTimeout), s.config.BatchSize)
	if err != nil {
		return false, fmt.Errorf("failed to list due audit outbox entries: %w", err)
	}

	if len(entries) == 0 {
		logger.DebugCtx(ctx, "No audit outbox entries due")
		s.refreshGauges(ctx)
		return false, nil
	}

	logger.InfoCtx(ctx, "Found audit outbox entries due", zap.Int("count", len(entries)))

	var delivered, failed atomic.Int32
	for i := range entries {
		entry := &entries[i]
		s.pool.Submit(func() {
			if err := s.process(ctx, entry); err != nil {
				failed.Add(1)
				logger.WarnCtx(ctx, "Audit outbox entry not delivered",
					zap.String("entryID", entry.ID),
					zap.String("status", string(entry.Status)),
					zap.Int("attempts", entry.Attempts),
					zap.Error(err),
				)
				return
			}
			delivered.Add(1)
		})
	}

	// Wait for all deliveries to complete
	s.pool.StopAndWait()

	// Recreate pool for next cycle
	s.pool = s.newPool(ctx)

	s.refreshGauges(ctx)

	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("total", len(entries)),
		zap.Int32("delivered", delivered.Load()),
		zap.Int32("failed", failed.Load()),
	)

	return len(entries) == s.config.BatchSize && ctx.Err() == nil, nil
}

// process sends pending and failed entries and reconciles sent ones
func (s *auditOutboxSweeper) process(ctx context.Context, entry *schema.AuditOutboxEntry) error {
	if entry.Status == schema.AuditOutboxStatusSent {
		return s.delivery.Reconcile(ctx, entry)
	}
	return s.delivery.Send(ctx, entry)
}

// refreshGauges publishes the outbox size per status
func (s *auditOutboxSweeper) refreshGauges(ctx context.Context) {
	counts, err := s.store.CountAuditOutboxByStatus(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to count audit outbox entries", zap.Error(err))
		return
	}
	for _, status := range []schema.AuditOutboxStatus{
		schema.AuditOutboxStatusPending,
		schema.AuditOutboxStatusSent,
		schema.AuditOutboxStatusFailed,
		schema.AuditOutboxStatusConfirmed,
	} {
		s.metrics.SetAuditOutboxEntries(string(status), counts[status])
	}
}

// sleep sleeps for the given duration but can be interrupted by context cancellation
// Returns true if sleep completed normally, false if interrupted
func (s *auditOutboxSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}
