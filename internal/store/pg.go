package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/store/schema"
)

const (
	// pgUniqueViolation is the SQLSTATE of a unique constraint violation
	pgUniqueViolation = "23505"

	walletLinksActiveUserIndex    = "idx_wallet_links_active_user"
	walletLinksActiveAddressIndex = "idx_wallet_links_active_address"

	// maxBindAttempts bounds how often a bind that raced another bind of the same user is retried
	maxBindAttempts = 5
)

// errConcurrentUserBind marks an insert that lost against a concurrent bind of the same user
var errConcurrentUserBind = errors.New("concurrent wallet bind for the same user")

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	// Set defaults if not provided
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// walletLinkConflict maps a failed wallet link insert onto the active-link index it collided with.
// It returns nil for any other error.
func walletLinkConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case walletLinksActiveAddressIndex:
		return domain.ErrWalletAlreadyLinkedElsewhere
	case walletLinksActiveUserIndex:
		return errConcurrentUserBind
	default:
		return nil
	}
}

// =============================================================================
// Wallet links
// =============================================================================

// ActivateWalletLink makes the address the active wallet of the user.
// The first bind of a user has no row to lock, so two concurrent first binds can both reach the
// insert; the loser is retried and then sees the winner's link.
func (s *pgStore) ActivateWalletLink(ctx context.Context, input CreateWalletLinkInput) (*schema.WalletLink, bool, error) {
	for attempt := 1; ; attempt++ {
		link, created, err := s.activateWalletLink(ctx, input)
		if errors.Is(err, errConcurrentUserBind) {
			if attempt < maxBindAttempts {
				continue
			}
			return nil, false, fmt.Errorf("failed to create wallet link after %d attempts: %w", attempt, err)
		}
		return link, created, err
	}
}

func (s *pgStore) activateWalletLink(ctx context.Context, input CreateWalletLinkInput) (*schema.WalletLink, bool, error) {
	var result schema.WalletLink
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the user's active link so concurrent binds for the same user serialize
		var current schema.WalletLink
		hasCurrent := true
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND superseded_at IS NULL", input.UserID).
			First(&current).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to get active wallet link: %w", err)
			}
			hasCurrent = false
		}

		if hasCurrent && strings.EqualFold(current.WalletAddress, input.WalletAddress) {
			result = current
			return nil
		}

		var holder schema.WalletLink
		err = tx.Where("lower(wallet_address) = lower(?) AND superseded_at IS NULL", input.WalletAddress).
			First(&holder).Error
		if err == nil {
			return domain.ErrWalletAlreadyLinkedElsewhere
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get wallet link by address: %w", err)
		}

		if hasCurrent {
			if err := tx.Model(&schema.WalletLink{}).
				Where("id = ?", current.ID).
				Update("superseded_at", input.BoundAt).Error; err != nil {
				return fmt.Errorf("failed to supersede wallet link: %w", err)
			}
		}

		link := schema.WalletLink{
			UserID:        input.UserID,
			WalletAddress: input.WalletAddress,
			Chain:         input.Chain,
			Challenge:     input.Challenge,
			Signature:     input.Signature,
			BoundAt:       input.BoundAt,
		}
		if err := tx.Create(&link).Error; err != nil {
			if conflict := walletLinkConflict(err); conflict != nil {
				return conflict
			}
			return fmt.Errorf("failed to create wallet link: %w", err)
		}

		result = link
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &result, created, nil
}

// GetActiveWalletLink retrieves the active link of a user
func (s *pgStore) GetActiveWalletLink(ctx context.Context, userID string) (*schema.WalletLink, error) {
	var link schema.WalletLink
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND superseded_at IS NULL", userID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active wallet link: %w", err)
	}
	return &link, nil
}

// GetActiveWalletLinkByAddress retrieves the active link holding an address
func (s *pgStore) GetActiveWalletLinkByAddress(ctx context.Context, address string) (*schema.WalletLink, error) {
	var link schema.WalletLink
	err := s.db.WithContext(ctx).
		Where("lower(wallet_address) = lower(?) AND superseded_at IS NULL", address).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet link by address: %w", err)
	}
	return &link, nil
}

// ListWalletLinks retrieves every link of a user, newest first
func (s *pgStore) ListWalletLinks(ctx context.Context, userID string) ([]schema.WalletLink, error) {
	var links []schema.WalletLink
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("bound_at DESC, id DESC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet links: %w", err)
	}
	return links, nil
}

// =============================================================================
// Audit outbox
// =============================================================================

// CreateAuditOutboxEntry queues an audit append
func (s *pgStore) CreateAuditOutboxEntry(ctx context.Context, input CreateAuditOutboxEntryInput) (*schema.AuditOutboxEntry, error) {
	entry := schema.AuditOutboxEntry{
		ID:              input.ID,
		IdempotencyKey:  input.IdempotencyKey,
		PatientAddress:  input.PatientAddress,
		ProviderAddress: input.ProviderAddress,
		ResourceID:      input.ResourceID,
		Payload:         input.Payload,
		Status:          schema.AuditOutboxStatusPending,
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(&entry)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create audit outbox entry: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var existing schema.AuditOutboxEntry
		if err := s.db.WithContext(ctx).
			Where("idempotency_key = ?", input.IdempotencyKey).
			First(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to get existing audit outbox entry: %w", err)
		}
		return &existing, nil
	}

	return &entry, nil
}

// GetAuditOutboxEntry retrieves an entry by id
func (s *pgStore) GetAuditOutboxEntry(ctx context.Context, id string) (*schema.AuditOutboxEntry, error) {
	var entry schema.AuditOutboxEntry
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get audit outbox entry: %w", err)
	}
	return &entry, nil
}

// RecordAuditOutboxAttempt stores the outcome of a send attempt
func (s *pgStore) RecordAuditOutboxAttempt(ctx context.Context, attempt AuditOutboxAttempt) error {
	updates := map[string]any{
		"attempts":        gorm.Expr("attempts + 1"),
		"last_attempt_at": attempt.AttemptedAt,
		"updated_at":      attempt.AttemptedAt,
	}
	if attempt.TxHash != nil {
		updates["tx_hash"] = *attempt.TxHash
	}
	if attempt.Error != "" {
		updates["status"] = schema.AuditOutboxStatusFailed
		updates["last_error"] = attempt.Error
		updates["next_attempt_at"] = attempt.NextAttemptAt
	} else {
		updates["status"] = schema.AuditOutboxStatusSent
		updates["last_error"] = ""
	}

	// A confirmed entry never goes back
	result := s.db.WithContext(ctx).
		Model(&schema.AuditOutboxEntry{}).
		Where("id = ? AND status <> ?", attempt.ID, schema.AuditOutboxStatusConfirmed).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to record audit outbox attempt: %w", result.Error)
	}

	return nil
}

// MarkAuditOutboxConfirmed marks an entry as confirmed at the given block
func (s *pgStore) MarkAuditOutboxConfirmed(ctx context.Context, id string, blockNumber uint64, confirmedAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&schema.AuditOutboxEntry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       schema.AuditOutboxStatusConfirmed,
			"block_number": blockNumber,
			"confirmed_at": confirmedAt,
			"last_error":   "",
			"updated_at":   confirmedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark audit outbox entry confirmed: %w", err)
	}
	return nil
}

// ListDueAuditOutboxEntries retrieves entries that need work, oldest first
func (s *pgStore) ListDueAuditOutboxEntries(ctx context.Context, now time.Time, sentBefore time.Time, limit int) ([]schema.AuditOutboxEntry, error) {
	var entries []schema.AuditOutboxEntry
	err := s.db.WithContext(ctx).
		Where("(status IN ? AND next_attempt_at <= ?) OR (status = ? AND last_attempt_at <= ?)",
			[]schema.AuditOutboxStatus{schema.AuditOutboxStatusPending, schema.AuditOutboxStatusFailed}, now,
			schema.AuditOutboxStatusSent, sentBefore).
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due audit outbox entries: %w", err)
	}
	return entries, nil
}

// CountAuditOutboxByStatus counts entries per status
func (s *pgStore) CountAuditOutboxByStatus(ctx context.Context) (map[schema.AuditOutboxStatus]int64, error) {
	var rows []struct {
		Status schema.AuditOutboxStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&schema.AuditOutboxEntry{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count audit outbox entries: %w", err)
	}

	counts := make(map[schema.AuditOutboxStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// =============================================================================
// Cursors
// =============================================================================

// GetBlockCursor retrieves the last processed block number for a named stream
func (s *pgStore) GetBlockCursor(ctx context.Context, name string) (uint64, error) {
	key := fmt.Sprintf("block_cursor:%s", name)

	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	blockNumber, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}

	return blockNumber, nil
}

// SetBlockCursor stores the last processed block number for a named stream
func (s *pgStore) SetBlockCursor(ctx context.Context, name string, blockNumber uint64) error {
	kv := schema.KeyValueStore{
		Key:   fmt.Sprintf("block_cursor:%s", name),
		Value: strconv.FormatUint(blockNumber, 10),
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}

	return nil
}
