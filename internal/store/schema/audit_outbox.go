package schema

import (
	"time"

	"gorm.io/datatypes"
)

// AuditOutboxStatus is the delivery status of an audit append
type AuditOutboxStatus string

const (
	// AuditOutboxStatusPending is an entry that has not been sent yet
	AuditOutboxStatusPending AuditOutboxStatus = "pending"
	// AuditOutboxStatusSent is an entry whose transaction was accepted by the node but has no receipt yet
	AuditOutboxStatusSent AuditOutboxStatus = "sent"
	// AuditOutboxStatusConfirmed is an entry whose LogAccess event is part of the ledger
	AuditOutboxStatusConfirmed AuditOutboxStatus = "confirmed"
	// AuditOutboxStatusFailed is an entry whose last attempt failed and is waiting for redelivery
	AuditOutboxStatusFailed AuditOutboxStatus = "failed"
)

// AuditOutboxEntry represents the audit_outbox table - operational bookkeeping for
// at-least-once delivery of access events to the ledger
type AuditOutboxEntry struct {
	// ID is a ULID, time-sortable
	ID string `gorm:"column:id;primaryKey;type:varchar(26)"`
	// IdempotencyKey is the hash of the canonical access request, unique per authorized read
	IdempotencyKey string `gorm:"column:idempotency_key;not null;uniqueIndex;type:varchar(66)"`
	// PatientAddress is the checksummed patient address
	PatientAddress string `gorm:"column:patient_address;not null;type:varchar(42)"`
	// ProviderAddress is the checksummed address of the reader
	ProviderAddress string `gorm:"column:provider_address;not null;type:varchar(42)"`
	// ResourceID is the protected resource that was read
	ResourceID string `gorm:"column:resource_id;not null;type:text"`
	// Payload is the canonical access request as JSON
	Payload datatypes.JSON `gorm:"column:payload;not null;type:jsonb"`
	// Status indicates the current delivery status
	Status AuditOutboxStatus `gorm:"column:status;not null;default:pending"`
	// Attempts is the number of send attempts made
	Attempts int `gorm:"column:attempts;not null;default:0"`
	// TxHash is the hash of the most recent logDataAccess transaction
	TxHash *string `gorm:"column:tx_hash;type:varchar(66)"`
	// BlockNumber is the block that included the confirmed transaction
	BlockNumber *uint64 `gorm:"column:block_number"`
	// LastError contains the error of the most recent failed attempt
	LastError string `gorm:"column:last_error;type:text"`
	// NextAttemptAt is the earliest time the sweeper may retry a failed entry
	NextAttemptAt time.Time `gorm:"column:next_attempt_at;not null;default:now();type:timestamptz"`
	// LastAttemptAt is the timestamp of the most recent send attempt
	LastAttemptAt *time.Time `gorm:"column:last_attempt_at;type:timestamptz"`
	// ConfirmedAt is when the receipt was observed
	ConfirmedAt *time.Time `gorm:"column:confirmed_at;type:timestamptz"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the AuditOutboxEntry model
func (AuditOutboxEntry) TableName() string {
	return "audit_outbox"
}
