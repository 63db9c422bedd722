package schema

import (
	"time"

	"github.com/feral-file/consent-ledger/internal/domain"
)

// WalletLink represents the wallet_links table - binds an application account to a wallet address.
// Rows are never updated except to set SupersededAt when a newer link replaces them.
type WalletLink struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID is the application account identifier (JWT subject)
	UserID string `gorm:"column:user_id;not null;type:varchar(255)"`
	// WalletAddress is the checksummed wallet address
	WalletAddress string `gorm:"column:wallet_address;not null;type:varchar(42)"`
	// Chain is the CAIP-2 chain the wallet was bound on
	Chain domain.Chain `gorm:"column:chain;not null;type:varchar(50)"`
	// Challenge is the exact message that was signed
	Challenge string `gorm:"column:challenge;not null;type:text"`
	// Signature is the hex-encoded personal_sign signature
	Signature string `gorm:"column:signature;not null;type:varchar(132)"`
	// BoundAt is when the signature was verified
	BoundAt time.Time `gorm:"column:bound_at;not null;type:timestamptz"`
	// SupersededAt is set when a newer link for the same user replaced this one
	SupersededAt *time.Time `gorm:"column:superseded_at;type:timestamptz"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the WalletLink model
func (WalletLink) TableName() string {
	return "wallet_links"
}

// Active reports whether the link has not been superseded
func (w *WalletLink) Active() bool {
	return w.SupersededAt == nil
}
