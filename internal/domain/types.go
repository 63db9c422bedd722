package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the ledger network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
	ChainGanacheLocal    Chain = "eip155:1337"
)

// NewChain builds the CAIP-2 identifier for an EVM chain id
func NewChain(chainID int64) Chain {
	return Chain(fmt.Sprintf("eip155:%d", chainID))
}

// Role is the application role carried by an authenticated session
type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
	RoleService  Role = "service"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleProvider || r == RoleService
}

// ConsentOperation is a write against the consent stream
type ConsentOperation string

const (
	ConsentOperationGrant  ConsentOperation = "GRANT"
	ConsentOperationRevoke ConsentOperation = "REVOKE"
)

// Valid checks if the operation is GRANT or REVOKE
func (o ConsentOperation) Valid() bool {
	return o == ConsentOperationGrant || o == ConsentOperationRevoke
}

// ParseConsentOperation parses an operation case-insensitively
func ParseConsentOperation(s string) (ConsentOperation, error) {
	op := ConsentOperation(strings.ToUpper(strings.TrimSpace(s)))
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperation, s)
	}
	return op, nil
}

// ConsentState is the current effective permission for a (patient, provider) pair
type ConsentState string

const (
	ConsentStateNone    ConsentState = "NONE"
	ConsentStateActive  ConsentState = "ACTIVE"
	ConsentStateRevoked ConsentState = "REVOKED"
)

// ConsentStateFromCode maps the contract's uint8 encoding to a ConsentState
func ConsentStateFromCode(code uint8) (ConsentState, error) {
	switch code {
	case 0:
		return ConsentStateNone, nil
	case 1:
		return ConsentStateActive, nil
	case 2:
		return ConsentStateRevoked, nil
	default:
		return "", fmt.Errorf("unknown consent state code: %d", code)
	}
}

// StateAfter returns the consent state produced by the operation
func (o ConsentOperation) StateAfter() ConsentState {
	if o == ConsentOperationGrant {
		return ConsentStateActive
	}
	return ConsentStateRevoked
}

// TxStatus is the lifecycle state of a submitted ledger transaction.
// PENDING -> CONFIRMED | REVERTED | REJECTED | STALE
type TxStatus string

const (
	TxStatusPending   TxStatus = "PENDING"
	TxStatusConfirmed TxStatus = "CONFIRMED"
	TxStatusReverted  TxStatus = "REVERTED"
	TxStatusRejected  TxStatus = "REJECTED"
	TxStatusStale     TxStatus = "STALE"
)

// Terminal reports whether no further transition is possible from the status.
// STALE is not terminal on the ledger, only for the wait that produced it.
func (s TxStatus) Terminal() bool {
	return s == TxStatusConfirmed || s == TxStatusReverted || s == TxStatusRejected
}

// ConsentTransactionResult is the handle returned by consent submissions
type ConsentTransactionResult struct {
	Operation       ConsentOperation `json:"operation"`
	PatientAddress  string           `json:"patient_address"`
	ProviderAddress string           `json:"provider_address"`
	TxHash          string           `json:"tx_hash,omitempty"`
	Status          TxStatus         `json:"status"`
	BlockNumber     uint64           `json:"block_number,omitempty"`
	Reason          string           `json:"reason,omitempty"`
}

// ConsentEvent is a committed GRANT or REVOKE on the ledger
type ConsentEvent struct {
	Type            ConsentOperation `json:"type"`
	PatientAddress  string           `json:"patient_address"`
	ProviderAddress string           `json:"provider_address"`
	BlockNumber     uint64           `json:"block_number"`
	LogIndex        uint             `json:"log_index"`
	TxHash          string           `json:"tx_hash"`
	LedgerTimestamp time.Time        `json:"ledger_timestamp"`
}

// AccessEvent is a committed audit record of an authorized read
type AccessEvent struct {
	PatientAddress  string    `json:"patient_address"`
	ProviderAddress string    `json:"provider_address"`
	ResourceID      string    `json:"resource_id"`
	BlockNumber     uint64    `json:"block_number"`
	LogIndex        uint      `json:"log_index"`
	TxHash          string    `json:"tx_hash"`
	LedgerTimestamp time.Time `json:"ledger_timestamp"`
}

// BlockPosition orders ledger events by (block number, intra-block index)
type BlockPosition struct {
	BlockNumber uint64
	LogIndex    uint
}

// Before reports whether p is strictly earlier in the ledger than o
func (p BlockPosition) Before(o BlockPosition) bool {
	if p.BlockNumber != o.BlockNumber {
		return p.BlockNumber < o.BlockNumber
	}
	return p.LogIndex < o.LogIndex
}

// Position returns the ledger position of the event
func (e ConsentEvent) Position() BlockPosition {
	return BlockPosition{BlockNumber: e.BlockNumber, LogIndex: e.LogIndex}
}

// Position returns the ledger position of the event
func (e AccessEvent) Position() BlockPosition {
	return BlockPosition{BlockNumber: e.BlockNumber, LogIndex: e.LogIndex}
}

// AccessRequest is a provider's request to read a patient's protected resource
type AccessRequest struct {
	PatientAddress   string
	RequesterAddress string
	ResourceID       string
	// RequestID identifies the caller's request; retries with the same id are audited once
	RequestID string
}

// Validate checks addresses and resource id, normalizing addresses in place
func (r *AccessRequest) Validate() error {
	patient, err := ParseAddress(r.PatientAddress)
	if err != nil {
		return fmt.Errorf("patient: %w", err)
	}
	requester, err := ParseAddress(r.RequesterAddress)
	if err != nil {
		return fmt.Errorf("requester: %w", err)
	}
	if strings.TrimSpace(r.ResourceID) == "" {
		return fmt.Errorf("%w: resource id is required", ErrInvalidRequest)
	}
	r.PatientAddress = patient
	r.RequesterAddress = requester
	return nil
}

// Session is the explicit identity context passed into every core call
type Session struct {
	UserID        string
	Role          Role
	WalletAddress string // empty when no wallet is bound
}

// RequireWallet returns the session's bound wallet or ErrWalletNotConnected
func (s Session) RequireWallet() (string, error) {
	if s.WalletAddress == "" {
		return "", ErrWalletNotConnected
	}
	return s.WalletAddress, nil
}

// ParseAddress validates a hex address and returns its checksummed form
func ParseAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return common.HexToAddress(address).Hex(), nil
}

// NormalizeAddress normalizes an address to its checksummed form
func NormalizeAddress(address string) string {
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		return common.HexToAddress(address).Hex()
	}
	return address
}

// SameAddress compares two hex addresses case-insensitively
func SameAddress(a, b string) bool {
	return common.HexToAddress(a) == common.HexToAddress(b)
}

// LedgerEventKind names a ledger notification; it is also the subject suffix it is published under
type LedgerEventKind string

const (
	LedgerEventConsentGranted LedgerEventKind = "consent.grant"
	LedgerEventConsentRevoked LedgerEventKind = "consent.revoke"
	LedgerEventAccessLogged   LedgerEventKind = "access.logged"
)

// LedgerEvent is a committed consent or access event as relayed to subscribers.
// Exactly one of Consent and Access is set.
type LedgerEvent struct {
	Kind    LedgerEventKind `json:"kind"`
	Chain   Chain           `json:"chain"`
	Consent *ConsentEvent   `json:"consent,omitempty"`
	Access  *AccessEvent    `json:"access,omitempty"`
}

// NewConsentLedgerEvent wraps a consent event
func NewConsentLedgerEvent(chain Chain, e ConsentEvent) LedgerEvent {
	kind := LedgerEventConsentGranted
	if e.Type == ConsentOperationRevoke {
		kind = LedgerEventConsentRevoked
	}
	return LedgerEvent{Kind: kind, Chain: chain, Consent: &e}
}

// NewAccessLedgerEvent wraps an access event
func NewAccessLedgerEvent(chain Chain, e AccessEvent) LedgerEvent {
	return LedgerEvent{Kind: LedgerEventAccessLogged, Chain: chain, Access: &e}
}

// Position returns the ledger position of the wrapped event
func (e LedgerEvent) Position() BlockPosition {
	if e.Consent != nil {
		return e.Consent.Position()
	}
	if e.Access != nil {
		return e.Access.Position()
	}
	return BlockPosition{}
}

// ID identifies the event by chain, transaction and log index. Republishing yields the same ID.
func (e LedgerEvent) ID() string {
	var txHash string
	switch {
	case e.Consent != nil:
		txHash = e.Consent.TxHash
	case e.Access != nil:
		txHash = e.Access.TxHash
	}
	return fmt.Sprintf("%s:%s:%d", e.Chain, txHash, e.Position().LogIndex)
}

// LedgerWindow is the ordered set of events committed in an inclusive block range
type LedgerWindow struct {
	FromBlock uint64
	ToBlock   uint64
	Events    []LedgerEvent
}
