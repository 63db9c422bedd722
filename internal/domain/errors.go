package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature is returned when a binding signature does not recover to the claimed address
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrWalletAlreadyLinkedElsewhere is returned when the address is the active wallet of another account
	ErrWalletAlreadyLinkedElsewhere = errors.New("wallet already linked to another account")

	// ErrWalletNotConnected is returned when a session has no bound wallet
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrTransactionRejectedByUser is returned when the signer declines to sign
	ErrTransactionRejectedByUser = errors.New("transaction rejected by user")

	// ErrTransactionReverted is the sentinel matched by TransactionRevertedError
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrTransactionRefused is returned when the ledger node refuses to accept a transaction (nonce, gas, malformed)
	ErrTransactionRefused = errors.New("transaction refused by ledger node")

	// ErrNetworkUnavailable is returned when the ledger node cannot be reached
	ErrNetworkUnavailable = errors.New("ledger network unavailable")

	// ErrStale is returned when a confirmation wait times out; the transaction may still confirm
	ErrStale = errors.New("transaction confirmation timed out")

	// ErrAccessDenied is returned when consent is not ACTIVE for the pair
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidAddress is returned for malformed wallet addresses
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidOperation is returned for operations other than GRANT and REVOKE
	ErrInvalidOperation = errors.New("invalid consent operation")

	// ErrInvalidRequest is returned for malformed input
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSignedTransactionMismatch is returned when a pre-signed transaction does not encode the requested operation
	ErrSignedTransactionMismatch = errors.New("signed transaction does not match requested operation")

	// ErrNotPatient is returned when the session wallet is not the patient address of the operation
	ErrNotPatient = errors.New("session is not the patient")

	// ErrWalletLinkNotFound is returned when no wallet link exists
	ErrWalletLinkNotFound = errors.New("wallet link not found")

	// ErrTransactionNotFound is returned when the ledger has no record of a transaction hash
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TransactionRevertedError carries the ledger's revert reason
type TransactionRevertedError struct {
	TxHash string
	Reason string
}

func (e *TransactionRevertedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transaction %s reverted", e.TxHash)
	}
	return fmt.Sprintf("transaction %s reverted: %s", e.TxHash, e.Reason)
}

// Is lets errors.Is(err, ErrTransactionReverted) match
func (e *TransactionRevertedError) Is(target error) bool {
	return target == ErrTransactionReverted
}
