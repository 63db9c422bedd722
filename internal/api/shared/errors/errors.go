package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/feral-file/consent-ledger/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest          ErrorCode = "bad_request"
	ErrCodeNotFound            ErrorCode = "not_found"
	ErrCodeValidationFailed    ErrorCode = "validation_failed"
	ErrCodeUnauthorized        ErrorCode = "unauthorized"
	ErrCodeForbidden           ErrorCode = "forbidden"
	ErrCodeAccessDenied        ErrorCode = "access_denied"
	ErrCodeInvalidSignature    ErrorCode = "invalid_signature"
	ErrCodeWalletAlreadyLinked ErrorCode = "wallet_already_linked"
	ErrCodeWalletNotConnected  ErrorCode = "wallet_not_connected"
	ErrCodeTransactionRejected ErrorCode = "transaction_rejected"
	ErrCodeTransactionReverted ErrorCode = "transaction_reverted"
	ErrCodeTransactionMismatch ErrorCode = "transaction_mismatch"

	// Server errors (5xx)
	ErrCodeInternalError     ErrorCode = "internal_error"
	ErrCodeDatabaseError     ErrorCode = "database_error"
	ErrCodeLedgerUnavailable ErrorCode = "ledger_unavailable"
	ErrCodeStale             ErrorCode = "stale"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// StatusCode returns the HTTP status an error code is served with
func (e *APIError) StatusCode() int {
	switch e.Code {
	case ErrCodeBadRequest, ErrCodeInvalidSignature, ErrCodeTransactionMismatch:
		return http.StatusBadRequest
	case ErrCodeValidationFailed, ErrCodeTransactionReverted:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeAccessDenied:
		return http.StatusForbidden
	case ErrCodeWalletAlreadyLinked, ErrCodeWalletNotConnected, ErrCodeTransactionRejected:
		return http.StatusConflict
	case ErrCodeLedgerUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeStale:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func newError(code ErrorCode, message string, details ...string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return newError(ErrCodeBadRequest, message, details...)
}

func NewNotFoundError(message string, details ...string) *APIError {
	return newError(ErrCodeNotFound, message, details...)
}

func NewValidationError(details ...string) *APIError {
	return newError(ErrCodeValidationFailed, "Validation failed", details...)
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return newError(ErrCodeUnauthorized, message, details...)
}

func NewForbiddenError(message string, details ...string) *APIError {
	return newError(ErrCodeForbidden, message, details...)
}

func NewInternalError(message string, details ...string) *APIError {
	return newError(ErrCodeInternalError, message, details...)
}

func NewDatabaseError(message string, details ...string) *APIError {
	return newError(ErrCodeDatabaseError, message, details...)
}

// NewAccessDeniedError never says whether the resource exists
func NewAccessDeniedError() *APIError {
	return newError(ErrCodeAccessDenied, "Access denied")
}

func NewLedgerUnavailableError(details ...string) *APIError {
	return newError(ErrCodeLedgerUnavailable, "Ledger unavailable", details...)
}

// FromDomainError maps a core error onto its API error; unknown errors become internal errors
// carrying message so raw causes are not leaked
func FromDomainError(err error, message string) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, domain.ErrAccessDenied):
		return NewAccessDeniedError()
	case errors.Is(err, domain.ErrInvalidSignature):
		return newError(ErrCodeInvalidSignature, "Invalid signature", err.Error())
	case errors.Is(err, domain.ErrWalletAlreadyLinkedElsewhere):
		return newError(ErrCodeWalletAlreadyLinked, "Wallet already linked to another account")
	case errors.Is(err, domain.ErrWalletNotConnected):
		return newError(ErrCodeWalletNotConnected, "Wallet not connected")
	case errors.Is(err, domain.ErrNotPatient):
		return NewForbiddenError("Session wallet is not the patient")
	case errors.Is(err, domain.ErrTransactionRejectedByUser):
		return newError(ErrCodeTransactionRejected, "Transaction rejected by signer")
	case errors.Is(err, domain.ErrTransactionReverted):
		return newError(ErrCodeTransactionReverted, "Transaction reverted", err.Error())
	case errors.Is(err, domain.ErrSignedTransactionMismatch):
		return newError(ErrCodeTransactionMismatch, "Signed transaction does not match the request", err.Error())
	case errors.Is(err, domain.ErrStale):
		return newError(ErrCodeStale, "Transaction confirmation timed out", "query the transaction again later")
	case errors.Is(err, domain.ErrTransactionNotFound), errors.Is(err, domain.ErrWalletLinkNotFound):
		return NewNotFoundError(message, err.Error())
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrInvalidRequest):
		return NewValidationError(err.Error())
	case errors.Is(err, domain.ErrNetworkUnavailable), errors.Is(err, domain.ErrTransactionRefused):
		return NewLedgerUnavailableError(err.Error())
	default:
		return NewInternalError(message)
	}
}
