package dto

import (
	"strings"

	apierrors "github.com/feral-file/consent-ledger/internal/api/shared/errors"
	"github.com/feral-file/consent-ledger/internal/domain"
)

// LinkWalletRequest represents the request body for binding a wallet to the session user
type LinkWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
	Challenge     string `json:"challenge"`
	Signature     string `json:"signature"`
}

// Validate validates the request body
func (r *LinkWalletRequest) Validate() error {
	if _, err := domain.ParseAddress(r.WalletAddress); err != nil {
		return apierrors.NewValidationError("wallet_address must be a hex address")
	}
	if strings.TrimSpace(r.Challenge) == "" {
		return apierrors.NewValidationError("challenge is required")
	}
	if strings.TrimSpace(r.Signature) == "" {
		return apierrors.NewValidationError("signature is required")
	}
	return nil
}

// PrepareConsentRequest represents the request body for building an unsigned consent transaction
type PrepareConsentRequest struct {
	Operation       string `json:"operation"`
	ProviderAddress string `json:"provider_address"`
}

// Validate validates the request body and returns the parsed operation
func (r *PrepareConsentRequest) Validate() (domain.ConsentOperation, error) {
	op, err := domain.ParseConsentOperation(r.Operation)
	if err != nil {
		return "", apierrors.NewValidationError("operation must be GRANT or REVOKE")
	}
	if _, err := domain.ParseAddress(r.ProviderAddress); err != nil {
		return "", apierrors.NewValidationError("provider_address must be a hex address")
	}
	return op, nil
}

// SubmitConsentRequest represents the request body for a consent operation.
// Without signed_transaction the server signs with the wallet it holds for the session.
type SubmitConsentRequest struct {
	Operation         string `json:"operation"`
	ProviderAddress   string `json:"provider_address"`
	SignedTransaction string `json:"signed_transaction,omitempty"`
	Wait              bool   `json:"wait"`
}

// Validate validates the request body and returns the parsed operation
func (r *SubmitConsentRequest) Validate() (domain.ConsentOperation, error) {
	prepare := PrepareConsentRequest{Operation: r.Operation, ProviderAddress: r.ProviderAddress}
	return prepare.Validate()
}

// AuthorizeRequest represents the request body of a protected-record check
type AuthorizeRequest struct {
	PatientAddress   string `json:"patient_address"`
	RequesterAddress string `json:"requester_address"`
	ResourceID       string `json:"resource_id"`
	RequestID        string `json:"request_id,omitempty"`
}

// Validate validates the request body
func (r *AuthorizeRequest) Validate() error {
	if _, err := domain.ParseAddress(r.PatientAddress); err != nil {
		return apierrors.NewValidationError("patient_address must be a hex address")
	}
	if _, err := domain.ParseAddress(r.RequesterAddress); err != nil {
		return apierrors.NewValidationError("requester_address must be a hex address")
	}
	if strings.TrimSpace(r.ResourceID) == "" {
		return apierrors.NewValidationError("resource_id is required")
	}
	return nil
}

// ToDomain converts the request to the gate's access request
func (r *AuthorizeRequest) ToDomain() domain.AccessRequest {
	return domain.AccessRequest{
		PatientAddress:   r.PatientAddress,
		RequesterAddress: r.RequesterAddress,
		ResourceID:       r.ResourceID,
		RequestID:        r.RequestID,
	}
}
