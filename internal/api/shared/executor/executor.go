package executor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/api/shared/dto"
	apierrors "github.com/feral-file/consent-ledger/internal/api/shared/errors"
	"github.com/feral-file/consent-ledger/internal/audit"
	"github.com/feral-file/consent-ledger/internal/consent"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/gate"
	"github.com/feral-file/consent-ledger/internal/identity"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
)

// Executor is the interface for the API executor
//
//go:generate mockgen -source=executor.go -destination=../../../mocks/api_executor.go -package=mocks -mock_names=Executor=MockAPIExecutor
type Executor interface {
	// Challenge returns the wallet binding challenge of the session user
	Challenge(ctx context.Context, session domain.Session) (*dto.ChallengeResponse, error)

	// LinkWallet binds a wallet to the session user
	LinkWallet(ctx context.Context, session domain.Session, req dto.LinkWalletRequest) (*dto.WalletLinkResponse, error)

	// GetWallets returns the active wallet and link history of the session user
	GetWallets(ctx context.Context, session domain.Session) (*dto.WalletsResponse, error)

	// PrepareConsent builds an unsigned consent transaction for the session wallet
	PrepareConsent(ctx context.Context, session domain.Session, req dto.PrepareConsentRequest) (*consent.UnsignedTransaction, error)

	// SubmitConsent broadcasts a consent operation. A confirmation timeout is not an error;
	// the result comes back STALE.
	SubmitConsent(ctx context.Context, session domain.Session, req dto.SubmitConsentRequest) (*domain.ConsentTransactionResult, error)

	// GetConsentTransaction returns the state of a consent transaction, waiting for a terminal state when wait is set
	GetConsentTransaction(ctx context.Context, txHash string, wait bool) (*domain.ConsentTransactionResult, error)

	// GetConsentState returns the consent of a pair; the session must be one side of it
	GetConsentState(ctx context.Context, session domain.Session, patient, provider string) (*dto.ConsentStateResponse, error)

	// GetConsentHistory returns the consent events of the session patient
	GetConsentHistory(ctx context.Context, session domain.Session, sinceBlock *uint64) (*consent.History, error)

	// Authorize runs the authorization gate
	Authorize(ctx context.Context, session domain.Session, req dto.AuthorizeRequest) (*gate.Decision, error)

	// ListAccessLogs returns the audit trail of the session patient
	ListAccessLogs(ctx context.Context, session domain.Session, sinceBlock *uint64) (*audit.AccessLog, error)
}

type executor struct {
	binder  identity.Binder
	consent consent.Service
	gate    gate.Gate
	reader  audit.Reader
}

func NewExecutor(binder identity.Binder, consentService consent.Service, g gate.Gate, reader audit.Reader) Executor {
	return &executor{binder: binder, consent: consentService, gate: g, reader: reader}
}

func (e *executor) Challenge(ctx context.Context, session domain.Session) (*dto.ChallengeResponse, error) {
	return &dto.ChallengeResponse{
		UserID:    session.UserID,
		Challenge: e.binder.Challenge(session.UserID),
	}, nil
}

func (e *executor) LinkWallet(ctx context.Context, session domain.Session, req dto.LinkWalletRequest) (*dto.WalletLinkResponse, error) {
	link, err := e.binder.Bind(ctx, session.UserID, req.WalletAddress, req.Challenge, req.Signature)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to link wallet")
	}
	return dto.MapWalletLinkToDTO(link), nil
}

func (e *executor) GetWallets(ctx context.Context, session domain.Session) (*dto.WalletsResponse, error) {
	links, err := e.binder.Links(ctx, session.UserID)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("user_id", session.UserID))
		return nil, apierrors.NewDatabaseError("Failed to get wallets")
	}
	for i := range links {
		if links[i].Active() {
			return dto.MapWalletsToDTO(&links[i], links), nil
		}
	}
	return dto.MapWalletsToDTO(nil, links), nil
}

func (e *executor) PrepareConsent(ctx context.Context, session domain.Session, req dto.PrepareConsentRequest) (*consent.UnsignedTransaction, error) {
	op, err := req.Validate()
	if err != nil {
		return nil, err
	}
	tx, err := e.consent.Prepare(ctx, session, op, req.ProviderAddress)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to prepare consent transaction")
	}
	return tx, nil
}

func (e *executor) SubmitConsent(ctx context.Context, session domain.Session, req dto.SubmitConsentRequest) (*domain.ConsentTransactionResult, error) {
	op, err := req.Validate()
	if err != nil {
		return nil, err
	}

	var result *domain.ConsentTransactionResult
	if req.SignedTransaction != "" {
		result, err = e.consent.SubmitSigned(ctx, session, consent.SubmitSignedRequest{
			Operation:         op,
			ProviderAddress:   req.ProviderAddress,
			SignedTransaction: req.SignedTransaction,
			Wait:              req.Wait,
		})
	} else {
		result, err = e.consent.Submit(ctx, session, consent.SubmitRequest{
			Operation:       op,
			PatientAddress:  session.WalletAddress,
			ProviderAddress: req.ProviderAddress,
			Wait:            req.Wait,
		})
	}

	return settle(result, err, "Failed to submit consent operation")
}

func (e *executor) GetConsentTransaction(ctx context.Context, txHash string, wait bool) (*domain.ConsentTransactionResult, error) {
	var (
		result *domain.ConsentTransactionResult
		err    error
	)
	if wait {
		result, err = e.consent.Await(ctx, txHash, 0)
	} else {
		result, err = e.consent.Status(ctx, txHash)
	}
	return settle(result, err, "Failed to get consent transaction")
}

// settle keeps STALE results as answers and turns every other failure into an API error
func settle(result *domain.ConsentTransactionResult, err error, message string) (*domain.ConsentTransactionResult, error) {
	switch {
	case err == nil:
		return result, nil
	case result != nil && errors.Is(err, domain.ErrStale):
		return result, nil
	case errors.Is(err, ethereum.ErrNoSignerConfigured):
		return nil, apierrors.NewBadRequestError("signed_transaction is required", "the server holds no key for this wallet")
	default:
		return nil, apierrors.FromDomainError(err, message)
	}
}

func (e *executor) GetConsentState(ctx context.Context, session domain.Session, patient, provider string) (*dto.ConsentStateResponse, error) {
	if patient == "" {
		patient = session.WalletAddress
	}
	patient, err := domain.ParseAddress(patient)
	if err != nil {
		return nil, apierrors.NewValidationError("patient_address must be a hex address")
	}
	provider, err = domain.ParseAddress(provider)
	if err != nil {
		return nil, apierrors.NewValidationError("provider_address must be a hex address")
	}

	if session.Role != domain.RoleService &&
		!domain.SameAddress(session.WalletAddress, patient) &&
		!domain.SameAddress(session.WalletAddress, provider) {
		return nil, apierrors.NewForbiddenError("Session wallet is neither the patient nor the provider")
	}

	state, err := e.consent.Query(ctx, patient, provider)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to query consent")
	}
	return &dto.ConsentStateResponse{
		PatientAddress:  patient,
		ProviderAddress: provider,
		State:           state,
	}, nil
}

func (e *executor) GetConsentHistory(ctx context.Context, session domain.Session, sinceBlock *uint64) (*consent.History, error) {
	wallet, err := session.RequireWallet()
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to get consent history")
	}
	history, err := e.consent.History(ctx, wallet, sinceBlock)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to get consent history")
	}
	return history, nil
}

func (e *executor) Authorize(ctx context.Context, session domain.Session, req dto.AuthorizeRequest) (*gate.Decision, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	decision, err := e.gate.Authorize(ctx, session, req.ToDomain())
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to authorize access")
	}
	return decision, nil
}

func (e *executor) ListAccessLogs(ctx context.Context, session domain.Session, sinceBlock *uint64) (*audit.AccessLog, error) {
	wallet, err := session.RequireWallet()
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to list access logs")
	}
	log, err := e.reader.ListAccess(ctx, wallet, sinceBlock)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to list access logs")
	}
	return log, nil
}
