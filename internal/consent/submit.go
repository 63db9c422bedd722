package consent

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
)

// patientWallet returns the session wallet, which must be the patient of the operation
func patientWallet(session domain.Session, patient string) (string, error) {
	wallet, err := session.RequireWallet()
	if err != nil {
		return "", err
	}
	if patient != "" && !domain.SameAddress(wallet, patient) {
		return "", domain.ErrNotPatient
	}
	return domain.NormalizeAddress(wallet), nil
}

// validateOperation checks the operation and returns the normalized provider address
func validateOperation(op domain.ConsentOperation, provider string) (string, error) {
	if !op.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidOperation, op)
	}
	provider, err := domain.ParseAddress(provider)
	if err != nil {
		return "", fmt.Errorf("provider: %w", err)
	}
	return provider, nil
}

// Prepare builds the unsigned transaction for a browser wallet
func (s *service) Prepare(ctx context.Context, session domain.Session, op domain.ConsentOperation, provider string) (*UnsignedTransaction, error) {
	wallet, err := patientWallet(session, "")
	if err != nil {
		return nil, err
	}
	provider, err = validateOperation(op, provider)
	if err != nil {
		return nil, err
	}

	data, err := ethereum.PackConsentOperation(op, provider)
	if err != nil {
		return nil, err
	}
	tx, err := s.ledger.BuildTransaction(ctx, wallet, data, 0)
	if err != nil {
		return nil, err
	}

	return &UnsignedTransaction{
		Operation:       op,
		ProviderAddress: provider,
		From:            wallet,
		To:              tx.To().Hex(),
		Data:            hexutil.Encode(tx.Data()),
		Nonce:           tx.Nonce(),
		Gas:             tx.Gas(),
		GasPrice:        tx.GasPrice().String(),
		ChainID:         s.ledger.ChainID().Int64(),
	}, nil
}

// Submit signs with the signer holding the patient's wallet and broadcasts
func (s *service) Submit(ctx context.Context, session domain.Session, req SubmitRequest) (*domain.ConsentTransactionResult, error) {
	wallet, err := patientWallet(session, req.PatientAddress)
	if err != nil {
		return nil, err
	}
	provider, err := validateOperation(req.Operation, req.ProviderAddress)
	if err != nil {
		return nil, err
	}
	if s.signers == nil {
		return nil, ethereum.ErrNoSignerConfigured
	}

	result := &domain.ConsentTransactionResult{
		Operation:       req.Operation,
		PatientAddress:  wallet,
		ProviderAddress: provider,
		Status:          domain.TxStatusPending,
	}

	signer, err := s.signers.SignerFor(ctx, wallet)
	if err != nil {
		return nil, err
	}

	data, err := ethereum.PackConsentOperation(req.Operation, provider)
	if err != nil {
		return nil, err
	}
	tx, err := s.ledger.BuildTransaction(ctx, wallet, data, 0)
	if err != nil {
		return s.fail(ctx, result, err)
	}

	signed, err := signer.SignTx(ctx, tx, s.ledger.ChainID())
	if err != nil {
		return s.fail(ctx, result, err)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(s.ledger.ChainID()), signed)
	if err != nil || sender != common.HexToAddress(wallet) {
		return nil, fmt.Errorf("%w: signer returned a transaction from another account", domain.ErrSignedTransactionMismatch)
	}

	return s.broadcast(ctx, result, signed, req.Wait)
}

// SubmitSigned checks that the raw transaction is exactly the requested operation from the patient
func (s *service) SubmitSigned(ctx context.Context, session domain.Session, req SubmitSignedRequest) (*domain.ConsentTransactionResult, error) {
	wallet, err := patientWallet(session, "")
	if err != nil {
		return nil, err
	}
	provider, err := validateOperation(req.Operation, req.ProviderAddress)
	if err != nil {
		return nil, err
	}

	raw, err := hexutil.Decode(req.SignedTransaction)
	if err != nil {
		return nil, fmt.Errorf("%w: signed transaction is not hex: %v", domain.ErrInvalidRequest, err)
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: malformed signed transaction: %v", domain.ErrInvalidRequest, err)
	}

	if err := s.verifySignedTransaction(tx, wallet, req.Operation, provider); err != nil {
		return nil, err
	}

	result := &domain.ConsentTransactionResult{
		Operation:       req.Operation,
		PatientAddress:  wallet,
		ProviderAddress: provider,
		Status:          domain.TxStatusPending,
	}
	return s.broadcast(ctx, result, tx, req.Wait)
}

func (s *service) verifySignedTransaction(tx *types.Transaction, wallet string, op domain.ConsentOperation, provider string) error {
	if tx.ChainId().Cmp(s.ledger.ChainID()) != 0 {
		return fmt.Errorf("%w: signed for chain %s", domain.ErrSignedTransactionMismatch, tx.ChainId())
	}
	sender, err := types.Sender(types.LatestSignerForChainID(s.ledger.ChainID()), tx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSignedTransactionMismatch, err)
	}
	if sender != common.HexToAddress(wallet) {
		return fmt.Errorf("%w: signed by %s", domain.ErrSignedTransactionMismatch, sender.Hex())
	}
	if tx.To() == nil || *tx.To() != s.ledger.ContractAddress() {
		return fmt.Errorf("%w: not addressed to the consent contract", domain.ErrSignedTransactionMismatch)
	}
	if tx.Value().Sign() != 0 {
		return fmt.Errorf("%w: transaction carries value", domain.ErrSignedTransactionMismatch)
	}

	signedOp, signedProvider, err := ethereum.UnpackConsentOperation(tx.Data())
	if err != nil {
		return err
	}
	if signedOp != op || !domain.SameAddress(signedProvider, provider) {
		return fmt.Errorf("%w: transaction encodes %s %s", domain.ErrSignedTransactionMismatch, signedOp, signedProvider)
	}
	return nil
}

// broadcast sends a signed transaction and optionally waits for its terminal state
func (s *service) broadcast(ctx context.Context, result *domain.ConsentTransactionResult, tx *types.Transaction, wait bool) (*domain.ConsentTransactionResult, error) {
	result.TxHash = tx.Hash().Hex()

	if err := s.ledger.SendTransaction(ctx, tx); err != nil {
		return s.fail(ctx, result, err)
	}

	logger.InfoCtx(ctx, "Consent transaction submitted",
		zap.String("operation", string(result.Operation)),
		zap.String("patient", result.PatientAddress),
		zap.String("provider", result.ProviderAddress),
		zap.String("txHash", result.TxHash))
	s.metrics.RecordConsentTransaction(string(result.Operation), string(domain.TxStatusPending))

	if !wait {
		return result, nil
	}

	awaited, err := s.Await(ctx, result.TxHash, s.config.ConfirmationTimeout)
	if awaited != nil {
		awaited.Operation = result.Operation
		awaited.PatientAddress = result.PatientAddress
		awaited.ProviderAddress = result.ProviderAddress
		if err == nil && awaited.Status == domain.TxStatusReverted {
			err = &domain.TransactionRevertedError{TxHash: awaited.TxHash, Reason: awaited.Reason}
		}
	}
	return awaited, err
}

// fail maps a signing or broadcast failure to a terminal result where one applies
func (s *service) fail(ctx context.Context, result *domain.ConsentTransactionResult, err error) (*domain.ConsentTransactionResult, error) {
	var reverted *domain.TransactionRevertedError
	switch {
	case errors.As(err, &reverted):
		result.Status = domain.TxStatusReverted
		result.Reason = reverted.Reason
		if reverted.TxHash == "" {
			reverted.TxHash = result.TxHash
		}
	case errors.Is(err, domain.ErrTransactionRejectedByUser):
		// nothing reached the ledger
		result.Status = domain.TxStatusRejected
		result.TxHash = ""
	default:
		return nil, err
	}

	logger.WarnCtx(ctx, "Consent transaction failed",
		zap.String("operation", string(result.Operation)),
		zap.String("patient", result.PatientAddress),
		zap.String("provider", result.ProviderAddress),
		zap.String("status", string(result.Status)),
		zap.Error(err))
	s.metrics.RecordConsentTransaction(string(result.Operation), string(result.Status))

	return result, err
}
