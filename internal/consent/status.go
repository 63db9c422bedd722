package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
)

var errStillPending = errors.New("transaction still pending")

func parseTxHash(txHash string) (common.Hash, error) {
	b := common.FromHex(txHash)
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: invalid transaction hash %q", domain.ErrInvalidRequest, txHash)
	}
	return common.BytesToHash(b), nil
}

// describe fills the operation fields of a result from the transaction calldata
func (s *service) describe(result *domain.ConsentTransactionResult, tx *types.Transaction) {
	if tx == nil {
		return
	}
	if op, provider, err := ethereum.UnpackConsentOperation(tx.Data()); err == nil {
		result.Operation = op
		result.ProviderAddress = provider
	}
	if sender, err := types.Sender(types.LatestSignerForChainID(s.ledger.ChainID()), tx); err == nil {
		result.PatientAddress = sender.Hex()
	}
}

// Status re-queries the ledger for the transaction
func (s *service) Status(ctx context.Context, txHash string) (*domain.ConsentTransactionResult, error) {
	hash, err := parseTxHash(txHash)
	if err != nil {
		return nil, err
	}
	result := &domain.ConsentTransactionResult{TxHash: hash.Hex(), Status: domain.TxStatusPending}

	tx, pending, err := s.ledger.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	s.describe(result, tx)
	if pending {
		return result, nil
	}

	receipt, err := s.ledger.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			// mined but the receipt is not indexed yet
			return result, nil
		}
		return nil, err
	}

	result.BlockNumber = receipt.BlockNumber.Uint64()
	if receipt.Status == types.ReceiptStatusSuccessful {
		result.Status = domain.TxStatusConfirmed
		return result, nil
	}

	result.Status = domain.TxStatusReverted
	result.Reason = s.ledger.RevertReason(ctx, tx, receipt.BlockNumber)
	return result, nil
}

// Await polls Status with exponential backoff until a terminal state or timeout
func (s *service) Await(ctx context.Context, txHash string, timeout time.Duration) (*domain.ConsentTransactionResult, error) {
	hash, err := parseTxHash(txHash)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = s.config.ConfirmationTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.PollInterval
	b.MaxInterval = 4 * s.config.PollInterval
	b.MaxElapsedTime = 0 // bounded by waitCtx

	last := &domain.ConsentTransactionResult{TxHash: hash.Hex(), Status: domain.TxStatusPending}
	operation := func() error {
		result, err := s.Status(waitCtx, hash.Hex())
		if err != nil {
			if errors.Is(err, domain.ErrInvalidRequest) {
				return backoff.Permanent(err)
			}
			return err
		}
		last = result
		if !result.Status.Terminal() {
			return errStillPending
		}
		return nil
	}

	err = backoff.RetryNotify(operation, backoff.WithContext(b, waitCtx), func(err error, d time.Duration) {
		if !errors.Is(err, errStillPending) {
			logger.DebugCtx(ctx, "Transaction status lookup failed, retrying",
				zap.String("txHash", hash.Hex()),
				zap.Duration("retryIn", d),
				zap.Error(err))
		}
	})
	if err == nil {
		s.recordTerminal(ctx, last)
		return last, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, domain.ErrInvalidRequest) {
		return nil, err
	}

	last.Status = domain.TxStatusStale
	logger.WarnCtx(ctx, "Transaction confirmation timed out",
		zap.String("txHash", hash.Hex()),
		zap.Duration("timeout", timeout))
	s.metrics.RecordConsentTransaction(string(last.Operation), string(domain.TxStatusStale))
	return last, domain.ErrStale
}

func (s *service) recordTerminal(ctx context.Context, result *domain.ConsentTransactionResult) {
	s.metrics.RecordConsentTransaction(string(result.Operation), string(result.Status))
	if result.Status == domain.TxStatusReverted {
		logger.WarnCtx(ctx, "Consent transaction reverted",
			zap.String("txHash", result.TxHash),
			zap.String("reason", result.Reason))
		return
	}
	logger.InfoCtx(ctx, "Consent transaction confirmed",
		zap.String("txHash", result.TxHash),
		zap.Uint64("blockNumber", result.BlockNumber))
}
