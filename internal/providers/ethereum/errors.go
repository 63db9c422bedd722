package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/feral-file/consent-ledger/internal/domain"
)

// classifyError maps transport failures to domain.ErrNetworkUnavailable.
// Answers from the node (JSON-RPC errors, not found) are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, domain.ErrNetworkUnavailable) ||
		errors.Is(err, ethereum.NotFound) {
		return err
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return err
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) &&
		httpErr.StatusCode < 500 &&
		httpErr.StatusCode != 429 {
		return err
	}

	return fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
}

// IsNetworkError reports whether err was classified as a ledger transport failure
func IsNetworkError(err error) bool {
	return errors.Is(err, domain.ErrNetworkUnavailable)
}

// revertReason extracts the revert reason from an execution error, if any
func revertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			if reason, unpackErr := abi.UnpackRevert(common.FromHex(data)); unpackErr == nil {
				return reason, true
			}
		}
	}

	msg := err.Error()
	if idx := strings.Index(msg, "execution reverted"); idx >= 0 {
		reason := strings.TrimSpace(strings.TrimPrefix(msg[idx:], "execution reverted"))
		reason = strings.TrimSpace(strings.TrimPrefix(reason, ":"))
		return reason, true
	}

	return "", false
}

// isAlreadyKnown reports whether the node already holds the exact transaction
func isAlreadyKnown(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already known") ||
		strings.Contains(msg, "known transaction")
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum")
}

// unixToTime converts an on-chain uint256 unix timestamp to UTC time
func unixToTime(ts *big.Int) time.Time {
	if ts == nil || !ts.IsInt64() {
		return time.Time{}
	}
	return time.Unix(ts.Int64(), 0).UTC()
}
