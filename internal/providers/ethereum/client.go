package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/block"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/metrics"
)

// EventFilter selects consent or access logs of the contract
type EventFilter struct {
	// PatientAddress restricts logs to one patient, empty for all
	PatientAddress string
	// ProviderAddress restricts logs to one provider, empty for all
	ProviderAddress string
	FromBlock       uint64
	// ToBlock is inclusive, nil means the latest block
	ToBlock *uint64
}

// Client is the transport to the consent contract on an EVM ledger node.
// Transport failures are returned wrapping domain.ErrNetworkUnavailable.
//
//go:generate mockgen -source=client.go -destination=../../mocks/ledger_client.go -package=mocks -mock_names=Client=MockLedgerClient
type Client interface {
	// Chain returns the CAIP-2 chain the client signs for
	Chain() domain.Chain

	// ChainID returns the EIP-155 chain id
	ChainID() *big.Int

	// ContractAddress returns the consent contract address
	ContractAddress() common.Address

	// VerifyChainID checks that the node serves the configured chain
	VerifyChainID(ctx context.Context) error

	// ConsentState reads consentState(patient, provider) at the latest block
	ConsentState(ctx context.Context, patient, provider string) (domain.ConsentState, error)

	// CheckAccess reads the legacy checkAccess(patient, provider) view at the latest block
	CheckAccess(ctx context.Context, patient, provider string) (bool, error)

	// FilterConsentEvents returns AccessGranted and AccessRevoked events in ascending ledger order
	FilterConsentEvents(ctx context.Context, filter EventFilter) ([]domain.ConsentEvent, error)

	// FilterAccessEvents returns LogAccess events in ascending ledger order
	FilterAccessEvents(ctx context.Context, filter EventFilter) ([]domain.AccessEvent, error)

	// LatestBlock returns the current head straight from the node
	LatestBlock(ctx context.Context) (uint64, error)

	// BuildTransaction prepares an unsigned call to the contract from the given account.
	// A zero gasLimit estimates the gas; a failed estimate caused by a revert returns *domain.TransactionRevertedError.
	BuildTransaction(ctx context.Context, from string, data []byte, gasLimit uint64) (*types.Transaction, error)

	// SendTransaction broadcasts a signed transaction. Resending a transaction the node already holds is not an error.
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// TransactionByHash returns a transaction and whether it is still pending; domain.ErrTransactionNotFound when unknown
	TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error)

	// TransactionReceipt returns the receipt of a mined transaction; domain.ErrTransactionNotFound when not mined
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// RevertReason replays a reverted transaction at its block to recover the revert reason
	RevertReason(ctx context.Context, tx *types.Transaction, blockNumber *big.Int) string

	// Close closes the connection
	Close()
}

// ClientConfig holds the ledger client settings
type ClientConfig struct {
	ChainID         int64
	ContractAddress string
	// LogStepSize is the initial block span of one eth_getLogs request
	LogStepSize uint64
	// RequestTimeout bounds a single view call or node request
	RequestTimeout time.Duration
}

const (
	defaultLogStepSize    = 5000
	defaultRequestTimeout = 10 * time.Second
	// gasBufferPercent is added on top of estimated gas
	gasBufferPercent = 20
)

type ethereumClient struct {
	chain         domain.Chain
	chainID       *big.Int
	contract      common.Address
	client        adapter.EthClient
	blockProvider block.BlockProvider
	clock         adapter.Clock
	metrics       *metrics.Metrics
	stepSize      uint64
	timeout       time.Duration
}

// NewClient creates a ledger client bound to one contract
func NewClient(cfg ClientConfig, client adapter.EthClient, blockProvider block.BlockProvider, clock adapter.Clock, m *metrics.Metrics) Client {
	stepSize := cfg.LogStepSize
	if stepSize == 0 {
		stepSize = defaultLogStepSize
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	return &ethereumClient{
		chain:         domain.NewChain(cfg.ChainID),
		chainID:       big.NewInt(cfg.ChainID),
		contract:      common.HexToAddress(cfg.ContractAddress),
		client:        client,
		blockProvider: blockProvider,
		clock:         clock,
		metrics:       m,
		stepSize:      stepSize,
		timeout:       timeout,
	}
}

// NewVerifiedClient creates a ledger client and fails unless the node serves the configured chain
func NewVerifiedClient(ctx context.Context, cfg ClientConfig, client adapter.EthClient, blockProvider block.BlockProvider, clock adapter.Clock, m *metrics.Metrics) (Client, error) {
	c := NewClient(cfg, client, blockProvider, clock, m)
	if err := c.VerifyChainID(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ethereumClient) Chain() domain.Chain {
	return c.chain
}

func (c *ethereumClient) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *ethereumClient) ContractAddress() common.Address {
	return c.contract
}

// observe records a ledger call and classifies its error
func (c *ethereumClient) observe(call string, start time.Time, err error) error {
	err = classifyError(err)
	c.metrics.RecordLedgerCall(call, err, c.clock.Since(start))
	return err
}

// VerifyChainID checks that the node serves the configured chain
func (c *ethereumClient) VerifyChainID(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.clock.Now()
	chainID, err := c.client.ChainID(ctx)
	if err = c.observe("chainId", start, err); err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if chainID.Cmp(c.chainID) != 0 {
		return fmt.Errorf("ledger node serves chain %s, configured %s", chainID, c.chainID)
	}
	return nil
}

// callView performs an eth_call against the contract at the latest block
func (c *ethereumClient) callView(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := consentLedgerABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.clock.Now()
	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.contract,
		Data: data,
	}, nil)
	if err = c.observe(method, start, err); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	values, err := consentLedgerABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected %s result length %d", method, len(values))
	}
	return values, nil
}

// ConsentState reads consentState(patient, provider)
func (c *ethereumClient) ConsentState(ctx context.Context, patient, provider string) (domain.ConsentState, error) {
	values, err := c.callView(ctx, MethodConsentState, common.HexToAddress(patient), common.HexToAddress(provider))
	if err != nil {
		return "", err
	}
	code, ok := values[0].(uint8)
	if !ok {
		return "", fmt.Errorf("unexpected consentState result type %T", values[0])
	}
	return domain.ConsentStateFromCode(code)
}

// CheckAccess reads checkAccess(patient, provider)
func (c *ethereumClient) CheckAccess(ctx context.Context, patient, provider string) (bool, error) {
	values, err := c.callView(ctx, MethodCheckAccess, common.HexToAddress(patient), common.HexToAddress(provider))
	if err != nil {
		return false, err
	}
	allowed, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected checkAccess result type %T", values[0])
	}
	return allowed, nil
}

// buildQuery builds the log filter for the given event signatures
func (c *ethereumClient) buildQuery(filter EventFilter, signatures ...common.Hash) ethereum.FilterQuery {
	topics := [][]common.Hash{signatures}

	var patientTopic, providerTopic []common.Hash
	if filter.PatientAddress != "" {
		patientTopic = []common.Hash{common.BytesToHash(common.HexToAddress(filter.PatientAddress).Bytes())}
	}
	if filter.ProviderAddress != "" {
		providerTopic = []common.Hash{common.BytesToHash(common.HexToAddress(filter.ProviderAddress).Bytes())}
	}
	if patientTopic != nil || providerTopic != nil {
		topics = append(topics, patientTopic)
	}
	if providerTopic != nil {
		topics = append(topics, providerTopic)
	}

	query := ethereum.FilterQuery{
		Addresses: []common.Address{c.contract},
		Topics:    topics,
		FromBlock: new(big.Int).SetUint64(filter.FromBlock),
	}
	if filter.ToBlock != nil {
		query.ToBlock = new(big.Int).SetUint64(*filter.ToBlock)
	}
	return query
}

// FilterConsentEvents returns AccessGranted and AccessRevoked events in ascending ledger order
func (c *ethereumClient) FilterConsentEvents(ctx context.Context, filter EventFilter) ([]domain.ConsentEvent, error) {
	logs, err := c.filterLogsWithPagination(ctx, c.buildQuery(filter, AccessGrantedEventSignature, AccessRevokedEventSignature))
	if err != nil {
		return nil, err
	}

	events := make([]domain.ConsentEvent, 0, len(logs))
	for _, vLog := range logs {
		if vLog.Removed {
			continue
		}
		event, err := ParseConsentLog(vLog)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping unparsable consent log",
				zap.String("txHash", vLog.TxHash.Hex()),
				zap.Uint("logIndex", vLog.Index),
				zap.Error(err))
			continue
		}

		timestamp, err := c.blockProvider.GetBlockTimestamp(ctx, event.BlockNumber)
		if err != nil {
			return nil, classifyError(err)
		}
		event.LedgerTimestamp = timestamp.UTC()
		events = append(events, *event)
	}

	return events, nil
}

// FilterAccessEvents returns LogAccess events in ascending ledger order
func (c *ethereumClient) FilterAccessEvents(ctx context.Context, filter EventFilter) ([]domain.AccessEvent, error) {
	logs, err := c.filterLogsWithPagination(ctx, c.buildQuery(filter, LogAccessEventSignature))
	if err != nil {
		return nil, err
	}

	events := make([]domain.AccessEvent, 0, len(logs))
	for _, vLog := range logs {
		if vLog.Removed {
			continue
		}
		event, err := ParseAccessLog(vLog)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping unparsable access log",
				zap.String("txHash", vLog.TxHash.Hex()),
				zap.Uint("logIndex", vLog.Index),
				zap.Error(err))
			continue
		}
		events = append(events, *event)
	}

	return events, nil
}

// filterLogsWithPagination resolves the range and fetches logs in chunks
// to stay under the node's result limit. Logs are returned sorted by (block, index).
func (c *ethereumClient) filterLogsWithPagination(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	// Create a context with timeout (1 minute)
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if query.ToBlock == nil {
		latest, err := c.LatestBlock(timeoutCtx)
		if err != nil {
			return nil, err
		}
		query.ToBlock = new(big.Int).SetUint64(latest)
	}
	if query.FromBlock == nil {
		query.FromBlock = big.NewInt(0)
	}
	if query.FromBlock.Cmp(query.ToBlock) > 0 {
		return []types.Log{}, nil
	}

	start := c.clock.Now()
	logs, err := c.getLogsWithRetry(timeoutCtx, query, c.stepSize)
	if err = c.observe("getLogs", start, err); err != nil {
		return nil, fmt.Errorf("failed to get logs for range %d-%d: %w", query.FromBlock.Uint64(), query.ToBlock.Uint64(), err)
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	return logs, nil
}

// getLogsWithRetry processes the entire range from query.FromBlock to query.ToBlock in chunks,
// halving the step when the node reports too many results
func (c *ethereumClient) getLogsWithRetry(ctx context.Context, query ethereum.FilterQuery, stepSize uint64) ([]types.Log, error) {
	currentStepSize := stepSize

	var allLogs []types.Log
	currentFrom := new(big.Int).Set(query.FromBlock)

	for currentFrom.Cmp(query.ToBlock) <= 0 {
		currentTo := new(big.Int).Add(currentFrom, new(big.Int).SetUint64(currentStepSize-1))
		if currentTo.Cmp(query.ToBlock) > 0 {
			currentTo.Set(query.ToBlock)
		}

		queryCopy := query
		queryCopy.FromBlock = new(big.Int).Set(currentFrom)
		queryCopy.ToBlock = new(big.Int).Set(currentTo)

		logs, err := c.client.FilterLogs(ctx, queryCopy)
		if err == nil {
			allLogs = append(allLogs, logs...)
			currentFrom.SetUint64(currentTo.Uint64() + 1)
			continue
		}

		if !isTooManyResultsError(err) || currentStepSize <= 1 {
			return nil, err
		}

		currentStepSize = currentStepSize / 2

		logger.WarnCtx(ctx, "Too many results, reducing step size",
			zap.Uint64("oldStepSize", currentStepSize*2),
			zap.Uint64("newStepSize", currentStepSize),
			zap.Uint64("fromBlock", currentFrom.Uint64()),
			zap.Uint64("toBlock", currentTo.Uint64()))
	}

	return allLogs, nil
}

// LatestBlock returns the current head straight from the node
func (c *ethereumClient) LatestBlock(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.clock.Now()
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err = c.observe("blockNumber", start, err); err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// BuildTransaction prepares an unsigned legacy transaction to the contract
func (c *ethereumClient) BuildTransaction(ctx context.Context, from string, data []byte, gasLimit uint64) (*types.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fromAddr := common.HexToAddress(from)

	start := c.clock.Now()
	nonce, err := c.client.PendingNonceAt(ctx, fromAddr)
	if err = c.observe("getTransactionCount", start, err); err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	start = c.clock.Now()
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err = c.observe("gasPrice", start, err); err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	if gasLimit == 0 {
		start = c.clock.Now()
		estimated, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
			From: fromAddr,
			To:   &c.contract,
			Data: data,
		})
		if reason, reverted := revertReason(err); reverted {
			c.metrics.RecordLedgerCall("estimateGas", err, c.clock.Since(start))
			return nil, &domain.TransactionRevertedError{Reason: reason}
		}
		if err = c.observe("estimateGas", start, err); err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
		gasLimit = estimated + estimated*gasBufferPercent/100
	}

	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &c.contract,
		Value:    big.NewInt(0),
		Data:     data,
	}), nil
}

// SendTransaction broadcasts a signed transaction
func (c *ethereumClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.clock.Now()
	err := c.client.SendTransaction(ctx, tx)
	if isAlreadyKnown(err) {
		c.metrics.RecordLedgerCall("sendRawTransaction", nil, c.clock.Since(start))
		return nil
	}
	if err = c.observe("sendRawTransaction", start, err); err != nil {
		if IsNetworkError(err) {
			return fmt.Errorf("failed to send transaction %s: %w", tx.Hash().Hex(), err)
		}
		if reason, reverted := revertReason(err); reverted {
			return &domain.TransactionRevertedError{TxHash: tx.Hash().Hex(), Reason: reason}
		}
		return fmt.Errorf("%w: %v", domain.ErrTransactionRefused, err)
	}
	return nil
}

// TransactionByHash returns a transaction and whether it is still pending
func (c *ethereumClient) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.clock.Now()
	tx, pending, err := c.client.TransactionByHash(ctx, txHash)
	if err = c.observe("getTransactionByHash", start, err); err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, false, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, txHash.Hex())
		}
		return nil, false, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, pending, nil
}

// TransactionReceipt returns the receipt of a mined transaction
func (c *ethereumClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.clock.Now()
	receipt, err := c.client.TransactionReceipt(ctx, txHash)
	if err = c.observe("getTransactionReceipt", start, err); err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, txHash.Hex())
		}
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// RevertReason replays a reverted transaction at its block to recover the revert reason
func (c *ethereumClient) RevertReason(ctx context.Context, tx *types.Transaction, blockNumber *big.Int) string {
	from, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err = c.client.CallContract(ctx, ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}, blockNumber)
	reason, _ := revertReason(err)
	return reason
}

// Close closes the connection
func (c *ethereumClient) Close() {
	c.client.Close()
}
