// Package ethereumtest provides an in-process consent contract node for tests.
package ethereumtest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	ledger "github.com/feral-file/consent-ledger/internal/providers/ethereum"
)

// ErrConnectionRefused is the transport error returned while the node is down
var ErrConnectionRefused = errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")

// RPCError is a JSON-RPC error answered by the node
type RPCError struct {
	Code    int
	Message string
	Data    string
}

func (e *RPCError) Error() string  { return e.Message }
func (e *RPCError) ErrorCode() int { return e.Code }
func (e *RPCError) ErrorData() any { return e.Data }

func revertError(reason string) error {
	return &RPCError{Code: 3, Message: "execution reverted: " + reason, Data: encodeRevertData(reason)}
}

// encodeRevertData builds the standard Error(string) revert payload
func encodeRevertData(reason string) string {
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		return ""
	}
	return hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
}

type pair struct {
	patient  common.Address
	provider common.Address
}

// Ledger is an in-memory EVM node hosting the consent contract.
// It implements adapter.EthClient.
type Ledger struct {
	mu sync.Mutex

	chainID     *big.Int
	contract    common.Address
	genesisTime time.Time
	blockTime   time.Duration

	head     uint64
	nonces   map[common.Address]uint64
	consent  map[pair]uint8
	logs     []types.Log
	txs      map[common.Hash]*types.Transaction
	receipts map[common.Hash]*types.Receipt
	pending  []*types.Transaction

	autoMine        bool
	down            bool
	sendErrs        []error
	maxLogsPerQuery int
	calls           map[string]int
}

// Option configures a Ledger
type Option func(*Ledger)

// WithAutoMine mines every accepted transaction in its own block
func WithAutoMine(autoMine bool) Option {
	return func(l *Ledger) { l.autoMine = autoMine }
}

// WithHead starts the chain at the given block
func WithHead(head uint64) Option {
	return func(l *Ledger) { l.head = head }
}

// NewLedger creates a ledger on the given chain hosting the contract at contract
func NewLedger(chainID int64, contract string, opts ...Option) *Ledger {
	l := &Ledger{
		chainID:     big.NewInt(chainID),
		contract:    common.HexToAddress(contract),
		genesisTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		blockTime:   12 * time.Second,
		nonces:      make(map[common.Address]uint64),
		consent:     make(map[pair]uint8),
		txs:         make(map[common.Hash]*types.Transaction),
		receipts:    make(map[common.Hash]*types.Receipt),
		autoMine:    true,
		calls:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetDown makes every call fail with a transport error
func (l *Ledger) SetDown(down bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.down = down
}

// FailNextSend makes the next SendTransaction return err without accepting the transaction
func (l *Ledger) FailNextSend(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sendErrs = append(l.sendErrs, err)
}

// SetMaxLogsPerQuery makes FilterLogs fail with a "too many results" error above max logs
func (l *Ledger) SetMaxLogsPerQuery(max int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxLogsPerQuery = max
}

// SetAutoMine toggles automatic mining
func (l *Ledger) SetAutoMine(autoMine bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.autoMine = autoMine
}

// AdvanceBlocks mines n empty blocks
func (l *Ledger) AdvanceBlocks(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.head += n
}

// Mine includes all pending transactions in one new block
func (l *Ledger) Mine() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mineLocked()
}

// DropPending evicts every unmined transaction as a node does when its mempool is flushed.
// The senders' nonces are released.
func (l *Ledger) DropPending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	signer := types.LatestSignerForChainID(l.chainID)
	for _, tx := range l.pending {
		delete(l.txs, tx.Hash())
		sender, err := types.Sender(signer, tx)
		if err == nil && tx.Nonce() < l.nonces[sender] {
			l.nonces[sender] = tx.Nonce()
		}
	}
	dropped := len(l.pending)
	l.pending = nil
	return dropped
}

// Head returns the current block number
func (l *Ledger) Head() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head
}

// PendingCount returns the number of accepted, unmined transactions
func (l *Ledger) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Calls returns how many times a method was invoked
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

// AccessLogCount returns the number of LogAccess events emitted for a patient
func (l *Ledger) AccessLogCount(patient string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	target := common.BytesToHash(common.HexToAddress(patient).Bytes())
	count := 0
	for _, lg := range l.logs {
		if lg.Topics[0] == ledger.LogAccessEventSignature && lg.Topics[1] == target {
			count++
		}
	}
	return count
}

func (l *Ledger) blockTimeOf(number uint64) time.Time {
	return l.genesisTime.Add(time.Duration(number) * l.blockTime) //nolint:gosec,G115
}

func (l *Ledger) enter(method string) error {
	l.calls[method]++
	if l.down {
		return ErrConnectionRefused
	}
	return nil
}

// ChainID returns the chain id
func (l *Ledger) ChainID(ctx context.Context) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("ChainID"); err != nil {
		return nil, err
	}
	return new(big.Int).Set(l.chainID), nil
}

// FilterLogs returns the contract logs matching the query
func (l *Ledger) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("FilterLogs"); err != nil {
		return nil, err
	}

	from := uint64(0)
	if query.FromBlock != nil {
		from = query.FromBlock.Uint64()
	}
	to := l.head
	if query.ToBlock != nil {
		to = query.ToBlock.Uint64()
	}

	var out []types.Log
	for _, lg := range l.logs {
		if lg.BlockNumber < from || lg.BlockNumber > to {
			continue
		}
		if len(query.Addresses) > 0 && !containsAddress(query.Addresses, lg.Address) {
			continue
		}
		if !matchTopics(query.Topics, lg.Topics) {
			continue
		}
		out = append(out, lg)
	}

	if l.maxLogsPerQuery > 0 && len(out) > l.maxLogsPerQuery {
		return nil, &RPCError{Code: -32005, Message: "query returned more than 10000 results"}
	}
	return out, nil
}

func containsAddress(addrs []common.Address, target common.Address) bool {
	for _, a := range addrs {
		if a == target {
			return true
		}
	}
	return false
}

func matchTopics(filter [][]common.Hash, topics []common.Hash) bool {
	for i, alternatives := range filter {
		if len(alternatives) == 0 {
			continue
		}
		if i >= len(topics) {
			return false
		}
		matched := false
		for _, h := range alternatives {
			if h == topics[i] {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// HeaderByNumber returns a synthetic header
func (l *Ledger) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("HeaderByNumber"); err != nil {
		return nil, err
	}

	n := l.head
	if number != nil {
		n = number.Uint64()
		if n > l.head {
			return nil, ethereum.NotFound
		}
	}
	return &types.Header{
		Number: new(big.Int).SetUint64(n),
		Time:   uint64(l.blockTimeOf(n).Unix()), //nolint:gosec,G115
	}, nil
}

// CallContract executes a view call, or simulates a write to surface its revert reason
func (l *Ledger) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("CallContract"); err != nil {
		return nil, err
	}
	if msg.To == nil || *msg.To != l.contract {
		return []byte{}, nil
	}
	return l.callLocked(msg.From, msg.Data)
}

func (l *Ledger) callLocked(from common.Address, data []byte) ([]byte, error) {
	contractABI := ledger.ContractABI()
	if len(data) < 4 {
		return nil, revertError("")
	}
	method, err := contractABI.MethodById(data[:4])
	if err != nil {
		return nil, revertError("")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, revertError("")
	}

	switch method.Name {
	case ledger.MethodConsentState:
		state := l.consent[pair{args[0].(common.Address), args[1].(common.Address)}]
		return method.Outputs.Pack(state)
	case ledger.MethodCheckAccess:
		state := l.consent[pair{args[0].(common.Address), args[1].(common.Address)}]
		return method.Outputs.Pack(state == 1)
	case ledger.MethodGrantAccess, ledger.MethodRevokeAccess:
		if reason := guardConsent(from, args[0].(common.Address)); reason != "" {
			return nil, revertError(reason)
		}
		return []byte{}, nil
	case ledger.MethodLogDataAccess:
		return []byte{}, nil
	}
	return nil, revertError("")
}

// guardConsent mirrors the contract's require checks
func guardConsent(patient, provider common.Address) string {
	if provider == (common.Address{}) {
		return "Invalid provider address"
	}
	if provider == patient {
		return "Cannot grant access to yourself"
	}
	return ""
}

// PendingNonceAt returns the next nonce of the account
func (l *Ledger) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("PendingNonceAt"); err != nil {
		return 0, err
	}
	return l.nonces[account], nil
}

// SuggestGasPrice returns 1 gwei
func (l *Ledger) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("SuggestGasPrice"); err != nil {
		return nil, err
	}
	return big.NewInt(1_000_000_000), nil
}

// EstimateGas simulates the call and returns a fixed estimate
func (l *Ledger) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("EstimateGas"); err != nil {
		return 0, err
	}
	if msg.To != nil && *msg.To == l.contract {
		if _, err := l.callLocked(msg.From, msg.Data); err != nil {
			return 0, err
		}
	}
	return 50_000, nil
}

// SendTransaction validates and accepts a signed transaction
func (l *Ledger) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("SendTransaction"); err != nil {
		return err
	}
	if len(l.sendErrs) > 0 {
		err := l.sendErrs[0]
		l.sendErrs = l.sendErrs[1:]
		return err
	}

	if _, known := l.txs[tx.Hash()]; known {
		return &RPCError{Code: -32000, Message: "already known"}
	}
	if tx.ChainId().Cmp(l.chainID) != 0 {
		return &RPCError{Code: -32000, Message: "invalid chain id for signer"}
	}
	sender, err := types.Sender(types.LatestSignerForChainID(l.chainID), tx)
	if err != nil {
		return &RPCError{Code: -32000, Message: "invalid sender: " + err.Error()}
	}
	next := l.nonces[sender]
	switch {
	case tx.Nonce() < next:
		return &RPCError{Code: -32000, Message: "nonce too low"}
	case tx.Nonce() > next:
		return &RPCError{Code: -32000, Message: "nonce too high"}
	}

	l.nonces[sender] = next + 1
	l.txs[tx.Hash()] = tx
	l.pending = append(l.pending, tx)
	if l.autoMine {
		l.mineLocked()
	}
	return nil
}

func (l *Ledger) mineLocked() uint64 {
	l.head++
	blockNumber := l.head
	signer := types.LatestSignerForChainID(l.chainID)

	var logIndex uint
	for txIndex, tx := range l.pending {
		sender, _ := types.Sender(signer, tx)
		receipt := &types.Receipt{
			Status:           types.ReceiptStatusSuccessful,
			TxHash:           tx.Hash(),
			BlockNumber:      new(big.Int).SetUint64(blockNumber),
			TransactionIndex: uint(txIndex), //nolint:gosec,G115
			GasUsed:          45_000,
		}

		logs, ok := l.executeLocked(sender, tx, blockNumber)
		if !ok {
			receipt.Status = types.ReceiptStatusFailed
		}
		for i := range logs {
			logs[i].Index = logIndex
			logs[i].TxIndex = uint(txIndex) //nolint:gosec,G115
			logIndex++
		}
		receipt.Logs = make([]*types.Log, len(logs))
		for i := range logs {
			receipt.Logs[i] = &logs[i]
		}
		l.logs = append(l.logs, logs...)
		l.receipts[tx.Hash()] = receipt
	}
	l.pending = nil
	return blockNumber
}

// executeLocked applies a transaction to the contract state
func (l *Ledger) executeLocked(sender common.Address, tx *types.Transaction, blockNumber uint64) ([]types.Log, bool) {
	if tx.To() == nil || *tx.To() != l.contract {
		return nil, true
	}
	contractABI := ledger.ContractABI()
	data := tx.Data()
	if len(data) < 4 {
		return nil, false
	}
	method, err := contractABI.MethodById(data[:4])
	if err != nil {
		return nil, false
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, false
	}

	base := types.Log{
		Address:     l.contract,
		BlockNumber: blockNumber,
		TxHash:      tx.Hash(),
	}
	addressTopic := func(a common.Address) common.Hash { return common.BytesToHash(a.Bytes()) }

	switch method.Name {
	case ledger.MethodGrantAccess, ledger.MethodRevokeAccess:
		provider := args[0].(common.Address)
		if guardConsent(sender, provider) != "" {
			return nil, false
		}
		sig := ledger.AccessGrantedEventSignature
		state := uint8(1)
		if method.Name == ledger.MethodRevokeAccess {
			sig = ledger.AccessRevokedEventSignature
			state = 2
		}
		l.consent[pair{sender, provider}] = state
		lg := base
		lg.Topics = []common.Hash{sig, addressTopic(sender), addressTopic(provider)}
		return []types.Log{lg}, true

	case ledger.MethodLogDataAccess:
		patient := args[0].(common.Address)
		provider := args[1].(common.Address)
		resourceID := args[2].(string)
		timestamp := big.NewInt(l.blockTimeOf(blockNumber).Unix())
		payload, err := contractABI.Events["LogAccess"].Inputs.NonIndexed().Pack(timestamp, resourceID)
		if err != nil {
			return nil, false
		}
		lg := base
		lg.Topics = []common.Hash{ledger.LogAccessEventSignature, addressTopic(patient), addressTopic(provider)}
		lg.Data = payload
		return []types.Log{lg}, true
	}
	// view methods change nothing
	return nil, true
}

// TransactionByHash returns an accepted transaction
func (l *Ledger) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("TransactionByHash"); err != nil {
		return nil, false, err
	}
	tx, ok := l.txs[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	_, mined := l.receipts[hash]
	return tx, !mined, nil
}

// TransactionReceipt returns the receipt of a mined transaction
func (l *Ledger) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enter("TransactionReceipt"); err != nil {
		return nil, err
	}
	receipt, ok := l.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// Close is a no-op
func (l *Ledger) Close() {}

// String describes the ledger state for test failure messages
func (l *Ledger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprintf("ledger{head=%d logs=%d pending=%d}", l.head, len(l.logs), len(l.pending))
}
