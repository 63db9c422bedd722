package ethereum

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/consent-ledger/internal/domain"
)

// ConsentLedgerABI is the ABI of the HealthData consent contract
const ConsentLedgerABI = `[
	{"type":"function","name":"grantAccess","stateMutability":"nonpayable","inputs":[{"name":"doctor","type":"address"}],"outputs":[]},
	{"type":"function","name":"revokeAccess","stateMutability":"nonpayable","inputs":[{"name":"doctor","type":"address"}],"outputs":[]},
	{"type":"function","name":"checkAccess","stateMutability":"view","inputs":[{"name":"patient","type":"address"},{"name":"doctor","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"consentState","stateMutability":"view","inputs":[{"name":"patient","type":"address"},{"name":"doctor","type":"address"}],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"logDataAccess","stateMutability":"nonpayable","inputs":[{"name":"patient","type":"address"},{"name":"provider","type":"address"},{"name":"resourceId","type":"string"}],"outputs":[]},
	{"type":"event","name":"AccessGranted","anonymous":false,"inputs":[{"name":"patient","type":"address","indexed":true},{"name":"doctor","type":"address","indexed":true}]},
	{"type":"event","name":"AccessRevoked","anonymous":false,"inputs":[{"name":"patient","type":"address","indexed":true},{"name":"doctor","type":"address","indexed":true}]},
	{"type":"event","name":"LogAccess","anonymous":false,"inputs":[{"name":"patient","type":"address","indexed":true},{"name":"provider","type":"address","indexed":true},{"name":"timestamp","type":"uint256","indexed":false},{"name":"resourceId","type":"string","indexed":false}]}
]`

// Contract method names
const (
	MethodGrantAccess   = "grantAccess"
	MethodRevokeAccess  = "revokeAccess"
	MethodCheckAccess   = "checkAccess"
	MethodConsentState  = "consentState"
	MethodLogDataAccess = "logDataAccess"
)

// Event signatures
var (
	AccessGrantedEventSignature = crypto.Keccak256Hash([]byte("AccessGranted(address,address)"))
	AccessRevokedEventSignature = crypto.Keccak256Hash([]byte("AccessRevoked(address,address)"))
	LogAccessEventSignature     = crypto.Keccak256Hash([]byte("LogAccess(address,address,uint256,string)"))
)

var consentLedgerABI = mustParseABI(ConsentLedgerABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid consent ledger ABI: %v", err))
	}
	return parsed
}

// ContractABI returns the parsed consent contract ABI
func ContractABI() abi.ABI {
	return consentLedgerABI
}

// methodForOperation maps a consent operation to its contract method
func methodForOperation(op domain.ConsentOperation) (string, error) {
	switch op {
	case domain.ConsentOperationGrant:
		return MethodGrantAccess, nil
	case domain.ConsentOperationRevoke:
		return MethodRevokeAccess, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidOperation, op)
	}
}

// PackConsentOperation encodes the calldata of a GRANT or REVOKE issued by the patient
func PackConsentOperation(op domain.ConsentOperation, provider string) ([]byte, error) {
	method, err := methodForOperation(op)
	if err != nil {
		return nil, err
	}
	return consentLedgerABI.Pack(method, common.HexToAddress(provider))
}

// UnpackConsentOperation decodes GRANT or REVOKE calldata, returning the operation and provider address
func UnpackConsentOperation(data []byte) (domain.ConsentOperation, string, error) {
	if len(data) < 4 {
		return "", "", fmt.Errorf("%w: calldata too short", domain.ErrSignedTransactionMismatch)
	}
	method, err := consentLedgerABI.MethodById(data[:4])
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrSignedTransactionMismatch, err)
	}

	var op domain.ConsentOperation
	switch method.Name {
	case MethodGrantAccess:
		op = domain.ConsentOperationGrant
	case MethodRevokeAccess:
		op = domain.ConsentOperationRevoke
	default:
		return "", "", fmt.Errorf("%w: unexpected method %s", domain.ErrSignedTransactionMismatch, method.Name)
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrSignedTransactionMismatch, err)
	}
	if len(args) != 1 {
		return "", "", fmt.Errorf("%w: unexpected arguments", domain.ErrSignedTransactionMismatch)
	}
	provider, ok := args[0].(common.Address)
	if !ok {
		return "", "", fmt.Errorf("%w: unexpected argument type %T", domain.ErrSignedTransactionMismatch, args[0])
	}

	return op, provider.Hex(), nil
}

// PackLogDataAccess encodes the calldata of an audit append
func PackLogDataAccess(patient, provider, resourceID string) ([]byte, error) {
	return consentLedgerABI.Pack(MethodLogDataAccess,
		common.HexToAddress(patient),
		common.HexToAddress(provider),
		resourceID)
}

// ParseConsentLog converts an AccessGranted or AccessRevoked log into a ConsentEvent.
// LedgerTimestamp is left zero; it comes from the block header.
func ParseConsentLog(vLog types.Log) (*domain.ConsentEvent, error) {
	if len(vLog.Topics) != 3 {
		return nil, fmt.Errorf("unexpected topic count %d for consent log", len(vLog.Topics))
	}

	var op domain.ConsentOperation
	switch vLog.Topics[0] {
	case AccessGrantedEventSignature:
		op = domain.ConsentOperationGrant
	case AccessRevokedEventSignature:
		op = domain.ConsentOperationRevoke
	default:
		return nil, fmt.Errorf("unknown consent event signature: %s", vLog.Topics[0].Hex())
	}

	return &domain.ConsentEvent{
		Type:            op,
		PatientAddress:  common.BytesToAddress(vLog.Topics[1].Bytes()).Hex(),
		ProviderAddress: common.BytesToAddress(vLog.Topics[2].Bytes()).Hex(),
		BlockNumber:     vLog.BlockNumber,
		LogIndex:        vLog.Index,
		TxHash:          vLog.TxHash.Hex(),
	}, nil
}

// ParseAccessLog converts a LogAccess log into an AccessEvent.
// The contract stamps block.timestamp into the event, so LedgerTimestamp is filled here.
func ParseAccessLog(vLog types.Log) (*domain.AccessEvent, error) {
	if len(vLog.Topics) != 3 || vLog.Topics[0] != LogAccessEventSignature {
		return nil, fmt.Errorf("not a LogAccess log")
	}

	values, err := consentLedgerABI.Events["LogAccess"].Inputs.NonIndexed().Unpack(vLog.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack LogAccess data: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected LogAccess data length %d", len(values))
	}
	timestamp, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected LogAccess timestamp type %T", values[0])
	}
	resourceID, ok := values[1].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected LogAccess resource type %T", values[1])
	}

	return &domain.AccessEvent{
		PatientAddress:  common.BytesToAddress(vLog.Topics[1].Bytes()).Hex(),
		ProviderAddress: common.BytesToAddress(vLog.Topics[2].Bytes()).Hex(),
		ResourceID:      resourceID,
		BlockNumber:     vLog.BlockNumber,
		LogIndex:        vLog.Index,
		TxHash:          vLog.TxHash.Hex(),
		LedgerTimestamp: unixToTime(timestamp),
	}, nil
}
