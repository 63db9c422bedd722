package ethereum

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/domain"
)

const (
	testPatient  = "0x1111111111111111111111111111111111111111"
	testProvider = "0x2222222222222222222222222222222222222222"
)

func addressTopic(address string) common.Hash {
	return common.BytesToHash(common.HexToAddress(address).Bytes())
}

func TestConsentOperationCalldata(t *testing.T) {
	tests := []struct {
		name   string
		op     domain.ConsentOperation
		method string
	}{
		{name: "grant", op: domain.ConsentOperationGrant, method: MethodGrantAccess},
		{name: "revoke", op: domain.ConsentOperationRevoke, method: MethodRevokeAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := PackConsentOperation(tt.op, testProvider)
			require.NoError(t, err)
			assert.Equal(t, consentLedgerABI.Methods[tt.method].ID, data[:4])

			op, provider, err := UnpackConsentOperation(data)
			require.NoError(t, err)
			assert.Equal(t, tt.op, op)
			assert.Equal(t, common.HexToAddress(testProvider).Hex(), provider)
		})
	}
}

func TestPackConsentOperation_InvalidOperation(t *testing.T) {
	_, err := PackConsentOperation("DELETE", testProvider)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestUnpackConsentOperation_Mismatch(t *testing.T) {
	logData, err := PackLogDataAccess(testPatient, testProvider, "rec-7")
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "unknown selector", data: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "other contract method", data: logData},
		{name: "truncated arguments", data: consentLedgerABI.Methods[MethodGrantAccess].ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := UnpackConsentOperation(tt.data)
			assert.ErrorIs(t, err, domain.ErrSignedTransactionMismatch)
		})
	}
}

func TestParseConsentLog(t *testing.T) {
	vLog := types.Log{
		Topics:      []common.Hash{AccessRevokedEventSignature, addressTopic(testPatient), addressTopic(testProvider)},
		BlockNumber: 12,
		Index:       3,
		TxHash:      common.HexToHash("0xabc"),
	}

	event, err := ParseConsentLog(vLog)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsentOperationRevoke, event.Type)
	assert.Equal(t, common.HexToAddress(testPatient).Hex(), event.PatientAddress)
	assert.Equal(t, common.HexToAddress(testProvider).Hex(), event.ProviderAddress)
	assert.Equal(t, domain.BlockPosition{BlockNumber: 12, LogIndex: 3}, event.Position())
	assert.True(t, event.LedgerTimestamp.IsZero())

	_, err = ParseConsentLog(types.Log{Topics: []common.Hash{LogAccessEventSignature, addressTopic(testPatient), addressTopic(testProvider)}})
	assert.Error(t, err)

	_, err = ParseConsentLog(types.Log{Topics: []common.Hash{AccessGrantedEventSignature}})
	assert.Error(t, err)
}

func TestParseAccessLog(t *testing.T) {
	stamp := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	data, err := consentLedgerABI.Events["LogAccess"].Inputs.NonIndexed().Pack(big.NewInt(stamp.Unix()), "rec-7")
	require.NoError(t, err)

	event, err := ParseAccessLog(types.Log{
		Topics:      []common.Hash{LogAccessEventSignature, addressTopic(testPatient), addressTopic(testProvider)},
		Data:        data,
		BlockNumber: 40,
		Index:       1,
	})
	require.NoError(t, err)
	assert.Equal(t, "rec-7", event.ResourceID)
	assert.Equal(t, stamp, event.LedgerTimestamp)
	assert.Equal(t, uint64(40), event.BlockNumber)

	_, err = ParseAccessLog(types.Log{
		Topics: []common.Hash{LogAccessEventSignature, addressTopic(testPatient), addressTopic(testProvider)},
		Data:   []byte{0x01},
	})
	assert.Error(t, err)
}

func TestEventSignaturesMatchABI(t *testing.T) {
	assert.Equal(t, consentLedgerABI.Events["AccessGranted"].ID, AccessGrantedEventSignature)
	assert.Equal(t, consentLedgerABI.Events["AccessRevoked"].ID, AccessRevokedEventSignature)
	assert.Equal(t, consentLedgerABI.Events["LogAccess"].ID, LogAccessEventSignature)
}
