package ethereum_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/mocks"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum/ethereumtest"
)

// sendConsent builds, signs and broadcasts a consent operation from the patient account
func sendConsent(t *testing.T, client ethereum.Client, patient ethereumtest.Account, op domain.ConsentOperation, provider string) common.Hash {
	t.Helper()
	ctx := context.Background()

	data, err := ethereum.PackConsentOperation(op, provider)
	require.NoError(t, err)
	tx, err := client.BuildTransaction(ctx, patient.Address, data, 0)
	require.NoError(t, err)
	signed, err := patient.Signer.SignTx(ctx, tx, client.ChainID())
	require.NoError(t, err)
	require.NoError(t, client.SendTransaction(ctx, signed))
	return signed.Hash()
}

func TestClient_ConsentState(t *testing.T) {
	ctx := context.Background()
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	patient := ethereumtest.NewAccount(t)
	provider := ethereumtest.NewAccount(t)

	state, err := client.ConsentState(ctx, patient.Address, provider.Address)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsentStateNone, state)

	sendConsent(t, client, patient, domain.ConsentOperationGrant, provider.Address)

	state, err = client.ConsentState(ctx, patient.Address, provider.Address)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsentStateActive, state)

	allowed, err := client.CheckAccess(ctx, patient.Address, provider.Address)
	require.NoError(t, err)
	assert.True(t, allowed)

	sendConsent(t, client, patient, domain.ConsentOperationRevoke, provider.Address)

	state, err = client.ConsentState(ctx, patient.Address, provider.Address)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsentStateRevoked, state)

	allowed, err = client.CheckAccess(ctx, patient.Address, provider.Address)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestClient_FilterConsentEvents(t *testing.T) {
	ctx := context.Background()
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	patient := ethereumtest.NewAccount(t)
	other := ethereumtest.NewAccount(t)
	providerA := ethereumtest.NewAccount(t)
	providerB := ethereumtest.NewAccount(t)

	sendConsent(t, client, patient, domain.ConsentOperationGrant, providerA.Address)
	sendConsent(t, client, other, domain.ConsentOperationGrant, providerA.Address)
	sendConsent(t, client, patient, domain.ConsentOperationGrant, providerB.Address)
	sendConsent(t, client, patient, domain.ConsentOperationRevoke, providerA.Address)

	t.Run("by patient", func(t *testing.T) {
		events, err := client.FilterConsentEvents(ctx, ethereum.EventFilter{PatientAddress: patient.Address})
		require.NoError(t, err)
		require.Len(t, events, 3)

		assert.Equal(t, domain.ConsentOperationGrant, events[0].Type)
		assert.Equal(t, providerA.Address, events[0].ProviderAddress)
		assert.Equal(t, providerB.Address, events[1].ProviderAddress)
		assert.Equal(t, domain.ConsentOperationRevoke, events[2].Type)

		for i := 1; i < len(events); i++ {
			assert.True(t, events[i-1].Position().Before(events[i].Position()))
		}
		for _, e := range events {
			assert.Equal(t, patient.Address, e.PatientAddress)
			assert.False(t, e.LedgerTimestamp.IsZero())
		}
	})

	t.Run("by pair", func(t *testing.T) {
		events, err := client.FilterConsentEvents(ctx, ethereum.EventFilter{
			PatientAddress:  patient.Address,
			ProviderAddress: providerA.Address,
		})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, domain.ConsentOperationGrant, events[0].Type)
		assert.Equal(t, domain.ConsentOperationRevoke, events[1].Type)
	})

	t.Run("by provider", func(t *testing.T) {
		events, err := client.FilterConsentEvents(ctx, ethereum.EventFilter{ProviderAddress: providerA.Address})
		require.NoError(t, err)
		assert.Len(t, events, 3)
	})

	t.Run("bounded range", func(t *testing.T) {
		to := uint64(2)
		events, err := client.FilterConsentEvents(ctx, ethereum.EventFilter{FromBlock: 2, ToBlock: &to})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, other.Address, events[0].PatientAddress)
	})

	t.Run("empty range", func(t *testing.T) {
		events, err := client.FilterConsentEvents(ctx, ethereum.EventFilter{FromBlock: 100})
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestClient_FilterAccessEvents(t *testing.T) {
	ctx := context.Background()
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	auditor := ethereumtest.NewAccount(t)
	patient := ethereumtest.NewAccount(t)
	provider := ethereumtest.NewAccount(t)

	for _, resource := range []string{"rec-1", "rec-2"} {
		data, err := ethereum.PackLogDataAccess(patient.Address, provider.Address, resource)
		require.NoError(t, err)
		tx, err := client.BuildTransaction(ctx, auditor.Address, data, domain.DEFAULT_AUDIT_GAS_LIMIT)
		require.NoError(t, err)
		signed, err := auditor.Signer.SignTx(ctx, tx, client.ChainID())
		require.NoError(t, err)
		require.NoError(t, client.SendTransaction(ctx, signed))
	}

	events, err := client.FilterAccessEvents(ctx, ethereum.EventFilter{PatientAddress: patient.Address})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "rec-1", events[0].ResourceID)
	assert.Equal(t, "rec-2", events[1].ResourceID)
	assert.Equal(t, provider.Address, events[0].ProviderAddress)
	assert.Equal(t, uint64(1), events[0].BlockNumber)
	assert.True(t, events[0].LedgerTimestamp.Before(events[1].LedgerTimestamp))
}

func TestClient_FilterLogs_ReducesStepOnTooManyResults(t *testing.T) {
	ctx := context.Background()
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	patient := ethereumtest.NewAccount(t)

	var providers []string
	for i := 0; i < 4; i++ {
		provider := ethereumtest.NewAccount(t)
		providers = append(providers, provider.Address)
		sendConsent(t, client, patient, domain.ConsentOperationGrant, provider.Address)
	}
	node.SetMaxLogsPerQuery(1)

	events, err := client.FilterConsentEvents(ctx, ethereum.EventFilter{PatientAddress: patient.Address})
	require.NoError(t, err)
	require.Len(t, events, 4)
	for i, e := range events {
		assert.Equal(t, providers[i], e.ProviderAddress)
	}
}

func TestClient_NetworkUnavailable(t *testing.T) {
	ctx := context.Background()
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	patient := ethereumtest.NewAccount(t)
	provider := ethereumtest.NewAccount(t)

	node.SetDown(true)

	_, err := client.ConsentState(ctx, patient.Address, provider.Address)
	assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)

	_, err = client.FilterAccessEvents(ctx, ethereum.EventFilter{PatientAddress: patient.Address})
	assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)

	_, err = client.LatestBlock(ctx)
	assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)

	_, err = client.BuildTransaction(ctx, patient.Address, []byte{0x01}, 0)
	assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
}

func TestClient_BuildTransaction_Revert(t *testing.T) {
	ctx := context.Background()
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	patient := ethereumtest.NewAccount(t)

	data, err := ethereum.PackConsentOperation(domain.ConsentOperationGrant, patient.Address)
	require.NoError(t, err)

	_, err = client.BuildTransaction(ctx, patient.Address, data, 0)
	require.ErrorIs(t, err, domain.ErrTransactionReverted)

	var reverted *domain.TransactionRevertedError
	require.True(t, errors.As(err, &reverted))
	assert.Equal(t, "Cannot grant access to yourself", reverted.Reason)
}

func TestClient_BuildTransaction_GasBuffer(t *testing.T) {
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	patient := ethereumtest.NewAccount(t)
	provider := ethereumtest.NewAccount(t)

	data, err := ethereum.PackConsentOperation(domain.ConsentOperationGrant, provider.Address)
	require.NoError(t, err)

	tx, err := client.BuildTransaction(context.Background(), patient.Address, data, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(60_000), tx.Gas())
	assert.Equal(t, uint64(0), tx.Nonce())
	assert.Equal(t, common.HexToAddress(ethereumtest.ContractAddress), *tx.To())
}

func TestClient_SendTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("resend of a known transaction succeeds", func(t *testing.T) {
		node := ethereumtest.New(ethereumtest.WithAutoMine(false))
		client := ethereumtest.NewClient(node)
		patient := ethereumtest.NewAccount(t)
		provider := ethereumtest.NewAccount(t)

		data, err := ethereum.PackConsentOperation(domain.ConsentOperationGrant, provider.Address)
		require.NoError(t, err)
		tx, err := client.BuildTransaction(ctx, patient.Address, data, 0)
		require.NoError(t, err)
		signed, err := patient.Signer.SignTx(ctx, tx, client.ChainID())
		require.NoError(t, err)

		require.NoError(t, client.SendTransaction(ctx, signed))
		require.NoError(t, client.SendTransaction(ctx, signed))
		assert.Equal(t, 1, node.PendingCount())

		_, pending, err := client.TransactionByHash(ctx, signed.Hash())
		require.NoError(t, err)
		assert.True(t, pending)

		_, err = client.TransactionReceipt(ctx, signed.Hash())
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

		node.Mine()

		_, pending, err = client.TransactionByHash(ctx, signed.Hash())
		require.NoError(t, err)
		assert.False(t, pending)

		receipt, err := client.TransactionReceipt(ctx, signed.Hash())
		require.NoError(t, err)
		assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	})

	t.Run("stale nonce is refused", func(t *testing.T) {
		node := ethereumtest.New()
		client := ethereumtest.NewClient(node)
		patient := ethereumtest.NewAccount(t)
		provider := ethereumtest.NewAccount(t)

		data, err := ethereum.PackConsentOperation(domain.ConsentOperationGrant, provider.Address)
		require.NoError(t, err)
		first, err := client.BuildTransaction(ctx, patient.Address, data, 0)
		require.NoError(t, err)
		second, err := client.BuildTransaction(ctx, patient.Address, data, 100_000)
		require.NoError(t, err)

		signedFirst, err := patient.Signer.SignTx(ctx, first, client.ChainID())
		require.NoError(t, err)
		require.NoError(t, client.SendTransaction(ctx, signedFirst))

		signedSecond, err := patient.Signer.SignTx(ctx, second, client.ChainID())
		require.NoError(t, err)
		err = client.SendTransaction(ctx, signedSecond)
		assert.ErrorIs(t, err, domain.ErrTransactionRefused)
		assert.NotErrorIs(t, err, domain.ErrNetworkUnavailable)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		node := ethereumtest.New()
		client := ethereumtest.NewClient(node)

		_, _, err := client.TransactionByHash(ctx, common.HexToHash("0x01"))
		assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})
}

func TestClient_RevertReason(t *testing.T) {
	ctx := context.Background()
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	patient := ethereumtest.NewAccount(t)

	// an explicit gas limit skips estimation so the revert happens on chain
	data, err := ethereum.PackConsentOperation(domain.ConsentOperationGrant, patient.Address)
	require.NoError(t, err)
	tx, err := client.BuildTransaction(ctx, patient.Address, data, 100_000)
	require.NoError(t, err)
	signed, err := patient.Signer.SignTx(ctx, tx, client.ChainID())
	require.NoError(t, err)
	require.NoError(t, client.SendTransaction(ctx, signed))

	receipt, err := client.TransactionReceipt(ctx, signed.Hash())
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	assert.Empty(t, receipt.Logs)

	assert.Equal(t, "Cannot grant access to yourself", client.RevertReason(ctx, signed, receipt.BlockNumber))
}

func TestClient_VerifyChainID(t *testing.T) {
	ctx := context.Background()

	client := ethereumtest.NewClient(ethereumtest.New())
	require.NoError(t, client.VerifyChainID(ctx))
	assert.Equal(t, domain.ChainGanacheLocal, client.Chain())

	wrong := ethereumtest.NewClient(ethereumtest.NewLedger(1, ethereumtest.ContractAddress))
	assert.Error(t, wrong.VerifyChainID(ctx))
}

func TestNewVerifiedClient(t *testing.T) {
	ctx := context.Background()
	cfg := ethereum.ClientConfig{
		ChainID:         ethereumtest.ChainID,
		ContractAddress: ethereumtest.ContractAddress,
		RequestTimeout:  time.Second,
	}

	t.Run("node on the configured chain", func(t *testing.T) {
		node := ethereumtest.New()
		client, err := ethereum.NewVerifiedClient(ctx, cfg, node, ethereumtest.NewBlockProvider(node), adapter.NewClock(), nil)
		require.NoError(t, err)
		assert.Equal(t, domain.ChainGanacheLocal, client.Chain())
	})

	t.Run("node on another chain", func(t *testing.T) {
		node := ethereumtest.NewLedger(1, ethereumtest.ContractAddress)
		client, err := ethereum.NewVerifiedClient(ctx, cfg, node, ethereumtest.NewBlockProvider(node), adapter.NewClock(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger node serves chain 1")
		assert.Nil(t, client)
	})

	t.Run("node unreachable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ethClient := mocks.NewMockEthClient(ctrl)
		ethClient.EXPECT().ChainID(gomock.Any()).Return(nil, errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"))

		client, err := ethereum.NewVerifiedClient(ctx, cfg, ethClient, mocks.NewMockBlockProvider(ctrl), adapter.NewClock(), nil)
		assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
		assert.Nil(t, client)
	})
}

func TestClient_ClassifiesNodeErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ethClient := mocks.NewMockEthClient(ctrl)
	blockProvider := mocks.NewMockBlockProvider(ctrl)
	client := ethereum.NewClient(ethereum.ClientConfig{
		ChainID:         1337,
		ContractAddress: ethereumtest.ContractAddress,
	}, ethClient, blockProvider, adapter.NewClock(), nil)

	ctx := context.Background()
	patient := "0x1111111111111111111111111111111111111111"
	provider := "0x2222222222222222222222222222222222222222"

	t.Run("gateway failure is a network error", func(t *testing.T) {
		ethClient.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(nil, rpc.HTTPError{StatusCode: 502, Status: "502 Bad Gateway"})

		_, err := client.ConsentState(ctx, patient, provider)
		assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
	})

	t.Run("timeout is a network error", func(t *testing.T) {
		ethClient.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(nil, context.DeadlineExceeded)

		_, err := client.CheckAccess(ctx, patient, provider)
		assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
	})

	t.Run("bad request is not a network error", func(t *testing.T) {
		ethClient.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(nil, rpc.HTTPError{StatusCode: 400, Status: "400 Bad Request"})

		_, err := client.ConsentState(ctx, patient, provider)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNetworkUnavailable)
	})

	t.Run("unknown state code", func(t *testing.T) {
		result, err := ethereum.ContractABI().Methods[ethereum.MethodConsentState].Outputs.Pack(uint8(9))
		require.NoError(t, err)
		ethClient.EXPECT().
			CallContract(gomock.Any(), gomock.Any(), gomock.Nil()).
			Return(result, nil)

		_, err = client.ConsentState(ctx, patient, provider)
		assert.Error(t, err)
	})

	t.Run("block timestamp failure aborts the filter", func(t *testing.T) {
		grant := types.Log{
			Address:     common.HexToAddress(ethereumtest.ContractAddress),
			Topics:      []common.Hash{ethereum.AccessGrantedEventSignature, common.BytesToHash(common.HexToAddress(patient).Bytes()), common.BytesToHash(common.HexToAddress(provider).Bytes())},
			BlockNumber: 5,
		}
		to := uint64(10)
		ethClient.EXPECT().FilterLogs(gomock.Any(), gomock.Any()).Return([]types.Log{grant}, nil)
		blockProvider.EXPECT().GetBlockTimestamp(gomock.Any(), uint64(5)).Return(time.Time{}, errors.New("connection reset"))

		_, err := client.FilterConsentEvents(ctx, ethereum.EventFilter{PatientAddress: patient, ToBlock: &to})
		assert.ErrorIs(t, err, domain.ErrNetworkUnavailable)
	})

	t.Run("latest block comes from the node", func(t *testing.T) {
		ethClient.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(&types.Header{Number: big.NewInt(77)}, nil)

		head, err := client.LatestBlock(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(77), head)
	})
}
