package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/audit"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/mocks"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum/ethereumtest"
)

// appendAccess sends a logDataAccess transaction from the auditor
func appendAccess(t *testing.T, client ethereum.Client, auditor ethereumtest.Account, patient, provider, resourceID string) {
	t.Helper()
	ctx := context.Background()
	data, err := ethereum.PackLogDataAccess(patient, provider, resourceID)
	require.NoError(t, err)
	tx, err := client.BuildTransaction(ctx, auditor.Address, data, 100_000)
	require.NoError(t, err)
	signed, err := auditor.Signer.SignTx(ctx, tx, client.ChainID())
	require.NoError(t, err)
	require.NoError(t, client.SendTransaction(ctx, signed))
}

func resourceIDs(events []domain.AccessEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ResourceID
	}
	return ids
}

func TestReader_ListAccessNewestFirst(t *testing.T) {
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	auditor := ethereumtest.NewAccount(t)
	patient := ethereumtest.NewAccount(t)
	other := ethereumtest.NewAccount(t)
	provider := ethereumtest.NewAccount(t)

	appendAccess(t, client, auditor, patient.Address, provider.Address, "rec-1")
	appendAccess(t, client, auditor, other.Address, provider.Address, "other-1")

	// two appends in one block keep their log order
	node.SetAutoMine(false)
	appendAccess(t, client, auditor, patient.Address, provider.Address, "rec-2")
	appendAccess(t, client, auditor, patient.Address, provider.Address, "rec-3")
	node.Mine()
	node.SetAutoMine(true)

	reader := audit.NewReader(client, 0)
	log, err := reader.ListAccess(context.Background(), patient.Address, nil)
	require.NoError(t, err)

	assert.Equal(t, audit.ReadStatusOK, log.Status)
	assert.Equal(t, patient.Address, log.PatientAddress)
	assert.Equal(t, uint64(0), log.FromBlock)
	assert.Equal(t, node.Head(), log.ToBlock)
	require.Equal(t, []string{"rec-3", "rec-2", "rec-1"}, resourceIDs(log.Events))

	for i := 1; i < len(log.Events); i++ {
		assert.True(t, log.Events[i].Position().Before(log.Events[i-1].Position()),
			"event %d must be older than event %d", i, i-1)
	}
	assert.Equal(t, log.Events[0].BlockNumber, log.Events[1].BlockNumber)
	assert.Equal(t, provider.Address, log.Events[0].ProviderAddress)
	assert.False(t, log.Events[0].LedgerTimestamp.IsZero())

	// replay-stable
	again, err := reader.ListAccess(context.Background(), patient.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, log.Events, again.Events)
}

func TestReader_ListAccessWindow(t *testing.T) {
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	auditor := ethereumtest.NewAccount(t)
	patient := ethereumtest.NewAccount(t)
	provider := ethereumtest.NewAccount(t)

	for _, id := range []string{"rec-1", "rec-2", "rec-3", "rec-4"} {
		appendAccess(t, client, auditor, patient.Address, provider.Address, id)
	}
	require.Equal(t, uint64(4), node.Head())

	t.Run("default window covers recent blocks only", func(t *testing.T) {
		log, err := audit.NewReader(client, 2).ListAccess(context.Background(), patient.Address, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), log.FromBlock)
		assert.Equal(t, []string{"rec-4", "rec-3"}, resourceIDs(log.Events))
	})

	t.Run("since block widens the window", func(t *testing.T) {
		since := uint64(2)
		log, err := audit.NewReader(client, 1).ListAccess(context.Background(), patient.Address, &since)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), log.FromBlock)
		assert.Equal(t, []string{"rec-4", "rec-3", "rec-2"}, resourceIDs(log.Events))
	})

	t.Run("since block past the head is empty", func(t *testing.T) {
		since := uint64(10)
		log, err := audit.NewReader(client, 0).ListAccess(context.Background(), patient.Address, &since)
		require.NoError(t, err)
		assert.Equal(t, audit.ReadStatusOK, log.Status)
		assert.Empty(t, log.Events)
		assert.NotNil(t, log.Events)
	})
}

func TestReader_ListAccessUnavailable(t *testing.T) {
	node := ethereumtest.New()
	client := ethereumtest.NewClient(node)
	patient := ethereumtest.NewAccount(t)
	node.SetDown(true)

	since := uint64(5)
	log, err := audit.NewReader(client, 0).ListAccess(context.Background(), patient.Address, &since)
	require.NoError(t, err)
	assert.Equal(t, audit.ReadStatusUnavailable, log.Status)
	assert.Empty(t, log.Events)
	assert.Equal(t, uint64(5), log.FromBlock)
}

func TestReader_ListAccessErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerClient(ctrl)
	reader := audit.NewReader(ledger, 100)
	patient := "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"

	t.Run("invalid address", func(t *testing.T) {
		_, err := reader.ListAccess(context.Background(), "0xnope", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	})

	t.Run("unavailable while filtering", func(t *testing.T) {
		ledger.EXPECT().LatestBlock(gomock.Any()).Return(uint64(500), nil)
		ledger.EXPECT().FilterAccessEvents(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, filter ethereum.EventFilter) ([]domain.AccessEvent, error) {
				assert.Equal(t, uint64(401), filter.FromBlock)
				assert.Equal(t, uint64(500), *filter.ToBlock)
				assert.Equal(t, patient, filter.PatientAddress)
				return nil, domain.ErrNetworkUnavailable
			})

		log, err := reader.ListAccess(context.Background(), patient, nil)
		require.NoError(t, err)
		assert.Equal(t, audit.ReadStatusUnavailable, log.Status)
		assert.Equal(t, uint64(500), log.ToBlock)
	})

	t.Run("other failures propagate", func(t *testing.T) {
		boom := errors.New("decode failure")
		ledger.EXPECT().LatestBlock(gomock.Any()).Return(uint64(0), boom)

		_, err := reader.ListAccess(context.Background(), patient, nil)
		assert.ErrorIs(t, err, boom)
	})
}
