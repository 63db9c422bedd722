package relay_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/messaging"
	"github.com/feral-file/consent-ledger/internal/metrics"
	"github.com/feral-file/consent-ledger/internal/mocks"
	"github.com/feral-file/consent-ledger/internal/relay"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

const (
	patient  = "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"
	provider = "0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0"
)

var cursorName = relay.CursorName(domain.ChainGanacheLocal)

// testRelayMocks contains all the mocks needed for testing the relay
type testRelayMocks struct {
	ctrl       *gomock.Controller
	subscriber *mocks.MockSubscriber
	publisher  *mocks.MockPublisher
	store      *mocks.MockStore
	clock      *mocks.MockClock
}

func setupTestRelay(t *testing.T) *testRelayMocks {
	ctrl := gomock.NewController(t)
	return &testRelayMocks{
		ctrl:       ctrl,
		subscriber: mocks.NewMockSubscriber(ctrl),
		publisher:  mocks.NewMockPublisher(ctrl),
		store:      mocks.NewMockStore(ctrl),
		clock:      mocks.NewMockClock(ctrl),
	}
}

func (tm *testRelayMocks) relay(startBlock uint64) relay.Relay {
	return relay.NewRelay(tm.subscriber, tm.publisher, tm.store, relay.Config{
		Chain:           domain.ChainGanacheLocal,
		StartBlock:      startBlock,
		WindowBlocks:    100,
		CursorSaveDelay: 30 * time.Second,
	}, tm.clock, metrics.New("test"))
}

func grantEvent(blockNumber uint64) domain.LedgerEvent {
	return domain.NewConsentLedgerEvent(domain.ChainGanacheLocal, domain.ConsentEvent{
		Type:            domain.ConsentOperationGrant,
		PatientAddress:  patient,
		ProviderAddress: provider,
		BlockNumber:     blockNumber,
		TxHash:          "0xaa",
	})
}

func accessEvent(blockNumber uint64, logIndex uint) domain.LedgerEvent {
	return domain.NewAccessLedgerEvent(domain.ChainGanacheLocal, domain.AccessEvent{
		PatientAddress:  patient,
		ProviderAddress: provider,
		ResourceID:      "rec-7",
		BlockNumber:     blockNumber,
		LogIndex:        logIndex,
		TxHash:          "0xbb",
	})
}

func TestRelay_Run_PublishesWindowsAndSavesCursor(t *testing.T) {
	tm := setupTestRelay(t)
	defer tm.ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Now()
	tm.clock.EXPECT().Now().Return(now).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).Return(time.Duration(0)).AnyTimes()

	tm.store.EXPECT().GetBlockCursor(gomock.Any(), cursorName).Return(uint64(500), nil)

	window := &domain.LedgerWindow{
		FromBlock: 501,
		ToBlock:   510,
		Events:    []domain.LedgerEvent{grantEvent(503), accessEvent(507, 0), accessEvent(507, 1)},
	}

	var published []string
	tm.publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *domain.LedgerEvent) error {
			published = append(published, messaging.Subject(event))
			return nil
		}).Times(3)
	tm.store.EXPECT().SetBlockCursor(gomock.Any(), cursorName, uint64(510)).Return(nil)

	tm.subscriber.EXPECT().
		SubscribeEvents(gomock.Any(), uint64(501), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler messaging.WindowHandler) error {
			require.NoError(t, handler(window))

			// an empty window inside the save delay does not touch the cursor
			require.NoError(t, handler(&domain.LedgerWindow{FromBlock: 511, ToBlock: 520}))

			cancel()
			return ctx.Err()
		})

	err := tm.relay(0).Run(ctx)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, []string{"ledger.consent.grant", "ledger.access.logged", "ledger.access.logged"}, published)
}

func TestRelay_Run_PublishFailureRedeliversWindow(t *testing.T) {
	tm := setupTestRelay(t)
	defer tm.ctrl.Finish()

	now := time.Now()
	tm.clock.EXPECT().Now().Return(now).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).Return(time.Duration(0)).AnyTimes()
	tm.store.EXPECT().GetBlockCursor(gomock.Any(), cursorName).Return(uint64(0), nil)

	window := &domain.LedgerWindow{FromBlock: 42, ToBlock: 42, Events: []domain.LedgerEvent{grantEvent(42)}}

	gomock.InOrder(
		tm.publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(assert.AnError),
		tm.publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(nil),
		tm.store.EXPECT().SetBlockCursor(gomock.Any(), cursorName, uint64(42)).Return(nil),
	)

	tm.subscriber.EXPECT().
		SubscribeEvents(gomock.Any(), uint64(42), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler messaging.WindowHandler) error {
			err := handler(window)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to publish event")
			return handler(window)
		})

	require.NoError(t, tm.relay(42).Run(context.Background()))
}

func TestRelay_Run_EmptyWindowsSaveAfterDelay(t *testing.T) {
	tm := setupTestRelay(t)
	defer tm.ctrl.Finish()

	now := time.Now()
	tm.clock.EXPECT().Now().Return(now).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).Return(time.Minute).AnyTimes()
	tm.store.EXPECT().GetBlockCursor(gomock.Any(), cursorName).Return(uint64(9), nil)
	tm.store.EXPECT().SetBlockCursor(gomock.Any(), cursorName, uint64(30)).Return(assert.AnError)

	tm.subscriber.EXPECT().
		SubscribeEvents(gomock.Any(), uint64(10), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler messaging.WindowHandler) error {
			// a failed save is not a delivery failure
			return handler(&domain.LedgerWindow{FromBlock: 10, ToBlock: 30})
		})

	require.NoError(t, tm.relay(0).Run(context.Background()))
}

func TestRelay_Run_StartsFromAuditWindow(t *testing.T) {
	tm := setupTestRelay(t)
	defer tm.ctrl.Finish()

	tm.clock.EXPECT().Now().Return(time.Now()).AnyTimes()
	tm.store.EXPECT().GetBlockCursor(gomock.Any(), cursorName).Return(uint64(0), nil)
	tm.subscriber.EXPECT().GetLatestBlock(gomock.Any()).Return(uint64(1000), nil)
	tm.subscriber.EXPECT().SubscribeEvents(gomock.Any(), uint64(901), gomock.Any()).Return(nil)

	require.NoError(t, tm.relay(0).Run(context.Background()))
}

func TestRelay_Run_GetBlockCursorError(t *testing.T) {
	tm := setupTestRelay(t)
	defer tm.ctrl.Finish()

	tm.store.EXPECT().GetBlockCursor(gomock.Any(), cursorName).Return(uint64(0), assert.AnError)

	err := tm.relay(0).Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get block cursor")
}

func TestRelay_Run_GetLatestBlockError(t *testing.T) {
	tm := setupTestRelay(t)
	defer tm.ctrl.Finish()

	tm.store.EXPECT().GetBlockCursor(gomock.Any(), cursorName).Return(uint64(0), nil)
	tm.subscriber.EXPECT().GetLatestBlock(gomock.Any()).Return(uint64(0), assert.AnError)

	err := tm.relay(0).Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get latest block number")
}

func TestRelay_Close(t *testing.T) {
	tm := setupTestRelay(t)
	defer tm.ctrl.Finish()

	tm.subscriber.EXPECT().Close()
	tm.publisher.EXPECT().Close()

	tm.relay(0).Close()
}
