package jetstream_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/mocks"
	"github.com/feral-file/consent-ledger/internal/providers/jetstream"
)

var testConfig = jetstream.Config{
	URL:            "nats://localhost:4222",
	StreamName:     "LEDGER",
	MaxReconnects:  3,
	ConnectionName: "ledger-relay-test",
}

type testPublisherMocks struct {
	ctrl   *gomock.Controller
	natsJS *mocks.MockNatsJetStream
	conn   *mocks.MockNatsConn
	js     *mocks.MockJetStream
}

func setupTestPublisher(t *testing.T) *testPublisherMocks {
	ctrl := gomock.NewController(t)
	return &testPublisherMocks{
		ctrl:   ctrl,
		natsJS: mocks.NewMockNatsJetStream(ctrl),
		conn:   mocks.NewMockNatsConn(ctrl),
		js:     mocks.NewMockJetStream(ctrl),
	}
}

func (tm *testPublisherMocks) connected() {
	tm.natsJS.EXPECT().
		Connect(testConfig.URL, gomock.Any()).
		Return(tm.conn, tm.js, nil)
	tm.js.EXPECT().
		EnsureStream(gomock.Any(), "LEDGER", []string{"ledger.consent.grant", "ledger.consent.revoke", "ledger.access.logged"}).
		Return(nil)
}

func accessEvent() *domain.LedgerEvent {
	event := domain.NewAccessLedgerEvent(domain.ChainGanacheLocal, domain.AccessEvent{
		PatientAddress:  "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1",
		ProviderAddress: "0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0",
		ResourceID:      "rec-7",
		BlockNumber:     12,
		LogIndex:        3,
		TxHash:          "0xabc",
	})
	return &event
}

func TestNewPublisher_ConnectError(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	tm.natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(nil, nil, nats.ErrNoServers)

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, tm.natsJS, adapter.NewJSON())
	require.Error(t, err)
	assert.ErrorIs(t, err, nats.ErrNoServers)
	assert.Nil(t, pub)
}

func TestNewPublisher_EnsureStreamErrorClosesConnection(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	tm.natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(tm.conn, tm.js, nil)
	tm.js.EXPECT().EnsureStream(gomock.Any(), "LEDGER", gomock.Any()).Return(assert.AnError)
	tm.conn.EXPECT().Close()

	_, err := jetstream.NewPublisher(context.Background(), testConfig, tm.natsJS, adapter.NewJSON())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ensure stream LEDGER")
}

func TestPublishEvent_UsesSubjectAndMessageID(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()
	tm.connected()

	event := accessEvent()
	tm.js.EXPECT().
		Publish(gomock.Any(), "ledger.access.logged", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, opts ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
			assert.Contains(t, string(data), `"rec-7"`)
			require.Len(t, opts, 1)
			return &natsjs.PubAck{Stream: "LEDGER", Sequence: 1}, nil
		})

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, tm.natsJS, adapter.NewJSON())
	require.NoError(t, err)
	require.NoError(t, pub.PublishEvent(context.Background(), event))
}

func TestPublishEvent_MarshalError(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()
	tm.connected()

	jsonAdapter := mocks.NewMockJSON(tm.ctrl)
	jsonAdapter.EXPECT().Marshal(gomock.Any()).Return(nil, assert.AnError)

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, tm.natsJS, jsonAdapter)
	require.NoError(t, err)

	err = pub.PublishEvent(context.Background(), accessEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal event")
}

func TestPublishEvent_PublishError(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()
	tm.connected()

	tm.js.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, natsjs.ErrNoStreamResponse)

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, tm.natsJS, adapter.NewJSON())
	require.NoError(t, err)

	err = pub.PublishEvent(context.Background(), accessEvent())
	assert.ErrorIs(t, err, natsjs.ErrNoStreamResponse)
}

func TestPublisher_Close(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()
	tm.connected()
	tm.conn.EXPECT().Close()

	pub, err := jetstream.NewPublisher(context.Background(), testConfig, tm.natsJS, adapter.NewJSON())
	require.NoError(t, err)
	pub.Close()
}
