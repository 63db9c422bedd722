package block_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/consent-ledger/internal/block"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/mocks"
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

// testBlockProviderMocks contains all the mocks needed for testing the block provider
type testBlockProviderMocks struct {
	ctrl       *gomock.Controller
	fetcher    *mocks.MockBlockFetcher
	clock      *mocks.MockClock
	provider   block.BlockProvider
	testConfig block.Config
}

// setupTest creates all the mocks and block provider for testing
func setupTest(t *testing.T) *testBlockProviderMocks {
	ctrl := gomock.NewController(t)

	mockFetcher := mocks.NewMockBlockFetcher(ctrl)
	mockClock := mocks.NewMockClock(ctrl)

	testConfig := block.Config{
		TTL:                 10 * time.Second,
		StaleWindow:         2 * time.Minute,
		MaxCachedTimestamps: 3,
	}

	provider := block.NewBlockProvider(mockFetcher, testConfig, mockClock)

	return &testBlockProviderMocks{
		ctrl:       ctrl,
		fetcher:    mockFetcher,
		clock:      mockClock,
		provider:   provider,
		testConfig: testConfig,
	}
}

// tearDownTest cleans up the test mocks
func tearDownTest(tm *testBlockProviderMocks) {
	tm.ctrl.Finish()
}

func TestBlockProvider_GetLatestBlock_FirstFetch(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil)

	// Act
	blockNum, err := tm.provider.GetLatestBlock(ctx)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000), blockNum)
}

func TestBlockProvider_GetLatestBlock_UsesCache_WithinTTL(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// First fetch - cache miss
	tm.clock.EXPECT().Now().Return(now)
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil)

	blockNum1, err1 := tm.provider.GetLatestBlock(ctx)
	assert.NoError(t, err1)
	assert.Equal(t, uint64(1000), blockNum1)

	// Second fetch - should use cache (within TTL)
	tm.clock.EXPECT().Now().Return(now.Add(5 * time.Second))

	// Act
	blockNum2, err2 := tm.provider.GetLatestBlock(ctx)

	// Assert
	assert.NoError(t, err2)
	assert.Equal(t, uint64(1000), blockNum2) // Should return cached value - fetcher called only once
}

func TestBlockProvider_GetLatestBlock_RefreshesCache_AfterTTL(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// First fetch - cache miss
	tm.clock.EXPECT().Now().Return(now)
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil)

	blockNum1, err1 := tm.provider.GetLatestBlock(ctx)
	assert.NoError(t, err1)
	assert.Equal(t, uint64(1000), blockNum1)

	// Second fetch - after TTL expires
	laterTime := now.Add(15 * time.Second) // Beyond TTL
	tm.clock.EXPECT().Now().Return(laterTime)
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1100), nil)

	// Act
	blockNum2, err2 := tm.provider.GetLatestBlock(ctx)

	// Assert
	assert.NoError(t, err2)
	assert.Equal(t, uint64(1100), blockNum2) // Should return new value
}

func TestBlockProvider_GetLatestBlock_UsesStaleCacheOnError_WithinStaleWindow(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// First fetch - successful
	tm.clock.EXPECT().Now().Return(now)
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil)

	blockNum1, err1 := tm.provider.GetLatestBlock(ctx)
	assert.NoError(t, err1)
	assert.Equal(t, uint64(1000), blockNum1)

	// Second fetch - after TTL expires but fetch fails
	laterTime := now.Add(30 * time.Second) // Beyond TTL but within StaleWindow
	tm.clock.EXPECT().Now().Return(laterTime)
	fetchError := errors.New("network error")
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(0), fetchError)

	// Act
	blockNum2, err2 := tm.provider.GetLatestBlock(ctx)

	// Assert - should use stale cache as fallback
	assert.NoError(t, err2)
	assert.Equal(t, uint64(1000), blockNum2) // Should return stale cached value
}

func TestBlockProvider_GetLatestBlock_ReturnsError_WhenNoCache_AndFetchFails(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	fetchError := errors.New("network error")
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(0), fetchError)

	// Act
	blockNum, err := tm.provider.GetLatestBlock(ctx)

	// Assert
	assert.Error(t, err)
	assert.Equal(t, uint64(0), blockNum)
	assert.Contains(t, err.Error(), "failed to fetch latest block and no valid cache available")
}

func TestBlockProvider_GetLatestBlock_ReturnsError_WhenStaleCache_BeyondStaleWindow(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// First fetch - successful
	tm.clock.EXPECT().Now().Return(now)
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil)

	blockNum1, err1 := tm.provider.GetLatestBlock(ctx)
	assert.NoError(t, err1)
	assert.Equal(t, uint64(1000), blockNum1)

	// Second fetch - way beyond StaleWindow and fetch fails
	laterTime := now.Add(5 * time.Minute) // Beyond StaleWindow (2 minutes)
	tm.clock.EXPECT().Now().Return(laterTime)
	fetchError := errors.New("network error")
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(0), fetchError)

	// Act
	blockNum2, err2 := tm.provider.GetLatestBlock(ctx)

	// Assert - should return error as stale cache is too old
	assert.Error(t, err2)
	assert.Equal(t, uint64(0), blockNum2)
	assert.Contains(t, err2.Error(), "failed to fetch latest block and no valid cache available")
}

func TestBlockProvider_ConcurrentAccess(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Mock the fetcher to return - AnyTimes() allows multiple concurrent calls
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil).AnyTimes()
	tm.clock.EXPECT().Now().Return(now).AnyTimes()

	// Act - concurrent access
	done := make(chan bool, 10)
	for range 10 {
		go func() {
			blockNum, err := tm.provider.GetLatestBlock(ctx)
			assert.NoError(t, err)
			assert.Equal(t, uint64(1000), blockNum)
			done <- true
		}()
	}

	// Wait for all goroutines to complete
	for range 10 {
		<-done
	}
}

func TestBlockProvider_GetLatestBlock_NeverMovesBackwards(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now)
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(1000), nil)
	_, err := tm.provider.GetLatestBlock(ctx)
	assert.NoError(t, err)

	// a lagging node behind a load balancer reports an older head
	tm.clock.EXPECT().Now().Return(now.Add(15 * time.Second))
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(990), nil)

	blockNum, err := tm.provider.GetLatestBlock(ctx)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000), blockNum)
}

func TestBlockProvider_GetBlockTimestamp_CachesForever(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	blockTime := time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now).AnyTimes()
	tm.fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(500)).Return(blockTime, nil).Times(1)

	for range 3 {
		ts, err := tm.provider.GetBlockTimestamp(ctx, 500)
		assert.NoError(t, err)
		assert.Equal(t, blockTime, ts)
	}
}

func TestBlockProvider_GetBlockTimestamp_ReturnsError_WhenFetchFails(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	tm.fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(500)).Return(time.Time{}, errors.New("network error"))

	ts, err := tm.provider.GetBlockTimestamp(ctx, 500)
	assert.Error(t, err)
	assert.True(t, ts.IsZero())
	assert.Contains(t, err.Error(), "block 500")
}

func TestBlockProvider_GetBlockTimestamp_EvictsOldestBlocks(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tm.clock.EXPECT().Now().Return(now).AnyTimes()

	for _, n := range []uint64{10, 11, 12, 13} {
		tm.fetcher.EXPECT().FetchBlockTimestamp(ctx, n).Return(now.Add(time.Duration(n)*time.Second), nil)
		_, err := tm.provider.GetBlockTimestamp(ctx, n)
		assert.NoError(t, err)
	}

	// 13 is still cached, 10 was evicted
	_, err := tm.provider.GetBlockTimestamp(ctx, 13)
	assert.NoError(t, err)

	tm.fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(10)).Return(now.Add(10*time.Second), nil)
	_, err = tm.provider.GetBlockTimestamp(ctx, 10)
	assert.NoError(t, err)
}

func TestBlockProvider_WindowStart(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tm.clock.EXPECT().Now().Return(now).AnyTimes()
	tm.fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(25_000), nil)

	start, err := tm.provider.WindowStart(ctx, 10_000)
	assert.NoError(t, err)
	assert.Equal(t, uint64(15_001), start)
}

func TestWindowStartFrom(t *testing.T) {
	tests := []struct {
		name     string
		head     uint64
		size     uint64
		expected uint64
	}{
		{name: "window inside chain", head: 20_000, size: 10_000, expected: 10_001},
		{name: "window larger than chain", head: 500, size: 10_000, expected: 0},
		{name: "zero size scans from genesis", head: 500, size: 0, expected: 0},
		{name: "single block", head: 500, size: 1, expected: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, block.WindowStartFrom(tt.head, tt.size))
		})
	}
}
