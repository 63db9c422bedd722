package block

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/logger"
)

// BlockInfo represents cached block information
type BlockInfo struct {
	Number    uint64
	Timestamp time.Time
}

// BlockTimestampCache represents cached timestamp for a specific block number
type BlockTimestampCache struct {
	Timestamp time.Time
	CachedAt  time.Time
}

// BlockProvider provides cached access to the ledger head and block timestamps.
// The head is only used to place the lower bound of event windows; consent
// decisions never go through this cache.
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=BlockProvider=MockBlockProvider
type BlockProvider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (uint64, error)

	// GetBlockTimestamp returns the timestamp for a given block number, potentially from cache
	GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)

	// WindowStart returns the first block of a window covering the most recent `size` blocks
	WindowStart(ctx context.Context, size uint64) (uint64, error)
}

// BlockFetcher is the interface for fetching block information from the ledger node
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=BlockFetcher=MockBlockFetcher
type BlockFetcher interface {
	// FetchLatestBlock fetches the latest block number
	FetchLatestBlock(ctx context.Context) (uint64, error)

	// FetchBlockTimestamp fetches the timestamp for a given block number
	FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Config holds configuration for the BlockProvider
type Config struct {
	// TTL is how long to cache the block number
	TTL time.Duration

	// StaleWindow is how long to use stale data if fetching fails
	// If the cached data is older than this and fetch fails, return error
	StaleWindow time.Duration

	// MaxCachedTimestamps bounds the timestamp cache. Block timestamps are
	// immutable so entries never expire; the oldest blocks are evicted first.
	// 0 means DefaultMaxCachedTimestamps.
	MaxCachedTimestamps int
}

// DefaultMaxCachedTimestamps is the timestamp cache size used when none is configured
const DefaultMaxCachedTimestamps = 50_000

// blockProvider implements BlockProvider with TTL-based caching
type blockProvider struct {
	fetcher BlockFetcher
	config  Config
	clock   adapter.Clock

	mu              sync.RWMutex
	blockInfo       *BlockInfo
	blockTimestamps map[uint64]*BlockTimestampCache
}

// NewBlockProvider creates a new BlockProvider with caching
func NewBlockProvider(fetcher BlockFetcher, config Config, clock adapter.Clock) BlockProvider {
	if config.MaxCachedTimestamps <= 0 {
		config.MaxCachedTimestamps = DefaultMaxCachedTimestamps
	}
	return &blockProvider{
		fetcher:         fetcher,
		config:          config,
		clock:           clock,
		blockTimestamps: make(map[uint64]*BlockTimestampCache),
	}
}

// GetLatestBlock returns the latest block number, using cache if valid
func (p *blockProvider) GetLatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.blockInfo
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && now.Sub(cached.Timestamp) < p.config.TTL {
		logger.DebugCtx(ctx, "Using cached block number", zap.Uint64("block_number", cached.Number))
		return cached.Number, nil
	}

	logger.DebugCtx(ctx, "Fetching latest block number from ledger node")
	blockNumber, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if cached != nil && now.Sub(cached.Timestamp) < p.config.StaleWindow {
			logger.DebugCtx(ctx, "Using stale block number", zap.Uint64("block_number", cached.Number))
			return cached.Number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	p.mu.Lock()
	// The head never moves backwards from the provider's point of view
	if p.blockInfo == nil || blockNumber >= p.blockInfo.Number {
		p.blockInfo = &BlockInfo{
			Number:    blockNumber,
			Timestamp: now,
		}
	} else {
		blockNumber = p.blockInfo.Number
	}
	p.mu.Unlock()

	return blockNumber, nil
}

// GetBlockTimestamp returns the timestamp for a given block number
func (p *blockProvider) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	p.mu.RLock()
	cached := p.blockTimestamps[blockNumber]
	p.mu.RUnlock()

	if cached != nil {
		return cached.Timestamp, nil
	}

	logger.DebugCtx(ctx, "Fetching block timestamp from ledger node", zap.Uint64("block_number", blockNumber))
	timestamp, err := p.fetcher.FetchBlockTimestamp(ctx, blockNumber)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch block timestamp for block %d: %w", blockNumber, err)
	}

	p.mu.Lock()
	p.blockTimestamps[blockNumber] = &BlockTimestampCache{
		Timestamp: timestamp,
		CachedAt:  p.clock.Now(),
	}
	p.evictLocked()
	p.mu.Unlock()

	return timestamp, nil
}

// evictLocked drops the oldest blocks once the cache is over its bound
func (p *blockProvider) evictLocked() {
	excess := len(p.blockTimestamps) - p.config.MaxCachedTimestamps
	if excess <= 0 {
		return
	}

	numbers := make([]uint64, 0, len(p.blockTimestamps))
	for n := range p.blockTimestamps {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for _, n := range numbers[:excess] {
		delete(p.blockTimestamps, n)
	}
}

// WindowStart returns the first block of a window covering the most recent `size` blocks
func (p *blockProvider) WindowStart(ctx context.Context, size uint64) (uint64, error) {
	latest, err := p.GetLatestBlock(ctx)
	if err != nil {
		return 0, err
	}
	return WindowStartFrom(latest, size), nil
}

// WindowStartFrom returns the first block of the `size` blocks ending at head, clamped at genesis
func WindowStartFrom(head uint64, size uint64) uint64 {
	if size == 0 || size > head {
		return 0
	}
	return head - size + 1
}
