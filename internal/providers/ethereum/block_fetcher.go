package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/block"
)

// ledgerBlockFetcher implements block.BlockFetcher with header lookups
type ledgerBlockFetcher struct {
	client adapter.EthClient
	clock  adapter.Clock
}

// NewBlockFetcher creates a block fetcher backed by the ledger node
func NewBlockFetcher(client adapter.EthClient, clock adapter.Clock) block.BlockFetcher {
	return &ledgerBlockFetcher{client: client, clock: clock}
}

// FetchLatestBlock fetches the latest block number
func (f *ledgerBlockFetcher) FetchLatestBlock(ctx context.Context) (uint64, error) {
	header, err := f.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", classifyError(err))
	}
	return header.Number.Uint64(), nil
}

// FetchBlockTimestamp fetches the header time of a block
func (f *ledgerBlockFetcher) FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	header, err := f.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get block %d: %w", blockNumber, classifyError(err))
	}
	return f.clock.Unix(int64(header.Time), 0), nil //nolint:gosec,G115
}
