package ethereumtest

import (
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/block"
	ledger "github.com/feral-file/consent-ledger/internal/providers/ethereum"
)

const (
	// ChainID is the chain served by test ledgers
	ChainID = 1337
	// ContractAddress is where test ledgers host the consent contract
	ContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
)

// New creates a test ledger on ChainID hosting the contract at ContractAddress
func New(opts ...Option) *Ledger {
	return NewLedger(ChainID, ContractAddress, opts...)
}

// NewBlockProvider creates a block provider reading headers from l
func NewBlockProvider(l *Ledger) block.BlockProvider {
	clock := adapter.NewClock()
	return block.NewBlockProvider(
		ledger.NewBlockFetcher(l, clock),
		block.Config{StaleWindow: time.Minute},
		clock,
	)
}

// NewClient wires a ledger client to l the way the services do
func NewClient(l *Ledger) ledger.Client {
	return NewClientWithBlockProvider(l, NewBlockProvider(l))
}

// NewClientWithBlockProvider wires a ledger client to l sharing blockProvider
func NewClientWithBlockProvider(l *Ledger, blockProvider block.BlockProvider) ledger.Client {
	clock := adapter.NewClock()
	return ledger.NewClient(ledger.ClientConfig{
		ChainID:         ChainID,
		ContractAddress: ContractAddress,
		LogStepSize:     1000,
		RequestTimeout:  time.Second,
	}, l, blockProvider, clock, nil)
}

// Account is a funded test wallet
type Account struct {
	Key     *ecdsa.PrivateKey
	Address string
	Signer  ledger.Signer
}

// NewAccount generates a fresh wallet
func NewAccount(t *testing.T) Account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return Account{
		Key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Signer:  ledger.NewKeySigner(key),
	}
}
