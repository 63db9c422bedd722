package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/domain"
)

// well-known development key, never funded outside local chains
const testPrivateKey = "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

func TestPrivateKeySigner(t *testing.T) {
	signer, err := NewPrivateKeySigner(testPrivateKey)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"), signer.Address())

	chainID := big.NewInt(1337)
	contract := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	tx := types.NewTx(&types.LegacyTx{Nonce: 3, Gas: 60_000, GasPrice: big.NewInt(1), To: &contract})

	signed, err := signer.SignTx(context.Background(), tx, chainID)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), sender)
	assert.Equal(t, chainID, signed.ChainId())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = signer.SignTx(ctx, tx, chainID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPrivateKeySigner_Invalid(t *testing.T) {
	_, err := NewPrivateKeySigner("not-a-key")
	assert.Error(t, err)
}

func TestStaticSignerProvider(t *testing.T) {
	signer, err := NewPrivateKeySigner(testPrivateKey)
	require.NoError(t, err)
	provider := NewStaticSignerProvider(signer)

	found, err := provider.SignerFor(context.Background(), "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1")
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), found.Address())

	_, err = provider.SignerFor(context.Background(), "0x2222222222222222222222222222222222222222")
	assert.ErrorIs(t, err, domain.ErrWalletNotConnected)
}

func TestIsSignerDenied(t *testing.T) {
	assert.True(t, isSignerDenied(errors.New("Request denied")))
	assert.True(t, isSignerDenied(errors.New("user declined transaction")))
	assert.False(t, isSignerDenied(errors.New("connection refused")))
}
