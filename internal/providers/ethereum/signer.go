package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/external"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/feral-file/consent-ledger/internal/domain"
)

// Signer signs transactions for one account
//
//go:generate mockgen -source=signer.go -destination=../../mocks/signer.go -package=mocks -mock_names=Signer=MockSigner,SignerProvider=MockSignerProvider
type Signer interface {
	// Address returns the signing account
	Address() common.Address

	// SignTx signs the transaction with replay protection for chainID.
	// A signer that declines returns domain.ErrTransactionRejectedByUser.
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// SignerProvider resolves the signer holding a wallet's key
type SignerProvider interface {
	// SignerFor returns the signer of address, or domain.ErrWalletNotConnected when no signer holds it
	SignerFor(ctx context.Context, address string) (Signer, error)
}

// privateKeySigner signs with an in-process key
type privateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewPrivateKeySigner creates a signer from a hex-encoded secp256k1 key
func NewPrivateKeySigner(hexKey string) (Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeySigner(key), nil
}

// NewKeySigner creates a signer from a parsed key
func NewKeySigner(key *ecdsa.PrivateKey) Signer {
	return &privateKeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *privateKeySigner) Address() common.Address {
	return s.address
}

func (s *privateKeySigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// externalSigner delegates signing to a Clef-compatible signer over JSON-RPC.
// The operator of the external signer approves or denies each request.
type externalSigner struct {
	api     *external.ExternalSigner
	account accounts.Account
}

func (s *externalSigner) Address() common.Address {
	return s.account.Address
}

func (s *externalSigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	signed, err := s.api.SignTx(s.account, tx, chainID)
	if err != nil {
		if isSignerDenied(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransactionRejectedByUser, err)
		}
		return nil, fmt.Errorf("external signer failed: %w", classifyError(err))
	}
	return signed, nil
}

// isSignerDenied reports whether the signer refused the request
func isSignerDenied(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "denied") ||
		strings.Contains(msg, "rejected") ||
		strings.Contains(msg, "user declined")
}

// externalSignerProvider resolves accounts held by one external signer
type externalSignerProvider struct {
	api *external.ExternalSigner
}

// NewExternalSignerProvider connects to a Clef-compatible endpoint
func NewExternalSignerProvider(endpoint string) (SignerProvider, error) {
	api, err := external.NewExternalSigner(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to external signer: %w", classifyError(err))
	}
	return &externalSignerProvider{api: api}, nil
}

func (p *externalSignerProvider) SignerFor(ctx context.Context, address string) (Signer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target := common.HexToAddress(address)
	for _, account := range p.api.Accounts() {
		if account.Address == target {
			return &externalSigner{api: p.api, account: account}, nil
		}
	}
	return nil, fmt.Errorf("%w: no signer holds %s", domain.ErrWalletNotConnected, target.Hex())
}

// staticSignerProvider serves a fixed set of signers
type staticSignerProvider struct {
	signers map[common.Address]Signer
}

// NewStaticSignerProvider serves the given signers by address
func NewStaticSignerProvider(signers ...Signer) SignerProvider {
	m := make(map[common.Address]Signer, len(signers))
	for _, s := range signers {
		m[s.Address()] = s
	}
	return &staticSignerProvider{signers: m}
}

func (p *staticSignerProvider) SignerFor(_ context.Context, address string) (Signer, error) {
	if s, ok := p.signers[common.HexToAddress(address)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: no signer holds %s", domain.ErrWalletNotConnected, common.HexToAddress(address).Hex())
}

// ErrNoSignerConfigured is returned when server-side signing is disabled
var ErrNoSignerConfigured = errors.New("server-side signing is not configured")
