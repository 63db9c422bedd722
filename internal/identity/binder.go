package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/store"
	"github.com/feral-file/consent-ledger/internal/store/schema"
)

// Binder ties application accounts to wallet addresses.
// No ledger write happens here, only signature verification and local persistence.
//
//go:generate mockgen -source=binder.go -destination=../mocks/binder.go -package=mocks -mock_names=Binder=MockBinder
type Binder interface {
	// Challenge returns the message the user must sign to bind a wallet
	Challenge(userID string) string

	// Bind verifies that signature over challenge recovers to claimedAddress and makes it the
	// user's active wallet. Re-binding the active address returns the existing link.
	Bind(ctx context.Context, userID, claimedAddress, challenge, signature string) (*schema.WalletLink, error)

	// ActiveLink returns the active link of the user or domain.ErrWalletLinkNotFound
	ActiveLink(ctx context.Context, userID string) (*schema.WalletLink, error)

	// Links returns every link of the user, superseded ones included, newest first
	Links(ctx context.Context, userID string) ([]schema.WalletLink, error)

	// ResolveSession builds the explicit session context for an authenticated user
	ResolveSession(ctx context.Context, userID string, role domain.Role) (domain.Session, error)
}

type binder struct {
	store store.Store
	chain domain.Chain
	clock adapter.Clock
}

// NewBinder creates a wallet binder persisting links to st
func NewBinder(st store.Store, chain domain.Chain, clock adapter.Clock) Binder {
	return &binder{
		store: st,
		chain: chain,
		clock: clock,
	}
}

// ChallengeMessage is the deterministic challenge for a user
func ChallengeMessage(userID string) string {
	return domain.WALLET_CHALLENGE_PREFIX + userID
}

func (b *binder) Challenge(userID string) string {
	return ChallengeMessage(userID)
}

func (b *binder) Bind(ctx context.Context, userID, claimedAddress, challenge, signature string) (*schema.WalletLink, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	address, err := domain.ParseAddress(claimedAddress)
	if err != nil {
		return nil, err
	}

	// a message built for another user, or an older format, never binds
	if challenge != ChallengeMessage(userID) {
		return nil, fmt.Errorf("%w: unexpected challenge message", domain.ErrInvalidSignature)
	}

	recovered, err := RecoverAddress(challenge, signature)
	if err != nil {
		return nil, err
	}
	if recovered != address {
		logger.WarnCtx(ctx, "Wallet signature recovered to a different address",
			zap.String("userID", userID),
			zap.String("claimed", address),
			zap.String("recovered", recovered))
		return nil, fmt.Errorf("%w: signer does not match claimed address", domain.ErrInvalidSignature)
	}

	link, created, err := b.store.ActivateWalletLink(ctx, store.CreateWalletLinkInput{
		UserID:        userID,
		WalletAddress: address,
		Chain:         b.chain,
		Challenge:     challenge,
		Signature:     signature,
		BoundAt:       b.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrWalletAlreadyLinkedElsewhere) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to persist wallet link: %w", err)
	}

	if created {
		logger.InfoCtx(ctx, "Wallet bound",
			zap.String("userID", userID),
			zap.String("walletAddress", address),
			zap.String("chain", string(b.chain)))
	}

	return link, nil
}

func (b *binder) ActiveLink(ctx context.Context, userID string) (*schema.WalletLink, error) {
	link, err := b.store.GetActiveWalletLink(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet link: %w", err)
	}
	if link == nil {
		return nil, domain.ErrWalletLinkNotFound
	}
	return link, nil
}

func (b *binder) Links(ctx context.Context, userID string) ([]schema.WalletLink, error) {
	links, err := b.store.ListWalletLinks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet links: %w", err)
	}
	return links, nil
}

func (b *binder) ResolveSession(ctx context.Context, userID string, role domain.Role) (domain.Session, error) {
	session := domain.Session{UserID: userID, Role: role}
	if role == domain.RoleService {
		return session, nil
	}

	link, err := b.store.GetActiveWalletLink(ctx, userID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to get wallet link: %w", err)
	}
	if link != nil {
		session.WalletAddress = link.WalletAddress
	}
	return session, nil
}

// RecoverAddress returns the checksummed address that produced an EIP-191 personal_sign
// signature over message. Any malformed signature is domain.ErrInvalidSignature.
func RecoverAddress(message, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("%w: signature must be %d bytes", domain.ErrInvalidSignature, crypto.SignatureLength)
	}

	// wallets produce v in {27, 28}; SigToPub expects {0, 1}
	sig = common.CopyBytes(sig)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return "", fmt.Errorf("%w: invalid recovery id", domain.ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
