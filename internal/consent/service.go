package consent

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/feral-file/consent-ledger/internal/block"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/metrics"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
)

// View selects the contract view used to answer consent queries
type View string

const (
	// ViewConsentState reads the tri-state consentState view
	ViewConsentState View = "consent_state"
	// ViewCheckAccess reads the boolean checkAccess view and replays events to tell REVOKED from NONE
	ViewCheckAccess View = "check_access"
)

// Config holds the consent service settings
type Config struct {
	View View
	// WindowBlocks bounds event replays and history reads
	WindowBlocks uint64
	// ConfirmationTimeout bounds Await when the caller asks to wait
	ConfirmationTimeout time.Duration
	// PollInterval is the first delay between receipt polls
	PollInterval time.Duration
}

// SubmitRequest is a consent write signed server-side with the patient's wallet
type SubmitRequest struct {
	Operation       domain.ConsentOperation
	PatientAddress  string
	ProviderAddress string
	// Wait blocks until a terminal state or the confirmation timeout
	Wait bool
}

// SubmitSignedRequest is a consent write already signed by the patient's wallet
type SubmitSignedRequest struct {
	Operation       domain.ConsentOperation
	ProviderAddress string
	// SignedTransaction is the hex-encoded raw transaction
	SignedTransaction string
	Wait              bool
}

// UnsignedTransaction is everything a wallet needs to sign a consent write
type UnsignedTransaction struct {
	Operation       domain.ConsentOperation `json:"operation"`
	ProviderAddress string                  `json:"provider_address"`
	From            string                  `json:"from"`
	To              string                  `json:"to"`
	Data            string                  `json:"data"`
	Nonce           uint64                  `json:"nonce"`
	Gas             uint64                  `json:"gas"`
	GasPrice        string                  `json:"gas_price"`
	ChainID         int64                   `json:"chain_id"`
}

// History is the consent event stream of a patient over a block window
type History struct {
	PatientAddress string `json:"patient_address"`
	FromBlock      uint64 `json:"from_block"`
	ToBlock        uint64 `json:"to_block"`
	// Events are newest first
	Events []domain.ConsentEvent `json:"events"`
	// States is the projected state per provider address
	States map[string]domain.ConsentState `json:"states"`
}

// Service submits consent operations to the ledger and reads consent state back.
// Every call goes to the ledger node; nothing is cached between calls.
//
//go:generate mockgen -source=service.go -destination=../mocks/consent_service.go -package=mocks -mock_names=Service=MockConsentService
type Service interface {
	// Submit builds, signs and broadcasts a consent operation from the session's wallet.
	// The result is PENDING unless Wait is set. Failures that reach a terminal status
	// return both the result and the matching domain error.
	Submit(ctx context.Context, session domain.Session, req SubmitRequest) (*domain.ConsentTransactionResult, error)

	// Prepare builds the unsigned transaction of a consent operation for the session's wallet
	Prepare(ctx context.Context, session domain.Session, op domain.ConsentOperation, provider string) (*UnsignedTransaction, error)

	// SubmitSigned validates a wallet-signed transaction against the requested operation and broadcasts it
	SubmitSigned(ctx context.Context, session domain.Session, req SubmitSignedRequest) (*domain.ConsentTransactionResult, error)

	// Status reports the current state of a transaction without waiting
	Status(ctx context.Context, txHash string) (*domain.ConsentTransactionResult, error)

	// Await polls until the transaction is terminal. On timeout the result is STALE
	// together with domain.ErrStale; the transaction may still confirm later.
	Await(ctx context.Context, txHash string, timeout time.Duration) (*domain.ConsentTransactionResult, error)

	// Query returns the current consent state of the pair from the ledger
	Query(ctx context.Context, patient, provider string) (domain.ConsentState, error)

	// History returns the patient's consent events since sinceBlock, or over the default window when nil
	History(ctx context.Context, patient string, sinceBlock *uint64) (*History, error)
}

type service struct {
	config        Config
	ledger        ethereum.Client
	signers       ethereum.SignerProvider
	blockProvider block.BlockProvider
	metrics       *metrics.Metrics
}

const (
	defaultConfirmationTimeout = 60 * time.Second
	defaultPollInterval        = 2 * time.Second
)

// NewService creates a consent service. signers may be nil when only wallet-signed submissions are served.
func NewService(
	config Config,
	ledger ethereum.Client,
	signers ethereum.SignerProvider,
	blockProvider block.BlockProvider,
	m *metrics.Metrics,
) Service {
	if config.View == "" {
		config.View = ViewConsentState
	}
	if config.WindowBlocks == 0 {
		config.WindowBlocks = domain.DEFAULT_AUDIT_WINDOW_BLOCKS
	}
	if config.ConfirmationTimeout <= 0 {
		config.ConfirmationTimeout = defaultConfirmationTimeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	return &service{
		config:        config,
		ledger:        ledger,
		signers:       signers,
		blockProvider: blockProvider,
		metrics:       m,
	}
}

// Query reads the pair's state at the latest block
func (s *service) Query(ctx context.Context, patient, provider string) (domain.ConsentState, error) {
	patient, err := domain.ParseAddress(patient)
	if err != nil {
		return "", fmt.Errorf("patient: %w", err)
	}
	provider, err = domain.ParseAddress(provider)
	if err != nil {
		return "", fmt.Errorf("provider: %w", err)
	}

	if s.config.View == ViewConsentState {
		return s.ledger.ConsentState(ctx, patient, provider)
	}

	allowed, err := s.ledger.CheckAccess(ctx, patient, provider)
	if err != nil {
		return "", err
	}
	if allowed {
		return domain.ConsentStateActive, nil
	}

	// checkAccess cannot tell REVOKED from NONE
	fromBlock, err := s.blockProvider.WindowStart(ctx, s.config.WindowBlocks)
	if err != nil {
		return "", fmt.Errorf("failed to resolve event window: %w", err)
	}
	events, err := s.ledger.FilterConsentEvents(ctx, ethereum.EventFilter{
		PatientAddress:  patient,
		ProviderAddress: provider,
		FromBlock:       fromBlock,
	})
	if err != nil {
		return "", err
	}
	if ProjectConsentStates(events).Get(provider) == domain.ConsentStateNone {
		return domain.ConsentStateNone, nil
	}
	return domain.ConsentStateRevoked, nil
}

// History reads the patient's consent events and projects the state per provider
func (s *service) History(ctx context.Context, patient string, sinceBlock *uint64) (*History, error) {
	patient, err := domain.ParseAddress(patient)
	if err != nil {
		return nil, err
	}

	head, err := s.ledger.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}

	var fromBlock uint64
	if sinceBlock != nil {
		fromBlock = *sinceBlock
	} else {
		fromBlock = block.WindowStartFrom(head, s.config.WindowBlocks)
	}

	events, err := s.ledger.FilterConsentEvents(ctx, ethereum.EventFilter{
		PatientAddress: patient,
		FromBlock:      fromBlock,
		ToBlock:        &head,
	})
	if err != nil {
		return nil, err
	}

	states := ProjectConsentStates(events)
	sortNewestFirst(events)

	return &History{
		PatientAddress: patient,
		FromBlock:      fromBlock,
		ToBlock:        head,
		Events:         events,
		States:         states,
	}, nil
}

// ProjectConsentStates replays consent events into the current state per provider.
// The latest event by ledger position wins, so repeated identical operations collapse.
func ProjectConsentStates(events []domain.ConsentEvent) Projection {
	ordered := make([]domain.ConsentEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position().Before(ordered[j].Position())
	})

	states := make(Projection)
	for _, e := range ordered {
		states[domain.NormalizeAddress(e.ProviderAddress)] = e.Type.StateAfter()
	}
	return states
}

// Projection maps provider addresses to their consent state
type Projection map[string]domain.ConsentState

// Get returns the state of provider, NONE when it has no events
func (p Projection) Get(provider string) domain.ConsentState {
	if state, ok := p[domain.NormalizeAddress(provider)]; ok {
		return state
	}
	return domain.ConsentStateNone
}

func sortNewestFirst(events []domain.ConsentEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[j].Position().Before(events[i].Position())
	})
}
