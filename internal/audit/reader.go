package audit

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/block"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/providers/ethereum"
)

// ReadStatus tells a caller whether the access log could be read
type ReadStatus string

const (
	ReadStatusOK          ReadStatus = "ok"
	ReadStatusUnavailable ReadStatus = "unavailable"
)

// AccessLog is a window of a patient's audit stream
type AccessLog struct {
	PatientAddress string     `json:"patient_address"`
	FromBlock      uint64     `json:"from_block"`
	ToBlock        uint64     `json:"to_block"`
	Status         ReadStatus `json:"status"`
	// Events are newest first
	Events []domain.AccessEvent `json:"events"`
}

// Reader lists the access events of a patient from the ledger
//
//go:generate mockgen -source=reader.go -destination=../mocks/audit_reader.go -package=mocks -mock_names=Reader=MockAuditReader
type Reader interface {
	// ListAccess returns the patient's access events since sinceBlock, or over the
	// default window when nil. An unreachable ledger yields an empty log with
	// status unavailable instead of an error.
	ListAccess(ctx context.Context, patient string, sinceBlock *uint64) (*AccessLog, error)
}

type reader struct {
	ledger       ethereum.Client
	windowBlocks uint64
}

// NewReader creates an access log reader scanning windowBlocks recent blocks by default
func NewReader(ledger ethereum.Client, windowBlocks uint64) Reader {
	if windowBlocks == 0 {
		windowBlocks = domain.DEFAULT_AUDIT_WINDOW_BLOCKS
	}
	return &reader{ledger: ledger, windowBlocks: windowBlocks}
}

func (r *reader) ListAccess(ctx context.Context, patient string, sinceBlock *uint64) (*AccessLog, error) {
	patient, err := domain.ParseAddress(patient)
	if err != nil {
		return nil, err
	}

	log := &AccessLog{
		PatientAddress: patient,
		Status:         ReadStatusOK,
		Events:         []domain.AccessEvent{},
	}
	if sinceBlock != nil {
		log.FromBlock = *sinceBlock
	}

	head, err := r.ledger.LatestBlock(ctx)
	if err != nil {
		return r.unavailable(ctx, log, err)
	}
	log.ToBlock = head
	if sinceBlock == nil {
		log.FromBlock = block.WindowStartFrom(head, r.windowBlocks)
	}
	if log.FromBlock > head {
		return log, nil
	}

	events, err := r.ledger.FilterAccessEvents(ctx, ethereum.EventFilter{
		PatientAddress: patient,
		FromBlock:      log.FromBlock,
		ToBlock:        &head,
	})
	if err != nil {
		return r.unavailable(ctx, log, err)
	}

	// ties inside a block are broken by log index, never by retrieval order
	sort.SliceStable(events, func(i, j int) bool {
		return events[j].Position().Before(events[i].Position())
	})
	log.Events = events

	return log, nil
}

func (r *reader) unavailable(ctx context.Context, log *AccessLog, err error) (*AccessLog, error) {
	if !errors.Is(err, domain.ErrNetworkUnavailable) {
		return nil, err
	}
	logger.WarnCtx(ctx, "Ledger unavailable while reading access log",
		zap.String("patient", log.PatientAddress),
		zap.Error(err))
	log.Status = ReadStatusUnavailable
	log.Events = []domain.AccessEvent{}
	return log, nil
}
