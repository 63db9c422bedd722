package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/store"
	"github.com/feral-file/consent-ledger/internal/store/schema"
)

// ErrAuditLost is returned when an access record could neither be queued nor appended
var ErrAuditLost = errors.New("audit record could not be queued or appended")

// AccessRecord is one authorized read to be appended to the audit stream
type AccessRecord struct {
	// RequestID identifies the authorized read; retries of the same request share it
	RequestID       string    `json:"request_id"`
	PatientAddress  string    `json:"patient_address"`
	ProviderAddress string    `json:"provider_address"`
	ResourceID      string    `json:"resource_id"`
	AuthorizedAt    time.Time `json:"authorized_at"`
}

// key is the identity of a record; the authorization time is left out so retries collapse
func (r AccessRecord) key() accessKey {
	return accessKey{
		RequestID:       r.RequestID,
		PatientAddress:  r.PatientAddress,
		ProviderAddress: r.ProviderAddress,
		ResourceID:      r.ResourceID,
	}
}

type accessKey struct {
	RequestID       string `json:"request_id"`
	PatientAddress  string `json:"patient_address"`
	ProviderAddress string `json:"provider_address"`
	ResourceID      string `json:"resource_id"`
}

// Recorder queues access records in the outbox and attempts the ledger append right away
//
//go:generate mockgen -source=recorder.go -destination=../mocks/audit_recorder.go -package=mocks -mock_names=Recorder=MockAuditRecorder
type Recorder interface {
	// Record returns once the record is durable in the outbox or on the ledger.
	// A failed append of a queued record is not an error; the sweeper redelivers it.
	// ErrAuditLost is returned when neither happened.
	Record(ctx context.Context, record AccessRecord) (*schema.AuditOutboxEntry, error)
}

type recorder struct {
	store    store.Store
	delivery Delivery
	json     adapter.JSON
	jcs      adapter.JCS
	clock    adapter.Clock
}

// NewRecorder creates a recorder writing to st and appending through delivery
func NewRecorder(st store.Store, delivery Delivery, jsonAdapter adapter.JSON, jcsAdapter adapter.JCS, clock adapter.Clock) Recorder {
	return &recorder{
		store:    st,
		delivery: delivery,
		json:     jsonAdapter,
		jcs:      jcsAdapter,
		clock:    clock,
	}
}

// IdempotencyKey hashes canonical JSON
func IdempotencyKey(canonical []byte) string {
	return crypto.Keccak256Hash(canonical).Hex()
}

func (r *recorder) canonicalize(v any) ([]byte, error) {
	raw, err := r.json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal access record: %w", err)
	}
	canonical, err := r.jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize access record: %w", err)
	}
	return canonical, nil
}

func (r *recorder) Record(ctx context.Context, record AccessRecord) (*schema.AuditOutboxEntry, error) {
	if record.AuthorizedAt.IsZero() {
		record.AuthorizedAt = r.clock.Now()
	}
	record.AuthorizedAt = record.AuthorizedAt.UTC()

	payload, err := r.canonicalize(record)
	if err != nil {
		return nil, err
	}
	key, err := r.canonicalize(record.key())
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	input := store.CreateAuditOutboxEntryInput{
		ID:              ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		IdempotencyKey:  IdempotencyKey(key),
		PatientAddress:  record.PatientAddress,
		ProviderAddress: record.ProviderAddress,
		ResourceID:      record.ResourceID,
		Payload:         payload,
	}

	entry, err := r.store.CreateAuditOutboxEntry(ctx, input)
	if err != nil {
		return r.sendUnqueued(ctx, input, err)
	}
	if entry.Status != schema.AuditOutboxStatusPending || entry.Attempts > 0 {
		// same request recorded before
		return entry, nil
	}

	if err := r.delivery.Send(ctx, entry); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("audit append deferred to outbox: %w", err),
			zap.String("entryID", entry.ID),
			zap.String("requestID", record.RequestID),
			zap.String("patient", record.PatientAddress),
			zap.String("provider", record.ProviderAddress),
			zap.String("resourceID", record.ResourceID))
	}
	return entry, nil
}

// sendUnqueued appends directly when the outbox cannot be written
func (r *recorder) sendUnqueued(ctx context.Context, input store.CreateAuditOutboxEntryInput, storeErr error) (*schema.AuditOutboxEntry, error) {
	entry := &schema.AuditOutboxEntry{
		ID:              input.ID,
		IdempotencyKey:  input.IdempotencyKey,
		PatientAddress:  input.PatientAddress,
		ProviderAddress: input.ProviderAddress,
		ResourceID:      input.ResourceID,
		Payload:         input.Payload,
		Status:          schema.AuditOutboxStatusPending,
	}

	sendErr := r.delivery.Send(ctx, entry)
	if sendErr == nil {
		logger.WarnCtx(ctx, "Audit outbox unavailable, appended without a receipt check",
			zap.String("entryID", entry.ID),
			zap.Error(storeErr))
		return entry, nil
	}

	// the payload in the log is the last copy of the record
	logger.ErrorCtx(ctx, ErrAuditLost,
		zap.String("entryID", entry.ID),
		zap.ByteString("payload", input.Payload),
		zap.NamedError("storeError", storeErr),
		zap.NamedError("sendError", sendErr))
	return nil, fmt.Errorf("%w: %v", ErrAuditLost, storeErr)
}
