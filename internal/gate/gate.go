package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/adapter"
	"github.com/feral-file/consent-ledger/internal/audit"
	"github.com/feral-file/consent-ledger/internal/consent"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/metrics"
)

// Outcome is the result of an authorization check
type Outcome string

const (
	OutcomeAllow Outcome = "allow"
	OutcomeDeny  Outcome = "deny"
)

// Decision is the gate's answer for one protected read
type Decision struct {
	Outcome          Outcome            `json:"decision"`
	RequestID        string             `json:"request_id"`
	PatientAddress   string             `json:"patient_address"`
	RequesterAddress string             `json:"requester_address"`
	ResourceID       string             `json:"resource_id"`
	ConsentState     domain.ConsentState `json:"consent_state,omitempty"`
	// AuditEntryID is the outbox entry of the access event, empty when the append was not queued
	AuditEntryID string    `json:"audit_entry_id,omitempty"`
	DecidedAt    time.Time `json:"decided_at"`
}

// Allowed reports whether the resource may be released
func (d *Decision) Allowed() bool {
	return d != nil && d.Outcome == OutcomeAllow
}

// Gate decides whether a provider may read a patient's protected resource
//
//go:generate mockgen -source=gate.go -destination=../mocks/gate.go -package=mocks -mock_names=Gate=MockGate
type Gate interface {
	// Authorize queries the ledger for the pair's consent on every call.
	// A Deny comes back with an error matching domain.ErrAccessDenied, or
	// domain.ErrNetworkUnavailable when the ledger could not be asked.
	// On Allow the access event is appended before returning; a failed append
	// is retried out of band and never turns the Allow into a Deny.
	Authorize(ctx context.Context, session domain.Session, req domain.AccessRequest) (*Decision, error)
}

type gate struct {
	consent  consent.Service
	recorder audit.Recorder
	clock    adapter.Clock
	metrics  *metrics.Metrics
}

// NewGate creates an authorization gate
func NewGate(consentService consent.Service, recorder audit.Recorder, clock adapter.Clock, m *metrics.Metrics) Gate {
	return &gate{
		consent:  consentService,
		recorder: recorder,
		clock:    clock,
		metrics:  m,
	}
}

func (g *gate) Authorize(ctx context.Context, session domain.Session, req domain.AccessRequest) (*Decision, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	decision := &Decision{
		Outcome:          OutcomeDeny,
		RequestID:        req.RequestID,
		PatientAddress:   req.PatientAddress,
		RequesterAddress: req.RequesterAddress,
		ResourceID:       req.ResourceID,
		DecidedAt:        g.clock.Now(),
	}

	// a provider may only ask for itself; service callers act for any requester
	if session.Role != domain.RoleService && !domain.SameAddress(session.WalletAddress, req.RequesterAddress) {
		g.metrics.RecordGateDecision("deny")
		logger.InfoCtx(ctx, "Access denied: requester is not the session wallet",
			zap.String("requestID", req.RequestID),
			zap.String("userID", session.UserID),
			zap.String("requester", req.RequesterAddress))
		return decision, domain.ErrAccessDenied
	}

	state, err := g.consent.Query(ctx, req.PatientAddress, req.RequesterAddress)
	if err != nil {
		g.metrics.RecordGateDecision("unavailable")
		logger.WarnCtx(ctx, "Access denied: consent query failed",
			zap.String("requestID", req.RequestID),
			zap.String("patient", req.PatientAddress),
			zap.String("requester", req.RequesterAddress),
			zap.Error(err))
		if errors.Is(err, domain.ErrNetworkUnavailable) {
			return decision, err
		}
		return decision, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}
	decision.ConsentState = state

	if state != domain.ConsentStateActive {
		g.metrics.RecordGateDecision("deny")
		logger.InfoCtx(ctx, "Access denied",
			zap.String("requestID", req.RequestID),
			zap.String("patient", req.PatientAddress),
			zap.String("requester", req.RequesterAddress),
			zap.String("state", string(state)))
		return decision, domain.ErrAccessDenied
	}

	decision.Outcome = OutcomeAllow
	g.metrics.RecordGateDecision("allow")

	entry, err := g.recorder.Record(ctx, audit.AccessRecord{
		RequestID:       req.RequestID,
		PatientAddress:  req.PatientAddress,
		ProviderAddress: req.RequesterAddress,
		ResourceID:      req.ResourceID,
		AuthorizedAt:    decision.DecidedAt,
	})
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record access: %w", err),
			zap.String("requestID", req.RequestID),
			zap.String("patient", req.PatientAddress),
			zap.String("requester", req.RequesterAddress),
			zap.String("resourceID", req.ResourceID))
	}
	if entry != nil {
		decision.AuditEntryID = entry.ID
	}

	logger.InfoCtx(ctx, "Access allowed",
		zap.String("requestID", req.RequestID),
		zap.String("patient", req.PatientAddress),
		zap.String("requester", req.RequesterAddress),
		zap.String("resourceID", req.ResourceID))
	return decision, nil
}
