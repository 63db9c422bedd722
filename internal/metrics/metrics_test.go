package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New("test")

	m.RecordGateDecision("allow")
	m.RecordGateDecision("allow")
	m.RecordGateDecision("deny")
	m.RecordConsentTransaction("GRANT", "CONFIRMED")
	m.RecordAuditDelivery("sent")
	m.SetAuditOutboxEntries("pending", 3)
	m.RecordRelayPublished("ledger.access.logged")
	m.RecordLedgerCall("consentState", nil, 10*time.Millisecond)
	m.RecordLedgerCall("consentState", errors.New("boom"), 10*time.Millisecond)
	m.RecordHTTPRequest(http.MethodPost, "/api/v1/authorize", http.StatusOK, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gateDecisionsTotal.WithLabelValues("allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateDecisionsTotal.WithLabelValues("deny")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.consentTxTotal.WithLabelValues("GRANT", "CONFIRMED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auditDeliveryTotal.WithLabelValues("sent")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.auditOutboxEntries.WithLabelValues("pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.relayPublishedTotal.WithLabelValues("ledger.access.logged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/authorize", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("test")
	m.RecordGateDecision("deny")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `consent_ledger_gate_decisions_total{decision="deny",service="test"} 1`)
}

func TestMetrics_NewServer(t *testing.T) {
	m := New("audit-sweeper")
	m.RecordAuditDelivery("confirmed")
	srv := m.NewServer(":0")

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "consent_ledger_audit_deliveries_total")

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordGateDecision("allow")
		m.RecordConsentTransaction("GRANT", "PENDING")
		m.RecordAuditDelivery("failed")
		m.SetAuditOutboxEntries("sent", 1)
		m.RecordRelayPublished("x")
		m.RecordLedgerCall("x", nil, time.Second)
		m.RecordHTTPRequest("GET", "/", 200, time.Second)
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}
