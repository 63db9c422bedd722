package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "consent_ledger"

// Metrics holds the Prometheus collectors of a service.
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	ledgerCallDuration  *prometheus.HistogramVec
	gateDecisionsTotal  *prometheus.CounterVec
	consentTxTotal      *prometheus.CounterVec
	auditDeliveryTotal  *prometheus.CounterVec
	auditOutboxEntries  *prometheus.GaugeVec
	relayPublishedTotal *prometheus.CounterVec
}

// New creates the collectors and registers them on a dedicated registry
// together with the Go runtime and process collectors
func New(service string) *Metrics {
	constLabels := prometheus.Labels{"service": service}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status_code"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "Duration of HTTP requests in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		ledgerCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "ledger_call_duration_seconds",
			Help:        "Duration of ledger node RPC calls in seconds",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
			ConstLabels: constLabels,
		}, []string{"call", "outcome"}),
		gateDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "gate_decisions_total",
			Help:        "Total number of authorization decisions",
			ConstLabels: constLabels,
		}, []string{"decision"}),
		consentTxTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "consent_transactions_total",
			Help:        "Total number of consent transactions by final observed status",
			ConstLabels: constLabels,
		}, []string{"operation", "status"}),
		auditDeliveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "audit_deliveries_total",
			Help:        "Total number of audit append attempts by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
		auditOutboxEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "audit_outbox_entries",
			Help:        "Number of audit outbox entries by status",
			ConstLabels: constLabels,
		}, []string{"status"}),
		relayPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "relay_published_total",
			Help:        "Total number of ledger events published by subject",
			ConstLabels: constLabels,
		}, []string{"subject"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.ledgerCallDuration,
		m.gateDecisionsTotal,
		m.consentTxTotal,
		m.auditDeliveryTotal,
		m.auditOutboxEntries,
		m.relayPublishedTotal,
	)

	return m
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NewServer returns an HTTP server exposing only /metrics, for binaries without an API
func (m *Metrics) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLedgerCall records the latency of a ledger RPC
func (m *Metrics) RecordLedgerCall(call string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ledgerCallDuration.WithLabelValues(call, outcome).Observe(duration.Seconds())
}

// RecordGateDecision records an allow, deny or error decision
func (m *Metrics) RecordGateDecision(decision string) {
	if m == nil {
		return
	}
	m.gateDecisionsTotal.WithLabelValues(decision).Inc()
}

// RecordConsentTransaction records the status observed for a consent transaction
func (m *Metrics) RecordConsentTransaction(operation, status string) {
	if m == nil {
		return
	}
	m.consentTxTotal.WithLabelValues(operation, status).Inc()
}

// RecordAuditDelivery records the result of an audit append attempt
func (m *Metrics) RecordAuditDelivery(result string) {
	if m == nil {
		return
	}
	m.auditDeliveryTotal.WithLabelValues(result).Inc()
}

// SetAuditOutboxEntries sets the outbox gauge for a status
func (m *Metrics) SetAuditOutboxEntries(status string, count int64) {
	if m == nil {
		return
	}
	m.auditOutboxEntries.WithLabelValues(status).Set(float64(count))
}

// RecordRelayPublished records a published relay message
func (m *Metrics) RecordRelayPublished(subject string) {
	if m == nil {
		return
	}
	m.relayPublishedTotal.WithLabelValues(subject).Inc()
}
