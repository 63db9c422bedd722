package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/consent-ledger/internal/api/middleware"
	"github.com/feral-file/consent-ledger/internal/api/shared/dto"
	"github.com/feral-file/consent-ledger/internal/api/shared/executor"
	"github.com/feral-file/consent-ledger/internal/domain"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// GetChallenge returns the wallet binding challenge of the session user
	// GET /api/v1/wallets/challenge
	GetChallenge(c *gin.Context)

	// LinkWallet binds a wallet to the session user
	// POST /api/v1/wallets/link
	LinkWallet(c *gin.Context)

	// GetWallets returns the active wallet and link history of the session user
	// GET /api/v1/wallets
	GetWallets(c *gin.Context)

	// PrepareConsent builds an unsigned consent transaction for a browser wallet
	// POST /api/v1/consents/prepare
	PrepareConsent(c *gin.Context)

	// SubmitConsent submits a GRANT or REVOKE
	// POST /api/v1/consents
	SubmitConsent(c *gin.Context)

	// GetConsentTransaction returns the state of a consent transaction
	// GET /api/v1/consents/transactions/:tx_hash?wait=<bool>
	GetConsentTransaction(c *gin.Context)

	// GetConsentState returns the consent of a pair
	// GET /api/v1/consents/:provider_address?patient_address=<address>
	GetConsentState(c *gin.Context)

	// GetConsentHistory returns the consent events of the session patient, newest first
	// GET /api/v1/consents?since_block=<block>
	GetConsentHistory(c *gin.Context)

	// Authorize checks a provider's read of a protected record
	// POST /api/v1/authorize
	Authorize(c *gin.Context)

	// ListAccessLogs returns the audit trail of the session patient, newest first
	// GET /api/v1/access-logs?since_block=<block>
	ListAccessLogs(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(exec executor.Executor) Handler {
	return &handler{
		executor: exec,
	}
}

// GetChallenge returns the wallet binding challenge of the session user
func (h *handler) GetChallenge(c *gin.Context) {
	resp, err := h.executor.Challenge(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err, "Failed to create challenge")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LinkWallet binds a wallet to the session user
func (h *handler) LinkWallet(c *gin.Context) {
	var req dto.LinkWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	resp, err := h.executor.LinkWallet(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		respondError(c, err, "Failed to link wallet")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetWallets returns the active wallet and link history of the session user
func (h *handler) GetWallets(c *gin.Context) {
	resp, err := h.executor.GetWallets(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err, "Failed to get wallets")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PrepareConsent builds an unsigned consent transaction for a browser wallet
func (h *handler) PrepareConsent(c *gin.Context) {
	var req dto.PrepareConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	resp, err := h.executor.PrepareConsent(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		respondError(c, err, "Failed to prepare consent transaction")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitConsent submits a GRANT or REVOKE
func (h *handler) SubmitConsent(c *gin.Context) {
	var req dto.SubmitConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	result, err := h.executor.SubmitConsent(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		respondError(c, err, "Failed to submit consent operation")
		return
	}
	c.JSON(transactionStatusCode(result), result)
}

// GetConsentTransaction returns the state of a consent transaction
func (h *handler) GetConsentTransaction(c *gin.Context) {
	txHash := c.Param("tx_hash")
	if txHash == "" {
		respondBadRequest(c, "Transaction hash is required")
		return
	}
	params, err := ParseTransactionQuery(c)
	if err != nil {
		respondError(c, err, "Invalid query")
		return
	}

	result, err := h.executor.GetConsentTransaction(c.Request.Context(), txHash, params.Wait)
	if err != nil {
		respondError(c, err, "Failed to get consent transaction")
		return
	}
	c.JSON(transactionStatusCode(result), result)
}

// transactionStatusCode serves undecided transactions as accepted
func transactionStatusCode(result *domain.ConsentTransactionResult) int {
	if result.Status.Terminal() {
		return http.StatusOK
	}
	return http.StatusAccepted
}

// GetConsentState returns the consent of a pair
func (h *handler) GetConsentState(c *gin.Context) {
	var params ConsentStateQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "Invalid query", err.Error())
		return
	}

	resp, err := h.executor.GetConsentState(c.Request.Context(), middleware.GetSession(c),
		params.PatientAddress, c.Param("provider_address"))
	if err != nil {
		respondError(c, err, "Failed to query consent")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetConsentHistory returns the consent events of the session patient
func (h *handler) GetConsentHistory(c *gin.Context) {
	params, err := ParseBlockWindowQuery(c)
	if err != nil {
		respondError(c, err, "Invalid query")
		return
	}

	resp, err := h.executor.GetConsentHistory(c.Request.Context(), middleware.GetSession(c), params.SinceBlock)
	if err != nil {
		respondError(c, err, "Failed to get consent history")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Authorize checks a provider's read of a protected record.
// Deny is always 403 access_denied, whatever the reason; a ledger outage is 503.
func (h *handler) Authorize(c *gin.Context) {
	var req dto.AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	decision, err := h.executor.Authorize(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		respondError(c, err, "Failed to authorize access")
		return
	}
	c.JSON(http.StatusOK, decision)
}

// ListAccessLogs returns the audit trail of the session patient.
// An unreachable ledger is reported in the body so the caller can degrade.
func (h *handler) ListAccessLogs(c *gin.Context) {
	params, err := ParseBlockWindowQuery(c)
	if err != nil {
		respondError(c, err, "Invalid query")
		return
	}

	resp, err := h.executor.ListAccessLogs(c.Request.Context(), middleware.GetSession(c), params.SinceBlock)
	if err != nil {
		respondError(c, err, "Failed to list access logs")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "consent-ledger-api",
	})
}
