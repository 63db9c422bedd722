package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/api/middleware"
	"github.com/feral-file/consent-ledger/internal/api/shared/dto"
	apierrors "github.com/feral-file/consent-ledger/internal/api/shared/errors"
	"github.com/feral-file/consent-ledger/internal/audit"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/gate"
	"github.com/feral-file/consent-ledger/internal/mocks"
)

const (
	patientWallet  = "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"
	providerWallet = "0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0"
)

var patientSession = domain.Session{UserID: "user-1", Role: domain.RolePatient, WalletAddress: patientWallet}

// withSession stands in for the Auth and Session middlewares
func withSession(session domain.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(middleware.SESSION_KEY), session)
		c.Next()
	}
}

func setupHandler(t *testing.T, session domain.Session) (*gin.Engine, *mocks.MockAPIExecutor) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockAPIExecutor(ctrl)
	h := NewHandler(exec)

	router := gin.New()
	v1 := router.Group("/api/v1", withSession(session))
	v1.GET("/wallets/challenge", h.GetChallenge)
	v1.POST("/wallets/link", h.LinkWallet)
	v1.POST("/consents", h.SubmitConsent)
	v1.GET("/consents", h.GetConsentHistory)
	v1.GET("/consents/transactions/:tx_hash", h.GetConsentTransaction)
	v1.GET("/consents/:provider_address", h.GetConsentState)
	v1.POST("/authorize", h.Authorize)
	v1.GET("/access-logs", h.ListAccessLogs)
	router.GET("/health", h.HealthCheck)
	return router, exec
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHandler_HealthCheck(t *testing.T) {
	router, _ := setupHandler(t, patientSession)

	w := serve(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHandler_GetChallenge(t *testing.T) {
	router, exec := setupHandler(t, patientSession)
	exec.EXPECT().Challenge(gomock.Any(), patientSession).
		Return(&dto.ChallengeResponse{UserID: "user-1", Challenge: "bind user-1"}, nil)

	w := serve(router, http.MethodGet, "/api/v1/wallets/challenge", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"user-1","challenge":"bind user-1"}`, w.Body.String())
}

func TestHandler_LinkWallet(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		router, _ := setupHandler(t, patientSession)
		w := serve(router, http.MethodPost, "/api/v1/wallets/link", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.ErrCodeBadRequest, decodeError(t, w).Code)
	})

	t.Run("invalid address", func(t *testing.T) {
		router, _ := setupHandler(t, patientSession)
		w := serve(router, http.MethodPost, "/api/v1/wallets/link",
			`{"wallet_address":"nope","challenge":"c","signature":"s"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, apierrors.ErrCodeValidationFailed, decodeError(t, w).Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		router, exec := setupHandler(t, patientSession)
		exec.EXPECT().LinkWallet(gomock.Any(), patientSession, gomock.Any()).
			Return(nil, apierrors.FromDomainError(domain.ErrInvalidSignature, "Failed to link wallet"))

		w := serve(router, http.MethodPost, "/api/v1/wallets/link",
			`{"wallet_address":"`+patientWallet+`","challenge":"c","signature":"0x00"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.ErrCodeInvalidSignature, decodeError(t, w).Code)
	})

	t.Run("linked", func(t *testing.T) {
		router, exec := setupHandler(t, patientSession)
		exec.EXPECT().LinkWallet(gomock.Any(), patientSession, dto.LinkWalletRequest{
			WalletAddress: patientWallet, Challenge: "c", Signature: "0x01",
		}).Return(&dto.WalletLinkResponse{UserID: "user-1", WalletAddress: patientWallet, Active: true}, nil)

		w := serve(router, http.MethodPost, "/api/v1/wallets/link",
			`{"wallet_address":"`+patientWallet+`","challenge":"c","signature":"0x01"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"active":true`)
	})
}

func TestHandler_SubmitConsent(t *testing.T) {
	body := `{"operation":"GRANT","provider_address":"` + providerWallet + `","wait":true}`

	cases := []struct {
		name   string
		status domain.TxStatus
		code   int
	}{
		{"confirmed", domain.TxStatusConfirmed, http.StatusOK},
		{"pending", domain.TxStatusPending, http.StatusAccepted},
		{"stale", domain.TxStatusStale, http.StatusAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, exec := setupHandler(t, patientSession)
			exec.EXPECT().SubmitConsent(gomock.Any(), patientSession, dto.SubmitConsentRequest{
				Operation: "GRANT", ProviderAddress: providerWallet, Wait: true,
			}).Return(&domain.ConsentTransactionResult{
				Operation: domain.ConsentOperationGrant, TxHash: "0xabc", Status: tc.status,
			}, nil)

			w := serve(router, http.MethodPost, "/api/v1/consents", body)
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"`+string(tc.status)+`"`)
		})
	}

	t.Run("reverted", func(t *testing.T) {
		router, exec := setupHandler(t, patientSession)
		exec.EXPECT().SubmitConsent(gomock.Any(), patientSession, gomock.Any()).
			Return(nil, apierrors.FromDomainError(domain.ErrTransactionReverted, "Failed to submit consent operation"))

		w := serve(router, http.MethodPost, "/api/v1/consents", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, apierrors.ErrCodeTransactionReverted, decodeError(t, w).Code)
	})

	t.Run("unexpected error is hidden", func(t *testing.T) {
		router, exec := setupHandler(t, patientSession)
		exec.EXPECT().SubmitConsent(gomock.Any(), patientSession, gomock.Any()).Return(nil, assert.AnError)

		w := serve(router, http.MethodPost, "/api/v1/consents", body)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	})
}

func TestHandler_GetConsentTransaction(t *testing.T) {
	router, exec := setupHandler(t, patientSession)
	exec.EXPECT().GetConsentTransaction(gomock.Any(), "0xabc", true).
		Return(&domain.ConsentTransactionResult{TxHash: "0xabc", Status: domain.TxStatusReverted, Reason: "execution reverted"}, nil)
	exec.EXPECT().GetConsentTransaction(gomock.Any(), "0xdef", false).
		Return(&domain.ConsentTransactionResult{TxHash: "0xdef", Status: domain.TxStatusPending}, nil)

	w := serve(router, http.MethodGet, "/api/v1/consents/transactions/0xabc?wait=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"REVERTED"`)

	w = serve(router, http.MethodGet, "/api/v1/consents/transactions/0xdef", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/consents/transactions/0xdef?wait=maybe", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_GetConsentState(t *testing.T) {
	router, exec := setupHandler(t, patientSession)
	exec.EXPECT().GetConsentState(gomock.Any(), patientSession, "", providerWallet).
		Return(&dto.ConsentStateResponse{
			PatientAddress: patientWallet, ProviderAddress: providerWallet, State: domain.ConsentStateActive,
		}, nil)

	w := serve(router, http.MethodGet, "/api/v1/consents/"+providerWallet, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"ACTIVE"`)
}

func TestHandler_GetConsentHistory(t *testing.T) {
	router, exec := setupHandler(t, patientSession)
	exec.EXPECT().GetConsentHistory(gomock.Any(), patientSession, gomock.Any()).
		DoAndReturn(func(_ any, _ domain.Session, since *uint64) (any, error) {
			require.NotNil(t, since)
			assert.Equal(t, uint64(120), *since)
			return nil, apierrors.NewLedgerUnavailableError()
		})

	w := serve(router, http.MethodGet, "/api/v1/consents?since_block=120", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/consents?since_block=-1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandler_Authorize(t *testing.T) {
	service := domain.Session{UserID: middleware.API_KEY_SUBJECT, Role: domain.RoleService}
	body := `{"patient_address":"` + patientWallet + `","requester_address":"` + providerWallet + `","resource_id":"rec-7"}`

	t.Run("allow", func(t *testing.T) {
		router, exec := setupHandler(t, service)
		exec.EXPECT().Authorize(gomock.Any(), service, dto.AuthorizeRequest{
			PatientAddress: patientWallet, RequesterAddress: providerWallet, ResourceID: "rec-7",
		}).Return(&gate.Decision{Outcome: gate.OutcomeAllow, ResourceID: "rec-7", AuditEntryID: "01J"}, nil)

		w := serve(router, http.MethodPost, "/api/v1/authorize", body)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"decision":"allow"`)
	})

	t.Run("deny reveals nothing", func(t *testing.T) {
		router, exec := setupHandler(t, service)
		exec.EXPECT().Authorize(gomock.Any(), service, gomock.Any()).
			Return(nil, apierrors.FromDomainError(domain.ErrAccessDenied, "Failed to authorize access"))

		w := serve(router, http.MethodPost, "/api/v1/authorize", body)
		assert.Equal(t, http.StatusForbidden, w.Code)
		apiErr := decodeError(t, w)
		assert.Equal(t, apierrors.ErrCodeAccessDenied, apiErr.Code)
		assert.Empty(t, apiErr.Details)
	})

	t.Run("ledger down", func(t *testing.T) {
		router, exec := setupHandler(t, service)
		exec.EXPECT().Authorize(gomock.Any(), service, gomock.Any()).
			Return(nil, apierrors.FromDomainError(domain.ErrNetworkUnavailable, "Failed to authorize access"))

		w := serve(router, http.MethodPost, "/api/v1/authorize", body)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, apierrors.ErrCodeLedgerUnavailable, decodeError(t, w).Code)
	})
}

func TestHandler_ListAccessLogs(t *testing.T) {
	router, exec := setupHandler(t, patientSession)
	exec.EXPECT().ListAccessLogs(gomock.Any(), patientSession, (*uint64)(nil)).
		Return(&audit.AccessLog{PatientAddress: patientWallet, Status: audit.ReadStatusUnavailable}, nil)

	w := serve(router, http.MethodGet, "/api/v1/access-logs", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"`+string(audit.ReadStatusUnavailable)+`"`)
}

func TestSetupRoutes_Roles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockAPIHandler(ctrl)
	binder := mocks.NewMockBinder(ctrl)

	router := gin.New()
	SetupRoutes(router, handler, middleware.AuthConfig{APIKeys: []string{"records-service-key"}}, binder)

	binder.EXPECT().ResolveSession(gomock.Any(), middleware.API_KEY_SUBJECT, domain.RoleService).
		Return(domain.Session{UserID: middleware.API_KEY_SUBJECT, Role: domain.RoleService}, nil).Times(2)
	handler.EXPECT().Authorize(gomock.Any()).Do(func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/authorize", strings.NewReader("{}"))
	req.Header.Set("Authorization", "ApiKey records-service-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// a service session cannot write consent
	req = httptest.NewRequest(http.MethodPost, "/api/v1/consents", strings.NewReader("{}"))
	req.Header.Set("Authorization", "ApiKey records-service-key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// no credentials
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/access-logs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
