package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/consent-ledger/internal/api/middleware"
	"github.com/feral-file/consent-ledger/internal/metrics"
	"github.com/feral-file/consent-ledger/internal/mocks"
)

func TestServer_Router(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := metrics.New("consent_ledger_api")
	srv := New(Config{Auth: middleware.AuthConfig{APIKeys: []string{"k"}}},
		mocks.NewMockAPIExecutor(ctrl), mocks.NewMockBinder(ctrl), m)
	router := srv.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "consent_ledger_http_requests_total")
}
