package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/mocks"
)

const testWallet = "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"

func generateKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, subject string, role domain.Role, expiresIn time.Duration) string {
	t.Helper()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	key, publicPEM := generateKey(t)
	cfg := AuthConfig{JWTPublicKey: publicPEM, APIKeys: []string{"records-service-key"}}

	t.Run("patient token", func(t *testing.T) {
		result := Authenticate("Bearer "+signToken(t, key, "user-1", domain.RolePatient, time.Hour), cfg)
		require.True(t, result.Success, "%v", result.Error)
		assert.Equal(t, AUTH_TYPE_JWT, result.AuthType)
		assert.Equal(t, "user-1", result.AuthSubject)
		assert.Equal(t, domain.RolePatient, result.Claims.Role)
	})

	t.Run("api key", func(t *testing.T) {
		result := Authenticate("ApiKey records-service-key", cfg)
		require.True(t, result.Success)
		assert.Equal(t, AUTH_TYPE_APIKEY, result.AuthType)
		assert.Equal(t, API_KEY_SUBJECT, result.AuthSubject)
	})

	failures := map[string]string{
		"missing header":   "",
		"malformed header": "Bearer",
		"unknown scheme":   "Basic dXNlcjpwYXNz",
		"wrong api key":    "ApiKey nope",
		"expired token":    "Bearer " + signToken(t, key, "user-1", domain.RolePatient, -time.Minute),
		"service role":     "Bearer " + signToken(t, key, "user-1", domain.RoleService, time.Hour),
		"no subject":       "Bearer " + signToken(t, key, "", domain.RoleProvider, time.Hour),
	}
	for name, header := range failures {
		t.Run(name, func(t *testing.T) {
			result := Authenticate(header, cfg)
			assert.False(t, result.Success)
			assert.Error(t, result.Error)
		})
	}

	t.Run("hmac token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			Role:             domain.RolePatient,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		assert.False(t, Authenticate("Bearer "+token, cfg).Success)
	})

	t.Run("other key", func(t *testing.T) {
		otherKey, _ := generateKey(t)
		assert.False(t, Authenticate("Bearer "+signToken(t, otherKey, "user-1", domain.RolePatient, time.Hour), cfg).Success)
	})
}

func setupRouter(t *testing.T, cfg AuthConfig, binder *mocks.MockBinder, roles ...domain.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Auth(cfg), Session(binder), RequireRole(roles...), func(c *gin.Context) {
		session := GetSession(c)
		c.JSON(http.StatusOK, gin.H{"user_id": session.UserID, "role": session.Role, "wallet": session.WalletAddress})
	})
	return router
}

func TestSessionMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	key, publicPEM := generateKey(t)
	cfg := AuthConfig{JWTPublicKey: publicPEM, APIKeys: []string{"records-service-key"}}
	binder := mocks.NewMockBinder(ctrl)
	router := setupRouter(t, cfg, binder, domain.RolePatient, domain.RoleService)

	t.Run("resolves the bound wallet", func(t *testing.T) {
		binder.EXPECT().ResolveSession(gomock.Any(), "user-1", domain.RolePatient).
			Return(domain.Session{UserID: "user-1", Role: domain.RolePatient, WalletAddress: testWallet}, nil)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, key, "user-1", domain.RolePatient, time.Hour))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"user-1","role":"patient","wallet":"`+testWallet+`"}`, w.Body.String())
	})

	t.Run("api key is a service session", func(t *testing.T) {
		binder.EXPECT().ResolveSession(gomock.Any(), API_KEY_SUBJECT, domain.RoleService).
			Return(domain.Session{UserID: API_KEY_SUBJECT, Role: domain.RoleService}, nil)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "ApiKey records-service-key")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("role not allowed", func(t *testing.T) {
		binder.EXPECT().ResolveSession(gomock.Any(), "user-2", domain.RoleProvider).
			Return(domain.Session{UserID: "user-2", Role: domain.RoleProvider}, nil)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, key, "user-2", domain.RoleProvider, time.Hour))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"forbidden"`)
	})

	t.Run("store failure", func(t *testing.T) {
		binder.EXPECT().ResolveSession(gomock.Any(), "user-1", domain.RolePatient).
			Return(domain.Session{}, assert.AnError)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, key, "user-1", domain.RolePatient, time.Hour))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing Authorization header")
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestSetupCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SetupCORS([]string{"https://records.example.org"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://records.example.org")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://records.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
