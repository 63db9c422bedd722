package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/consent-ledger/internal/api/middleware"
	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/identity"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig, binder identity.Binder) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes, every one of them authenticated
	v1 := router.Group("/api/v1", middleware.Auth(authCfg), middleware.Session(binder))
	{
		users := middleware.RequireRole(domain.RolePatient, domain.RoleProvider)
		patients := middleware.RequireRole(domain.RolePatient)

		// Wallet binding for end users
		v1.GET("/wallets/challenge", users, handler.GetChallenge)
		v1.POST("/wallets/link", users, handler.LinkWallet)
		v1.GET("/wallets", users, handler.GetWallets)

		// Consent writes and the patient's own history
		v1.POST("/consents/prepare", patients, handler.PrepareConsent)
		v1.POST("/consents", patients, handler.SubmitConsent)
		v1.GET("/consents", patients, handler.GetConsentHistory)

		// Consent reads for either side of a pair
		v1.GET("/consents/transactions/:tx_hash", handler.GetConsentTransaction)
		v1.GET("/consents/:provider_address", handler.GetConsentState)

		// Authorization gate for providers and the records service
		v1.POST("/authorize", middleware.RequireRole(domain.RoleProvider, domain.RoleService), handler.Authorize)

		// Audit trail of the patient
		v1.GET("/access-logs", patients, handler.ListAccessLogs)
	}
}
