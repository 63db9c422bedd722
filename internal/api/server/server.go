package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/consent-ledger/internal/api/middleware"
	"github.com/feral-file/consent-ledger/internal/api/rest"
	"github.com/feral-file/consent-ledger/internal/api/shared/executor"
	"github.com/feral-file/consent-ledger/internal/identity"
	"github.com/feral-file/consent-ledger/internal/logger"
	"github.com/feral-file/consent-ledger/internal/metrics"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
	Auth         middleware.AuthConfig
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	executor   executor.Executor
	binder     identity.Binder
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, exec executor.Executor, binder identity.Binder, m *metrics.Metrics) *Server {
	return &Server{
		config:   cfg,
		executor: exec,
		binder:   binder,
		metrics:  m,
	}
}

// Router builds the gin engine with every route and middleware mounted
func (s *Server) Router() *gin.Engine {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(s.metrics))
	router.Use(middleware.SetupCORS(s.config.CORSOrigins))

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Setup REST routes
	rest.SetupRoutes(router, rest.NewHandler(s.executor), s.config.Auth, s.binder)

	return router
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
