package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fundlock/escrow-ledger/internal/adapter"
	"github.com/fundlock/escrow-ledger/internal/api/middleware"
	"github.com/fundlock/escrow-ledger/internal/api/rest"
	"github.com/fundlock/escrow-ledger/internal/audit"
	"github.com/fundlock/escrow-ledger/internal/config"
	"github.com/fundlock/escrow-ledger/internal/dispute"
	"github.com/fundlock/escrow-ledger/internal/ledger"
	"github.com/fundlock/escrow-ledger/internal/logger"
	"github.com/fundlock/escrow-ledger/internal/recovery"
	"github.com/fundlock/escrow-ledger/internal/store"
	"github.com/fundlock/escrow-ledger/internal/transfer"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Auth         middleware.AuthConfig
	Policy       config.PolicyConfig
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	store      store.Store
	recorder   *audit.Recorder
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, store store.Store, recorder *audit.Recorder) *Server {
	return &Server{
		config:   cfg,
		store:    store,
		recorder: recorder,
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	// Wire the services over the shared store
	clock := adapter.NewClock()
	movers := transfer.LedgerFactory()
	ledgerService := ledger.NewService(s.store, clock, s.recorder, movers, s.config.Policy)
	disputeService := dispute.NewService(s.store, clock, s.recorder, s.config.Policy)
	recoveryGovernor := recovery.NewGovernor(s.store, clock, s.recorder, movers, s.config.Policy)

	// Create REST handler and routes
	restHandler := rest.NewHandler(ledgerService, disputeService, recoveryGovernor)
	rest.SetupRoutes(router, restHandler, s.config.Auth)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
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
