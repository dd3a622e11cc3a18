package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/fundlock/escrow-ledger/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes (every ledger operation takes a caller identity)
	v1 := router.Group("/api/v1", middleware.Auth(authCfg))
	{
		// Investment lifecycle
		v1.POST("/investments", handler.CreateInvestment)
		v1.GET("/investments", handler.ListInvestments)
		v1.GET("/investments/:id", handler.GetInvestment)
		v1.POST("/investments/:id/fund", handler.FundInvestment)
		v1.POST("/investments/:id/repay", handler.RepayInvestment)
		v1.POST("/investments/:id/pause", handler.PauseInvestment)
		v1.POST("/investments/:id/resume", handler.ResumeInvestment)
		v1.POST("/investments/:id/extend", handler.ExtendDeadline)
		v1.POST("/investments/:id/cancel", handler.CancelInvestment)
		v1.POST("/investments/:id/withdraw", handler.WithdrawInvestment)

		// Balances
		v1.GET("/balance", handler.GetBalance)

		// Dispute side-channel
		v1.POST("/disputes", handler.RaiseDispute)
		v1.POST("/disputes/resolve", handler.ResolveDispute)

		// Administrator operations (admin check happens in the services)
		v1.POST("/admin/suspend", handler.SuspendLedger)
		v1.POST("/admin/resume", handler.ResumeLedger)
		v1.POST("/admin/emergency/announce", handler.AnnounceRecovery)
		v1.POST("/admin/emergency/execute", handler.ExecuteRecovery)
	}
}
