package rest

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fundlock/escrow-ledger/internal/api/middleware"
	"github.com/fundlock/escrow-ledger/internal/api/shared/dto"
	"github.com/fundlock/escrow-ledger/internal/dispute"
	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/ledger"
	"github.com/fundlock/escrow-ledger/internal/recovery"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// CreateInvestment opens a new investment
	// POST /api/v1/investments
	CreateInvestment(c *gin.Context)

	// GetInvestment retrieves a single investment by id
	// GET /api/v1/investments/:id
	GetInvestment(c *gin.Context)

	// ListInvestments retrieves investments created by an account
	// GET /api/v1/investments?funder=<account>
	ListInvestments(c *gin.Context)

	// FundInvestment attaches the matching value to an open investment
	// POST /api/v1/investments/:id/fund
	FundInvestment(c *gin.Context)

	// RepayInvestment settles a funded investment
	// POST /api/v1/investments/:id/repay
	RepayInvestment(c *gin.Context)

	// PauseInvestment deactivates an investment
	// POST /api/v1/investments/:id/pause
	PauseInvestment(c *gin.Context)

	// ResumeInvestment reactivates an investment
	// POST /api/v1/investments/:id/resume
	ResumeInvestment(c *gin.Context)

	// ExtendDeadline pushes the deadline out (recipient only)
	// POST /api/v1/investments/:id/extend
	ExtendDeadline(c *gin.Context)

	// CancelInvestment closes an unfunded investment and refunds collateral
	// POST /api/v1/investments/:id/cancel
	CancelInvestment(c *gin.Context)

	// WithdrawInvestment pulls the collateral out of a paused investment
	// POST /api/v1/investments/:id/withdraw
	WithdrawInvestment(c *gin.Context)

	// GetBalance reports the total custodied balance, or one account's balance
	// GET /api/v1/balance[?account=<account>]
	GetBalance(c *gin.Context)

	// RaiseDispute attaches a dispute to an investment
	// POST /api/v1/disputes
	RaiseDispute(c *gin.Context)

	// ResolveDispute closes a dispute with resolution text (admin only)
	// POST /api/v1/disputes/resolve
	ResolveDispute(c *gin.Context)

	// SuspendLedger pauses all state-changing operations (admin only)
	// POST /api/v1/admin/suspend
	SuspendLedger(c *gin.Context)

	// ResumeLedger lifts the global suspension (admin only)
	// POST /api/v1/admin/resume
	ResumeLedger(c *gin.Context)

	// AnnounceRecovery opens the emergency withdrawal notice period (admin only)
	// POST /api/v1/admin/emergency/announce
	AnnounceRecovery(c *gin.Context)

	// ExecuteRecovery drains custody to the administrator (admin only)
	// POST /api/v1/admin/emergency/execute
	ExecuteRecovery(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	ledger   *ledger.Service
	disputes *dispute.Service
	recovery *recovery.Governor
}

// NewHandler creates a new REST API handler
func NewHandler(l *ledger.Service, d *dispute.Service, r *recovery.Governor) Handler {
	return &handler{
		ledger:   l,
		disputes: d,
		recovery: r,
	}
}

// investmentID parses the :id path parameter
func investmentID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid investment id")
		return 0, false
	}
	return id, true
}

// CreateInvestment opens a new investment
func (h *handler) CreateInvestment(c *gin.Context) {
	var req dto.CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	period, err := time.ParseDuration(req.FundingPeriod)
	if err != nil {
		respondValidationError(c, "funding_period must be a duration string")
		return
	}

	inv, err := h.ledger.Create(c.Request.Context(), middleware.Caller(c), ledger.CreateParams{
		Amount:        req.Amount,
		EquityPercent: req.EquityPercent,
		Valuation:     req.Valuation,
		Title:         req.Title,
		Detail:        req.Detail,
		FundingPeriod: period,
		Attached:      req.AttachedValue,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondCreated(c, dto.NewInvestmentResponse(inv))
}

// GetInvestment retrieves a single investment by id
func (h *handler) GetInvestment(c *gin.Context) {
	id, ok := investmentID(c)
	if !ok {
		return
	}

	inv, err := h.ledger.GetInvestment(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.NewInvestmentResponse(inv))
}

// ListInvestments retrieves investments created by an account
func (h *handler) ListInvestments(c *gin.Context) {
	funder := domain.AccountID(c.Query("funder"))
	if funder == "" {
		funder = middleware.Caller(c)
	}
	if !funder.Valid() {
		respondBadRequest(c, "Invalid funder account")
		return
	}

	investments, err := h.ledger.ListInvestments(c.Request.Context(), funder)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resp := dto.InvestmentListResponse{
		Investments: make([]dto.InvestmentResponse, 0, len(investments)),
	}
	for _, inv := range investments {
		resp.Investments = append(resp.Investments, dto.NewInvestmentResponse(inv))
	}
	respondOK(c, resp)
}

// FundInvestment attaches the matching value to an open investment
func (h *handler) FundInvestment(c *gin.Context) {
	id, ok := investmentID(c)
	if !ok {
		return
	}

	var req dto.FundInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.ledger.Fund(c.Request.Context(), middleware.Caller(c), id, req.AttachedValue); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "funded"})
}

// RepayInvestment settles a funded investment
func (h *handler) RepayInvestment(c *gin.Context) {
	id, ok := investmentID(c)
	if !ok {
		return
	}

	var req dto.RepayInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.ledger.Repay(c.Request.Context(), middleware.Caller(c), id, req.AttachedValue); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "repaid"})
}

// PauseInvestment deactivates an investment
func (h *handler) PauseInvestment(c *gin.Context) {
	id, ok := investmentID(c)
	if !ok {
		return
	}

	if err := h.ledger.SetActive(c.Request.Context(), middleware.Caller(c), id, false); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "paused"})
}

// ResumeInvestment reactivates an investment
func (h *handler) ResumeInvestment(c *gin.Context) {
	id, ok := investmentID(c)
	if !ok {
		return
	}

	if err := h.ledger.SetActive(c.Request.Context(), middleware.Caller(c), id, true); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "resumed"})
}

// ExtendDeadline pushes the deadline out (recipient only)
func (h *handler) ExtendDeadline(c *gin.Context) {
	id, ok := investmentID(c)
	if !ok {
		return
	}

	var req dto.ExtendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	extension, err := time.ParseDuration(req.Extension)
	if err != nil {
		respondValidationError(c, "extension must be a duration string")
		return
	}

	if err := h.ledger.ExtendDeadline(c.Request.Context(), middleware.Caller(c), id, extension); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "extended"})
}

// CancelInvestment closes an unfunded investment and refunds collateral
func (h *handler) CancelInvestment(c *gin.Context) {
	id, ok := investmentID(c)
	if !ok {
		return
	}

	if err := h.ledger.Cancel(c.Request.Context(), middleware.Caller(c), id); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "cancelled"})
}

// WithdrawInvestment pulls the collateral out of a paused investment
func (h *handler) WithdrawInvestment(c *gin.Context) {
	id, ok := investmentID(c)
	if !ok {
		return
	}

	if err := h.ledger.Withdraw(c.Request.Context(), middleware.Caller(c), id); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "withdrawn"})
}

// GetBalance reports the total value held in custody, or a single account's
// balance when ?account= is supplied
func (h *handler) GetBalance(c *gin.Context) {
	if account := domain.AccountID(c.Query("account")); account != "" {
		balance, err := h.ledger.Balance(c.Request.Context(), account)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		respondOK(c, dto.BalanceResponse{
			Account: string(account),
			Balance: balance,
		})
		return
	}

	balance, err := h.ledger.CustodyBalance(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, dto.BalanceResponse{
		Account: string(domain.CustodyAccount),
		Balance: balance,
	})
}

// RaiseDispute attaches a dispute to an investment
func (h *handler) RaiseDispute(c *gin.Context) {
	var req dto.RaiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	d, err := h.disputes.Raise(c.Request.Context(), middleware.Caller(c), req.InvestmentID, req.Reason)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondCreated(c, dto.NewDisputeResponse(d))
}

// ResolveDispute closes a dispute with resolution text (admin only)
func (h *handler) ResolveDispute(c *gin.Context) {
	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.disputes.Resolve(c.Request.Context(), middleware.Caller(c), req.InvestmentID, req.Resolution); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "resolved"})
}

// SuspendLedger pauses all state-changing operations (admin only)
func (h *handler) SuspendLedger(c *gin.Context) {
	if err := h.ledger.SetLedgerPaused(c.Request.Context(), middleware.Caller(c), true); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "suspended"})
}

// ResumeLedger lifts the global suspension (admin only)
func (h *handler) ResumeLedger(c *gin.Context) {
	if err := h.ledger.SetLedgerPaused(c.Request.Context(), middleware.Caller(c), false); err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.StatusResponse{Status: "resumed"})
}

// AnnounceRecovery opens the emergency withdrawal notice period (admin only)
func (h *handler) AnnounceRecovery(c *gin.Context) {
	executeAfter, err := h.recovery.Announce(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.AnnounceRecoveryResponse{ExecuteAfter: executeAfter})
}

// ExecuteRecovery drains custody to the administrator (admin only)
func (h *handler) ExecuteRecovery(c *gin.Context) {
	drained, err := h.recovery.Execute(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondOK(c, dto.ExecuteRecoveryResponse{Drained: drained})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	respondOK(c, dto.HealthResponse{Status: "ok"})
}
