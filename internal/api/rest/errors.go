package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/fundlock/escrow-ledger/internal/api/shared/errors"
	"github.com/fundlock/escrow-ledger/internal/domain"
	"github.com/fundlock/escrow-ledger/internal/logger"
)

// respondOK responds with 200 and the payload
func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondCreated responds with 201 and the payload
func respondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(message))
}

// respondDomainError translates a ledger error into the API error envelope
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvestmentNotFound):
		c.JSON(http.StatusNotFound, apierrors.NewNotFoundError("Investment not found"))

	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidEquityPercentage),
		errors.Is(err, domain.ErrInvalidFundingPeriod),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrValueMismatch):
		c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(err.Error()))

	case errors.Is(err, domain.ErrUnauthorizedAccess):
		c.JSON(http.StatusForbidden, apierrors.NewForbiddenError(err.Error()))

	case errors.Is(err, domain.ErrRateLimitReached):
		c.JSON(http.StatusTooManyRequests, apierrors.NewRateLimitedError(err.Error()))

	case errors.Is(err, domain.ErrCoolingPeriodActive),
		errors.Is(err, domain.ErrEmergencyWithdrawalNotReady):
		c.JSON(http.StatusLocked, apierrors.NewLockedError(err.Error()))

	case errors.Is(err, domain.ErrLedgerPaused):
		c.JSON(http.StatusServiceUnavailable, apierrors.NewServiceUnavailableError(err.Error()))

	case errors.Is(err, domain.ErrLedgerNotPaused),
		errors.Is(err, domain.ErrAlreadyFunded),
		errors.Is(err, domain.ErrNotFunded),
		errors.Is(err, domain.ErrAlreadyRepaid),
		errors.Is(err, domain.ErrInvestmentClosed),
		errors.Is(err, domain.ErrAlreadyInState),
		errors.Is(err, domain.ErrInvestmentActive),
		errors.Is(err, domain.ErrInvestmentInactive),
		errors.Is(err, domain.ErrDisputeActive),
		errors.Is(err, domain.ErrNoActiveDispute),
		errors.Is(err, domain.ErrDeadlinePassed),
		errors.Is(err, domain.ErrMaxInvestmentsReached),
		errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, apierrors.NewConflictError(err.Error()))

	default:
		logger.ErrorCtx(c.Request.Context(), err)
		c.JSON(http.StatusInternalServerError, apierrors.NewInternalError("Internal server error"))
	}
}
