package v1

import (
	"errors"
	"net/http"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/budgetflow/backend/internal/bank"
	"github.com/budgetflow/backend/internal/models"
)

type httpError struct {
	Error string `json:"error" example:"An ID specified in the query string was not a valid UUID"`
}

// status returns the appropriate status for a database error
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, auth.ErrMissingRole) {
		return http.StatusForbidden
	}

	if errors.Is(err, models.ErrInvalidState) ||
		errors.Is(err, models.ErrApprovalResolved) ||
		errors.Is(err, models.ErrBudgetViolation) ||
		errors.Is(err, models.ErrPaymentExists) {
		return http.StatusConflict
	}

	if errors.Is(err, bank.ErrGeneration) {
		return http.StatusBadGateway
	}

	return http.StatusBadRequest
}

// Ledger errors
var (
	errKindInvalid = errors.New("the specified ledger entry kind is invalid")
)

// Approval errors
var (
	errActionInvalid = errors.New("the specified decision action is invalid")
)
