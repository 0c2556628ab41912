package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")

	// ErrInvalidState is wrapped by all state machine transitions that are
	// not legal in the current state.
	ErrInvalidState = errors.New("this action is not possible")

	// ErrBudgetViolation hard-fails a reallocation below the spent amount.
	// Note that approving a quotation beyond the remaining budget is not an
	// error, see Commit.
	ErrBudgetViolation = errors.New("the allocation cannot be reduced below the amount already spent")

	ErrLedgerEntryImmutable = errors.New("ledger entries cannot be changed, record a corrective adjustment instead")
	ErrAmountNotPositive    = errors.New("the amount must be positive")
	ErrKindNotCommittable   = errors.New("entries of this kind are recorded by reallocation, not by commit")
	ErrCurrencyInvalid      = errors.New("the currency must be a valid ISO 4217 code")
	ErrAllocationUnchanged  = errors.New("the new allocation equals the current allocation")

	ErrQuotationEmpty          = errors.New("a quotation needs at least one item before it can be submitted")
	ErrRejectionReasonRequired = errors.New("a reason must be given when rejecting a quotation")

	ErrApprovalResolved = errors.New("this approval has already been resolved")

	ErrPaymentExists      = errors.New("a payment already exists for this quotation")
	ErrPaymentNotPayable  = errors.New("only pending or ready payments that are not part of another batch can be added to a batch")
	ErrBatchCurrencyMixed = errors.New("all payments in a batch must use the same currency")
	ErrBatchEmpty         = errors.New("a batch needs at least one payment")
	ErrRetryLimit         = errors.New("the payment has reached its retry limit")
)
