package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalStatus is the state of one approver's decision record.
type ApprovalStatus string

const (
	ApprovalPending          ApprovalStatus = "pending"
	ApprovalApproved         ApprovalStatus = "approved"
	ApprovalRejected         ApprovalStatus = "rejected"
	ApprovalChangesRequested ApprovalStatus = "changes-requested"
)

// ApprovalAction is a decision an approver can take on a quotation.
type ApprovalAction string

const (
	ActionApprove        ApprovalAction = "approve"
	ActionReject         ApprovalAction = "reject"
	ActionRequestChanges ApprovalAction = "request-changes"
)

// Approval is one approver's decision on one quotation. A resolved
// approval is immutable: renewed review of the same quotation creates
// a new record, it never reopens a closed one.
type Approval struct {
	DefaultModel
	QuotationID uuid.UUID `gorm:"index"`
	Quotation   Quotation `json:"-"`
	ApproverID  uuid.UUID
	Status      ApprovalStatus
	Comment     string
	DecidedAt   *time.Time
}

func (a *Approval) BeforeSave(_ *gorm.DB) error {
	a.Comment = strings.TrimSpace(a.Comment)

	if a.Status == "" {
		a.Status = ApprovalPending
	}

	return nil
}

// BeforeUpdate refuses changes to resolved approvals. Decide updates
// the pending record exactly once; everything else is append-only.
func (a *Approval) BeforeUpdate(tx *gorm.DB) error {
	var stored Approval
	err := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).First(&stored, "id = ?", a.ID).Error
	if err != nil {
		return err
	}

	if stored.Status != ApprovalPending {
		return ErrApprovalResolved
	}

	return nil
}

// DecisionResult is the outcome of one approval decision.
type DecisionResult struct {
	Approval  Approval
	Quotation Quotation

	// Entry is the ledger entry written for an approval. It is nil for
	// reject and request-changes, which have no budget effect.
	Entry *LedgerEntry
}

// BudgetExceeded reports whether the decision drove the project over
// its budget.
func (r DecisionResult) BudgetExceeded() bool {
	return r.Entry != nil && r.Entry.BudgetExceeded
}

// Decide records one approver's decision on a quotation and drives the
// quotation state machine. The decision record and the quotation
// transition (including the budget commit for approvals) happen in one
// transaction: when the transition fails, no resolved decision is
// persisted.
func Decide(db *gorm.DB, quotationID uuid.UUID, actor auth.Actor, action ApprovalAction, comment string) (DecisionResult, error) {
	if err := actor.Require(auth.RoleApprover); err != nil {
		return DecisionResult{}, err
	}

	var quotation Quotation
	if err := db.First(&quotation, "id = ?", quotationID).Error; err != nil {
		return DecisionResult{}, err
	}

	// Only an approval commits against the budget, so only an approval
	// needs the project's commit lock. The lock is taken before the
	// transaction starts and spans it completely.
	if action == ActionApprove {
		unlock := lockProject(quotation.ProjectID)
		defer unlock()
	}

	var result DecisionResult
	err := db.Transaction(func(tx *gorm.DB) error {
		// Reload inside the transaction, the quotation may have been
		// resolved while waiting for the lock.
		if err := tx.First(&quotation, "id = ?", quotationID).Error; err != nil {
			return err
		}

		approval, err := pendingApproval(tx, quotation.ID, actor.ID)
		if err != nil {
			return err
		}

		now := time.Now().In(time.UTC)
		approval.Comment = comment
		approval.DecidedAt = &now

		switch action {
		case ActionApprove:
			entry, err := quotation.approve(tx, actor)
			if err != nil {
				return err
			}
			result.Entry = &entry
			approval.Status = ApprovalApproved

		case ActionReject:
			if err := quotation.reject(tx, actor, comment); err != nil {
				return err
			}
			approval.Status = ApprovalRejected

		case ActionRequestChanges:
			if err := quotation.requestChanges(tx, actor); err != nil {
				return err
			}
			approval.Status = ApprovalChangesRequested

		default:
			return fmt.Errorf("%w: unknown action %q", ErrInvalidState, action)
		}

		if err := tx.Model(&approval).Updates(map[string]any{
			"status":     approval.Status,
			"comment":    approval.Comment,
			"decided_at": approval.DecidedAt,
		}).Error; err != nil {
			return err
		}

		result.Approval = approval
		result.Quotation = quotation
		return nil
	})
	if err != nil {
		return DecisionResult{}, err
	}

	return result, nil
}

// pendingApproval loads the pending approval of the approver for the
// quotation, creating it when none exists. Resolved approvals are left
// untouched.
func pendingApproval(tx *gorm.DB, quotationID, approverID uuid.UUID) (Approval, error) {
	var approval Approval
	err := tx.
		Where(&Approval{QuotationID: quotationID, ApproverID: approverID, Status: ApprovalPending}).
		First(&approval).Error
	if err == nil {
		return approval, nil
	}
	if !errors.Is(err, ErrResourceNotFound) && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Approval{}, err
	}

	approval = Approval{
		QuotationID: quotationID,
		ApproverID:  approverID,
		Status:      ApprovalPending,
	}
	if err := tx.Create(&approval).Error; err != nil {
		return Approval{}, err
	}

	return approval, nil
}
