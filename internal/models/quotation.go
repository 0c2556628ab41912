package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// QuotationStatus is the lifecycle state of a spending request.
type QuotationStatus string

const (
	QuotationDraft                QuotationStatus = "draft"
	QuotationSubmitted            QuotationStatus = "submitted"
	QuotationUnderReview          QuotationStatus = "under-review"
	QuotationApproved             QuotationStatus = "approved"
	QuotationRejected             QuotationStatus = "rejected"
	QuotationPaymentFileGenerated QuotationStatus = "payment-file-generated"
	QuotationSentToBank           QuotationStatus = "sent-to-bank"
	QuotationPaid                 QuotationStatus = "paid"
)

// quotationTransitions is the transition table of the quotation state
// machine. A transition that is not listed here is illegal.
var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationDraft:                {QuotationSubmitted},
	QuotationSubmitted:            {QuotationUnderReview, QuotationApproved, QuotationRejected},
	QuotationUnderReview:          {QuotationUnderReview, QuotationApproved, QuotationRejected},
	QuotationApproved:             {QuotationPaymentFileGenerated},
	QuotationPaymentFileGenerated: {QuotationSentToBank},
	QuotationSentToBank:           {QuotationPaid},
}

// CanTransitionTo reports whether the transition is legal.
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	return slices.Contains(quotationTransitions[s], target)
}

// Quotation is an itemized spending request against a project budget.
//
// TotalAmount is always the sum of the item amounts. It is recomputed
// in the same transaction as every item change and must never be set
// directly.
type Quotation struct {
	DefaultModel
	ProjectID       uuid.UUID
	Project         Project `json:"-"`
	Note            string
	Currency        string
	Status          QuotationStatus
	TotalAmount     decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
	PayeeName       string
	PayeeIBAN       string
	CreatedBy       uuid.UUID
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID
	RejectionReason string
	Items           []QuotationItem
}

// QuotationItem is one line of a quotation.
type QuotationItem struct {
	DefaultModel
	QuotationID uuid.UUID
	Description string
	Category    string
	Vendor      string
	Amount      decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
}

func (i *QuotationItem) BeforeSave(_ *gorm.DB) error {
	i.Description = strings.TrimSpace(i.Description)
	i.Category = strings.TrimSpace(i.Category)
	i.Vendor = strings.TrimSpace(i.Vendor)

	if !i.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	return nil
}

// BeforeSave trims string fields and defaults the status for new
// quotations.
func (q *Quotation) BeforeSave(_ *gorm.DB) error {
	q.Note = strings.TrimSpace(q.Note)
	q.PayeeName = strings.TrimSpace(q.PayeeName)
	q.PayeeIBAN = strings.ToUpper(strings.ReplaceAll(q.PayeeIBAN, " ", ""))

	if q.Status == "" {
		q.Status = QuotationDraft
	}

	return nil
}

// BeforeCreate inherits the currency of the project when none is set.
func (q *Quotation) BeforeCreate(tx *gorm.DB) error {
	err := q.DefaultModel.BeforeCreate(tx)
	if err != nil {
		return err
	}

	if q.Currency == "" {
		var project Project
		if err := tx.First(&project, "id = ?", q.ProjectID).Error; err != nil {
			return err
		}
		q.Currency = project.Currency
	}

	return nil
}

// AddItem adds an item to the quotation and recomputes the total in
// the same transaction. Items can only be changed while the quotation
// is in draft.
func (q *Quotation) AddItem(db *gorm.DB, item QuotationItem) error {
	if q.Status != QuotationDraft {
		return fmt.Errorf("%w: items can only be changed in draft, the quotation is %s", ErrInvalidState, q.Status)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		item.QuotationID = q.ID
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		return q.recomputeTotal(tx)
	})
}

// RemoveItem removes an item from the quotation and recomputes the
// total in the same transaction.
func (q *Quotation) RemoveItem(db *gorm.DB, itemID uuid.UUID) error {
	if q.Status != QuotationDraft {
		return fmt.Errorf("%w: items can only be changed in draft, the quotation is %s", ErrInvalidState, q.Status)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var item QuotationItem
		err := tx.First(&item, "id = ? AND quotation_id = ?", itemID, q.ID).Error
		if err != nil {
			return err
		}

		if err := tx.Delete(&item).Error; err != nil {
			return err
		}

		return q.recomputeTotal(tx)
	})
}

// recomputeTotal sets TotalAmount to the sum of the item amounts. It
// must run in the transaction of the item change so that the total is
// never observed out of sync.
func (q *Quotation) recomputeTotal(tx *gorm.DB) error {
	var sum decimal.NullDecimal
	err := tx.Table("quotation_items").
		Where("quotation_id = ? AND deleted_at IS NULL", q.ID).
		Select("SUM(amount)").
		Row().
		Scan(&sum)
	if err != nil {
		return err
	}

	q.TotalAmount = sum.Decimal
	return tx.Model(q).Update("total_amount", q.TotalAmount).Error
}

// Submit moves the quotation from draft to submitted. A quotation
// without items cannot be submitted.
func (q *Quotation) Submit(db *gorm.DB, actor auth.Actor) error {
	if !q.Status.CanTransitionTo(QuotationSubmitted) {
		return fmt.Errorf("%w: a %s quotation cannot be submitted", ErrInvalidState, q.Status)
	}

	var count int64
	err := db.Model(&QuotationItem{}).Where("quotation_id = ?", q.ID).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrQuotationEmpty
	}

	now := time.Now().In(time.UTC)
	q.Status = QuotationSubmitted
	q.SubmittedAt = &now
	return db.Model(q).Updates(map[string]any{
		"status":       q.Status,
		"submitted_at": q.SubmittedAt,
	}).Error
}

// Approve resolves the quotation positively. The budget commit and the
// state transition happen in one transaction: when the commit fails,
// the quotation stays in its current state. An over-budget approval
// does not fail, the returned entry carries the BudgetExceeded flag.
func (q *Quotation) Approve(db *gorm.DB, actor auth.Actor) (LedgerEntry, error) {
	if err := actor.Require(auth.RoleApprover); err != nil {
		return LedgerEntry{}, err
	}

	unlock := lockProject(q.ProjectID)
	defer unlock()

	var entry LedgerEntry
	err := db.Transaction(func(tx *gorm.DB) error {
		// Re-read under the lock: a stale copy must not approve a
		// quotation that was already resolved.
		if err := tx.First(q, "id = ?", q.ID).Error; err != nil {
			return err
		}

		var err error
		entry, err = q.approve(tx, actor)
		return err
	})
	if err != nil {
		return LedgerEntry{}, err
	}

	return entry, nil
}

// approve must run inside a transaction with the project's commit lock
// held.
func (q *Quotation) approve(tx *gorm.DB, actor auth.Actor) (LedgerEntry, error) {
	if !q.Status.CanTransitionTo(QuotationApproved) {
		return LedgerEntry{}, fmt.Errorf("%w: a %s quotation cannot be approved", ErrInvalidState, q.Status)
	}

	entry, err := commit(tx, q.ProjectID, q.TotalAmount, KindQuotationApproved, &Reference{Type: ReferenceQuotation, ID: q.ID}, actor, q.Note)
	if err != nil {
		return LedgerEntry{}, err
	}

	now := time.Now().In(time.UTC)
	q.Status = QuotationApproved
	q.ApprovedAt = &now
	q.ApprovedBy = &actor.ID
	err = tx.Model(q).Updates(map[string]any{
		"status":      q.Status,
		"approved_at": q.ApprovedAt,
		"approved_by": q.ApprovedBy,
	}).Error
	if err != nil {
		return LedgerEntry{}, err
	}

	return entry, nil
}

// Reject resolves the quotation negatively. A reason is mandatory.
// Rejection never writes a ledger entry.
func (q *Quotation) Reject(db *gorm.DB, actor auth.Actor, reason string) error {
	if err := actor.Require(auth.RoleApprover); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return q.reject(tx, actor, reason)
	})
}

func (q *Quotation) reject(tx *gorm.DB, _ auth.Actor, reason string) error {
	if !q.Status.CanTransitionTo(QuotationRejected) {
		return fmt.Errorf("%w: a %s quotation cannot be rejected", ErrInvalidState, q.Status)
	}

	if strings.TrimSpace(reason) == "" {
		return ErrRejectionReasonRequired
	}

	q.Status = QuotationRejected
	q.RejectionReason = strings.TrimSpace(reason)
	return tx.Model(q).Updates(map[string]any{
		"status":           q.Status,
		"rejection_reason": q.RejectionReason,
	}).Error
}

// RequestChanges sends the quotation back to the requester without a
// budget effect. The quotation stays reviewable.
func (q *Quotation) RequestChanges(db *gorm.DB, actor auth.Actor) error {
	if err := actor.Require(auth.RoleApprover); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return q.requestChanges(tx, actor)
	})
}

func (q *Quotation) requestChanges(tx *gorm.DB, _ auth.Actor) error {
	if !q.Status.CanTransitionTo(QuotationUnderReview) {
		return fmt.Errorf("%w: changes cannot be requested for a %s quotation", ErrInvalidState, q.Status)
	}

	q.Status = QuotationUnderReview
	return tx.Model(q).Update("status", q.Status).Error
}
