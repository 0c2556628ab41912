package models

import (
	"fmt"
	"strings"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"gorm.io/gorm"
)

// Project owns a budget allocation. The budget fields only ever change
// through ledger-recorded operations: Commit for spending, Reallocate
// for the allocation itself. The invariant
//
//	Remaining == Allocated - Spent
//
// holds after every such operation. Projects are soft-deactivated via
// the gorm soft delete, never physically removed.
type Project struct {
	DefaultModel
	Name      string
	Note      string
	Currency  string
	Allocated decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
	Spent     decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
	Remaining decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
	CreatedBy uuid.UUID
}

// BeforeSave trims string fields and verifies the currency code.
func (p *Project) BeforeSave(_ *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Note = strings.TrimSpace(p.Note)

	if p.Currency == "" {
		p.Currency = "EUR"
	}

	if _, err := currency.ParseISO(p.Currency); err != nil {
		return fmt.Errorf("%w: %s", ErrCurrencyInvalid, p.Currency)
	}

	return nil
}

// BeforeCreate establishes the budget invariant for a new project.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	err := p.DefaultModel.BeforeCreate(tx)
	if err != nil {
		return err
	}

	p.Spent = decimal.Zero
	p.Remaining = p.Allocated

	return nil
}

// Balance is the current financial state of a project.
type Balance struct {
	Allocated decimal.Decimal `json:"allocated" example:"10000"`
	Spent     decimal.Decimal `json:"spent" example:"4000"`
	Remaining decimal.Decimal `json:"remaining" example:"6000"`
	Currency  string          `json:"currency" example:"EUR"`
}

func (p Project) Balance() Balance {
	return Balance{
		Allocated: p.Allocated,
		Spent:     p.Spent,
		Remaining: p.Remaining,
		Currency:  p.Currency,
	}
}

// Variance is the difference between the allocation and the spent
// amount. The percentage is relative to the allocation and negative
// when the project is over budget.
type Variance struct {
	Amount     decimal.Decimal `json:"amount" example:"6000"`
	Percentage decimal.Decimal `json:"percentage" example:"60"`
}

func (p Project) Variance() Variance {
	amount := p.Allocated.Sub(p.Spent)

	percentage := decimal.Zero
	if p.Allocated.IsPositive() {
		percentage = amount.Div(p.Allocated).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return Variance{
		Amount:     amount,
		Percentage: percentage,
	}
}

// Reallocate changes the allocation of the project and records the
// change in the ledger. Reducing the allocation below the spent amount
// fails with ErrBudgetViolation.
func (p *Project) Reallocate(db *gorm.DB, newAllocated decimal.Decimal, actor auth.Actor, note string) (LedgerEntry, error) {
	if err := actor.Require(auth.RoleAdministrator); err != nil {
		return LedgerEntry{}, err
	}

	if newAllocated.IsNegative() {
		return LedgerEntry{}, ErrAmountNotPositive
	}

	unlock := lockProject(p.ID)
	defer unlock()

	var entry LedgerEntry
	err := db.Transaction(func(tx *gorm.DB) error {
		// Re-read under the lock, a concurrent commit may have changed the
		// spent amount since the caller loaded the project.
		if err := tx.First(p, "id = ?", p.ID).Error; err != nil {
			return err
		}

		if newAllocated.LessThan(p.Spent) {
			return fmt.Errorf("%w: spent %s, new allocation %s", ErrBudgetViolation, p.Spent, newAllocated)
		}

		kind := KindAllocationIncrease
		delta := newAllocated.Sub(p.Allocated)
		if delta.IsZero() {
			return ErrAllocationUnchanged
		}
		if delta.IsNegative() {
			kind = KindAllocationDecrease
			delta = delta.Neg()
		}

		// Allocation entries keep the spent balance unchanged so that the
		// previousBalance/newBalance chain over all entries stays intact.
		entry = LedgerEntry{
			ProjectID:       p.ID,
			Kind:            kind,
			Amount:          delta,
			PreviousBalance: p.Spent,
			NewBalance:      p.Spent,
			Note:            note,
			RecordedBy:      actor.ID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		p.Allocated = newAllocated
		p.Remaining = newAllocated.Sub(p.Spent)
		return tx.Model(p).Updates(map[string]any{
			"allocated": p.Allocated,
			"remaining": p.Remaining,
		}).Error
	})
	if err != nil {
		return LedgerEntry{}, err
	}

	return entry, nil
}
