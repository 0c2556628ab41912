package models

import (
	"fmt"
	"strings"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntryKind is the type of a budget-affecting event.
type LedgerEntryKind string

const (
	KindAllocationIncrease LedgerEntryKind = "allocation-increase"
	KindAllocationDecrease LedgerEntryKind = "allocation-decrease"
	KindExpense            LedgerEntryKind = "expense"
	KindQuotationApproved  LedgerEntryKind = "quotation-approved"
	KindRefund             LedgerEntryKind = "refund"
	KindAdjustment         LedgerEntryKind = "adjustment"
	KindTransferIn         LedgerEntryKind = "transfer-in"
	KindTransferOut        LedgerEntryKind = "transfer-out"
)

// LedgerEntryKinds are all kinds that can appear in the ledger.
var LedgerEntryKinds = []LedgerEntryKind{
	KindAllocationIncrease,
	KindAllocationDecrease,
	KindExpense,
	KindQuotationApproved,
	KindRefund,
	KindAdjustment,
	KindTransferIn,
	KindTransferOut,
}

// IncreasesSpent reports whether committing this kind adds to the
// spent amount.
func (k LedgerEntryKind) IncreasesSpent() bool {
	switch k {
	case KindExpense, KindQuotationApproved, KindAdjustment, KindTransferOut:
		return true
	}

	return false
}

// DecreasesSpent reports whether committing this kind subtracts from
// the spent amount.
func (k LedgerEntryKind) DecreasesSpent() bool {
	switch k {
	case KindRefund, KindTransferIn:
		return true
	}

	return false
}

// Reference types for ledger entries.
const (
	ReferenceQuotation = "quotation"
	ReferencePayment   = "payment"
)

// Reference points at the quotation or payment that caused an entry.
type Reference struct {
	Type string
	ID   uuid.UUID
}

// LedgerEntry is one immutable budget-affecting event of a project.
//
// The primary key is an auto-incremented integer, unlike the other
// aggregates: entries for a project are written strictly under the
// project's commit lock, so the key order is the commit completion
// order the balance chain is defined over.
//
// PreviousBalance and NewBalance track the spent amount. For a given
// project, the NewBalance of an entry equals the PreviousBalance of
// the next. Allocation entries record the allocation delta in Amount
// but leave the spent balance unchanged, so the chain holds across all
// kinds.
type LedgerEntry struct {
	ID uint64 `json:"id" gorm:"primaryKey"`
	Timestamps
	ProjectID       uuid.UUID
	Project         Project `json:"-"`
	Kind            LedgerEntryKind
	Amount          decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
	PreviousBalance decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
	NewBalance      decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
	BudgetExceeded  bool
	ReferenceType   string
	ReferenceID     *uuid.UUID
	Note            string
	RecordedBy      uuid.UUID
}

func (e *LedgerEntry) BeforeSave(_ *gorm.DB) error {
	e.Note = strings.TrimSpace(e.Note)
	return nil
}

// Ledger entries are append-only. Corrections are new entries of kind
// adjustment or refund.
func (e *LedgerEntry) BeforeUpdate(_ *gorm.DB) error {
	return ErrLedgerEntryImmutable
}

func (e *LedgerEntry) BeforeDelete(_ *gorm.DB) error {
	return ErrLedgerEntryImmutable
}

// Commit atomically applies one budget-affecting event to a project:
// it reads the current spent amount, appends a ledger entry with the
// previous and new balance and persists the updated project, all in
// one transaction under the project's commit lock.
//
// Driving the remaining budget negative is not an error. The entry is
// recorded with BudgetExceeded set and the caller decides whether to
// proceed, matching the business practice of allowing over-budget
// approvals with visibility instead of hard blocking.
func Commit(db *gorm.DB, projectID uuid.UUID, amount decimal.Decimal, kind LedgerEntryKind, ref *Reference, actor auth.Actor, note string) (LedgerEntry, error) {
	unlock := lockProject(projectID)
	defer unlock()

	var entry LedgerEntry
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = commit(tx, projectID, amount, kind, ref, actor, note)
		return err
	})
	if err != nil {
		return LedgerEntry{}, err
	}

	return entry, nil
}

// commit implements Commit. It must run inside a transaction with the
// project's commit lock held.
func commit(tx *gorm.DB, projectID uuid.UUID, amount decimal.Decimal, kind LedgerEntryKind, ref *Reference, actor auth.Actor, note string) (LedgerEntry, error) {
	if !amount.IsPositive() {
		return LedgerEntry{}, ErrAmountNotPositive
	}

	if !kind.IncreasesSpent() && !kind.DecreasesSpent() {
		return LedgerEntry{}, fmt.Errorf("%w: %s", ErrKindNotCommittable, kind)
	}

	var project Project
	if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
		return LedgerEntry{}, err
	}

	newSpent := project.Spent.Add(amount)
	if kind.DecreasesSpent() {
		newSpent = project.Spent.Sub(amount)
	}

	entry := LedgerEntry{
		ProjectID:       projectID,
		Kind:            kind,
		Amount:          amount,
		PreviousBalance: project.Spent,
		NewBalance:      newSpent,
		BudgetExceeded:  kind.IncreasesSpent() && newSpent.GreaterThan(project.Allocated),
		Note:            note,
		RecordedBy:      actor.ID,
	}
	if ref != nil {
		entry.ReferenceType = ref.Type
		entry.ReferenceID = &ref.ID
	}

	if err := tx.Create(&entry).Error; err != nil {
		return LedgerEntry{}, err
	}

	err := tx.Model(&project).Updates(map[string]any{
		"spent":     newSpent,
		"remaining": project.Allocated.Sub(newSpent),
	}).Error
	if err != nil {
		return LedgerEntry{}, err
	}

	return entry, nil
}

// ReplaySpent replays all ledger entries of a project in commit order
// and returns the spent amount they reproduce. It must always equal
// the spent amount stored on the project.
func ReplaySpent(db *gorm.DB, projectID uuid.UUID) (decimal.Decimal, error) {
	var entries []LedgerEntry
	err := db.Where(&LedgerEntry{ProjectID: projectID}).Order("id ASC").Find(&entries).Error
	if err != nil {
		return decimal.Zero, err
	}

	spent := decimal.Zero
	for _, entry := range entries {
		switch {
		case entry.Kind.IncreasesSpent():
			spent = spent.Add(entry.Amount)
		case entry.Kind.DecreasesSpent():
			spent = spent.Sub(entry.Amount)
		}
	}

	return spent, nil
}
