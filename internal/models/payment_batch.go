package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/budgetflow/backend/internal/bank"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// PaymentBatchStatus is the lifecycle state of a bank submission.
type PaymentBatchStatus string

const (
	BatchDraft         PaymentBatchStatus = "draft"
	BatchFileGenerated PaymentBatchStatus = "file-generated"
	BatchSentToBank    PaymentBatchStatus = "sent-to-bank"
	BatchCompleted     PaymentBatchStatus = "completed"
	BatchCancelled     PaymentBatchStatus = "cancelled"
)

var batchTransitions = map[PaymentBatchStatus][]PaymentBatchStatus{
	BatchDraft:         {BatchFileGenerated, BatchCancelled},
	BatchFileGenerated: {BatchSentToBank, BatchCancelled},
	BatchSentToBank:    {BatchCompleted},
}

func (s PaymentBatchStatus) CanTransitionTo(target PaymentBatchStatus) bool {
	return slices.Contains(batchTransitions[s], target)
}

// PaymentBatch groups payments for one bank submission.
//
// TotalAmount and PaymentCount are derived from the members and
// recomputed whenever the membership changes. Transitions to
// sent-to-bank and completed cascade to every member payment and its
// quotation in one transaction; a partial cascade is never observable.
type PaymentBatch struct {
	DefaultModel
	BankName      string
	Currency      string
	Status        PaymentBatchStatus
	TotalAmount   decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
	PaymentCount  int
	FilePath      string
	BankReference string
	CreatedBy     uuid.UUID
	Payments      []Payment `gorm:"foreignKey:BatchID"`
}

func (b *PaymentBatch) BeforeSave(_ *gorm.DB) error {
	b.BankName = strings.TrimSpace(b.BankName)

	if b.Status == "" {
		b.Status = BatchDraft
	}

	return nil
}

// AssembleBatch creates a batch from pending or ready payments. All
// payments must share one currency and must not belong to another
// batch. The members move to ready, the batch starts in draft.
func AssembleBatch(db *gorm.DB, paymentIDs []uuid.UUID, bankName string, actor auth.Actor) (PaymentBatch, error) {
	if err := actor.Require(auth.RoleAdministrator); err != nil {
		return PaymentBatch{}, err
	}

	if len(paymentIDs) == 0 {
		return PaymentBatch{}, ErrBatchEmpty
	}

	var batch PaymentBatch
	err := db.Transaction(func(tx *gorm.DB) error {
		var payments []Payment
		if err := tx.Find(&payments, "id IN ?", paymentIDs).Error; err != nil {
			return err
		}
		if len(payments) != len(paymentIDs) {
			return fmt.Errorf("%w payment matching your query", ErrResourceNotFound)
		}

		total := decimal.Zero
		currency := payments[0].Currency
		for _, payment := range payments {
			if payment.Status != PaymentPending && payment.Status != PaymentReady {
				return fmt.Errorf("%w: payment %s is %s", ErrPaymentNotPayable, payment.ID, payment.Status)
			}
			if payment.BatchID != nil {
				return fmt.Errorf("%w: payment %s is already part of a batch", ErrPaymentNotPayable, payment.ID)
			}
			if payment.Currency != currency {
				return ErrBatchCurrencyMixed
			}
			total = total.Add(payment.Amount)
		}

		batch = PaymentBatch{
			BankName:     bankName,
			Currency:     currency,
			Status:       BatchDraft,
			TotalAmount:  total,
			PaymentCount: len(payments),
			CreatedBy:    actor.ID,
		}
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}

		return tx.Model(&Payment{}).
			Where("id IN ?", paymentIDs).
			Updates(map[string]any{"batch_id": batch.ID, "status": PaymentReady}).Error
	})
	if err != nil {
		return PaymentBatch{}, err
	}

	return batch, nil
}

// RemovePayment detaches a member from a draft batch and recomputes
// the batch totals.
func (b *PaymentBatch) RemovePayment(db *gorm.DB, paymentID uuid.UUID) error {
	if b.Status != BatchDraft {
		return fmt.Errorf("%w: members can only be removed from a draft batch, the batch is %s", ErrInvalidState, b.Status)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var payment Payment
		err := tx.First(&payment, "id = ? AND batch_id = ?", paymentID, b.ID).Error
		if err != nil {
			return err
		}

		err = tx.Model(&payment).Updates(map[string]any{"batch_id": nil, "status": PaymentPending}).Error
		if err != nil {
			return err
		}

		return b.recomputeTotals(tx)
	})
}

// recomputeTotals derives TotalAmount and PaymentCount from the
// current members. It must run in the transaction of the membership
// change.
func (b *PaymentBatch) recomputeTotals(tx *gorm.DB) error {
	var payments []Payment
	if err := tx.Find(&payments, "batch_id = ?", b.ID).Error; err != nil {
		return err
	}

	total := decimal.Zero
	for _, payment := range payments {
		total = total.Add(payment.Amount)
	}

	b.TotalAmount = total
	b.PaymentCount = len(payments)
	return tx.Model(b).Updates(map[string]any{
		"total_amount":  b.TotalAmount,
		"payment_count": b.PaymentCount,
	}).Error
}

// Snapshot builds the immutable view of the batch for the bank-file
// generator: batch identity, bank name and the ordered payment rows.
func (b *PaymentBatch) Snapshot(db *gorm.DB) (bank.Snapshot, error) {
	var payments []Payment
	err := db.Order("created_at ASC, id ASC").Find(&payments, "batch_id = ?", b.ID).Error
	if err != nil {
		return bank.Snapshot{}, err
	}

	snapshot := bank.Snapshot{
		BatchID:  b.ID,
		BankName: b.BankName,
		Payments: make([]bank.PaymentRow, 0, len(payments)),
	}
	for _, payment := range payments {
		snapshot.Payments = append(snapshot.Payments, bank.PaymentRow{
			PaymentID: payment.ID,
			Payee:     payment.Payee,
			IBAN:      payment.IBAN,
			Amount:    payment.Amount,
			Currency:  payment.Currency,
		})
	}

	return snapshot, nil
}

// GenerateFile hands the batch snapshot to the bank-file generator and
// advances the batch once the generator confirms success. On generator
// failure the batch stays in draft and no payment changes state; the
// call can simply be retried.
//
// The generator can be slow, it is invoked outside of any transaction
// and without any budget lock.
func (b *PaymentBatch) GenerateFile(ctx context.Context, db *gorm.DB, generator bank.Generator) (bank.File, error) {
	if !b.Status.CanTransitionTo(BatchFileGenerated) {
		return bank.File{}, fmt.Errorf("%w: a file cannot be generated for a %s batch", ErrInvalidState, b.Status)
	}

	snapshot, err := b.Snapshot(db)
	if err != nil {
		return bank.File{}, err
	}

	file, err := generator.Generate(ctx, snapshot)
	if err != nil {
		return bank.File{}, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		err := b.cascade(tx, BatchFileGenerated, PaymentReady, PaymentFileGenerated, QuotationApproved, QuotationPaymentFileGenerated)
		if err != nil {
			return err
		}

		b.FilePath = file.Path
		return tx.Model(b).Update("file_path", b.FilePath).Error
	})
	if err != nil {
		return bank.File{}, err
	}

	return file, nil
}

// MarkSentToBank records the bank submission and cascades the
// transition to every member payment and its quotation atomically.
func (b *PaymentBatch) MarkSentToBank(db *gorm.DB, reference string) error {
	if !b.Status.CanTransitionTo(BatchSentToBank) {
		return fmt.Errorf("%w: a %s batch cannot be marked as sent to bank", ErrInvalidState, b.Status)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		err := b.cascade(tx, BatchSentToBank, PaymentFileGenerated, PaymentSentToBank, QuotationPaymentFileGenerated, QuotationSentToBank)
		if err != nil {
			return err
		}

		b.BankReference = reference
		err = tx.Model(b).Update("bank_reference", b.BankReference).Error
		if err != nil {
			return err
		}

		return tx.Model(&Payment{}).
			Where("batch_id = ?", b.ID).
			Update("bank_reference", reference).Error
	})
}

// MarkCompleted finishes the batch: every member payment and its
// quotation become paid, atomically with the batch transition.
func (b *PaymentBatch) MarkCompleted(db *gorm.DB) error {
	if !b.Status.CanTransitionTo(BatchCompleted) {
		return fmt.Errorf("%w: a %s batch cannot be completed", ErrInvalidState, b.Status)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return b.cascade(tx, BatchCompleted, PaymentSentToBank, PaymentPaid, QuotationSentToBank, QuotationPaid)
	})
}

// Cancel withdraws a batch that has not been sent to the bank. The
// members are detached and go back to pending so they can be picked up
// by a new batch. Cancelling a file-generated batch also moves the
// member quotations back to approved, otherwise the next batch could
// never generate a file for them.
func (b *PaymentBatch) Cancel(db *gorm.DB) error {
	if !b.Status.CanTransitionTo(BatchCancelled) {
		return fmt.Errorf("%w: a %s batch cannot be cancelled", ErrInvalidState, b.Status)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if b.Status == BatchFileGenerated {
			err := tx.Model(&Quotation{}).
				Where("id IN (SELECT quotation_id FROM payments WHERE batch_id = ?) AND status = ?", b.ID, QuotationPaymentFileGenerated).
				Update("status", QuotationApproved).Error
			if err != nil {
				return err
			}
		}

		err := tx.Model(&Payment{}).
			Where("batch_id = ?", b.ID).
			Updates(map[string]any{"batch_id": nil, "status": PaymentPending}).Error
		if err != nil {
			return err
		}

		b.Status = BatchCancelled
		err = tx.Model(b).Update("status", b.Status).Error
		if err != nil {
			return err
		}

		return b.recomputeTotals(tx)
	})
}

// cascade advances the batch and every member payment and quotation in
// one sweep. Every member must be in the expected source state: when
// the row counts do not match the member count, someone moved a member
// out-of-band and the whole transition rolls back. All-or-nothing, a
// partial cascade is not a valid observable state.
func (b *PaymentBatch) cascade(tx *gorm.DB, batchTarget PaymentBatchStatus, paymentFrom, paymentTo PaymentStatus, quotationFrom, quotationTo QuotationStatus) error {
	res := tx.Model(&Payment{}).
		Where("batch_id = ? AND status = ?", b.ID, paymentFrom).
		Update("status", paymentTo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(b.PaymentCount) {
		return fmt.Errorf("%w: %d of %d payments are not %s", ErrInvalidState, int64(b.PaymentCount)-res.RowsAffected, b.PaymentCount, paymentFrom)
	}

	res = tx.Model(&Quotation{}).
		Where("id IN (SELECT quotation_id FROM payments WHERE batch_id = ?) AND status = ?", b.ID, quotationFrom).
		Update("status", quotationTo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(b.PaymentCount) {
		return fmt.Errorf("%w: %d of %d quotations are not %s", ErrInvalidState, int64(b.PaymentCount)-res.RowsAffected, b.PaymentCount, quotationFrom)
	}

	b.Status = batchTarget
	return tx.Model(b).Update("status", b.Status).Error
}
