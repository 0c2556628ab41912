package models

import (
	"fmt"
	"strings"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// PaymentStatus is the lifecycle state of one payable unit.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentReady         PaymentStatus = "ready"
	PaymentFileGenerated PaymentStatus = "file-generated"
	PaymentProcessing    PaymentStatus = "processing"
	PaymentSentToBank    PaymentStatus = "sent-to-bank"
	PaymentPaid          PaymentStatus = "paid"
	PaymentFailed        PaymentStatus = "failed"
	PaymentCancelled     PaymentStatus = "cancelled"
	PaymentOnHold        PaymentStatus = "on-hold"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:       {PaymentReady, PaymentOnHold, PaymentCancelled},
	PaymentReady:         {PaymentFileGenerated, PaymentPending, PaymentOnHold, PaymentCancelled},
	PaymentFileGenerated: {PaymentProcessing, PaymentSentToBank},
	PaymentProcessing:    {PaymentSentToBank, PaymentFailed},
	PaymentSentToBank:    {PaymentPaid, PaymentFailed},
	PaymentFailed:        {PaymentPending, PaymentCancelled},
	PaymentOnHold:        {PaymentPending, PaymentCancelled},
}

func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	return slices.Contains(paymentTransitions[s], target)
}

// maxPaymentRetries caps how often a failed payment can be queued again.
const maxPaymentRetries = 3

// Payment is a payable unit derived from one approved quotation.
//
// Amount, currency and the payee bank details are snapshotted from the
// quotation when the payment is created. Later quotation edits can
// never change an issued payment.
type Payment struct {
	DefaultModel
	QuotationID   uuid.UUID `gorm:"uniqueIndex"`
	Quotation     Quotation `json:"-"`
	ProjectID     uuid.UUID
	BatchID       *uuid.UUID
	Payee         string
	IBAN          string
	Amount        decimal.Decimal `gorm:"type:DECIMAL(20,2)"`
	Currency      string
	Status        PaymentStatus
	RetryCount    int
	BankReference string
}

func (p *Payment) BeforeSave(_ *gorm.DB) error {
	p.Payee = strings.TrimSpace(p.Payee)
	p.IBAN = strings.ToUpper(strings.ReplaceAll(p.IBAN, " ", ""))

	if p.Status == "" {
		p.Status = PaymentPending
	}

	return nil
}

// CreatePaymentForQuotation creates the payment for an approved
// quotation, snapshotting amount, currency and payee bank details.
// Only one payment can exist per quotation.
func CreatePaymentForQuotation(db *gorm.DB, quotationID uuid.UUID, actor auth.Actor) (Payment, error) {
	if err := actor.Require(auth.RoleAdministrator); err != nil {
		return Payment{}, err
	}

	var payment Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		var quotation Quotation
		if err := tx.First(&quotation, "id = ?", quotationID).Error; err != nil {
			return err
		}

		if quotation.Status != QuotationApproved {
			return fmt.Errorf("%w: payments can only be created for approved quotations, the quotation is %s", ErrInvalidState, quotation.Status)
		}

		var count int64
		err := tx.Model(&Payment{}).Where("quotation_id = ?", quotation.ID).Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrPaymentExists
		}

		payment = Payment{
			QuotationID: quotation.ID,
			ProjectID:   quotation.ProjectID,
			Payee:       quotation.PayeeName,
			IBAN:        quotation.PayeeIBAN,
			Amount:      quotation.TotalAmount,
			Currency:    quotation.Currency,
			Status:      PaymentPending,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return Payment{}, err
	}

	return payment, nil
}

// Hold takes the payment out of batch assembly until released.
func (p *Payment) Hold(db *gorm.DB) error {
	return p.transition(db, PaymentOnHold)
}

// Release puts a held payment back into batch assembly.
func (p *Payment) Release(db *gorm.DB) error {
	if p.Status != PaymentOnHold {
		return fmt.Errorf("%w: only on-hold payments can be released, the payment is %s", ErrInvalidState, p.Status)
	}

	return p.transition(db, PaymentPending)
}

// Cancel withdraws the payment. Payments that are part of a bank
// submission cannot be cancelled individually.
func (p *Payment) Cancel(db *gorm.DB) error {
	return p.transition(db, PaymentCancelled)
}

// Retry queues a failed payment again. The retry counter is capped.
func (p *Payment) Retry(db *gorm.DB) error {
	if p.Status != PaymentFailed {
		return fmt.Errorf("%w: only failed payments can be retried, the payment is %s", ErrInvalidState, p.Status)
	}

	if p.RetryCount >= maxPaymentRetries {
		return ErrRetryLimit
	}

	p.RetryCount++
	p.Status = PaymentPending
	return db.Model(p).Updates(map[string]any{
		"status":      p.Status,
		"retry_count": p.RetryCount,
	}).Error
}

func (p *Payment) transition(db *gorm.DB, target PaymentStatus) error {
	if !p.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: a %s payment cannot become %s", ErrInvalidState, p.Status, target)
	}

	p.Status = target
	return db.Model(p).Update("status", p.Status).Error
}
