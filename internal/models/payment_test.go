package models_test

import (
	"testing"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/budgetflow/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestCreatePaymentSnapshot() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(4000))

	payment := suite.createTestPayment(quotation.ID)

	suite.Assert().Equal(quotation.ID, payment.QuotationID)
	suite.Assert().Equal(project.ID, payment.ProjectID)
	suite.Assert().Equal("ACME Inc.", payment.Payee)
	suite.Assert().Equal("DE89370400440532013000", payment.IBAN)
	suite.Assert().True(payment.Amount.Equal(decimal.NewFromFloat(4000)), "Amount is %s, should be 4000", payment.Amount)
	suite.Assert().Equal(quotation.Currency, payment.Currency)
	suite.Assert().Equal(models.PaymentPending, payment.Status)
	suite.Assert().Nil(payment.BatchID)
}

func (suite *TestSuiteStandard) TestCreatePaymentRequiresApprovedQuotation() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID}, decimal.NewFromFloat(100))

	_, err := models.CreatePaymentForQuotation(models.DB, quotation.ID, testAdmin())
	suite.Assert().ErrorIs(err, models.ErrInvalidState)
}

func (suite *TestSuiteStandard) TestCreatePaymentDuplicate() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100))

	_ = suite.createTestPayment(quotation.ID)

	_, err := models.CreatePaymentForQuotation(models.DB, quotation.ID, testAdmin())
	suite.Assert().ErrorIs(err, models.ErrPaymentExists)
}

func (suite *TestSuiteStandard) TestCreatePaymentRequiresAdministrator() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100))

	_, err := models.CreatePaymentForQuotation(models.DB, quotation.ID, testApprover())
	suite.Assert().ErrorIs(err, auth.ErrMissingRole)
}

func (suite *TestSuiteStandard) TestPaymentHoldRelease() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100))
	payment := suite.createTestPayment(quotation.ID)

	err := payment.Release(models.DB)
	suite.Assert().ErrorIs(err, models.ErrInvalidState)

	err = payment.Hold(models.DB)
	suite.Require().NoError(err)
	suite.Assert().Equal(models.PaymentOnHold, payment.Status)

	err = payment.Release(models.DB)
	suite.Require().NoError(err)
	suite.Assert().Equal(models.PaymentPending, payment.Status)
}

func (suite *TestSuiteStandard) TestPaymentCancel() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100))
	payment := suite.createTestPayment(quotation.ID)

	err := payment.Cancel(models.DB)
	suite.Require().NoError(err)
	suite.Assert().Equal(models.PaymentCancelled, payment.Status)

	err = payment.Hold(models.DB)
	suite.Assert().ErrorIs(err, models.ErrInvalidState)
}

func (suite *TestSuiteStandard) TestPaymentRetry() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100))
	payment := suite.createTestPayment(quotation.ID)

	err := payment.Retry(models.DB)
	suite.Assert().ErrorIs(err, models.ErrInvalidState, "only failed payments can be retried")

	for i := 1; i <= 3; i++ {
		err = models.DB.Model(&payment).Update("status", models.PaymentFailed).Error
		suite.Require().NoError(err)
		payment.Status = models.PaymentFailed

		err = payment.Retry(models.DB)
		suite.Require().NoError(err)
		suite.Assert().Equal(models.PaymentPending, payment.Status)
		suite.Assert().Equal(i, payment.RetryCount)
	}

	err = models.DB.Model(&payment).Update("status", models.PaymentFailed).Error
	suite.Require().NoError(err)
	payment.Status = models.PaymentFailed

	err = payment.Retry(models.DB)
	suite.Assert().ErrorIs(err, models.ErrRetryLimit)
}

func (suite *TestSuiteStandard) TestPaymentStatusTransitions() {
	tests := []struct {
		from    models.PaymentStatus
		to      models.PaymentStatus
		allowed bool
	}{
		{models.PaymentPending, models.PaymentReady, true},
		{models.PaymentPending, models.PaymentPaid, false},
		{models.PaymentReady, models.PaymentFileGenerated, true},
		{models.PaymentFileGenerated, models.PaymentSentToBank, true},
		{models.PaymentSentToBank, models.PaymentPaid, true},
		{models.PaymentSentToBank, models.PaymentFailed, true},
		{models.PaymentFailed, models.PaymentPending, true},
		{models.PaymentCancelled, models.PaymentPending, false},
		{models.PaymentPaid, models.PaymentPending, false},
	}

	for _, tt := range tests {
		suite.T().Run(string(tt.from)+" to "+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
