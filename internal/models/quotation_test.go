package models_test

import (
	"testing"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/budgetflow/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestQuotationTrimWhitespace() {
	project := suite.createTestProject(models.Project{})

	quotation := suite.createTestQuotation(models.Quotation{
		ProjectID: project.ID,
		Note:      " Note with whitespace ",
		PayeeName: " ACME Inc. ",
		PayeeIBAN: "de89 3704 0044 0532 0130 00",
	})

	suite.Assert().Equal("Note with whitespace", quotation.Note)
	suite.Assert().Equal("ACME Inc.", quotation.PayeeName)
	suite.Assert().Equal("DE89370400440532013000", quotation.PayeeIBAN)
	suite.Assert().Equal(models.QuotationDraft, quotation.Status)
}

func (suite *TestSuiteStandard) TestQuotationInheritsCurrency() {
	project := suite.createTestProject(models.Project{Currency: "USD"})

	quotation := suite.createTestQuotation(models.Quotation{ProjectID: project.ID})
	suite.Assert().Equal("USD", quotation.Currency)

	quotation = suite.createTestQuotation(models.Quotation{ProjectID: project.ID, Currency: "CHF"})
	suite.Assert().Equal("CHF", quotation.Currency)
}

func (suite *TestSuiteStandard) TestQuotationItemsRecomputeTotal() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID},
		decimal.NewFromFloat(100), decimal.NewFromFloat(250.50))

	suite.Assert().True(quotation.TotalAmount.Equal(decimal.NewFromFloat(350.50)), "Total is %s, should be 350.50", quotation.TotalAmount)

	var items []models.QuotationItem
	err := models.DB.Find(&items, "quotation_id = ?", quotation.ID).Error
	suite.Require().NoError(err)
	suite.Require().Len(items, 2)

	err = quotation.RemoveItem(models.DB, items[0].ID)
	suite.Require().NoError(err)
	suite.Assert().True(quotation.TotalAmount.Equal(items[1].Amount), "Total is %s, should be %s", quotation.TotalAmount, items[1].Amount)
}

func (suite *TestSuiteStandard) TestQuotationItemAmountNotPositive() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotation(models.Quotation{ProjectID: project.ID})

	err := quotation.AddItem(models.DB, models.QuotationItem{Description: "free lunch", Amount: decimal.Zero})
	suite.Assert().ErrorIs(err, models.ErrAmountNotPositive)
}

func (suite *TestSuiteStandard) TestQuotationItemsOnlyInDraft() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID}, decimal.NewFromFloat(100))

	err := quotation.Submit(models.DB, testAdmin())
	suite.Require().NoError(err)

	err = quotation.AddItem(models.DB, models.QuotationItem{Description: "late addition", Amount: decimal.NewFromFloat(1)})
	suite.Assert().ErrorIs(err, models.ErrInvalidState)

	var items []models.QuotationItem
	err = models.DB.Find(&items, "quotation_id = ?", quotation.ID).Error
	suite.Require().NoError(err)
	suite.Require().Len(items, 1)

	err = quotation.RemoveItem(models.DB, items[0].ID)
	suite.Assert().ErrorIs(err, models.ErrInvalidState)
}

func (suite *TestSuiteStandard) TestQuotationSubmit() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID}, decimal.NewFromFloat(100))

	err := quotation.Submit(models.DB, testAdmin())
	suite.Require().NoError(err)
	suite.Assert().Equal(models.QuotationSubmitted, quotation.Status)
	suite.Assert().NotNil(quotation.SubmittedAt)

	err = quotation.Submit(models.DB, testAdmin())
	suite.Assert().ErrorIs(err, models.ErrInvalidState)
}

func (suite *TestSuiteStandard) TestQuotationSubmitEmpty() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotation(models.Quotation{ProjectID: project.ID})

	err := quotation.Submit(models.DB, testAdmin())
	suite.Assert().ErrorIs(err, models.ErrQuotationEmpty)
}

func (suite *TestSuiteStandard) TestQuotationApprove() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID}, decimal.NewFromFloat(4000))

	err := quotation.Submit(models.DB, testAdmin())
	suite.Require().NoError(err)

	approver := testApprover()
	entry, err := quotation.Approve(models.DB, approver)
	suite.Require().NoError(err)

	suite.Assert().Equal(models.KindQuotationApproved, entry.Kind)
	suite.Assert().Equal(models.ReferenceQuotation, entry.ReferenceType)
	suite.Require().NotNil(entry.ReferenceID)
	suite.Assert().Equal(quotation.ID, *entry.ReferenceID)
	suite.Assert().False(entry.BudgetExceeded)

	suite.Assert().Equal(models.QuotationApproved, quotation.Status)
	suite.Assert().NotNil(quotation.ApprovedAt)
	suite.Require().NotNil(quotation.ApprovedBy)
	suite.Assert().Equal(approver.ID, *quotation.ApprovedBy)

	err = models.DB.First(&project, "id = ?", project.ID).Error
	suite.Require().NoError(err)
	suite.Assert().True(project.Spent.Equal(decimal.NewFromFloat(4000)), "Spent is %s, should be 4000", project.Spent)
}

// A copy of the quotation loaded before another caller approved it
// must not commit the amount a second time.
func (suite *TestSuiteStandard) TestQuotationApproveStaleCopy() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID}, decimal.NewFromFloat(4000))

	err := quotation.Submit(models.DB, testAdmin())
	suite.Require().NoError(err)

	var stale models.Quotation
	err = models.DB.First(&stale, "id = ?", quotation.ID).Error
	suite.Require().NoError(err)

	_, err = quotation.Approve(models.DB, testApprover())
	suite.Require().NoError(err)

	_, err = stale.Approve(models.DB, testApprover())
	suite.Assert().ErrorIs(err, models.ErrInvalidState)

	err = models.DB.First(&project, "id = ?", project.ID).Error
	suite.Require().NoError(err)
	suite.Assert().True(project.Spent.Equal(decimal.NewFromFloat(4000)), "Spent is %s, should be 4000", project.Spent)

	var count int64
	err = models.DB.Model(&models.LedgerEntry{}).Where("reference_id = ?", quotation.ID).Count(&count).Error
	suite.Require().NoError(err)
	suite.Assert().Equal(int64(1), count, "The approval must be committed exactly once")
}

func (suite *TestSuiteStandard) TestQuotationApproveRequiresApprover() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID}, decimal.NewFromFloat(100))

	err := quotation.Submit(models.DB, testAdmin())
	suite.Require().NoError(err)

	_, err = quotation.Approve(models.DB, testAdmin())
	suite.Assert().ErrorIs(err, auth.ErrMissingRole)
}

func (suite *TestSuiteStandard) TestQuotationApproveDraft() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID}, decimal.NewFromFloat(100))

	_, err := quotation.Approve(models.DB, testApprover())
	suite.Assert().ErrorIs(err, models.ErrInvalidState)
}

func (suite *TestSuiteStandard) TestQuotationReject() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID}, decimal.NewFromFloat(100))

	err := quotation.Submit(models.DB, testAdmin())
	suite.Require().NoError(err)

	err = quotation.Reject(models.DB, testApprover(), "  ")
	suite.Assert().ErrorIs(err, models.ErrRejectionReasonRequired)

	err = quotation.Reject(models.DB, testApprover(), "too expensive")
	suite.Require().NoError(err)
	suite.Assert().Equal(models.QuotationRejected, quotation.Status)
	suite.Assert().Equal("too expensive", quotation.RejectionReason)

	// A rejection has no budget effect
	var count int64
	err = models.DB.Model(&models.LedgerEntry{}).Where("project_id = ?", project.ID).Count(&count).Error
	suite.Require().NoError(err)
	suite.Assert().Equal(int64(0), count)
}

func (suite *TestSuiteStandard) TestQuotationRequestChanges() {
	project := suite.createTestProject(models.Project{})
	quotation := suite.createTestQuotationWithItems(models.Quotation{ProjectID: project.ID}, decimal.NewFromFloat(100))

	err := quotation.RequestChanges(models.DB, testApprover())
	suite.Assert().ErrorIs(err, models.ErrInvalidState)

	err = quotation.Submit(models.DB, testAdmin())
	suite.Require().NoError(err)

	err = quotation.RequestChanges(models.DB, testApprover())
	suite.Require().NoError(err)
	suite.Assert().Equal(models.QuotationUnderReview, quotation.Status)

	// A quotation under review can still be resolved
	_, err = quotation.Approve(models.DB, testApprover())
	suite.Require().NoError(err)
	suite.Assert().Equal(models.QuotationApproved, quotation.Status)
}

func (suite *TestSuiteStandard) TestQuotationStatusTransitions() {
	tests := []struct {
		from    models.QuotationStatus
		to      models.QuotationStatus
		allowed bool
	}{
		{models.QuotationDraft, models.QuotationSubmitted, true},
		{models.QuotationDraft, models.QuotationApproved, false},
		{models.QuotationSubmitted, models.QuotationApproved, true},
		{models.QuotationSubmitted, models.QuotationRejected, true},
		{models.QuotationSubmitted, models.QuotationUnderReview, true},
		{models.QuotationUnderReview, models.QuotationApproved, true},
		{models.QuotationApproved, models.QuotationPaymentFileGenerated, true},
		{models.QuotationApproved, models.QuotationDraft, false},
		{models.QuotationPaymentFileGenerated, models.QuotationSentToBank, true},
		{models.QuotationSentToBank, models.QuotationPaid, true},
		{models.QuotationRejected, models.QuotationSubmitted, false},
		{models.QuotationPaid, models.QuotationDraft, false},
	}

	for _, tt := range tests {
		suite.T().Run(string(tt.from)+" to "+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
