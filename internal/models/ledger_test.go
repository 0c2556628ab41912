package models_test

import (
	"sync"
	"testing"

	"github.com/budgetflow/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestCommit() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})

	entry, err := models.Commit(models.DB, project.ID, decimal.NewFromFloat(4000), models.KindExpense, nil, testAdmin(), "server hardware")
	suite.Require().NoError(err)

	suite.Assert().True(entry.PreviousBalance.IsZero(), "Previous balance is %s, should be 0", entry.PreviousBalance)
	suite.Assert().True(entry.NewBalance.Equal(decimal.NewFromFloat(4000)), "New balance is %s, should be 4000", entry.NewBalance)
	suite.Assert().False(entry.BudgetExceeded)
	suite.Assert().Equal("server hardware", entry.Note)

	err = models.DB.First(&project, "id = ?", project.ID).Error
	suite.Require().NoError(err)
	suite.Assert().True(project.Spent.Equal(decimal.NewFromFloat(4000)), "Spent is %s, should be 4000", project.Spent)
	suite.Assert().True(project.Remaining.Equal(decimal.NewFromFloat(6000)), "Remaining is %s, should be 6000", project.Remaining)
}

// An over-budget commit goes through and is flagged instead of being
// blocked.
func (suite *TestSuiteStandard) TestCommitOverBudget() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})

	_, err := models.Commit(models.DB, project.ID, decimal.NewFromFloat(4000), models.KindQuotationApproved, nil, testApprover(), "")
	suite.Require().NoError(err)

	entry, err := models.Commit(models.DB, project.ID, decimal.NewFromFloat(7000), models.KindQuotationApproved, nil, testApprover(), "")
	suite.Require().NoError(err)

	suite.Assert().True(entry.BudgetExceeded)
	suite.Assert().True(entry.PreviousBalance.Equal(decimal.NewFromFloat(4000)))
	suite.Assert().True(entry.NewBalance.Equal(decimal.NewFromFloat(11000)))

	err = models.DB.First(&project, "id = ?", project.ID).Error
	suite.Require().NoError(err)
	suite.Assert().True(project.Spent.Equal(decimal.NewFromFloat(11000)), "Spent is %s, should be 11000", project.Spent)
	suite.Assert().True(project.Remaining.Equal(decimal.NewFromFloat(-1000)), "Remaining is %s, should be -1000", project.Remaining)
}

func (suite *TestSuiteStandard) TestCommitRefund() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})

	_, err := models.Commit(models.DB, project.ID, decimal.NewFromFloat(4000), models.KindExpense, nil, testAdmin(), "")
	suite.Require().NoError(err)

	entry, err := models.Commit(models.DB, project.ID, decimal.NewFromFloat(1000), models.KindRefund, nil, testAdmin(), "partial refund")
	suite.Require().NoError(err)

	suite.Assert().False(entry.BudgetExceeded)
	suite.Assert().True(entry.NewBalance.Equal(decimal.NewFromFloat(3000)), "New balance is %s, should be 3000", entry.NewBalance)

	err = models.DB.First(&project, "id = ?", project.ID).Error
	suite.Require().NoError(err)
	suite.Assert().True(project.Remaining.Equal(decimal.NewFromFloat(7000)), "Remaining is %s, should be 7000", project.Remaining)
}

func (suite *TestSuiteStandard) TestCommitErrors() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})

	tests := []struct {
		name      string
		projectID uuid.UUID
		amount    decimal.Decimal
		kind      models.LedgerEntryKind
		expected  error
	}{
		{"zero amount", project.ID, decimal.Zero, models.KindExpense, models.ErrAmountNotPositive},
		{"negative amount", project.ID, decimal.NewFromFloat(-10), models.KindExpense, models.ErrAmountNotPositive},
		{"allocation kind", project.ID, decimal.NewFromFloat(10), models.KindAllocationIncrease, models.ErrKindNotCommittable},
		{"unknown project", uuid.New(), decimal.NewFromFloat(10), models.KindExpense, models.ErrResourceNotFound},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			_, err := models.Commit(models.DB, tt.projectID, tt.amount, tt.kind, nil, testAdmin(), "")
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

// The NewBalance of every entry equals the PreviousBalance of the next
// and replaying the ledger reproduces the stored spent amount.
func (suite *TestSuiteStandard) TestLedgerChain() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})

	commits := []struct {
		amount float64
		kind   models.LedgerEntryKind
	}{
		{4000, models.KindQuotationApproved},
		{250, models.KindExpense},
		{1000, models.KindRefund},
		{500, models.KindTransferOut},
		{125.50, models.KindTransferIn},
		{7000, models.KindQuotationApproved},
		{10, models.KindAdjustment},
	}

	for _, commit := range commits {
		_, err := models.Commit(models.DB, project.ID, decimal.NewFromFloat(commit.amount), commit.kind, nil, testAdmin(), "")
		suite.Require().NoError(err)
	}

	_, err := project.Reallocate(models.DB, decimal.NewFromFloat(11000), testAdmin(), "")
	suite.Require().NoError(err)

	var entries []models.LedgerEntry
	err = models.DB.Where("project_id = ?", project.ID).Order("id ASC").Find(&entries).Error
	suite.Require().NoError(err)
	suite.Require().Len(entries, len(commits)+1)

	for i := 1; i < len(entries); i++ {
		suite.Assert().True(entries[i].PreviousBalance.Equal(entries[i-1].NewBalance),
			"Entry %d starts at %s, the previous entry ended at %s", entries[i].ID, entries[i].PreviousBalance, entries[i-1].NewBalance)
	}

	err = models.DB.First(&project, "id = ?", project.ID).Error
	suite.Require().NoError(err)

	replayed, err := models.ReplaySpent(models.DB, project.ID)
	suite.Require().NoError(err)
	suite.Assert().True(replayed.Equal(project.Spent), "Replaying the ledger yields %s, the project has %s", replayed, project.Spent)
	suite.Assert().True(project.Remaining.Equal(project.Allocated.Sub(project.Spent)))
}

func (suite *TestSuiteStandard) TestLedgerEntryImmutable() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})

	entry, err := models.Commit(models.DB, project.ID, decimal.NewFromFloat(100), models.KindExpense, nil, testAdmin(), "")
	suite.Require().NoError(err)

	err = models.DB.Model(&entry).Update("amount", decimal.NewFromFloat(1)).Error
	suite.Assert().ErrorIs(err, models.ErrLedgerEntryImmutable)

	err = models.DB.Delete(&entry).Error
	suite.Assert().ErrorIs(err, models.ErrLedgerEntryImmutable)
}

// Concurrent commits against the same project must not lose updates.
func (suite *TestSuiteStandard) TestCommitConcurrent() {
	project := suite.createTestProject(models.Project{Allocated: decimal.NewFromFloat(10000)})

	const commits = 10

	var wg sync.WaitGroup
	errs := make(chan error, commits)
	for i := 0; i < commits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := models.Commit(models.DB, project.ID, decimal.NewFromFloat(100), models.KindExpense, nil, testAdmin(), "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		suite.Assert().NoError(err)
	}

	err := models.DB.First(&project, "id = ?", project.ID).Error
	suite.Require().NoError(err)
	suite.Assert().True(project.Spent.Equal(decimal.NewFromFloat(1000)), "Spent is %s, should be 1000", project.Spent)

	var entries []models.LedgerEntry
	err = models.DB.Where("project_id = ?", project.ID).Order("id ASC").Find(&entries).Error
	suite.Require().NoError(err)
	suite.Require().Len(entries, commits)

	for i := 1; i < len(entries); i++ {
		suite.Assert().True(entries[i].PreviousBalance.Equal(entries[i-1].NewBalance),
			"Entry %d starts at %s, the previous entry ended at %s", entries[i].ID, entries[i].PreviousBalance, entries[i-1].NewBalance)
	}
}
