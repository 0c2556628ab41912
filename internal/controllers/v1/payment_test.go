package v1_test

import (
	"fmt"
	"net/http"
	"testing"

	v1 "github.com/budgetflow/backend/internal/controllers/v1"
	"github.com/budgetflow/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestOptionsPayments() {
	r := test.Request(suite.T(), http.MethodOptions, "http://example.com/v1/payments", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
	suite.Assert().Equal("OPTIONS, GET, POST", r.Header().Get("allow"))
}

func (suite *TestSuiteStandard) TestCreatePayment() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(4000))

	payment := suite.createTestPayment(quotation.ID)

	suite.Assert().Equal(quotation.ID, payment.QuotationID)
	suite.Assert().Equal("ACME Inc.", payment.Payee)
	suite.Assert().Equal("DE89370400440532013000", payment.IBAN)
	suite.Assert().True(payment.Amount.Equal(decimal.NewFromFloat(4000)))
	suite.Assert().Equal("pending", string(payment.Status))
}

func (suite *TestSuiteStandard) TestCreatePaymentErrors() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	draft := suite.createTestQuotation(v1.QuotationEditable{ProjectID: project.ID})
	approved := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100))
	_ = suite.createTestPayment(approved.ID)

	tests := []struct {
		name        string
		quotationID uuid.UUID
		status      int
	}{
		{"not approved", draft.ID, http.StatusConflict},
		{"duplicate", approved.ID, http.StatusConflict},
		{"unknown quotation", uuid.New(), http.StatusNotFound},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/payments", []v1.PaymentEditable{{QuotationID: tt.quotationID}}, adminHeader())
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestCreatePaymentRequiresAdministrator() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100))

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/payments", []v1.PaymentEditable{{QuotationID: quotation.ID}}, approverHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestGetPaymentsFilter() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	other := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})

	first := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)
	_ = suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(200)).ID)
	_ = suite.createTestPayment(suite.createApprovedQuotation(other.ID, decimal.NewFromFloat(300)).ID)

	batch := suite.createTestBatch("Sparkasse", first.ID)

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"all", "", 3},
		{"by project", fmt.Sprintf("project=%s", project.ID), 2},
		{"by batch", fmt.Sprintf("batch=%s", batch.ID), 1},
		{"by status", "status=pending", 2},
		{"by quotation", fmt.Sprintf("quotation=%s", first.QuotationID), 1},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/payments?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.PaymentListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.count)
		})
	}
}

func (suite *TestSuiteStandard) TestPaymentHoldReleaseCancel() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	payment := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)

	r := test.Request(suite.T(), http.MethodPost, payment.Links.Self+"/hold", "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.PaymentResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("on-hold", string(response.Data.Status))

	r = test.Request(suite.T(), http.MethodPost, payment.Links.Self+"/release", "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("pending", string(response.Data.Status))

	r = test.Request(suite.T(), http.MethodPost, payment.Links.Self+"/cancel", "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("cancelled", string(response.Data.Status))

	// A cancelled payment cannot be held again
	r = test.Request(suite.T(), http.MethodPost, payment.Links.Self+"/hold", "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusConflict)
}

func (suite *TestSuiteStandard) TestPaymentRetryPendingConflict() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	payment := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)

	r := test.Request(suite.T(), http.MethodPost, payment.Links.Self+"/retry", "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusConflict)
}

func (suite *TestSuiteStandard) TestPaymentTransitionsRequireAdministrator() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	payment := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)

	for _, action := range []string{"hold", "release", "cancel", "retry"} {
		r := test.Request(suite.T(), http.MethodPost, fmt.Sprintf("%s/%s", payment.Links.Self, action), "", approverHeader())
		test.AssertHTTPStatus(suite.T(), &r, http.StatusForbidden)
	}
}
