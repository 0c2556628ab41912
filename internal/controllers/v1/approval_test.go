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

func (suite *TestSuiteStandard) TestOptionsApprovals() {
	r := test.Request(suite.T(), http.MethodOptions, "http://example.com/v1/approvals", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
	suite.Assert().Equal("OPTIONS, GET, POST", r.Header().Get("allow"))
}

func (suite *TestSuiteStandard) TestGetApprovals() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	approved := suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100))

	rejected := suite.createSubmittedQuotation(project.ID, decimal.NewFromFloat(200))
	r := test.Request(suite.T(), http.MethodPost, rejected.Links.Self+"/reject", v1.RejectionEditable{Reason: "no"}, approverHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"all", "", 2},
		{"by quotation", fmt.Sprintf("quotation=%s", approved.ID), 1},
		{"by status", "status=rejected", 1},
		{"no match", fmt.Sprintf("quotation=%s", uuid.New()), 0},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/approvals?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.ApprovalListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.count)
		})
	}
}

func (suite *TestSuiteStandard) TestCreateDecisions() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	first := suite.createSubmittedQuotation(project.ID, decimal.NewFromFloat(4000))
	second := suite.createSubmittedQuotation(project.ID, decimal.NewFromFloat(200))

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/approvals", []v1.DecisionEditable{
		{QuotationID: first.ID, Action: "approve", Comment: "Within plan"},
		{QuotationID: second.ID, Action: "reject", Comment: "Wrong vendor"},
	}, approverHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.DecisionListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	suite.Require().Len(response.Data, 2)
	suite.Assert().Equal("approved", string(response.Data[0].Data.Approval.Status))
	suite.Assert().NotNil(response.Data[0].Data.Entry)
	suite.Assert().Equal("rejected", string(response.Data[1].Data.Approval.Status))
	suite.Assert().Nil(response.Data[1].Data.Entry)
}

// The response code of a bulk decision is the highest per-decision code.
func (suite *TestSuiteStandard) TestCreateDecisionsBulkErrors() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createSubmittedQuotation(project.ID, decimal.NewFromFloat(100))

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/approvals", []v1.DecisionEditable{
		{QuotationID: quotation.ID, Action: "approve"},
		{QuotationID: quotation.ID, Action: "approve"},
		{QuotationID: uuid.New(), Action: "approve"},
	}, approverHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)

	var response v1.DecisionListResponse
	test.DecodeResponse(suite.T(), &r, &response)

	suite.Require().Len(response.Data, 3)
	suite.Assert().Nil(response.Data[0].Error)
	suite.Assert().NotNil(response.Data[1].Error, "The quotation is already resolved")
	suite.Assert().NotNil(response.Data[2].Error, "The quotation does not exist")
}

func (suite *TestSuiteStandard) TestCreateDecisionsInvalidAction() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createSubmittedQuotation(project.ID, decimal.NewFromFloat(100))

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/approvals", []v1.DecisionEditable{
		{QuotationID: quotation.ID, Action: "maybe"},
	}, approverHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestCreateDecisionsRequiresApprover() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	quotation := suite.createSubmittedQuotation(project.ID, decimal.NewFromFloat(100))

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/approvals", []v1.DecisionEditable{
		{QuotationID: quotation.ID, Action: "approve"},
	}, adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusForbidden)
}
