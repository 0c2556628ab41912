package v1_test

import (
	"fmt"
	"net/http"
	"os"

	"github.com/budgetflow/backend/internal/bank"
	v1 "github.com/budgetflow/backend/internal/controllers/v1"
	"github.com/budgetflow/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestOptionsPaymentBatches() {
	r := test.Request(suite.T(), http.MethodOptions, "http://example.com/v1/payment-batches", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)
	suite.Assert().Equal("OPTIONS, GET, POST", r.Header().Get("allow"))
}

func (suite *TestSuiteStandard) TestCreatePaymentBatch() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	first := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)
	second := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(250.50)).ID)

	batch := suite.createTestBatch("Sparkasse", first.ID, second.ID)

	suite.Assert().Equal("draft", string(batch.Status))
	suite.Assert().Equal("Sparkasse", batch.BankName)
	suite.Assert().Equal("EUR", batch.Currency)
	suite.Assert().Equal(2, batch.PaymentCount)
	suite.Assert().True(batch.TotalAmount.Equal(decimal.NewFromFloat(350.50)))
}

func (suite *TestSuiteStandard) TestCreatePaymentBatchErrors() {
	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/payment-batches", v1.PaymentBatchEditable{
		BankName: "Sparkasse",
	}, adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/payment-batches", v1.PaymentBatchEditable{
		BankName:   "Sparkasse",
		PaymentIDs: []uuid.UUID{uuid.New()},
	}, adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestCreatePaymentBatchRequiresAdministrator() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	payment := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/payment-batches", v1.PaymentBatchEditable{
		BankName:   "Sparkasse",
		PaymentIDs: []uuid.UUID{payment.ID},
	}, approverHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusForbidden)
}

func (suite *TestSuiteStandard) TestRemoveBatchPayment() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	first := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)
	second := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(200)).ID)

	batch := suite.createTestBatch("Sparkasse", first.ID, second.ID)

	r := test.Request(suite.T(), http.MethodDelete, fmt.Sprintf("%s/payments/%s", batch.Links.Self, first.ID), "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.PaymentBatchResponse
	test.DecodeResponse(suite.T(), &r, &response)

	suite.Assert().Equal(1, response.Data.PaymentCount)
	suite.Assert().True(response.Data.TotalAmount.Equal(decimal.NewFromFloat(200)))
}

func (suite *TestSuiteStandard) TestBatchLifecycle() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	payment := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)
	batch := suite.createTestBatch("Sparkasse", payment.ID)

	// Generate the bank file
	r := test.Request(suite.T(), http.MethodPost, batch.Links.GenerateFile, "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)

	var response v1.PaymentBatchResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("file-generated", string(response.Data.Status))
	suite.Require().NotEmpty(response.Data.FilePath)

	_, err := os.Stat(response.Data.FilePath)
	suite.Assert().NoError(err, "The generated file must exist on disk")

	// Confirm the submission to the bank
	r = test.Request(suite.T(), http.MethodPost, batch.Links.Self+"/confirm-sent", v1.ConfirmSentEditable{
		BankReference: "SUBM-2026-0117",
	}, adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("sent-to-bank", string(response.Data.Status))
	suite.Assert().Equal("SUBM-2026-0117", response.Data.BankReference)

	// Confirm completion
	r = test.Request(suite.T(), http.MethodPost, batch.Links.Self+"/confirm-completed", "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("completed", string(response.Data.Status))

	// The member payment and its quotation are paid
	r = test.Request(suite.T(), http.MethodGet, payment.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var paymentResponse v1.PaymentResponse
	test.DecodeResponse(suite.T(), &r, &paymentResponse)
	suite.Assert().Equal("paid", string(paymentResponse.Data.Status))

	r = test.Request(suite.T(), http.MethodGet, paymentResponse.Data.Links.Quotation, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var quotationResponse v1.QuotationResponse
	test.DecodeResponse(suite.T(), &r, &quotationResponse)
	suite.Assert().Equal("paid", string(quotationResponse.Data.Status))
}

func (suite *TestSuiteStandard) TestBatchGenerateFileFailing() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	payment := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)
	batch := suite.createTestBatch("Sparkasse", payment.ID)

	// A spool directory that cannot be created makes the generator fail
	bank.Default = bank.NewSpoolGenerator(string([]byte{0}))

	r := test.Request(suite.T(), http.MethodPost, batch.Links.GenerateFile, "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadGateway)

	// The batch stays in draft and the call can be retried
	r = test.Request(suite.T(), http.MethodGet, batch.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.PaymentBatchResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("draft", string(response.Data.Status))

	bank.Default = bank.NewSpoolGenerator(suite.T().TempDir())

	r = test.Request(suite.T(), http.MethodPost, batch.Links.GenerateFile, "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)
}

func (suite *TestSuiteStandard) TestBatchConfirmSentDraftConflict() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	payment := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)
	batch := suite.createTestBatch("Sparkasse", payment.ID)

	r := test.Request(suite.T(), http.MethodPost, batch.Links.Self+"/confirm-sent", v1.ConfirmSentEditable{
		BankReference: "SUBM-2026-0117",
	}, adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusConflict)
}

func (suite *TestSuiteStandard) TestCancelPaymentBatch() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	payment := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)
	batch := suite.createTestBatch("Sparkasse", payment.ID)

	r := test.Request(suite.T(), http.MethodPost, batch.Links.Self+"/cancel", "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.PaymentBatchResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("cancelled", string(response.Data.Status))

	// The detached payment goes back to pending
	r = test.Request(suite.T(), http.MethodGet, payment.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var paymentResponse v1.PaymentResponse
	test.DecodeResponse(suite.T(), &r, &paymentResponse)
	suite.Assert().Equal("pending", string(paymentResponse.Data.Status))
	suite.Assert().Nil(paymentResponse.Data.BatchID)
}

func (suite *TestSuiteStandard) TestGetPaymentBatchesFilter() {
	project := suite.createTestProject(v1.ProjectEditable{Allocated: decimal.NewFromFloat(10000)})
	first := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(100)).ID)
	second := suite.createTestPayment(suite.createApprovedQuotation(project.ID, decimal.NewFromFloat(200)).ID)

	_ = suite.createTestBatch("Sparkasse", first.ID)
	batch := suite.createTestBatch("Volksbank", second.ID)

	r := test.Request(suite.T(), http.MethodPost, batch.Links.GenerateFile, "", adminHeader())
	test.AssertHTTPStatus(suite.T(), &r, http.StatusCreated)

	tests := []struct {
		query string
		count int
	}{
		{"", 2},
		{"bankName=spark", 1},
		{"status=draft", 1},
		{"status=file-generated", 1},
	}

	for _, tt := range tests {
		r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/payment-batches?%s", tt.query), "")
		test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

		var response v1.PaymentBatchListResponse
		test.DecodeResponse(suite.T(), &r, &response)
		suite.Assert().Len(response.Data, tt.count, "Wrong number of batches for query %q", tt.query)
	}
}
