package v1

import (
	"fmt"

	"github.com/budgetflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentBatchEditable struct {
	BankName   string      `json:"bankName" example:"Commerzbank"`                                   // Name of the bank the batch is submitted to
	PaymentIDs []uuid.UUID `json:"paymentIds" example:"d430d7c3-d14c-4712-9336-ee56965a6673"`        // IDs of the payments to include
}

type PaymentBatchLinks struct {
	Self         string `json:"self" example:"https://example.com/api/v1/payment-batches/d430d7c3-d14c-4712-9336-ee56965a6673"`                       // The batch itself
	Payments     string `json:"payments" example:"https://example.com/api/v1/payments?batch=d430d7c3-d14c-4712-9336-ee56965a6673"`                    // The member payments
	GenerateFile string `json:"generateFile" example:"https://example.com/api/v1/payment-batches/d430d7c3-d14c-4712-9336-ee56965a6673/generate-file"` // Endpoint for generating the bank file
}

// PaymentBatch is the representation of a PaymentBatch in API v1.
type PaymentBatch struct {
	models.DefaultModel
	BankName      string                    `json:"bankName" example:"Commerzbank"`
	Currency      string                    `json:"currency" example:"EUR"`
	Status        models.PaymentBatchStatus `json:"status" example:"draft"`
	TotalAmount   decimal.Decimal           `json:"totalAmount" example:"18700.50"` // The sum of the member payment amounts
	PaymentCount  int                       `json:"paymentCount" example:"14"`      // The number of member payments
	FilePath      string                    `json:"filePath" example:"data/bank-spool/batch-d430d7c3.json" default:""`
	BankReference string                    `json:"bankReference" example:"SUBM-2024-0117" default:""`
	Links         PaymentBatchLinks         `json:"links"`
}

// newPaymentBatch returns the API v1 representation of the resource
func newPaymentBatch(c *gin.Context, model models.PaymentBatch) PaymentBatch {
	url := c.GetString(string(models.DBContextURL))

	return PaymentBatch{
		DefaultModel:  model.DefaultModel,
		BankName:      model.BankName,
		Currency:      model.Currency,
		Status:        model.Status,
		TotalAmount:   model.TotalAmount,
		PaymentCount:  model.PaymentCount,
		FilePath:      model.FilePath,
		BankReference: model.BankReference,
		Links: PaymentBatchLinks{
			Self:         fmt.Sprintf("%s/v1/payment-batches/%s", url, model.ID),
			Payments:     fmt.Sprintf("%s/v1/payments?batch=%s", url, model.ID),
			GenerateFile: fmt.Sprintf("%s/v1/payment-batches/%s/generate-file", url, model.ID),
		},
	}
}

type PaymentBatchListResponse struct {
	Data       []PaymentBatch `json:"data"`                                                          // List of batches
	Error      *string        `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination    `json:"pagination"`                                                    // Pagination information
}

type PaymentBatchResponse struct {
	Error *string       `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred for this batch
	Data  *PaymentBatch `json:"data"`                                                          // The batch data, if the operation was successful
}

type ConfirmSentEditable struct {
	BankReference string `json:"bankReference" example:"SUBM-2024-0117"` // The submission reference issued by the bank
}

type PaymentBatchQueryFilter struct {
	BankName string                    `form:"bankName" filterField:"false"` // Name of the bank, fuzzy
	Status   models.PaymentBatchStatus `form:"status"`                       // Status of the batch
	Currency string                    `form:"currency"`                     // Currency of the batch
	Offset   uint                      `form:"offset" filterField:"false"`   // The offset of the first batch returned. Defaults to 0.
	Limit    int                       `form:"limit" filterField:"false"`    // Maximum number of batches to return. Defaults to 50.
}

func (f PaymentBatchQueryFilter) model() (models.PaymentBatch, error) {
	return models.PaymentBatch{
		Status:   f.Status,
		Currency: f.Currency,
	}, nil
}
