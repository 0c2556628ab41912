package v1

import (
	"fmt"

	"github.com/budgetflow/backend/internal/models"
	bf_uuid "github.com/budgetflow/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentEditable struct {
	QuotationID uuid.UUID `json:"quotationId" example:"d430d7c3-d14c-4712-9336-ee56965a6673"` // ID of the approved quotation to pay
}

type PaymentLinks struct {
	Self      string `json:"self" example:"https://example.com/api/v1/payments/d430d7c3-d14c-4712-9336-ee56965a6673"`      // The payment itself
	Quotation string `json:"quotation" example:"https://example.com/api/v1/quotations/187539d1-fa43-4dbd-bbd4-d0d7d88e3f1f"` // The quotation the payment was created from
	Project   string `json:"project" example:"https://example.com/api/v1/projects/52d967d3-33f4-4b04-9ba7-772e5ab9d0ce"`   // The project the payment spends against
}

// Payment is the representation of a Payment in API v1.
type Payment struct {
	models.DefaultModel
	QuotationID   uuid.UUID            `json:"quotationId" example:"d430d7c3-d14c-4712-9336-ee56965a6673"`
	ProjectID     uuid.UUID            `json:"projectId" example:"52d967d3-33f4-4b04-9ba7-772e5ab9d0ce"`
	BatchID       *uuid.UUID           `json:"batchId"` // ID of the batch the payment is assigned to, if any
	Payee         string               `json:"payee" example:"ACME Inc."`
	IBAN          string               `json:"iban" example:"DE89370400440532013000"`
	Amount        decimal.Decimal      `json:"amount" example:"1400.50"` // The amount, snapshotted from the quotation
	Currency      string               `json:"currency" example:"EUR"`
	Status        models.PaymentStatus `json:"status" example:"pending"`
	RetryCount    int                  `json:"retryCount" example:"0"`
	BankReference string               `json:"bankReference" example:"REF-2024-1883" default:""`
	Links         PaymentLinks         `json:"links"`
}

// newPayment returns the API v1 representation of the resource
func newPayment(c *gin.Context, model models.Payment) Payment {
	url := c.GetString(string(models.DBContextURL))

	return Payment{
		DefaultModel:  model.DefaultModel,
		QuotationID:   model.QuotationID,
		ProjectID:     model.ProjectID,
		BatchID:       model.BatchID,
		Payee:         model.Payee,
		IBAN:          model.IBAN,
		Amount:        model.Amount,
		Currency:      model.Currency,
		Status:        model.Status,
		RetryCount:    model.RetryCount,
		BankReference: model.BankReference,
		Links: PaymentLinks{
			Self:      fmt.Sprintf("%s/v1/payments/%s", url, model.ID),
			Quotation: fmt.Sprintf("%s/v1/quotations/%s", url, model.QuotationID),
			Project:   fmt.Sprintf("%s/v1/projects/%s", url, model.ProjectID),
		},
	}
}

type PaymentListResponse struct {
	Data       []Payment   `json:"data"`                                                          // List of payments
	Error      *string     `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type PaymentCreateResponse struct {
	Error *string           `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Data  []PaymentResponse `json:"data"`                                                          // List of created Payments
}

func (p *PaymentCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	p.Data = append(p.Data, PaymentResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type PaymentResponse struct {
	Error *string  `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred for this payment
	Data  *Payment `json:"data"`                                                          // The Payment data, if creation was successful
}

type PaymentQueryFilter struct {
	QuotationID bf_uuid.UUID         `form:"quotation"`                  // ID of the quotation
	ProjectID   bf_uuid.UUID         `form:"project"`                    // ID of the project
	BatchID     bf_uuid.UUID         `form:"batch" filterField:"false"`  // ID of the batch
	Status      models.PaymentStatus `form:"status"`                     // Status of the payment
	Currency    string               `form:"currency"`                   // Currency of the payment
	Offset      uint                 `form:"offset" filterField:"false"` // The offset of the first Payment returned. Defaults to 0.
	Limit       int                  `form:"limit" filterField:"false"`  // Maximum number of Payments to return. Defaults to 50.
}

func (f PaymentQueryFilter) model() (models.Payment, error) {
	return models.Payment{
		QuotationID: f.QuotationID.UUID,
		ProjectID:   f.ProjectID.UUID,
		Status:      f.Status,
		Currency:    f.Currency,
	}, nil
}
