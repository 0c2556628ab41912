package v1

import (
	"fmt"
	"time"

	"github.com/budgetflow/backend/internal/models"
	bf_uuid "github.com/budgetflow/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type QuotationItemEditable struct {
	Description string          `json:"description" example:"10x office chair" default:""`                    // Description of the line
	Category    string          `json:"category" example:"furniture" default:""`                              // Spending category
	Vendor      string          `json:"vendor" example:"ACME Inc." default:""`                                // The vendor
	Amount      decimal.Decimal `json:"amount" example:"1400.50" minimum:"0.00000001" multipleOf:"0.00000001"` // The amount of the line
}

// model returns the database resource for the API representation of the editable fields
func (editable QuotationItemEditable) model() models.QuotationItem {
	return models.QuotationItem{
		Description: editable.Description,
		Category:    editable.Category,
		Vendor:      editable.Vendor,
		Amount:      editable.Amount,
	}
}

// QuotationItem is the representation of a QuotationItem in API v1.
type QuotationItem struct {
	models.DefaultModel
	QuotationItemEditable
}

func newQuotationItem(model models.QuotationItem) QuotationItem {
	return QuotationItem{
		DefaultModel: model.DefaultModel,
		QuotationItemEditable: QuotationItemEditable{
			Description: model.Description,
			Category:    model.Category,
			Vendor:      model.Vendor,
			Amount:      model.Amount,
		},
	}
}

type QuotationEditable struct {
	ProjectID uuid.UUID               `json:"projectId" example:"fd81dc45-a3a2-468e-a6fa-b2618f30aa45"` // ID of the project the quotation spends against
	Note      string                  `json:"note" example:"New chairs for the east wing" default:""`   // A note
	Currency  string                  `json:"currency" example:"EUR" default:""`                        // Currency. Defaults to the currency of the project.
	PayeeName string                  `json:"payeeName" example:"ACME Inc." default:""`                 // Name of the payee
	PayeeIBAN string                  `json:"payeeIban" example:"DE89370400440532013000" default:""`    // IBAN of the payee
	Items     []QuotationItemEditable `json:"items"`                                                    // The lines of the quotation
}

type QuotationLinks struct {
	Self      string `json:"self" example:"https://example.com/api/v1/quotations/d430d7c3-d14c-4712-9336-ee56965a6673"`           // The quotation itself
	Items     string `json:"items" example:"https://example.com/api/v1/quotations/d430d7c3-d14c-4712-9336-ee56965a6673/items"`    // Endpoint for adding items
	Submit    string `json:"submit" example:"https://example.com/api/v1/quotations/d430d7c3-d14c-4712-9336-ee56965a6673/submit"`  // Endpoint for submitting the quotation
	Approvals string `json:"approvals" example:"https://example.com/api/v1/approvals?quotation=d430d7c3-d14c-4712-9336-ee56965a6673"` // The decision records for the quotation
	Project   string `json:"project" example:"https://example.com/api/v1/projects/187539d1-fa43-4dbd-bbd4-d0d7d88e3f1f"`          // The project the quotation belongs to
}

// Quotation is the representation of a Quotation in API v1.
type Quotation struct {
	models.DefaultModel
	ProjectID       uuid.UUID              `json:"projectId" example:"fd81dc45-a3a2-468e-a6fa-b2618f30aa45"`
	Note            string                 `json:"note" example:"New chairs for the east wing"`
	Currency        string                 `json:"currency" example:"EUR"`
	Status          models.QuotationStatus `json:"status" example:"draft"`
	TotalAmount     decimal.Decimal        `json:"totalAmount" example:"1400.50"` // The sum of the item amounts
	PayeeName       string                 `json:"payeeName" example:"ACME Inc."`
	PayeeIBAN       string                 `json:"payeeIban" example:"DE89370400440532013000"`
	SubmittedAt     *time.Time             `json:"submittedAt"`
	ApprovedAt      *time.Time             `json:"approvedAt"`
	ApprovedBy      *uuid.UUID             `json:"approvedBy"`
	RejectionReason string                 `json:"rejectionReason" example:"Out of scope for this quarter"`
	Items           []QuotationItem        `json:"items"`
	Links           QuotationLinks         `json:"links"`
}

// newQuotation returns the API v1 representation of the resource
func newQuotation(c *gin.Context, model models.Quotation) Quotation {
	url := c.GetString(string(models.DBContextURL))

	items := make([]QuotationItem, 0, len(model.Items))
	for _, item := range model.Items {
		items = append(items, newQuotationItem(item))
	}

	return Quotation{
		DefaultModel:    model.DefaultModel,
		ProjectID:       model.ProjectID,
		Note:            model.Note,
		Currency:        model.Currency,
		Status:          model.Status,
		TotalAmount:     model.TotalAmount,
		PayeeName:       model.PayeeName,
		PayeeIBAN:       model.PayeeIBAN,
		SubmittedAt:     model.SubmittedAt,
		ApprovedAt:      model.ApprovedAt,
		ApprovedBy:      model.ApprovedBy,
		RejectionReason: model.RejectionReason,
		Items:           items,
		Links: QuotationLinks{
			Self:      fmt.Sprintf("%s/v1/quotations/%s", url, model.ID),
			Items:     fmt.Sprintf("%s/v1/quotations/%s/items", url, model.ID),
			Submit:    fmt.Sprintf("%s/v1/quotations/%s/submit", url, model.ID),
			Approvals: fmt.Sprintf("%s/v1/approvals?quotation=%s", url, model.ID),
			Project:   fmt.Sprintf("%s/v1/projects/%s", url, model.ProjectID),
		},
	}
}

type QuotationListResponse struct {
	Data       []Quotation `json:"data"`                                                          // List of quotations
	Error      *string     `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type QuotationCreateResponse struct {
	Error *string             `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Data  []QuotationResponse `json:"data"`                                                          // List of created Quotations
}

func (q *QuotationCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	q.Data = append(q.Data, QuotationResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type QuotationResponse struct {
	Error *string    `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred for this quotation
	Data  *Quotation `json:"data"`                                                          // The Quotation data, if creation was successful
}

type RejectionEditable struct {
	Reason string `json:"reason" example:"Out of scope for this quarter"` // The reason for the rejection. Mandatory.
}

type QuotationQueryFilter struct {
	ProjectID bf_uuid.UUID           `form:"project"`                    // ID of the project
	Status    models.QuotationStatus `form:"status"`                     // Status of the quotation
	Currency  string                 `form:"currency"`                   // Currency of the quotation
	Note      string                 `form:"note" filterField:"false"`   // Note contains this string
	Payee     string                 `form:"payee" filterField:"false"`  // Payee name contains this string
	Offset    uint                   `form:"offset" filterField:"false"` // The offset of the first Quotation returned. Defaults to 0.
	Limit     int                    `form:"limit" filterField:"false"`  // Maximum number of Quotations to return. Defaults to 50.
}

func (f QuotationQueryFilter) model() (models.Quotation, error) {
	return models.Quotation{
		ProjectID: f.ProjectID.UUID,
		Status:    f.Status,
		Currency:  f.Currency,
	}, nil
}
