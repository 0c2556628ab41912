package v1

import (
	"fmt"
	"time"

	"github.com/budgetflow/backend/internal/models"
	bf_uuid "github.com/budgetflow/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApprovalLinks struct {
	Quotation string `json:"quotation" example:"https://example.com/api/v1/quotations/d430d7c3-d14c-4712-9336-ee56965a6673"` // The quotation the decision is about
}

// Approval is the representation of an Approval in API v1.
type Approval struct {
	models.DefaultModel
	QuotationID uuid.UUID             `json:"quotationId" example:"d430d7c3-d14c-4712-9336-ee56965a6673"`
	ApproverID  uuid.UUID             `json:"approverId" example:"2649c965-7999-4873-ae16-89d5d5fa972e"`
	Status      models.ApprovalStatus `json:"status" example:"approved"`
	Comment     string                `json:"comment" example:"Within plan" default:""`
	DecidedAt   *time.Time            `json:"decidedAt"`
	Links       ApprovalLinks         `json:"links"`
}

// newApproval returns the API v1 representation of the resource
func newApproval(c *gin.Context, model models.Approval) Approval {
	url := c.GetString(string(models.DBContextURL))

	return Approval{
		DefaultModel: model.DefaultModel,
		QuotationID:  model.QuotationID,
		ApproverID:   model.ApproverID,
		Status:       model.Status,
		Comment:      model.Comment,
		DecidedAt:    model.DecidedAt,
		Links: ApprovalLinks{
			Quotation: fmt.Sprintf("%s/v1/quotations/%s", url, model.QuotationID),
		},
	}
}

type ApprovalListResponse struct {
	Data       []Approval  `json:"data"`                                                          // List of approvals
	Error      *string     `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type DecisionEditable struct {
	QuotationID uuid.UUID             `json:"quotationId" example:"d430d7c3-d14c-4712-9336-ee56965a6673"` // ID of the quotation the decision is about
	Action      models.ApprovalAction `json:"action" example:"approve"`                                   // The decision to take
	Comment     string                `json:"comment" example:"Within plan" default:""`                   // A comment. For rejections this is the mandatory reason.
}

// Decision is the outcome of one decision in API v1.
type Decision struct {
	Approval       Approval     `json:"approval"`                       // The resolved decision record
	Quotation      Quotation    `json:"quotation"`                      // The quotation after the decision
	Entry          *LedgerEntry `json:"entry"`                          // The ledger entry, set for approvals only
	BudgetExceeded bool         `json:"budgetExceeded" example:"false"` // Whether the approval drove the project over budget
}

// newDecision returns the API v1 representation of a decision outcome
func newDecision(c *gin.Context, result models.DecisionResult) Decision {
	decision := Decision{
		Approval:       newApproval(c, result.Approval),
		Quotation:      newQuotation(c, result.Quotation),
		BudgetExceeded: result.BudgetExceeded(),
	}

	if result.Entry != nil {
		entry := newLedgerEntry(c, *result.Entry)
		decision.Entry = &entry
	}

	return decision
}

type DecisionResponse struct {
	Error *string   `json:"error" example:"this decision is already resolved"` // The error, if any occurred for this decision
	Data  *Decision `json:"data"`                                              // The decision outcome, if it succeeded
}

type DecisionListResponse struct {
	Error *string            `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Data  []DecisionResponse `json:"data"`                                                          // The per-quotation outcomes, in request order
}

func (d *DecisionListResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	d.Data = append(d.Data, DecisionResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type ApprovalQueryFilter struct {
	QuotationID bf_uuid.UUID          `form:"quotation"`                  // ID of the quotation
	ApproverID  bf_uuid.UUID          `form:"approver"`                   // ID of the approver
	Status      models.ApprovalStatus `form:"status"`                     // Status of the decision record
	Offset      uint                  `form:"offset" filterField:"false"` // The offset of the first Approval returned. Defaults to 0.
	Limit       int                   `form:"limit" filterField:"false"`  // Maximum number of Approvals to return. Defaults to 50.
}

func (f ApprovalQueryFilter) model() (models.Approval, error) {
	return models.Approval{
		QuotationID: f.QuotationID.UUID,
		ApproverID:  f.ApproverID.UUID,
		Status:      f.Status,
	}, nil
}
