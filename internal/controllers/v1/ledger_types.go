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

type URIEntryID struct {
	ID uint64 `uri:"id" binding:"required"` // ID of the ledger entry
}

type LedgerEntryEditable struct {
	ProjectID uuid.UUID              `json:"projectId" example:"fd81dc45-a3a2-468e-a6fa-b2618f30aa45"` // ID of the project the entry is committed against
	Kind      models.LedgerEntryKind `json:"kind" example:"expense"`                                   // Kind of the entry
	Amount    decimal.Decimal        `json:"amount" example:"14.03" minimum:"0.00000001" multipleOf:"0.00000001"` // The amount, always positive. The kind decides the direction.
	Note      string                 `json:"note" example:"Taxi to the airport" default:""`            // A note
}

type LedgerEntryLinks struct {
	Self    string `json:"self" example:"https://example.com/api/v1/ledger/57372"`                                 // The ledger entry itself
	Project string `json:"project" example:"https://example.com/api/v1/projects/d430d7c3-d14c-4712-9336-ee56965a6673"` // The project the entry belongs to
}

// LedgerEntry is the representation of a LedgerEntry in API v1.
type LedgerEntry struct {
	ID uint64 `json:"id" example:"57372"` // The ID of the entry. IDs are ordered by commit completion.
	LedgerEntryEditable
	PreviousBalance decimal.Decimal  `json:"previousBalance" example:"4000"`                  // The spent amount before this entry
	NewBalance      decimal.Decimal  `json:"newBalance" example:"4014.03"`                    // The spent amount after this entry
	BudgetExceeded  bool             `json:"budgetExceeded" example:"false"`                  // Whether this entry drove the project over budget
	ReferenceType   string           `json:"referenceType" example:"quotation" default:""`    // Type of the referenced resource, if any
	ReferenceID     *uuid.UUID       `json:"referenceId"`                                     // ID of the referenced resource, if any
	RecordedBy      uuid.UUID        `json:"recordedBy" example:"2649c965-7999-4873-ae16-89d5d5fa972e"` // ID of the actor that caused the entry
	CreatedAt       time.Time        `json:"createdAt" example:"2022-04-02T19:28:44.491514Z"`
	Links           LedgerEntryLinks `json:"links"`
}

// newLedgerEntry returns the API v1 representation of the resource
func newLedgerEntry(c *gin.Context, model models.LedgerEntry) LedgerEntry {
	url := c.GetString(string(models.DBContextURL))

	return LedgerEntry{
		ID: model.ID,
		LedgerEntryEditable: LedgerEntryEditable{
			ProjectID: model.ProjectID,
			Kind:      model.Kind,
			Amount:    model.Amount,
			Note:      model.Note,
		},
		PreviousBalance: model.PreviousBalance,
		NewBalance:      model.NewBalance,
		BudgetExceeded:  model.BudgetExceeded,
		ReferenceType:   model.ReferenceType,
		ReferenceID:     model.ReferenceID,
		RecordedBy:      model.RecordedBy,
		CreatedAt:       model.CreatedAt,
		Links: LedgerEntryLinks{
			Self:    fmt.Sprintf("%s/v1/ledger/%d", url, model.ID),
			Project: fmt.Sprintf("%s/v1/projects/%s", url, model.ProjectID),
		},
	}
}

type LedgerEntryListResponse struct {
	Data       []LedgerEntry `json:"data"`                                                          // List of ledger entries
	Error      *string       `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination   `json:"pagination"`                                                    // Pagination information
}

type LedgerEntryCreateResponse struct {
	Error *string               `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Data  []LedgerEntryResponse `json:"data"`                                                          // List of created entries
}

func (l *LedgerEntryCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	l.Data = append(l.Data, LedgerEntryResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type LedgerEntryResponse struct {
	Error *string      `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred for this entry
	Data  *LedgerEntry `json:"data"`                                                          // The entry data, if creation was successful
}

type LedgerEntryQueryFilter struct {
	ProjectID      bf_uuid.UUID           `form:"project"`                           // ID of the project
	Kind           models.LedgerEntryKind `form:"kind"`                              // Kind of the entry
	Note           string                 `form:"note" filterField:"false"`          // Note matches this glob pattern
	BudgetExceeded bool                   `form:"budgetExceeded"`                    // Only entries that drove a project over budget
	FromDate       time.Time              `form:"fromDate" filterField:"false"`      // Entries at and after this date. Ignores exact time, matches on the day of the RFC3339 timestamp provided.
	UntilDate      time.Time              `form:"untilDate" filterField:"false"`     // Entries before and at this date. Ignores exact time, matches on the day of the RFC3339 timestamp provided.
	Offset         uint                   `form:"offset" filterField:"false"`        // The offset of the first entry returned. Defaults to 0.
	Limit          int                    `form:"limit" filterField:"false"`         // Maximum number of entries to return. Defaults to 50.
}

func (f LedgerEntryQueryFilter) model() (models.LedgerEntry, error) {
	return models.LedgerEntry{
		ProjectID:      f.ProjectID.UUID,
		Kind:           f.Kind,
		BudgetExceeded: f.BudgetExceeded,
	}, nil
}
