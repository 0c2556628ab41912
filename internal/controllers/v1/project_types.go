package v1

import (
	"fmt"

	"github.com/budgetflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProjectEditable struct {
	Name      string          `json:"name" example:"Office relocation" default:""`                             // Name of the project
	Note      string          `json:"note" example:"Planned for Q3" default:""`                                // A note
	Currency  string          `json:"currency" example:"EUR" default:"EUR"`                                    // ISO 4217 currency code of the budget
	Allocated decimal.Decimal `json:"allocated" example:"10000" minimum:"0.00000001" multipleOf:"0.00000001"`  // The allocated budget
}

// model returns the database resource for the API representation of the editable fields
func (editable ProjectEditable) model() models.Project {
	return models.Project{
		Name:      editable.Name,
		Note:      editable.Note,
		Currency:  editable.Currency,
		Allocated: editable.Allocated,
	}
}

type ProjectLinks struct {
	Self       string `json:"self" example:"https://example.com/api/v1/projects/d430d7c3-d14c-4712-9336-ee56965a6673"`            // The project itself
	Ledger     string `json:"ledger" example:"https://example.com/api/v1/ledger?project=d430d7c3-d14c-4712-9336-ee56965a6673"`    // The ledger entries of the project
	Balance    string `json:"balance" example:"https://example.com/api/v1/projects/d430d7c3-d14c-4712-9336-ee56965a6673/balance"` // The current balance
	Reallocate string `json:"reallocate" example:"https://example.com/api/v1/projects/d430d7c3-d14c-4712-9336-ee56965a6673/reallocate"`
	Variance   string `json:"variance" example:"https://example.com/api/v1/projects/d430d7c3-d14c-4712-9336-ee56965a6673/variance"`
}

// Project is the representation of a Project in API v1.
type Project struct {
	models.DefaultModel
	ProjectEditable
	Spent     decimal.Decimal `json:"spent" example:"4000"`     // The spent amount, maintained by the ledger
	Remaining decimal.Decimal `json:"remaining" example:"6000"` // Allocated minus spent, maintained by the ledger
	Links     ProjectLinks    `json:"links"`
}

// newProject returns the API v1 representation of the resource
func newProject(c *gin.Context, model models.Project) Project {
	url := c.GetString(string(models.DBContextURL))

	return Project{
		DefaultModel: model.DefaultModel,
		ProjectEditable: ProjectEditable{
			Name:      model.Name,
			Note:      model.Note,
			Currency:  model.Currency,
			Allocated: model.Allocated,
		},
		Spent:     model.Spent,
		Remaining: model.Remaining,
		Links: ProjectLinks{
			Self:       fmt.Sprintf("%s/v1/projects/%s", url, model.ID),
			Ledger:     fmt.Sprintf("%s/v1/ledger?project=%s", url, model.ID),
			Balance:    fmt.Sprintf("%s/v1/projects/%s/balance", url, model.ID),
			Reallocate: fmt.Sprintf("%s/v1/projects/%s/reallocate", url, model.ID),
			Variance:   fmt.Sprintf("%s/v1/projects/%s/variance", url, model.ID),
		},
	}
}

type ProjectListResponse struct {
	Data       []Project   `json:"data"`                                                          // List of projects
	Error      *string     `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type ProjectCreateResponse struct {
	Error *string           `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred
	Data  []ProjectResponse `json:"data"`                                                          // List of created Projects
}

func (p *ProjectCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	p.Data = append(p.Data, ProjectResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type ProjectResponse struct {
	Error *string  `json:"error" example:"the resource ID you specified is not a valid UUID"` // The error, if any occurred for this project
	Data  *Project `json:"data"`                                                          // The Project data, if creation was successful
}

type BalanceResponse struct {
	Error *string         `json:"error" example:"there is no project matching your query"` // The error, if any occurred
	Data  *models.Balance `json:"data"`                                                    // The current balance of the project
}

type VarianceResponse struct {
	Error *string          `json:"error" example:"there is no project matching your query"` // The error, if any occurred
	Data  *models.Variance `json:"data"`                                                    // The budget variance of the project
}

type ReallocateEditable struct {
	Allocated decimal.Decimal `json:"allocated" example:"12000"`          // The new allocated budget
	Note      string          `json:"note" example:"Scope increased" default:""` // A note for the ledger entry
}

type ReallocateResponse struct {
	Error *string      `json:"error" example:"the new allocation would be lower than the spent amount"` // The error, if any occurred
	Data  *LedgerEntry `json:"data"`                                                                    // The ledger entry recording the change
}

type ProjectQueryFilter struct {
	Name     string `form:"name" filterField:"false"`   // Name of the project, fuzzy
	Note     string `form:"note" filterField:"false"`   // Note of the project, fuzzy
	Currency string `form:"currency"`                   // Currency of the project
	Offset   uint   `form:"offset" filterField:"false"` // The offset of the first Project returned. Defaults to 0.
	Limit    int    `form:"limit" filterField:"false"`  // Maximum number of Projects to return. Defaults to 50.
}

func (f ProjectQueryFilter) model() (models.Project, error) {
	return models.Project{
		Currency: f.Currency,
	}, nil
}
