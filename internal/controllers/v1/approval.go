package v1

import (
	"net/http"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/budgetflow/backend/internal/httputil"
	"github.com/budgetflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

// RegisterApprovalRoutes registers the routes for approvals with
// the RouterGroup that is passed.
func RegisterApprovalRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsApprovals)
		r.GET("", GetApprovals)
		r.POST("", CreateDecisions)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Approvals
// @Success		204
// @Router			/v1/approvals [options]
func OptionsApprovals(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Get approvals
// @Description	Returns a list of decision records
// @Tags			Approvals
// @Produce		json
// @Success		200	{object}	ApprovalListResponse
// @Failure		400	{object}	ApprovalListResponse
// @Failure		500	{object}	ApprovalListResponse
// @Router			/v1/approvals [get]
// @Param			quotation	query	string	false	"Filter by quotation ID"
// @Param			approver	query	string	false	"Filter by approver ID"
// @Param			status		query	string	false	"Filter by status"
// @Param			offset		query	uint	false	"The offset of the first Approval returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of Approvals to return. Defaults to 50."
func GetApprovals(c *gin.Context) {
	var filter ApprovalQueryFilter
	if err := c.Bind(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, ApprovalListResponse{
			Error: &s,
		})
		return
	}

	// Get the fields set in the filter
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ApprovalListResponse{
			Error: &e,
		})
		return
	}

	q := models.DB.Order("datetime(approvals.created_at) DESC").Where(&model, queryFields...)

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 approvals and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var approvals []models.Approval
	err = q.Find(&approvals).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ApprovalListResponse{
			Error: &e,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), ApprovalListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Approval, 0)
	for _, approval := range approvals {
		data = append(data, newApproval(c, approval))
	}

	c.JSON(http.StatusOK, ApprovalListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Decide on quotations
// @Description	Records decisions for the list of submitted quotation IDs. Every decision is processed on its own, a failing quotation does not affect the others. The response code is the highest response code number that a single decision would have caused. If it is not equal to 200, at least one decision has an error.
// @Tags			Approvals
// @Produce		json
// @Success		200			{object}	DecisionListResponse
// @Failure		400			{object}	DecisionListResponse
// @Failure		403			{object}	DecisionListResponse
// @Failure		404			{object}	DecisionListResponse
// @Failure		409			{object}	DecisionListResponse
// @Failure		500			{object}	DecisionListResponse
// @Param			decisions	body		[]DecisionEditable	true	"Decisions"
// @Router			/v1/approvals [post]
func CreateDecisions(c *gin.Context) {
	var editables []DecisionEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DecisionListResponse{
			Error: &e,
		})
		return
	}

	actor := auth.ActorFromContext(c)

	// The final http status. Will be modified when errors occur
	status := http.StatusOK
	r := DecisionListResponse{}

	for _, editable := range editables {
		if !slices.Contains([]models.ApprovalAction{models.ActionApprove, models.ActionReject, models.ActionRequestChanges}, editable.Action) {
			status = r.appendError(errActionInvalid, status)
			continue
		}

		result, err := models.Decide(models.DB, editable.QuotationID, actor, editable.Action, editable.Comment)
		// Append the error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		publishDecision(actor, result)

		data := newDecision(c, result)
		r.Data = append(r.Data, DecisionResponse{Data: &data})
	}

	c.JSON(status, r)
}
