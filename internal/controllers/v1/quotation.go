package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/budgetflow/backend/internal/events"
	"github.com/budgetflow/backend/internal/httputil"
	"github.com/budgetflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

// RegisterQuotationRoutes registers the routes for quotations with
// the RouterGroup that is passed.
func RegisterQuotationRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsQuotations)
		r.GET("", GetQuotations)
		r.POST("", CreateQuotations)
	}

	// Quotation with ID
	{
		r.OPTIONS("/:id", OptionsQuotationDetail)
		r.GET("/:id", GetQuotation)
		r.PATCH("/:id", UpdateQuotation)
		r.DELETE("/:id", DeleteQuotation)
	}

	// Items
	{
		r.OPTIONS("/:id/items", OptionsQuotationItems)
		r.POST("/:id/items", CreateQuotationItem)
		r.DELETE("/:id/items/:itemId", DeleteQuotationItem)
	}

	// Workflow actions
	{
		r.POST("/:id/submit", SubmitQuotation)
		r.POST("/:id/approve", ApproveQuotation)
		r.POST("/:id/reject", RejectQuotation)
		r.POST("/:id/request-changes", RequestQuotationChanges)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Quotations
// @Success		204
// @Router			/v1/quotations [options]
func OptionsQuotations(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Quotations
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/quotations/{id} [options]
func OptionsQuotationDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.Quotation{}, httputil.OptionsGetPatchDelete)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Quotations
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/quotations/{id}/items [options]
func OptionsQuotationItems(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var quotation models.Quotation
	err = models.DB.First(&quotation, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsPost(c)
}

// @Summary		Get quotation
// @Description	Returns a specific quotation with its items
// @Tags			Quotations
// @Produce		json
// @Success		200	{object}	QuotationResponse
// @Failure		400	{object}	QuotationResponse
// @Failure		404	{object}	QuotationResponse
// @Failure		500	{object}	QuotationResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/quotations/{id} [get]
func GetQuotation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	var quotation models.Quotation
	err = models.DB.Preload("Items").First(&quotation, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	data := newQuotation(c, quotation)
	c.JSON(http.StatusOK, QuotationResponse{Data: &data})
}

// @Summary		Get quotations
// @Description	Returns a list of quotations
// @Tags			Quotations
// @Produce		json
// @Success		200	{object}	QuotationListResponse
// @Failure		400	{object}	QuotationListResponse
// @Failure		500	{object}	QuotationListResponse
// @Router			/v1/quotations [get]
// @Param			project		query	string	false	"Filter by project ID"
// @Param			status		query	string	false	"Filter by status"
// @Param			currency	query	string	false	"Filter by currency"
// @Param			note		query	string	false	"Filter by note"
// @Param			payee		query	string	false	"Filter by payee name"
// @Param			offset		query	uint	false	"The offset of the first Quotation returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of Quotations to return. Defaults to 50."
func GetQuotations(c *gin.Context) {
	var filter QuotationQueryFilter
	if err := c.Bind(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, QuotationListResponse{
			Error: &s,
		})
		return
	}

	// Get the fields set in the filter
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationListResponse{
			Error: &e,
		})
		return
	}

	q := models.DB.Order("datetime(quotations.created_at) DESC").Where(&model, queryFields...)

	if filter.Note != "" {
		q = q.Where("quotations.note LIKE ?", fmt.Sprintf("%%%s%%", filter.Note))
	} else if slices.Contains(setFields, "Note") {
		q = q.Where("quotations.note = ''")
	}

	if filter.Payee != "" {
		q = q.Where("quotations.payee_name LIKE ?", fmt.Sprintf("%%%s%%", filter.Payee))
	}

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 quotations and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var quotations []models.Quotation
	err = q.Preload("Items").Find(&quotations).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationListResponse{
			Error: &e,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Quotation, 0)
	for _, quotation := range quotations {
		data = append(data, newQuotation(c, quotation))
	}

	c.JSON(http.StatusOK, QuotationListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Create quotations
// @Description	Creates quotations from the list of submitted quotation data. The response code is the highest response code number that a single quotation creation would have caused. If it is not equal to 201, at least one quotation has an error.
// @Tags			Quotations
// @Produce		json
// @Success		201			{object}	QuotationCreateResponse
// @Failure		400			{object}	QuotationCreateResponse
// @Failure		404			{object}	QuotationCreateResponse
// @Failure		500			{object}	QuotationCreateResponse
// @Param			quotations	body		[]QuotationEditable	true	"Quotations"
// @Router			/v1/quotations [post]
func CreateQuotations(c *gin.Context) {
	var editables []QuotationEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationCreateResponse{
			Error: &e,
		})
		return
	}

	actor := auth.ActorFromContext(c)

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := QuotationCreateResponse{}

	for _, editable := range editables {
		quotation := models.Quotation{
			ProjectID: editable.ProjectID,
			Note:      editable.Note,
			Currency:  editable.Currency,
			PayeeName: editable.PayeeName,
			PayeeIBAN: editable.PayeeIBAN,
			CreatedBy: actor.ID,
		}

		err := models.DB.Create(&quotation).Error
		// Append the error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		// Items go through AddItem so that the total is maintained
		for _, item := range editable.Items {
			err = quotation.AddItem(models.DB, item.model())
			if err != nil {
				break
			}
		}
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		err = models.DB.Preload("Items").First(&quotation, quotation.ID).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newQuotation(c, quotation)
		r.Data = append(r.Data, QuotationResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Update quotation
// @Description	Updates the note and payee details of a draft quotation. Only values to be updated need to be specified.
// @Tags			Quotations
// @Accept			json
// @Produce		json
// @Success		200			{object}	QuotationResponse
// @Failure		400			{object}	QuotationResponse
// @Failure		404			{object}	QuotationResponse
// @Failure		409			{object}	QuotationResponse
// @Failure		500			{object}	QuotationResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			quotation	body		QuotationEditable	true	"Quotation"
// @Router			/v1/quotations/{id} [patch]
func UpdateQuotation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	var quotation models.Quotation
	err = models.DB.First(&quotation, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	if quotation.Status != models.QuotationDraft {
		err = fmt.Errorf("%w: quotations can only be edited in draft, the quotation is %s", models.ErrInvalidState, quotation.Status)
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	// Get the fields that are set to be updated
	updateFields, err := httputil.GetBodyFields(c, QuotationEditable{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	// The project binding, the total and the items do not change through a patch
	updateFields = slices.DeleteFunc(updateFields, func(field any) bool {
		return field == "ProjectID" || field == "Items"
	})

	// Bind the update for the patch
	var update QuotationEditable
	err = httputil.BindData(c, &update)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	err = models.DB.Model(&quotation).Select("", updateFields...).Updates(models.Quotation{
		Note:      update.Note,
		Currency:  update.Currency,
		PayeeName: update.PayeeName,
		PayeeIBAN: update.PayeeIBAN,
	}).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	data := newQuotation(c, quotation)
	c.JSON(http.StatusOK, QuotationResponse{Data: &data})
}

// @Summary		Delete quotation
// @Description	Deletes a draft quotation
// @Tags			Quotations
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		409	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/quotations/{id} [delete]
func DeleteQuotation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var quotation models.Quotation
	err = models.DB.First(&quotation, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	if quotation.Status != models.QuotationDraft {
		err = fmt.Errorf("%w: only draft quotations can be deleted, the quotation is %s", models.ErrInvalidState, quotation.Status)
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&quotation).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// @Summary		Add quotation item
// @Description	Adds an item to a draft quotation. The total amount is updated in the same transaction.
// @Tags			Quotations
// @Accept			json
// @Produce		json
// @Success		201		{object}	QuotationResponse
// @Failure		400		{object}	QuotationResponse
// @Failure		404		{object}	QuotationResponse
// @Failure		409		{object}	QuotationResponse
// @Failure		500		{object}	QuotationResponse
// @Param			id		path		URIID					true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			item	body		QuotationItemEditable	true	"Item"
// @Router			/v1/quotations/{id}/items [post]
func CreateQuotationItem(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	var editable QuotationItemEditable
	err = httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	var quotation models.Quotation
	err = models.DB.First(&quotation, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	err = quotation.AddItem(models.DB, editable.model())
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	err = models.DB.Preload("Items").First(&quotation, quotation.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	data := newQuotation(c, quotation)
	c.JSON(http.StatusCreated, QuotationResponse{Data: &data})
}

// @Summary		Delete quotation item
// @Description	Removes an item from a draft quotation. The total amount is updated in the same transaction.
// @Tags			Quotations
// @Produce		json
// @Success		200		{object}	QuotationResponse
// @Failure		400		{object}	QuotationResponse
// @Failure		404		{object}	QuotationResponse
// @Failure		409		{object}	QuotationResponse
// @Failure		500		{object}	QuotationResponse
// @Param			id		path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			itemId	path		string	true	"ID of the item"
// @Router			/v1/quotations/{id}/items/{itemId} [delete]
func DeleteQuotationItem(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	itemID, err := httputil.UUIDFromString(c.Param("itemId"))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	var quotation models.Quotation
	err = models.DB.First(&quotation, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	err = quotation.RemoveItem(models.DB, itemID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	err = models.DB.Preload("Items").First(&quotation, quotation.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	data := newQuotation(c, quotation)
	c.JSON(http.StatusOK, QuotationResponse{Data: &data})
}

// @Summary		Submit quotation
// @Description	Submits a draft quotation for approval
// @Tags			Quotations
// @Produce		json
// @Success		200	{object}	QuotationResponse
// @Failure		400	{object}	QuotationResponse
// @Failure		404	{object}	QuotationResponse
// @Failure		409	{object}	QuotationResponse
// @Failure		500	{object}	QuotationResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/quotations/{id}/submit [post]
func SubmitQuotation(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	var quotation models.Quotation
	err = models.DB.First(&quotation, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	actor := auth.ActorFromContext(c)
	err = quotation.Submit(models.DB, actor)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), QuotationResponse{
			Error: &e,
		})
		return
	}

	events.Publish(events.TopicQuotationSubmitted, events.QuotationEvent{
		QuotationID: quotation.ID,
		ProjectID:   quotation.ProjectID,
		ActorID:     actor.ID,
		TotalAmount: quotation.TotalAmount,
		Currency:    quotation.Currency,
		OccurredAt:  time.Now().In(time.UTC),
	})

	data := newQuotation(c, quotation)
	c.JSON(http.StatusOK, QuotationResponse{Data: &data})
}

// @Summary		Approve quotation
// @Description	Records an approval decision and commits the quotation amount against the project budget. Exceeding the budget does not fail, the decision carries a budgetExceeded flag instead.
// @Tags			Quotations
// @Produce		json
// @Success		200	{object}	DecisionResponse
// @Failure		400	{object}	DecisionResponse
// @Failure		403	{object}	DecisionResponse
// @Failure		404	{object}	DecisionResponse
// @Failure		409	{object}	DecisionResponse
// @Failure		500	{object}	DecisionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/quotations/{id}/approve [post]
func ApproveQuotation(c *gin.Context) {
	decideQuotation(c, models.ActionApprove)
}

// @Summary		Reject quotation
// @Description	Records a rejection decision. A reason is mandatory, the budget is not touched.
// @Tags			Quotations
// @Accept			json
// @Produce		json
// @Success		200			{object}	DecisionResponse
// @Failure		400			{object}	DecisionResponse
// @Failure		403			{object}	DecisionResponse
// @Failure		404			{object}	DecisionResponse
// @Failure		409			{object}	DecisionResponse
// @Failure		500			{object}	DecisionResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			rejection	body		RejectionEditable	true	"Rejection"
// @Router			/v1/quotations/{id}/reject [post]
func RejectQuotation(c *gin.Context) {
	decideQuotation(c, models.ActionReject)
}

// @Summary		Request quotation changes
// @Description	Sends the quotation back to the requester for changes. The budget is not touched.
// @Tags			Quotations
// @Produce		json
// @Success		200	{object}	DecisionResponse
// @Failure		400	{object}	DecisionResponse
// @Failure		403	{object}	DecisionResponse
// @Failure		404	{object}	DecisionResponse
// @Failure		409	{object}	DecisionResponse
// @Failure		500	{object}	DecisionResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/quotations/{id}/request-changes [post]
func RequestQuotationChanges(c *gin.Context) {
	decideQuotation(c, models.ActionRequestChanges)
}

// decideQuotation runs a single decision on a quotation and publishes
// the matching workflow event.
func decideQuotation(c *gin.Context, action models.ApprovalAction) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DecisionResponse{
			Error: &e,
		})
		return
	}

	var comment string
	if action == models.ActionReject {
		var editable RejectionEditable
		err = httputil.BindData(c, &editable)
		if err != nil {
			e := err.Error()
			c.JSON(status(err), DecisionResponse{
				Error: &e,
			})
			return
		}
		comment = editable.Reason
	}

	actor := auth.ActorFromContext(c)
	result, err := models.Decide(models.DB, uri.ID.UUID, actor, action, comment)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), DecisionResponse{
			Error: &e,
		})
		return
	}

	publishDecision(actor, result)

	data := newDecision(c, result)
	c.JSON(http.StatusOK, DecisionResponse{Data: &data})
}

// publishDecision publishes the workflow event for a resolved decision.
// Pending outcomes like requested changes are not published.
func publishDecision(actor auth.Actor, result models.DecisionResult) {
	event := events.QuotationEvent{
		QuotationID: result.Quotation.ID,
		ProjectID:   result.Quotation.ProjectID,
		ActorID:     actor.ID,
		TotalAmount: result.Quotation.TotalAmount,
		Currency:    result.Quotation.Currency,
		OccurredAt:  time.Now().In(time.UTC),
	}

	switch result.Approval.Status {
	case models.ApprovalApproved:
		event.BudgetExceeded = result.BudgetExceeded()
		events.Publish(events.TopicQuotationApproved, event)
	case models.ApprovalRejected:
		event.Reason = result.Quotation.RejectionReason
		events.Publish(events.TopicQuotationRejected, event)
	}
}
