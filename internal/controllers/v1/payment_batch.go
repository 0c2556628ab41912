package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/budgetflow/backend/internal/auth"
	"github.com/budgetflow/backend/internal/bank"
	"github.com/budgetflow/backend/internal/events"
	"github.com/budgetflow/backend/internal/httputil"
	"github.com/budgetflow/backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

// RegisterPaymentBatchRoutes registers the routes for payment batches
// with the RouterGroup that is passed.
func RegisterPaymentBatchRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsPaymentBatches)
		r.GET("", GetPaymentBatches)
		r.POST("", CreatePaymentBatch)
	}

	// Batch with ID
	{
		r.OPTIONS("/:id", OptionsPaymentBatchDetail)
		r.GET("/:id", GetPaymentBatch)
		r.DELETE("/:id/payments/:paymentId", RemoveBatchPayment)
		r.POST("/:id/generate-file", GenerateBatchFile)
		r.POST("/:id/confirm-sent", ConfirmBatchSent)
		r.POST("/:id/confirm-completed", ConfirmBatchCompleted)
		r.POST("/:id/cancel", CancelPaymentBatch)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			PaymentBatches
// @Success		204
// @Router			/v1/payment-batches [options]
func OptionsPaymentBatches(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			PaymentBatches
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/payment-batches/{id} [options]
func OptionsPaymentBatchDetail(c *gin.Context) {
	resourceOptionsDetail(c, models.PaymentBatch{}, httputil.OptionsGet)
}

// @Summary		Get payment batch
// @Description	Returns a specific payment batch
// @Tags			PaymentBatches
// @Produce		json
// @Success		200	{object}	PaymentBatchResponse
// @Failure		400	{object}	PaymentBatchResponse
// @Failure		404	{object}	PaymentBatchResponse
// @Failure		500	{object}	PaymentBatchResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/payment-batches/{id} [get]
func GetPaymentBatch(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	var batch models.PaymentBatch
	err = models.DB.First(&batch, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	data := newPaymentBatch(c, batch)
	c.JSON(http.StatusOK, PaymentBatchResponse{Data: &data})
}

// @Summary		Get payment batches
// @Description	Returns a list of payment batches
// @Tags			PaymentBatches
// @Produce		json
// @Success		200	{object}	PaymentBatchListResponse
// @Failure		400	{object}	PaymentBatchListResponse
// @Failure		500	{object}	PaymentBatchListResponse
// @Router			/v1/payment-batches [get]
// @Param			bankName	query	string	false	"Filter by bank name"
// @Param			status		query	string	false	"Filter by status"
// @Param			currency	query	string	false	"Filter by currency"
// @Param			offset		query	uint	false	"The offset of the first batch returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of batches to return. Defaults to 50."
func GetPaymentBatches(c *gin.Context) {
	var filter PaymentBatchQueryFilter
	if err := c.Bind(&filter); err != nil {
		s := err.Error()
		c.JSON(http.StatusBadRequest, PaymentBatchListResponse{
			Error: &s,
		})
		return
	}

	// Get the fields set in the filter
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	model, err := filter.model()
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchListResponse{
			Error: &e,
		})
		return
	}

	q := models.DB.Order("datetime(payment_batches.created_at) DESC").Where(&model, queryFields...)

	if filter.BankName != "" {
		q = q.Where("payment_batches.bank_name LIKE ?", fmt.Sprintf("%%%s%%", filter.BankName))
	} else if slices.Contains(setFields, "BankName") {
		q = q.Where("payment_batches.bank_name = ''")
	}

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 batches and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var batches []models.PaymentBatch
	err = q.Find(&batches).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchListResponse{
			Error: &e,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchListResponse{
			Error: &e,
		})
		return
	}

	data := make([]PaymentBatch, 0)
	for _, batch := range batches {
		data = append(data, newPaymentBatch(c, batch))
	}

	c.JSON(http.StatusOK, PaymentBatchListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Create payment batch
// @Description	Assembles a batch from pending or ready payments. All payments must share one currency and must not belong to another batch.
// @Tags			PaymentBatches
// @Accept			json
// @Produce		json
// @Success		201		{object}	PaymentBatchResponse
// @Failure		400		{object}	PaymentBatchResponse
// @Failure		403		{object}	PaymentBatchResponse
// @Failure		404		{object}	PaymentBatchResponse
// @Failure		409		{object}	PaymentBatchResponse
// @Failure		500		{object}	PaymentBatchResponse
// @Param			batch	body		PaymentBatchEditable	true	"Batch"
// @Router			/v1/payment-batches [post]
func CreatePaymentBatch(c *gin.Context) {
	var editable PaymentBatchEditable
	err := httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	batch, err := models.AssembleBatch(models.DB, editable.PaymentIDs, editable.BankName, auth.ActorFromContext(c))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	data := newPaymentBatch(c, batch)
	c.JSON(http.StatusCreated, PaymentBatchResponse{Data: &data})
}

// @Summary		Remove batch payment
// @Description	Removes a payment from a draft batch. The batch totals are updated in the same transaction.
// @Tags			PaymentBatches
// @Produce		json
// @Success		200			{object}	PaymentBatchResponse
// @Failure		400			{object}	PaymentBatchResponse
// @Failure		404			{object}	PaymentBatchResponse
// @Failure		409			{object}	PaymentBatchResponse
// @Failure		500			{object}	PaymentBatchResponse
// @Param			id			path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			paymentId	path		string	true	"ID of the payment"
// @Router			/v1/payment-batches/{id}/payments/{paymentId} [delete]
func RemoveBatchPayment(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	paymentID, err := httputil.UUIDFromString(c.Param("paymentId"))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	var batch models.PaymentBatch
	err = models.DB.First(&batch, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	err = batch.RemovePayment(models.DB, paymentID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	data := newPaymentBatch(c, batch)
	c.JSON(http.StatusOK, PaymentBatchResponse{Data: &data})
}

// @Summary		Generate bank file
// @Description	Hands the batch to the bank-file generator and advances it to file-generated on success. On generator failure the batch stays in draft and the call can be retried.
// @Tags			PaymentBatches
// @Produce		json
// @Success		201	{object}	PaymentBatchResponse
// @Failure		400	{object}	PaymentBatchResponse
// @Failure		404	{object}	PaymentBatchResponse
// @Failure		409	{object}	PaymentBatchResponse
// @Failure		500	{object}	PaymentBatchResponse
// @Failure		502	{object}	PaymentBatchResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/payment-batches/{id}/generate-file [post]
func GenerateBatchFile(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	actor := auth.ActorFromContext(c)
	if err := actor.Require(auth.RoleAdministrator); err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	var batch models.PaymentBatch
	err = models.DB.First(&batch, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	_, err = batch.GenerateFile(c.Request.Context(), models.DB, bank.Default)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	data := newPaymentBatch(c, batch)
	c.JSON(http.StatusCreated, PaymentBatchResponse{Data: &data})
}

// @Summary		Confirm batch sent
// @Description	Records that the bank file was submitted to the bank. All member payments and their quotations advance in the same transaction.
// @Tags			PaymentBatches
// @Accept			json
// @Produce		json
// @Success		200			{object}	PaymentBatchResponse
// @Failure		400			{object}	PaymentBatchResponse
// @Failure		404			{object}	PaymentBatchResponse
// @Failure		409			{object}	PaymentBatchResponse
// @Failure		500			{object}	PaymentBatchResponse
// @Param			id			path		URIID				true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Param			submission	body		ConfirmSentEditable	true	"Submission"
// @Router			/v1/payment-batches/{id}/confirm-sent [post]
func ConfirmBatchSent(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	var editable ConfirmSentEditable
	err = httputil.BindData(c, &editable)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	actor := auth.ActorFromContext(c)
	if err := actor.Require(auth.RoleAdministrator); err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	var batch models.PaymentBatch
	err = models.DB.First(&batch, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	err = batch.MarkSentToBank(models.DB, editable.BankReference)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	data := newPaymentBatch(c, batch)
	c.JSON(http.StatusOK, PaymentBatchResponse{Data: &data})
}

// @Summary		Confirm batch completed
// @Description	Records that the bank processed the batch. All member payments and their quotations become paid in the same transaction.
// @Tags			PaymentBatches
// @Produce		json
// @Success		200	{object}	PaymentBatchResponse
// @Failure		400	{object}	PaymentBatchResponse
// @Failure		404	{object}	PaymentBatchResponse
// @Failure		409	{object}	PaymentBatchResponse
// @Failure		500	{object}	PaymentBatchResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/payment-batches/{id}/confirm-completed [post]
func ConfirmBatchCompleted(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	actor := auth.ActorFromContext(c)
	if err := actor.Require(auth.RoleAdministrator); err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	var batch models.PaymentBatch
	err = models.DB.First(&batch, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	err = batch.MarkCompleted(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	events.Publish(events.TopicBatchCompleted, events.BatchEvent{
		BatchID:      batch.ID,
		BankName:     batch.BankName,
		TotalAmount:  batch.TotalAmount,
		PaymentCount: batch.PaymentCount,
		OccurredAt:   time.Now().In(time.UTC),
	})

	data := newPaymentBatch(c, batch)
	c.JSON(http.StatusOK, PaymentBatchResponse{Data: &data})
}

// @Summary		Cancel payment batch
// @Description	Withdraws a batch that has not been sent to the bank. The member payments are detached and go back to pending.
// @Tags			PaymentBatches
// @Produce		json
// @Success		200	{object}	PaymentBatchResponse
// @Failure		400	{object}	PaymentBatchResponse
// @Failure		404	{object}	PaymentBatchResponse
// @Failure		409	{object}	PaymentBatchResponse
// @Failure		500	{object}	PaymentBatchResponse
// @Param			id	path		URIID	true	"ignored, but needed: https://github.com/swaggo/swag/issues/1014"
// @Router			/v1/payment-batches/{id}/cancel [post]
func CancelPaymentBatch(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	actor := auth.ActorFromContext(c)
	if err := actor.Require(auth.RoleAdministrator); err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	var batch models.PaymentBatch
	err = models.DB.First(&batch, uri.ID).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	err = batch.Cancel(models.DB)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PaymentBatchResponse{
			Error: &e,
		})
		return
	}

	data := newPaymentBatch(c, batch)
	c.JSON(http.StatusOK, PaymentBatchResponse{Data: &data})
}
