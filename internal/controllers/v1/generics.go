package v1

import (
	"github.com/budgetflow/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// resourceOptionsDetail returns the appropriate response for an HTTP OPTIONS
// request for a specific resource. The allowed function writes the "allow"
// header for the verbs the resource supports.
func resourceOptionsDetail[R models.Project | models.Quotation | models.Payment | models.PaymentBatch](c *gin.Context, resource R, allowed gin.HandlerFunc) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&resource, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	allowed(c)
}
