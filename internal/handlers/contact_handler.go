package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openroad/api/internal/email"
	"github.com/openroad/api/internal/helpers"
)

// ContactMessage relays the public contact form to the rental desk inbox.
func ContactMessage(e email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name    string `json:"name" binding:"required"`
			Email   string `json:"email" binding:"required,email"`
			Phone   string `json:"phone"`
			Message string `json:"message" binding:"required,max=4000"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		if err := e.SendContactMessage(c.Request.Context(), req.Name, req.Email, req.Phone, req.Message); err != nil {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse("failed to deliver message"))
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Message sent, we will get back to you soon"))
	}
}
