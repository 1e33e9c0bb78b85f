package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openroad/api/internal/helpers"
	"github.com/openroad/api/internal/services"
)

// FraudCheck is called by the booking form before submission. Blocked
// contacts get a 403, suspicious ones a 429 with a retry hint.
func FraudCheck(f *services.FraudService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
			Phone string `json:"phone" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		decision, err := f.Check(c.Request.Context(), req.Email, req.Phone, c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			return
		}

		switch decision.Outcome {
		case services.OutcomeBlocked:
			c.JSON(http.StatusForbidden, helpers.ErrorResponse("booking not allowed"))
		case services.OutcomeRateLimited:
			c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
			c.JSON(http.StatusTooManyRequests, helpers.ErrorResponse("too many booking attempts, try again later"))
		default:
			c.JSON(http.StatusOK, helpers.SuccessResponse(decision, ""))
		}
	}
}
