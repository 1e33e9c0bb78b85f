package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openroad/api/internal/helpers"
	"github.com/openroad/api/internal/services"
)

// VerifyEmail consumes the token from the verification link.
func VerifyEmail(v *services.VerificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("token is required"))
			return
		}

		booking, err := v.Consume(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenNotFound):
				c.JSON(http.StatusNotFound, helpers.ErrorResponse(err.Error()))
			case errors.Is(err, services.ErrAlreadyVerified):
				c.JSON(http.StatusConflict, helpers.ErrorResponse(err.Error()))
			case errors.Is(err, services.ErrTokenExpired):
				c.JSON(http.StatusGone, helpers.ErrorResponse(err.Error()))
			default:
				c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			}
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"booking_id":     booking.Id,
			"email_verified": booking.EmailVerified,
		}, "Email verified, you can proceed to payment"))
	}
}
