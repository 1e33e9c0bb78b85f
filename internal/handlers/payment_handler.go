package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openroad/api/internal/helpers"
	"github.com/openroad/api/internal/payments"
	"github.com/openroad/api/internal/services"
)

func CreateCheckoutSession(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BookingId uuid.UUID `json:"booking_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		session, err := p.CreateCheckoutSession(c.Request.Context(), req.BookingId)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmailNotVerified):
				c.JSON(http.StatusForbidden, helpers.ErrorResponse(err.Error()))
			case errors.Is(err, services.ErrBookingNotPayable):
				c.JSON(http.StatusConflict, helpers.ErrorResponse(err.Error()))
			default:
				c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			}
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"session_id": session.ID,
			"url":        session.URL,
		}, ""))
	}
}

func CreateSetupIntent(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BookingId uuid.UUID `json:"booking_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		intent, err := p.CreateSetupIntent(c.Request.Context(), req.BookingId)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmailNotVerified):
				c.JSON(http.StatusForbidden, helpers.ErrorResponse(err.Error()))
			case errors.Is(err, services.ErrBookingNotPayable):
				c.JSON(http.StatusConflict, helpers.ErrorResponse(err.Error()))
			default:
				c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			}
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"intent_id":     intent.ID,
			"client_secret": intent.ClientSecret,
		}, ""))
	}
}

// VerifySession is polled by the success page when the webhook is slow.
func VerifySession(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionId := c.Query("session_id")
		if sessionId == "" {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("session_id is required"))
			return
		}

		booking, err := p.VerifySession(c.Request.Context(), sessionId)
		if err != nil {
			c.JSON(http.StatusBadGateway, helpers.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"booking_id":     booking.Id,
			"status":         booking.Status,
			"payment_status": booking.PaymentStatus,
		}, ""))
	}
}

// PaymentWebhook receives signed provider events. The raw body is what was
// signed, so it must be read before any binding touches it.
func PaymentWebhook(p *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("failed to read payload"))
			return
		}

		sigHeader := c.GetHeader("Signature")
		if err := p.HandleWebhook(c.Request.Context(), payload, sigHeader); err != nil {
			switch {
			case errors.Is(err, payments.ErrMissingSignature),
				errors.Is(err, payments.ErrBadSignature),
				errors.Is(err, payments.ErrStaleTimestamp):
				c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			default:
				// Let the provider retry delivery
				c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
