package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openroad/api/internal/helpers"
	"github.com/openroad/api/internal/models"
	"github.com/openroad/api/internal/services"
)

func CreateBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		booking, err := b.CreateBooking(c.Request.Context(), &req)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrDateConflict):
				c.JSON(http.StatusConflict, helpers.ErrorResponse(err.Error()))
			case errors.Is(err, services.ErrVehicleUnavailable):
				c.JSON(http.StatusConflict, helpers.ErrorResponse(err.Error()))
			default:
				c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			}
			return
		}

		c.JSON(http.StatusCreated, helpers.SuccessResponse(booking, "Booking created, check your inbox to verify your email"))
	}
}

func QuoteBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			VehicleId      uuid.UUID `json:"vehicle_id" binding:"required"`
			PickupAt       time.Time `json:"pickup_at" binding:"required"`
			ReturnAt       time.Time `json:"return_at" binding:"required"`
			PickupLocation string    `json:"pickup_location" binding:"required"`
			ReturnLocation string    `json:"return_location" binding:"required"`
			UnlimitedKm    bool      `json:"unlimited_km"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		fees, err := b.Quote(c.Request.Context(), req.VehicleId, req.PickupAt, req.ReturnAt, req.PickupLocation, req.ReturnLocation, req.UnlimitedKm)
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(fees, ""))
	}
}

func ListBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireStaff(c) {
			return
		}

		limit := c.DefaultQuery("limit", "20")
		offset := c.DefaultQuery("offset", "0")
		limitInt, err := strconv.Atoi(limit)
		if err != nil || limitInt <= 0 {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid limit parameter"))
			return
		}
		offsetInt, err := strconv.Atoi(offset)
		if err != nil || offsetInt < 0 {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid offset parameter"))
			return
		}

		bookings, total, err := b.ListBookings(c.Request.Context(), c.Query("status"), offsetInt, limitInt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			return
		}

		page := (offsetInt / limitInt) + 1
		c.JSON(http.StatusOK, helpers.PaginatedResponse(bookings, page, limitInt, total))
	}
}

func GetBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireStaff(c) {
			return
		}

		parsedId, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid booking ID format"))
			return
		}

		booking, err := b.GetBooking(c.Request.Context(), parsedId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			return
		}
		if booking == nil {
			c.JSON(http.StatusNotFound, helpers.ErrorResponse("booking not found"))
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, ""))
	}
}

// TransitionBooking handles manual status moves from the dashboard, e.g.
// marking a confirmed booking active at pickup.
func TransitionBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireStaff(c) {
			return
		}

		parsedId, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid booking ID format"))
			return
		}

		var req struct {
			Status models.BookingStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		booking, err := b.TransitionBooking(c.Request.Context(), parsedId, req.Status)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidTransition):
				c.JSON(http.StatusConflict, helpers.ErrorResponse(err.Error()))
			case errors.Is(err, services.ErrBookingNotFound):
				c.JSON(http.StatusNotFound, helpers.ErrorResponse(err.Error()))
			default:
				c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			}
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, "Booking status updated"))
	}
}

// requireStaff ensures the caller holds a dashboard role. Signup is open, so
// accounts without a staff profile row resolve to "guest" and must not see
// customer data.
func requireStaff(c *gin.Context) bool {
	claims, ok := adminClaims(c)
	if !ok {
		return false
	}
	if !claims.IsAdmin() && !claims.IsStaff() {
		c.JSON(http.StatusForbidden, helpers.ErrorResponse("only staff can access bookings"))
		return false
	}
	return true
}
