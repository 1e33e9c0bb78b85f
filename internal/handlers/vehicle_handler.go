package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openroad/api/internal/helpers"
	"github.com/openroad/api/internal/models"
	"github.com/openroad/api/internal/services"
)

func ListVehicles(v *services.VehicleService) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		filters := map[string]string{}
		for _, key := range []string{"category", "status", "transmission", "fuel"} {
			if value := c.Query(key); value != "" {
				filters[key] = value
			}
		}

		vehicles, total, err := v.ListVehicles(c.Request.Context(), filters, offsetInt, limitInt)
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		page := (offsetInt / limitInt) + 1
		c.JSON(http.StatusOK, helpers.PaginatedResponse(vehicles, page, limitInt, total))
	}
}

func GetVehicle(v *services.VehicleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleID := strings.TrimSpace(c.Param("id"))
		if vehicleID == "" {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("vehicle ID is required"))
			return
		}

		parsedId, err := uuid.Parse(vehicleID)
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid vehicle ID format"))
			return
		}

		vehicle, err := v.GetVehicle(c.Request.Context(), parsedId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			return
		}
		if vehicle == nil {
			c.JSON(http.StatusNotFound, helpers.ErrorResponse("vehicle not found"))
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(vehicle, ""))
	}
}

func CreateVehicle(v *services.VehicleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := adminClaims(c)
		if !ok {
			return
		}
		if !claims.IsAdmin() && !claims.IsStaff() {
			c.JSON(http.StatusForbidden, helpers.ErrorResponse("only staff can manage the fleet"))
			return
		}

		var vehicle models.Vehicle
		if err := c.ShouldBindJSON(&vehicle); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		accessToken, _ := c.Cookie("access_token")
		created, err := v.CreateVehicle(c.Request.Context(), &vehicle, accessToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, helpers.SuccessResponse(created, "Vehicle created successfully"))
	}
}

func UpdateVehicle(v *services.VehicleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := adminClaims(c)
		if !ok {
			return
		}
		if !claims.IsAdmin() && !claims.IsStaff() {
			c.JSON(http.StatusForbidden, helpers.ErrorResponse("only staff can manage the fleet"))
			return
		}

		parsedId, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid vehicle ID format"))
			return
		}

		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		accessToken, _ := c.Cookie("access_token")
		updated, err := v.UpdateVehicle(c.Request.Context(), parsedId, fields, accessToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(updated, "Vehicle updated successfully"))
	}
}

func DeleteVehicle(v *services.VehicleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := adminClaims(c)
		if !ok {
			return
		}
		if !claims.IsAdmin() {
			c.JSON(http.StatusForbidden, helpers.ErrorResponse("only admins can remove vehicles"))
			return
		}

		parsedId, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid vehicle ID format"))
			return
		}

		accessToken, _ := c.Cookie("access_token")
		if err := v.DeleteVehicle(c.Request.Context(), parsedId, accessToken); err != nil {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "vehicle deleted successfully"))
	}
}

// adminClaims pulls the enhanced claims set by the auth middleware. It writes
// the error response itself so callers can just bail on !ok.
func adminClaims(c *gin.Context) (*helpers.EnhancedClaims, bool) {
	userClaims, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
		return nil, false
	}
	claims, ok := userClaims.(*helpers.EnhancedClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, helpers.ErrorResponse("invalid user claims"))
		return nil, false
	}
	return claims, true
}
