package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/openroad/api/internal/helpers"
	"github.com/openroad/api/internal/models"
	"github.com/openroad/api/internal/services"
	"github.com/supabase-community/gotrue-go/types"
)

func CreateAdmin(a *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.AdminUser
		if err := c.ShouldBindJSON(&user); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		created, err := a.CreateAdmin(&user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, helpers.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, created)
	}
}

func AuthenticateAdmin(a *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		authResponse, err := a.AuthenticateAdmin(req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("invalid email or password"))
			return
		}

		isProduction := os.Getenv("GIN_MODE") == "production"

		if tokenRes, ok := authResponse.(*types.TokenResponse); ok && tokenRes.AccessToken != "" {
			c.SetCookie(
				"access_token",
				tokenRes.AccessToken,
				tokenRes.ExpiresIn,
				"/",
				"",
				isProduction,
				true,
			)

			// Refresh token lives 30 days
			c.SetCookie(
				"refresh_token",
				tokenRes.RefreshToken,
				3600*24*30,
				"/",
				"",
				isProduction,
				true,
			)

			c.JSON(http.StatusOK, gin.H{
				"user": tokenRes.User,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, helpers.ErrorResponse("invalid token response"))
	}
}

func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		isProduction := os.Getenv("GIN_MODE") == "production"

		c.SetCookie("access_token", "", -1, "/", "", isProduction, true)
		c.SetCookie("refresh_token", "", -1, "/", "", isProduction, true)

		c.JSON(http.StatusOK, gin.H{
			"message": "Logged out successfully",
		})
	}
}

// AdminProfile echoes the enriched claims so the dashboard can render the
// signed-in user.
func AdminProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := adminClaims(c)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "OK",
			"user_id":  claims.UserID,
			"email":    claims.Email,
			"role":     claims.GetSafeRole(),
			"is_admin": claims.IsAdmin(),
		})
	}
}
