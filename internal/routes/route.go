package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/openroad/api/internal/container"
	"github.com/openroad/api/internal/handlers"
	"github.com/openroad/api/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(c *container.Container) *gin.Engine {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     c.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(c.Logger))
	r.Use(middleware.ErrorHandler(c.Logger))
	r.Use(gin.Recovery())

	limited := c.PublicLimiter.Middleware()

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(200, gin.H{
				"status":  "OK",
				"service": "openroad-api",
			})
		})

		// public routes
		v1.GET("/vehicles", handlers.ListVehicles(c.VehicleService))
		v1.GET("/vehicles/:id", handlers.GetVehicle(c.VehicleService))

		v1.POST("/bookings", limited, handlers.CreateBooking(c.BookingService))
		v1.POST("/bookings/quote", handlers.QuoteBooking(c.BookingService))
		v1.GET("/verify-email", handlers.VerifyEmail(c.VerificationService))
		v1.POST("/fraud/check", limited, handlers.FraudCheck(c.FraudService))
		v1.POST("/contact", limited, handlers.ContactMessage(c.EmailService))

		v1.POST("/payments/checkout-session", handlers.CreateCheckoutSession(c.PaymentService))
		v1.POST("/payments/setup-intent", handlers.CreateSetupIntent(c.PaymentService))
		v1.GET("/payments/verify-session", handlers.VerifySession(c.PaymentService))
		// Signed by the provider, not a browser route
		v1.POST("/payments/webhook", handlers.PaymentWebhook(c.PaymentService))

		v1.POST("/signup", handlers.CreateAdmin(c.AdminService))
		v1.POST("/login", handlers.AuthenticateAdmin(c.AdminService))
		v1.POST("/logout", handlers.Logout())
	}

	protected := v1.Group("/admin")
	protected.Use(middleware.AuthMiddleware(c.AdminService, c.Logger))
	{
		protected.GET("/profile", handlers.AdminProfile())

		protected.POST("/vehicles", handlers.CreateVehicle(c.VehicleService))
		protected.PATCH("/vehicles/:id", handlers.UpdateVehicle(c.VehicleService))
		protected.DELETE("/vehicles/:id", handlers.DeleteVehicle(c.VehicleService))

		protected.GET("/bookings", handlers.ListBookings(c.BookingService))
		protected.GET("/bookings/:id", handlers.GetBooking(c.BookingService))
		protected.PATCH("/bookings/:id/status", handlers.TransitionBooking(c.BookingService))
	}

	return r
}
