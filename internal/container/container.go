package container

import (
	"log/slog"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/openroad/api/internal/config"
	"github.com/openroad/api/internal/email"
	"github.com/openroad/api/internal/middleware"
	"github.com/openroad/api/internal/models"
	"github.com/openroad/api/internal/payments"
	"github.com/openroad/api/internal/services"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// fraudThreshold is the risk score at which booking attempts get slowed down.
// Hard blocks come from the scoring procedure itself.
const fraudThreshold = 0.7

// Container holds all application dependencies
type Container struct {
	Logger     *slog.Logger
	Config     *config.Config
	Cloudinary *cloudinary.Cloudinary
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client

	EmailService email.Service

	AdminService        *services.AdminService
	VehicleService      *services.VehicleService
	BookingService      *services.BookingService
	VerificationService *services.VerificationService
	FraudService        *services.FraudService
	PaymentService      *services.PaymentService

	// PublicLimiter throttles the abuse-prone unauthenticated endpoints
	PublicLimiter *middleware.RateLimiter
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	cfg *config.Config,
	cld *cloudinary.Cloudinary,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
) *Container {
	// Initialize repositories
	supa := models.SupabaseNewRepo(supabaseClient, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	mongoRepo := models.MongodbNewRepo(mongoDBClient)

	logo := email.NewLogoCache(cld, "brand/logo", time.Hour)
	emailService := email.NewSMTPService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		FromName: "Open Road Rentals",
	}, cfg.ContactInbox, logo, logger)

	provider := payments.NewHTTP(cfg.PaymentSecretKey)

	adminService := services.NewAdminService(supa)
	vehicleService := services.NewVehicleService(supa)
	verificationService := services.NewVerificationService(supa, supa, emailService, cfg.PublicBaseURL, logger)
	bookingService := services.NewBookingService(supa, supa, verificationService, services.DefaultPricingConfig(), logger)
	fraudService := services.NewFraudService(supa, mongoRepo, fraudThreshold, logger)
	paymentService := services.NewPaymentService(supa, supa, provider, emailService, cfg.PaymentWebhookSecret, cfg.PublicBaseURL, logger)

	return &Container{
		Logger:              logger,
		Config:              cfg,
		Cloudinary:          cld,
		SupabaseClient:      supabaseClient,
		MongoDBClient:       mongoDBClient,
		EmailService:        emailService,
		AdminService:        adminService,
		VehicleService:      vehicleService,
		BookingService:      bookingService,
		VerificationService: verificationService,
		FraudService:        fraudService,
		PaymentService:      paymentService,
		PublicLimiter:       middleware.NewRateLimiter(time.Minute, 20),
	}
}
