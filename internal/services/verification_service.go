package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openroad/api/internal/email"
	"github.com/openroad/api/internal/helpers"
	"github.com/openroad/api/internal/models"
)

var (
	ErrTokenNotFound   = errors.New("verification token not found")
	ErrAlreadyVerified = errors.New("already verified")
	ErrTokenExpired    = errors.New("verification token expired")
)

type VerificationService struct {
	verificationsRepo models.VerificationsRepo
	bookingsRepo      models.BookingsRepo
	emailService      email.Service
	baseURL           string
	logger            *slog.Logger

	now func() time.Time
}

func NewVerificationService(
	verificationsRepo models.VerificationsRepo,
	bookingsRepo models.BookingsRepo,
	emailService email.Service,
	baseURL string,
	logger *slog.Logger,
) *VerificationService {
	return &VerificationService{
		verificationsRepo: verificationsRepo,
		bookingsRepo:      bookingsRepo,
		emailService:      emailService,
		baseURL:           baseURL,
		logger:            logger,
		now:               time.Now,
	}
}

// Issue creates a single-use token for the booking and emails the link.
func (vs *VerificationService) Issue(ctx context.Context, booking *models.Booking) error {
	token, err := helpers.GenerateToken()
	if err != nil {
		return err
	}

	now := vs.now()
	record := &models.EmailVerification{
		Id:        uuid.New(),
		BookingId: booking.Id,
		Token:     token,
		ExpiresAt: now.Add(models.VerificationTTL),
		Verified:  false,
		CreatedAt: now,
	}

	if err := vs.verificationsRepo.CreateVerification(ctx, record); err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", vs.baseURL, token)
	return vs.emailService.SendVerificationEmail(ctx, booking.CustomerEmail, booking.CustomerName, verifyURL, record.ExpiresAt)
}

// Consume validates and burns a verification token. An expired token marks
// the booking Expired; a burnt one fails with ErrAlreadyVerified.
func (vs *VerificationService) Consume(ctx context.Context, token string) (*models.Booking, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}

	record, err := vs.verificationsRepo.GetVerificationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTokenNotFound
	}
	if record.Verified {
		return nil, ErrAlreadyVerified
	}

	booking, err := vs.bookingsRepo.GetBookingByID(ctx, record.BookingId)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking for verification not found")
	}

	now := vs.now()
	if record.Expired(now) {
		if booking.Status.CanTransition(models.BookingExpired) {
			if err := vs.bookingsRepo.UpdateBookingStatus(ctx, booking.Id, models.BookingExpired); err != nil {
				vs.logger.Error("failed to expire booking", "booking_id", booking.Id, "error", err)
			}
		}
		return nil, ErrTokenExpired
	}

	if err := vs.verificationsRepo.MarkVerified(ctx, record.Id); err != nil {
		return nil, err
	}
	if err := vs.bookingsRepo.UpdateBookingFields(ctx, booking.Id, map[string]interface{}{
		"email_verified": true,
	}); err != nil {
		return nil, err
	}
	booking.EmailVerified = true

	vs.logger.Info("email verified", "booking_id", booking.Id)
	return booking, nil
}
