package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/openroad/api/internal/email"
	"github.com/openroad/api/internal/models"
	"github.com/openroad/api/internal/payments"
)

var (
	ErrBookingNotPayable = errors.New("booking is not awaiting payment")
	ErrEmailNotVerified  = errors.New("email address has not been verified")
)

type PaymentService struct {
	bookingsRepo  models.BookingsRepo
	vehiclesRepo  models.VehiclesRepo
	provider      payments.API
	emailService  email.Service
	webhookSecret string
	baseURL       string
	logger        *slog.Logger
}

func NewPaymentService(
	bookingsRepo models.BookingsRepo,
	vehiclesRepo models.VehiclesRepo,
	provider payments.API,
	emailService email.Service,
	webhookSecret, baseURL string,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		bookingsRepo:  bookingsRepo,
		vehiclesRepo:  vehiclesRepo,
		provider:      provider,
		emailService:  emailService,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		logger:        logger,
	}
}

// CreateCheckoutSession starts the hosted payment flow. Card bookings are
// charged the full recomputed total; cash bookings pay the deposit online.
func (ps *PaymentService) CreateCheckoutSession(ctx context.Context, bookingId uuid.UUID) (*payments.CheckoutSession, error) {
	booking, err := ps.payableBooking(ctx, bookingId)
	if err != nil {
		return nil, err
	}

	amount := booking.Fees.Total
	description := "Car rental"
	if booking.PaymentMethod == models.MethodCash {
		amount = booking.DepositAmount
		description = "Car rental deposit"
	}
	if vehicle, err := ps.vehiclesRepo.GetVehicleByID(ctx, booking.VehicleId); err == nil && vehicle != nil {
		description = fmt.Sprintf("%s %s %s", description, vehicle.Brand, vehicle.Model)
	}

	session, err := ps.provider.CreateCheckoutSession(payments.CheckoutSessionParams{
		AmountCents:   toCents(amount),
		Currency:      "eur",
		Description:   description,
		CustomerEmail: booking.CustomerEmail,
		BookingID:     booking.Id.String(),
		SuccessURL:    ps.baseURL + "/booking/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     ps.baseURL + "/booking/cancelled",
	})
	if err != nil {
		return nil, err
	}

	if err := ps.bookingsRepo.UpdateBookingFields(ctx, booking.Id, map[string]interface{}{
		"provider_session_id": session.ID,
	}); err != nil {
		return nil, err
	}

	return session, nil
}

// CreateSetupIntent stores a card off-session as the guarantee for a cash
// booking. Nothing is charged.
func (ps *PaymentService) CreateSetupIntent(ctx context.Context, bookingId uuid.UUID) (*payments.SetupIntent, error) {
	booking, err := ps.payableBooking(ctx, bookingId)
	if err != nil {
		return nil, err
	}
	if booking.PaymentMethod != models.MethodCash {
		return nil, fmt.Errorf("setup intents are only used for cash bookings")
	}

	intent, err := ps.provider.CreateSetupIntent(payments.SetupIntentParams{
		CustomerEmail: booking.CustomerEmail,
		BookingID:     booking.Id.String(),
	})
	if err != nil {
		return nil, err
	}

	if err := ps.bookingsRepo.UpdateBookingFields(ctx, booking.Id, map[string]interface{}{
		"provider_intent_id": intent.ID,
	}); err != nil {
		return nil, err
	}

	return intent, nil
}

// HandleWebhook verifies and applies one provider event.
func (ps *PaymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := payments.ConstructEvent(payload, sigHeader, ps.webhookSecret)
	if err != nil {
		return err
	}

	switch event.Type {
	case payments.EventCheckoutCompleted:
		var session payments.CheckoutSession
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return fmt.Errorf("bad webhook object: %v", err)
		}
		return ps.confirmPaidSession(ctx, &session)

	case payments.EventCheckoutExpired:
		var session payments.CheckoutSession
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return fmt.Errorf("bad webhook object: %v", err)
		}
		return ps.cancelExpiredSession(ctx, &session)

	case payments.EventSetupSucceeded:
		var intent payments.SetupIntent
		if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
			return fmt.Errorf("bad webhook object: %v", err)
		}
		return ps.confirmSetupIntent(ctx, &intent)

	default:
		ps.logger.Info("ignoring webhook event", "type", event.Type, "id", event.ID)
		return nil
	}
}

// VerifySession is the polling fallback for missed webhooks: it fetches the
// session from the provider and applies the same confirmation path.
func (ps *PaymentService) VerifySession(ctx context.Context, sessionId string) (*models.Booking, error) {
	if sessionId == "" {
		return nil, fmt.Errorf("session id is required")
	}

	session, err := ps.provider.GetCheckoutSession(sessionId)
	if err != nil {
		return nil, err
	}

	if session.PaymentStatus == "paid" {
		if err := ps.confirmPaidSession(ctx, session); err != nil {
			return nil, err
		}
	}

	booking, err := ps.findSessionBooking(ctx, session)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("no booking for session %s", sessionId)
	}

	return booking, nil
}

func (ps *PaymentService) confirmPaidSession(ctx context.Context, session *payments.CheckoutSession) error {
	booking, err := ps.findSessionBooking(ctx, session)
	if err != nil {
		return err
	}
	if booking == nil {
		return fmt.Errorf("no booking for session %s", session.ID)
	}

	// Replay guard: a completed session that already settled is acknowledged
	// without effect.
	if booking.PaymentStatus == models.PaymentPaid || booking.PaymentStatus == models.PaymentPartial {
		ps.logger.Info("webhook replay ignored", "booking_id", booking.Id, "session_id", session.ID)
		return nil
	}

	paymentStatus := models.PaymentPaid
	remaining := 0.0
	if booking.PaymentMethod == models.MethodCash {
		// Only the deposit settled online; the balance is due at the desk
		paymentStatus = models.PaymentPartial
		remaining = booking.Fees.Total - booking.DepositAmount
	}

	if err := booking.Transition(models.BookingConfirmed, time.Now()); err != nil {
		return err
	}
	if err := ps.bookingsRepo.UpdateBookingFields(ctx, booking.Id, map[string]interface{}{
		"status":              models.BookingConfirmed,
		"payment_status":      paymentStatus,
		"remaining_amount":    remaining,
		"provider_session_id": session.ID,
	}); err != nil {
		return err
	}
	booking.PaymentStatus = paymentStatus
	booking.RemainingAmount = remaining

	ps.sendConfirmation(ctx, booking)
	ps.logger.Info("booking confirmed",
		"booking_id", booking.Id,
		"session_id", session.ID,
		"payment_status", paymentStatus,
	)
	return nil
}

func (ps *PaymentService) cancelExpiredSession(ctx context.Context, session *payments.CheckoutSession) error {
	booking, err := ps.findSessionBooking(ctx, session)
	if err != nil || booking == nil {
		return err
	}
	if booking.Status != models.BookingPendingPayment {
		return nil
	}

	if err := ps.bookingsRepo.UpdateBookingStatus(ctx, booking.Id, models.BookingCancelled); err != nil {
		return err
	}
	ps.logger.Info("booking cancelled after checkout expiry", "booking_id", booking.Id)
	return nil
}

func (ps *PaymentService) confirmSetupIntent(ctx context.Context, intent *payments.SetupIntent) error {
	booking, err := ps.bookingsRepo.FindBookingByIntent(ctx, intent.ID)
	if err != nil {
		return err
	}
	if booking == nil {
		if id, ok := intent.Metadata["booking_id"]; ok {
			booking, err = ps.lookupByMetadata(ctx, id)
			if err != nil || booking == nil {
				return err
			}
		} else {
			return fmt.Errorf("no booking for intent %s", intent.ID)
		}
	}

	if booking.Status != models.BookingPendingPayment {
		// Replays and late events are acknowledged without effect
		return nil
	}

	if err := booking.Transition(models.BookingConfirmed, time.Now()); err != nil {
		return err
	}
	if err := ps.bookingsRepo.UpdateBookingFields(ctx, booking.Id, map[string]interface{}{
		"status":             models.BookingConfirmed,
		"provider_intent_id": intent.ID,
	}); err != nil {
		return err
	}

	ps.sendConfirmation(ctx, booking)
	ps.logger.Info("cash booking confirmed via card setup", "booking_id", booking.Id, "intent_id", intent.ID)
	return nil
}

func (ps *PaymentService) payableBooking(ctx context.Context, bookingId uuid.UUID) (*models.Booking, error) {
	if bookingId == uuid.Nil {
		return nil, fmt.Errorf("invalid booking ID")
	}

	booking, err := ps.bookingsRepo.GetBookingByID(ctx, bookingId)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("booking not found")
	}
	if booking.Status != models.BookingPendingPayment {
		return nil, ErrBookingNotPayable
	}
	if !booking.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return booking, nil
}

func (ps *PaymentService) findSessionBooking(ctx context.Context, session *payments.CheckoutSession) (*models.Booking, error) {
	booking, err := ps.bookingsRepo.FindBookingBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if booking != nil {
		return booking, nil
	}

	// Fall back to the booking id carried in metadata / client reference
	id := session.Metadata["booking_id"]
	if id == "" {
		id = session.ClientReferenceID
	}
	if id == "" {
		return nil, nil
	}
	return ps.lookupByMetadata(ctx, id)
}

func (ps *PaymentService) lookupByMetadata(ctx context.Context, raw string) (*models.Booking, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("bad booking id in metadata: %v", err)
	}
	return ps.bookingsRepo.GetBookingByID(ctx, id)
}

func (ps *PaymentService) sendConfirmation(ctx context.Context, booking *models.Booking) {
	vehicleName := "your vehicle"
	if vehicle, err := ps.vehiclesRepo.GetVehicleByID(ctx, booking.VehicleId); err == nil && vehicle != nil {
		vehicleName = fmt.Sprintf("%s %s", vehicle.Brand, vehicle.Model)
	}

	summary := email.BookingSummary{
		BookingID:      booking.Id.String(),
		VehicleName:    vehicleName,
		PickupAt:       booking.PickupAt,
		ReturnAt:       booking.ReturnAt,
		PickupLocation: booking.PickupLocation,
		ReturnLocation: booking.ReturnLocation,
		Total:          booking.Fees.Total,
		DepositAmount:  booking.DepositAmount,
		PaymentMethod:  string(booking.PaymentMethod),
	}
	if err := ps.emailService.SendBookingConfirmation(ctx, booking.CustomerEmail, booking.CustomerName, summary); err != nil {
		ps.logger.Error("failed to send confirmation email", "booking_id", booking.Id, "error", err)
	}
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
