package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openroad/api/internal/models"
)

var (
	ErrVehicleUnavailable = errors.New("vehicle is not available for booking")
	ErrBookingNotFound    = errors.New("booking not found")
)

// PricingConfig holds the server-side fee schedule. Client-submitted totals
// are never trusted; everything is recomputed from these values.
type PricingConfig struct {
	CleaningFee       float64
	LocationFees      map[string]float64
	AfterHoursFee     float64
	UnlimitedKmPerDay float64
	CashDeposit       float64

	// Desk hours; pickups/returns outside them incur the after-hours fee
	OpenHour  int
	CloseHour int
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		CleaningFee: 7,
		LocationFees: map[string]float64{
			"office":  0,
			"airport": 25,
			"city":    15,
		},
		AfterHoursFee:     30,
		UnlimitedKmPerDay: 9.5,
		CashDeposit:       250,
		OpenHour:          8,
		CloseHour:         20,
	}
}

type CreateBookingRequest struct {
	VehicleId      uuid.UUID            `json:"vehicle_id" validate:"required"`
	CustomerName   string               `json:"customer_name" validate:"required"`
	CustomerEmail  string               `json:"customer_email" validate:"required,email"`
	CustomerPhone  string               `json:"customer_phone" validate:"required"`
	PickupAt       time.Time            `json:"pickup_at" validate:"required"`
	ReturnAt       time.Time            `json:"return_at" validate:"required"`
	PickupLocation string               `json:"pickup_location" validate:"required"`
	ReturnLocation string               `json:"return_location" validate:"required"`
	UnlimitedKm    bool                 `json:"unlimited_km"`
	PaymentMethod  models.PaymentMethod `json:"payment_method" validate:"required,oneof=card cash"`

	// ClientTotal is what the frontend displayed. Advisory only.
	ClientTotal float64 `json:"client_total"`
}

type BookingService struct {
	bookingsRepo  models.BookingsRepo
	vehiclesRepo  models.VehiclesRepo
	verifications *VerificationService
	pricing       PricingConfig
	logger        *slog.Logger
}

func NewBookingService(
	bookingsRepo models.BookingsRepo,
	vehiclesRepo models.VehiclesRepo,
	verifications *VerificationService,
	pricing PricingConfig,
	logger *slog.Logger,
) *BookingService {
	return &BookingService{
		bookingsRepo:  bookingsRepo,
		vehiclesRepo:  vehiclesRepo,
		verifications: verifications,
		pricing:       pricing,
		logger:        logger,
	}
}

// Quote recomputes the fee breakdown for a vehicle and rental window.
func (bs *BookingService) Quote(ctx context.Context, vehicleId uuid.UUID, pickupAt, returnAt time.Time, pickupLoc, returnLoc string, unlimitedKm bool) (*models.FeeBreakdown, error) {
	if !returnAt.After(pickupAt) {
		return nil, fmt.Errorf("return must be after pickup")
	}

	vehicle, err := bs.vehiclesRepo.GetVehicleByID(ctx, vehicleId)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("vehicle not found")
	}

	fb := models.ComputeQuote(models.QuoteInput{
		RentalDays:        models.RentalDays(pickupAt, returnAt),
		PricePerDay:       vehicle.PricePerDay,
		CleaningFee:       bs.pricing.CleaningFee,
		PickupFee:         bs.pricing.LocationFees[pickupLoc],
		ReturnFee:         bs.pricing.LocationFees[returnLoc],
		AfterHoursFee:     bs.afterHoursFee(pickupAt, returnAt),
		UnlimitedKm:       unlimitedKm,
		UnlimitedKmPerDay: bs.pricing.UnlimitedKmPerDay,
	})

	return &fb, nil
}

// CreateBooking runs the public booking flow: recompute fees, check
// availability, insert the pending booking and send the verification email.
func (bs *BookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*models.Booking, error) {
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid booking data provided: %v", err)
	}
	if !req.ReturnAt.After(req.PickupAt) {
		return nil, fmt.Errorf("return must be after pickup")
	}

	vehicle, err := bs.vehiclesRepo.GetVehicleByID(ctx, req.VehicleId)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("vehicle not found")
	}
	if vehicle.Status == models.VehicleMaintenance {
		return nil, ErrVehicleUnavailable
	}

	fees := models.ComputeQuote(models.QuoteInput{
		RentalDays:        models.RentalDays(req.PickupAt, req.ReturnAt),
		PricePerDay:       vehicle.PricePerDay,
		CleaningFee:       bs.pricing.CleaningFee,
		PickupFee:         bs.pricing.LocationFees[req.PickupLocation],
		ReturnFee:         bs.pricing.LocationFees[req.ReturnLocation],
		AfterHoursFee:     bs.afterHoursFee(req.PickupAt, req.ReturnAt),
		UnlimitedKm:       req.UnlimitedKm,
		UnlimitedKmPerDay: bs.pricing.UnlimitedKmPerDay,
	})

	// The server value is what gets persisted and charged either way; the
	// mismatch is kept as a fraud signal.
	if req.ClientTotal != 0 && !models.TotalsMatch(req.ClientTotal, fees.Total) {
		bs.logger.Warn("client total does not match recomputed total",
			"vehicle_id", req.VehicleId,
			"client_total", req.ClientTotal,
			"server_total", fees.Total,
		)
	}

	// Advisory pre-check for fast feedback; the stored procedure re-checks
	// atomically on insert.
	conflicts, err := bs.bookingsRepo.ListActiveBookingsInRange(ctx, req.VehicleId, req.PickupAt, req.ReturnAt)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, models.ErrDateConflict
	}

	now := time.Now()
	booking := &models.Booking{
		Id:             uuid.New(),
		VehicleId:      req.VehicleId,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		PickupAt:       req.PickupAt,
		ReturnAt:       req.ReturnAt,
		PickupLocation: req.PickupLocation,
		ReturnLocation: req.ReturnLocation,
		UnlimitedKm:    req.UnlimitedKm,
		Fees:           fees,
		Status:         models.BookingPendingPayment,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  models.PaymentPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.PaymentMethod == models.MethodCash {
		booking.DepositAmount = bs.pricing.CashDeposit
		booking.RemainingAmount = fees.Total
	} else {
		booking.RemainingAmount = fees.Total
	}

	created, err := bs.bookingsRepo.CreateBooking(ctx, booking)
	if err != nil {
		return nil, err
	}

	if err := bs.verifications.Issue(ctx, created); err != nil {
		// The booking row exists; the customer can request a new link
		bs.logger.Error("failed to issue verification email",
			"booking_id", created.Id,
			"error", err,
		)
	}

	return created, nil
}

func (bs *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid booking ID")
	}
	return bs.bookingsRepo.GetBookingByID(ctx, id)
}

func (bs *BookingService) ListBookings(ctx context.Context, status string, offset, limit int) ([]*models.Booking, int, error) {
	if offset < 0 || limit <= 0 {
		return nil, 0, fmt.Errorf("invalid offset or limit")
	}
	return bs.bookingsRepo.ListBookings(ctx, status, offset, limit)
}

// TransitionBooking applies a manual status change from the dashboard,
// validated against the transition table.
func (bs *BookingService) TransitionBooking(ctx context.Context, id uuid.UUID, to models.BookingStatus) (*models.Booking, error) {
	booking, err := bs.bookingsRepo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if err := booking.Transition(to, time.Now()); err != nil {
		return nil, err
	}
	if err := bs.bookingsRepo.UpdateBookingStatus(ctx, id, to); err != nil {
		return nil, err
	}

	return booking, nil
}

func (bs *BookingService) afterHoursFee(pickupAt, returnAt time.Time) float64 {
	if bs.outsideDeskHours(pickupAt) || bs.outsideDeskHours(returnAt) {
		return bs.pricing.AfterHoursFee
	}
	return 0
}

func (bs *BookingService) outsideDeskHours(t time.Time) bool {
	h := t.Hour()
	return h < bs.pricing.OpenHour || h >= bs.pricing.CloseHour
}
