package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrDateConflict is returned when the requested range overlaps an active
// booking for the same vehicle. The authoritative check runs inside the
// create_booking_if_available procedure, not in this process.
var ErrDateConflict = errors.New("vehicle is already booked for the requested dates")

type BookingsRepo interface {
	CreateBooking(ctx context.Context, booking *Booking) (*Booking, error)
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListBookings(ctx context.Context, status string, offset, limit int) ([]*Booking, int, error)
	ListActiveBookingsInRange(ctx context.Context, vehicleId uuid.UUID, pickup, ret time.Time) ([]*Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error
	UpdateBookingFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	FindBookingBySession(ctx context.Context, sessionId string) (*Booking, error)
	FindBookingByIntent(ctx context.Context, intentId string) (*Booking, error)
}

// createBookingResult mirrors the JSON shape returned by the
// create_booking_if_available stored procedure.
type createBookingResult struct {
	Ok      bool      `json:"ok"`
	Error   string    `json:"error"`
	Booking uuid.UUID `json:"booking_id"`
}

func (su *SupabaseRepo) CreateBooking(ctx context.Context, booking *Booking) (*Booking, error) {
	params := map[string]interface{}{
		"p_id":              booking.Id,
		"p_vehicle_id":      booking.VehicleId,
		"p_customer_name":   booking.CustomerName,
		"p_customer_email":  booking.CustomerEmail,
		"p_customer_phone":  booking.CustomerPhone,
		"p_pickup_at":       booking.PickupAt,
		"p_return_at":       booking.ReturnAt,
		"p_pickup_location": booking.PickupLocation,
		"p_return_location": booking.ReturnLocation,
		"p_unlimited_km":    booking.UnlimitedKm,
		"p_fees":            booking.Fees,
		"p_payment_method":  booking.PaymentMethod,
		"p_deposit_amount":  booking.DepositAmount,
	}

	// The procedure re-runs the overlap check and inserts in one statement,
	// so two racing requests cannot both succeed.
	raw := su.supabaseClient.Rpc("create_booking_if_available", "", params)
	if raw == "" {
		return nil, fmt.Errorf("create_booking_if_available returned no result")
	}

	var result createBookingResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking result: %v", err)
	}
	if !result.Ok {
		if result.Error == "date_conflict" {
			return nil, ErrDateConflict
		}
		return nil, fmt.Errorf("failed to create booking: %s", result.Error)
	}

	return su.GetBookingByID(ctx, result.Booking)
}

func (su *SupabaseRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	data, count, err := su.supabaseClient.
		From(BookingsTable).
		Select("*", "exact", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %v", err)
	}
	if count == 0 {
		return nil, nil
	}

	var bookings []Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking rows: %v", err)
	}
	if len(bookings) == 0 {
		return nil, nil
	}

	return &bookings[0], nil
}

func (su *SupabaseRepo) ListBookings(ctx context.Context, status string, offset, limit int) ([]*Booking, int, error) {
	query := su.supabaseClient.
		From(BookingsTable).
		Select("*", "exact", false)

	if status != "" {
		query = query.Eq("status", status)
	}

	data, count, err := query.Range(offset, offset+limit-1, "").Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %v", err)
	}
	if count == 0 {
		return []*Booking{}, 0, nil
	}

	var rows []Booking
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal bookings: %v", err)
	}

	bookings := make([]*Booking, 0, len(rows))
	for i := range rows {
		bookings = append(bookings, &rows[i])
	}

	return bookings, int(count), nil
}

// ListActiveBookingsInRange runs the advisory overlap query: bookings in an
// active status whose [pickup, return) range intersects the requested one.
func (su *SupabaseRepo) ListActiveBookingsInRange(ctx context.Context, vehicleId uuid.UUID, pickup, ret time.Time) ([]*Booking, error) {
	statuses := make([]string, 0, len(ActiveStatuses))
	for _, s := range ActiveStatuses {
		statuses = append(statuses, string(s))
	}

	data, count, err := su.supabaseClient.
		From(BookingsTable).
		Select("*", "exact", false).
		Eq("vehicle_id", vehicleId.String()).
		In("status", statuses).
		Lt("pickup_at", ret.Format(time.RFC3339)).
		Gt("return_at", pickup.Format(time.RFC3339)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings in range: %v", err)
	}
	if count == 0 {
		return []*Booking{}, nil
	}

	var rows []Booking
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookings: %v", err)
	}

	bookings := make([]*Booking, 0, len(rows))
	for i := range rows {
		bookings = append(bookings, &rows[i])
	}

	return bookings, nil
}

func (su *SupabaseRepo) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status BookingStatus) error {
	fields := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	_, count, err := su.supabaseClient.
		From(BookingsTable).
		Update(fields, "", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update booking status: %v", err)
	}
	if count == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

func (su *SupabaseRepo) UpdateBookingFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	fields["updated_at"] = time.Now()

	_, count, err := su.supabaseClient.
		From(BookingsTable).
		Update(fields, "", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update booking: %v", err)
	}
	if count == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

func (su *SupabaseRepo) FindBookingBySession(ctx context.Context, sessionId string) (*Booking, error) {
	return su.findBookingBy(ctx, "provider_session_id", sessionId)
}

func (su *SupabaseRepo) FindBookingByIntent(ctx context.Context, intentId string) (*Booking, error) {
	return su.findBookingBy(ctx, "provider_intent_id", intentId)
}

func (su *SupabaseRepo) findBookingBy(ctx context.Context, column, value string) (*Booking, error) {
	if value == "" {
		return nil, fmt.Errorf("empty %s", column)
	}

	data, count, err := su.supabaseClient.
		From(BookingsTable).
		Select("*", "exact", false).
		Eq(column, value).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to find booking by %s: %v", column, err)
	}
	if count == 0 {
		return nil, nil
	}

	var bookings []Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking rows: %v", err)
	}
	if len(bookings) == 0 {
		return nil, nil
	}

	return &bookings[0], nil
}
