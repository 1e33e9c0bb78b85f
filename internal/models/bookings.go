package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned for status changes outside the transition
// table.
var ErrInvalidTransition = errors.New("invalid booking status transition")

type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "pending_payment"
	BookingConfirmed      BookingStatus = "confirmed"
	BookingActive         BookingStatus = "active"
	BookingCompleted      BookingStatus = "completed"
	BookingCancelled      BookingStatus = "cancelled"
	BookingExpired        BookingStatus = "expired"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
	PaymentFailed  PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodCash PaymentMethod = "cash"
)

// AllowedTransitions is the booking lifecycle as a directed graph. Completed,
// cancelled and expired are terminal.
var AllowedTransitions = map[BookingStatus][]BookingStatus{
	BookingPendingPayment: {BookingConfirmed, BookingCancelled, BookingExpired},
	BookingConfirmed:      {BookingActive, BookingCancelled},
	BookingActive:         {BookingCompleted},
	BookingCompleted:      {},
	BookingCancelled:      {},
	BookingExpired:        {},
}

// CanTransition reports whether from -> to is an allowed status change.
func (from BookingStatus) CanTransition(to BookingStatus) bool {
	if from == to {
		return true
	}
	allowed, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// allowedPaymentTransitions mirrors the booking graph for the payment field.
var allowedPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentPartial, PaymentFailed},
	PaymentPartial: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {},
	PaymentFailed:  {},
}

func (from PaymentStatus) CanTransition(to PaymentStatus) bool {
	if from == to {
		return true
	}
	for _, s := range allowedPaymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Booking struct {
	Id        uuid.UUID `db:"id" json:"id,omitempty"`
	VehicleId uuid.UUID `db:"vehicle_id" json:"vehicle_id" validate:"required"`

	// CUSTOMER CONTACT
	CustomerName  string `db:"customer_name" json:"customer_name" validate:"required"`
	CustomerEmail string `db:"customer_email" json:"customer_email" validate:"required,email"`
	CustomerPhone string `db:"customer_phone" json:"customer_phone" validate:"required"`

	// SCHEDULE
	PickupAt       time.Time `db:"pickup_at" json:"pickup_at" validate:"required"`
	ReturnAt       time.Time `db:"return_at" json:"return_at" validate:"required,gtfield=PickupAt"`
	PickupLocation string    `db:"pickup_location" json:"pickup_location" validate:"required"`
	ReturnLocation string    `db:"return_location" json:"return_location" validate:"required"`
	UnlimitedKm    bool      `db:"unlimited_km" json:"unlimited_km"`

	// FEES (server-recomputed; client values are advisory)
	Fees FeeBreakdown `db:"fees" json:"fees"`

	// LIFECYCLE
	Status        BookingStatus `db:"status" json:"status"`
	EmailVerified bool          `db:"email_verified" json:"email_verified"`

	// PAYMENT
	PaymentMethod    PaymentMethod `db:"payment_method" json:"payment_method" validate:"required,oneof=card cash"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"payment_status"`
	DepositAmount    float64       `db:"deposit_amount" json:"deposit_amount,omitempty"`
	RemainingAmount  float64       `db:"remaining_amount" json:"remaining_amount,omitempty"`
	ProviderSession  string        `db:"provider_session_id" json:"provider_session_id,omitempty"`
	ProviderIntent   string        `db:"provider_intent_id" json:"provider_intent_id,omitempty"`
	ProviderCustomer string        `db:"provider_customer_id" json:"provider_customer_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transition applies a status change, rejecting anything outside the
// transition table.
func (b *Booking) Transition(to BookingStatus, now time.Time) error {
	if !b.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	b.UpdatedAt = now
	return nil
}

// Overlaps reports whether two half-open rental intervals [aStart, aEnd) and
// [bStart, bEnd) conflict. Touching endpoints do not conflict, so a return at
// 10:00 and a pickup at 10:00 can share a vehicle.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ConflictsWith checks this booking's date range against another booking for
// the same vehicle.
func (b *Booking) ConflictsWith(other *Booking) bool {
	if b.VehicleId != other.VehicleId {
		return false
	}
	return Overlaps(b.PickupAt, b.ReturnAt, other.PickupAt, other.ReturnAt)
}

// ActiveStatuses are the booking states that block a vehicle's calendar.
var ActiveStatuses = []BookingStatus{BookingPendingPayment, BookingConfirmed, BookingActive}

// RentalDays is the number of billable days: the rental duration in 24h units
// rounded up, never less than one.
func RentalDays(pickup, ret time.Time) int {
	if !ret.After(pickup) {
		return 1
	}
	hours := ret.Sub(pickup).Hours()
	days := int(hours / 24)
	if hours > float64(days)*24 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}
