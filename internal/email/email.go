// Package email sends the transactional mail for the rental flow: the
// verification link that gates a booking, the confirmation once payment
// settles, and the contact-form relay to the business inbox.
package email

import (
	"context"
	"time"
)

// Service is the interface the booking and contact flows depend on. Tests
// swap in a recorder; production uses the SMTP implementation.
type Service interface {
	// SendVerificationEmail sends the booking verification link. The link
	// expires with the underlying token.
	SendVerificationEmail(ctx context.Context, to, name, verifyURL string, expiresAt time.Time) error

	// SendBookingConfirmation notifies the customer after payment settles.
	SendBookingConfirmation(ctx context.Context, to, name string, summary BookingSummary) error

	// SendContactMessage relays a contact-form submission to the business inbox.
	SendContactMessage(ctx context.Context, fromName, fromEmail, phone, message string) error
}

// BookingSummary carries the fields rendered into the confirmation email.
type BookingSummary struct {
	BookingID      string
	VehicleName    string
	PickupAt       time.Time
	ReturnAt       time.Time
	PickupLocation string
	ReturnLocation string
	Total          float64
	DepositAmount  float64
	PaymentMethod  string
}

// Email is a single outbound message.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}
