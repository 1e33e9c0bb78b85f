package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openroad/api/internal/email"
	"github.com/openroad/api/internal/models"
	"github.com/openroad/api/internal/payments"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// ---- bookings ----

type fakeBookingsRepo struct {
	bookings  map[uuid.UUID]*models.Booking
	createErr error
}

func newFakeBookingsRepo() *fakeBookingsRepo {
	return &fakeBookingsRepo{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (f *fakeBookingsRepo) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.bookings {
		if existing.ConflictsWith(booking) && isActive(existing.Status) {
			return nil, models.ErrDateConflict
		}
	}
	copied := *booking
	f.bookings[booking.Id] = &copied
	return &copied, nil
}

func (f *fakeBookingsRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingsRepo) ListBookings(ctx context.Context, status string, offset, limit int) ([]*models.Booking, int, error) {
	var out []*models.Booking
	for _, b := range f.bookings {
		if status == "" || string(b.Status) == status {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (f *fakeBookingsRepo) ListActiveBookingsInRange(ctx context.Context, vehicleId uuid.UUID, pickup, ret time.Time) ([]*models.Booking, error) {
	var out []*models.Booking
	for _, b := range f.bookings {
		if b.VehicleId == vehicleId && isActive(b.Status) && models.Overlaps(b.PickupAt, b.ReturnAt, pickup, ret) {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeBookingsRepo) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("booking not found")
	}
	b.Status = status
	return nil
}

func (f *fakeBookingsRepo) UpdateBookingFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("booking not found")
	}
	for k, v := range fields {
		switch k {
		case "status":
			b.Status = v.(models.BookingStatus)
		case "payment_status":
			b.PaymentStatus = v.(models.PaymentStatus)
		case "remaining_amount":
			b.RemainingAmount = v.(float64)
		case "provider_session_id":
			b.ProviderSession = v.(string)
		case "provider_intent_id":
			b.ProviderIntent = v.(string)
		case "email_verified":
			b.EmailVerified = v.(bool)
		}
	}
	return nil
}

func (f *fakeBookingsRepo) FindBookingBySession(ctx context.Context, sessionId string) (*models.Booking, error) {
	for _, b := range f.bookings {
		if b.ProviderSession == sessionId && sessionId != "" {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingsRepo) FindBookingByIntent(ctx context.Context, intentId string) (*models.Booking, error) {
	for _, b := range f.bookings {
		if b.ProviderIntent == intentId && intentId != "" {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func isActive(s models.BookingStatus) bool {
	for _, a := range models.ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// ---- vehicles ----

type fakeVehiclesRepo struct {
	vehicles map[uuid.UUID]*models.Vehicle
}

func newFakeVehiclesRepo() *fakeVehiclesRepo {
	return &fakeVehiclesRepo{vehicles: make(map[uuid.UUID]*models.Vehicle)}
}

func (f *fakeVehiclesRepo) CreateVehicle(ctx context.Context, v *models.Vehicle, accessToken string) (*models.Vehicle, error) {
	copied := *v
	f.vehicles[v.Id] = &copied
	return &copied, nil
}

func (f *fakeVehiclesRepo) GetVehicleByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVehiclesRepo) ListVehicles(ctx context.Context, filters map[string]string, offset, limit int) ([]*models.Vehicle, int, error) {
	var out []*models.Vehicle
	for _, v := range f.vehicles {
		copied := *v
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (f *fakeVehiclesRepo) UpdateVehicle(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*models.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle not found")
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVehiclesRepo) DeleteVehicle(ctx context.Context, id uuid.UUID, accessToken string) error {
	delete(f.vehicles, id)
	return nil
}

// ---- verifications ----

type fakeVerificationsRepo struct {
	byToken map[string]*models.EmailVerification
}

func newFakeVerificationsRepo() *fakeVerificationsRepo {
	return &fakeVerificationsRepo{byToken: make(map[string]*models.EmailVerification)}
}

func (f *fakeVerificationsRepo) CreateVerification(ctx context.Context, v *models.EmailVerification) error {
	copied := *v
	f.byToken[v.Token] = &copied
	return nil
}

func (f *fakeVerificationsRepo) GetVerificationByToken(ctx context.Context, token string) (*models.EmailVerification, error) {
	v, ok := f.byToken[token]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (f *fakeVerificationsRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	for _, v := range f.byToken {
		if v.Id == id {
			v.Verified = true
			return nil
		}
	}
	return fmt.Errorf("verification not found")
}

// ---- email ----

type recordedEmail struct {
	kind string
	to   string
	url  string
}

type fakeEmailService struct {
	sent []recordedEmail
	err  error
}

func (f *fakeEmailService) SendVerificationEmail(ctx context.Context, to, name, verifyURL string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recordedEmail{kind: "verification", to: to, url: verifyURL})
	return nil
}

func (f *fakeEmailService) SendBookingConfirmation(ctx context.Context, to, name string, summary email.BookingSummary) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recordedEmail{kind: "confirmation", to: to})
	return nil
}

func (f *fakeEmailService) SendContactMessage(ctx context.Context, fromName, fromEmail, phone, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recordedEmail{kind: "contact", to: fromEmail})
	return nil
}

// ---- payments ----

type fakeProvider struct {
	sessions     map[string]*payments.CheckoutSession
	intents      map[string]*payments.SetupIntent
	sessionCount int
	intentCount  int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		sessions: make(map[string]*payments.CheckoutSession),
		intents:  make(map[string]*payments.SetupIntent),
	}
}

func (f *fakeProvider) CreateCheckoutSession(params payments.CheckoutSessionParams) (*payments.CheckoutSession, error) {
	f.sessionCount++
	s := &payments.CheckoutSession{
		ID:                fmt.Sprintf("cs_%d", f.sessionCount),
		URL:               "https://pay.example/" + params.BookingID,
		Status:            "open",
		PaymentStatus:     "unpaid",
		ClientReferenceID: params.BookingID,
		AmountTotal:       params.AmountCents,
		CustomerEmail:     params.CustomerEmail,
		Metadata:          map[string]string{"booking_id": params.BookingID},
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeProvider) CreateSetupIntent(params payments.SetupIntentParams) (*payments.SetupIntent, error) {
	f.intentCount++
	si := &payments.SetupIntent{
		ID:           fmt.Sprintf("seti_%d", f.intentCount),
		ClientSecret: "secret",
		Status:       "requires_payment_method",
		Metadata:     map[string]string{"booking_id": params.BookingID},
	}
	f.intents[si.ID] = si
	return si, nil
}

func (f *fakeProvider) GetCheckoutSession(sessionID string) (*payments.CheckoutSession, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session")
	}
	return s, nil
}

// ---- fraud ----

type fakeFraudRepo struct {
	result *models.RiskResult
	err    error
}

func (f *fakeFraudRepo) EvaluateRisk(ctx context.Context, email, phone, ip string) (*models.RiskResult, error) {
	return f.result, f.err
}

type fakeAttemptsRepo struct {
	attempts []*models.BookingAttempt
}

func (f *fakeAttemptsRepo) RecordAttempt(ctx context.Context, attempt *models.BookingAttempt) error {
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeAttemptsRepo) CountRecentAttempts(ctx context.Context, fingerprint string, window time.Duration) (int64, error) {
	var n int64
	for _, a := range f.attempts {
		if a.Fingerprint == fingerprint {
			n++
		}
	}
	return n, nil
}

// ---- shared fixtures ----

func seedVehicle(t *testing.T, repo *fakeVehiclesRepo, pricePerDay float64) *models.Vehicle {
	t.Helper()
	v := &models.Vehicle{
		Id:           uuid.New(),
		Brand:        "Skoda",
		Model:        "Octavia",
		Year:         2023,
		Category:     "compact",
		Transmission: "manual",
		Fuel:         "petrol",
		Seats:        5,
		Doors:        5,
		PricePerDay:  pricePerDay,
		Status:       models.VehicleAvailable,
	}
	if _, err := repo.CreateVehicle(context.Background(), v, ""); err != nil {
		t.Fatalf("seedVehicle: %v", err)
	}
	return v
}
