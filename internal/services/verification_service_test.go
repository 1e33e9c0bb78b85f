package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openroad/api/internal/models"
)

func newVerificationFixture(t *testing.T) (*VerificationService, *fakeVerificationsRepo, *fakeBookingsRepo, *fakeEmailService) {
	t.Helper()
	verifications := newFakeVerificationsRepo()
	bookings := newFakeBookingsRepo()
	mail := &fakeEmailService{}
	svc := NewVerificationService(verifications, bookings, mail, "https://openroadrentals.com", testLogger())
	return svc, verifications, bookings, mail
}

func seedPendingBooking(t *testing.T, bookings *fakeBookingsRepo) *models.Booking {
	t.Helper()
	pickup := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		Id:            uuid.New(),
		VehicleId:     uuid.New(),
		CustomerName:  "Jana Dvorakova",
		CustomerEmail: "jana@example.com",
		PickupAt:      pickup,
		ReturnAt:      pickup.Add(72 * time.Hour),
		Status:        models.BookingPendingPayment,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: models.MethodCard,
	}
	if _, err := bookings.CreateBooking(context.Background(), booking); err != nil {
		t.Fatalf("seedPendingBooking: %v", err)
	}
	return booking
}

func issuedToken(t *testing.T, verifications *fakeVerificationsRepo) string {
	t.Helper()
	for token := range verifications.byToken {
		return token
	}
	t.Fatal("no verification issued")
	return ""
}

func TestIssueSendsLinkWithToken(t *testing.T) {
	svc, verifications, bookings, mail := newVerificationFixture(t)
	booking := seedPendingBooking(t, bookings)

	if err := svc.Issue(context.Background(), booking); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	token := issuedToken(t, verifications)
	if len(token) != 32 {
		t.Errorf("token length = %d, want 32", len(token))
	}

	if len(mail.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mail.sent))
	}
	wantURL := "https://openroadrentals.com/verify-email?token=" + token
	if mail.sent[0].url != wantURL {
		t.Errorf("link = %s, want %s", mail.sent[0].url, wantURL)
	}

	record := verifications.byToken[token]
	if got := record.ExpiresAt.Sub(record.CreatedAt); got != models.VerificationTTL {
		t.Errorf("ttl = %v, want %v", got, models.VerificationTTL)
	}
}

func TestConsumeMarksBookingVerified(t *testing.T) {
	svc, verifications, bookings, _ := newVerificationFixture(t)
	booking := seedPendingBooking(t, bookings)

	if err := svc.Issue(context.Background(), booking); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	token := issuedToken(t, verifications)

	verified, err := svc.Consume(context.Background(), token)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !verified.EmailVerified {
		t.Error("returned booking not marked verified")
	}

	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if !stored.EmailVerified {
		t.Error("stored booking not marked verified")
	}
	// Verification alone never confirms; payment does that
	if stored.Status != models.BookingPendingPayment {
		t.Errorf("status = %s, want %s", stored.Status, models.BookingPendingPayment)
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	svc, verifications, bookings, _ := newVerificationFixture(t)
	booking := seedPendingBooking(t, bookings)

	if err := svc.Issue(context.Background(), booking); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	token := issuedToken(t, verifications)

	if _, err := svc.Consume(context.Background(), token); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	_, err := svc.Consume(context.Background(), token)
	if !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("second consume: got %v, want ErrAlreadyVerified", err)
	}
	if !strings.Contains(err.Error(), "already verified") {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestConsumeExpiredTokenExpiresBooking(t *testing.T) {
	svc, verifications, bookings, _ := newVerificationFixture(t)
	booking := seedPendingBooking(t, bookings)

	if err := svc.Issue(context.Background(), booking); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	token := issuedToken(t, verifications)

	// Jump past the TTL
	svc.now = func() time.Time { return time.Now().Add(models.VerificationTTL + time.Minute) }

	_, err := svc.Consume(context.Background(), token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}

	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if stored.Status != models.BookingExpired {
		t.Errorf("status = %s, want %s", stored.Status, models.BookingExpired)
	}
	if stored.Status == models.BookingConfirmed {
		t.Error("expired token must never confirm a booking")
	}
}

func TestConsumeExpiredTokenLeavesConfirmedBookingAlone(t *testing.T) {
	svc, verifications, bookings, _ := newVerificationFixture(t)
	booking := seedPendingBooking(t, bookings)

	if err := svc.Issue(context.Background(), booking); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	token := issuedToken(t, verifications)

	// The booking was confirmed through another path in the meantime
	if err := bookings.UpdateBookingStatus(context.Background(), booking.Id, models.BookingConfirmed); err != nil {
		t.Fatalf("UpdateBookingStatus: %v", err)
	}
	svc.now = func() time.Time { return time.Now().Add(models.VerificationTTL + time.Minute) }

	if _, err := svc.Consume(context.Background(), token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if stored.Status != models.BookingConfirmed {
		t.Errorf("confirmed booking must not be expired, got %s", stored.Status)
	}
}

func TestConsumeUnknownToken(t *testing.T) {
	svc, _, _, _ := newVerificationFixture(t)

	if _, err := svc.Consume(context.Background(), "deadbeef"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("got %v, want ErrTokenNotFound", err)
	}
	if _, err := svc.Consume(context.Background(), ""); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("empty token: got %v, want ErrTokenNotFound", err)
	}
}

func TestIssueTokensAreUnique(t *testing.T) {
	svc, verifications, bookings, _ := newVerificationFixture(t)
	for i := 0; i < 5; i++ {
		booking := seedPendingBooking(t, bookings)
		if err := svc.Issue(context.Background(), booking); err != nil {
			t.Fatalf("Issue: %v", err)
		}
	}
	if len(verifications.byToken) != 5 {
		t.Errorf("expected 5 distinct tokens, got %d", len(verifications.byToken))
	}
}
