package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/openroad/api/internal/models"
	"github.com/openroad/api/internal/payments"
)

const testWebhookSecret = "whsec_test"

func newPaymentFixture(t *testing.T) (*PaymentService, *fakeBookingsRepo, *fakeVehiclesRepo, *fakeProvider, *fakeEmailService) {
	t.Helper()
	bookings := newFakeBookingsRepo()
	vehicles := newFakeVehiclesRepo()
	provider := newFakeProvider()
	mail := &fakeEmailService{}
	svc := NewPaymentService(bookings, vehicles, provider, mail, testWebhookSecret, "https://openroadrentals.com", testLogger())
	return svc, bookings, vehicles, provider, mail
}

func seedPayableBooking(t *testing.T, bookings *fakeBookingsRepo, method models.PaymentMethod) *models.Booking {
	t.Helper()
	booking := seedPendingBooking(t, bookings)
	booking.PaymentMethod = method
	booking.Fees = models.FeeBreakdown{RentalDays: 3, RentalCost: 147, CleaningFee: 7, Total: 154}
	booking.EmailVerified = true
	if method == models.MethodCash {
		booking.DepositAmount = 250
		booking.Fees = models.FeeBreakdown{RentalDays: 7, RentalCost: 343, CleaningFee: 7, Total: 350}
	}
	bookings.bookings[booking.Id] = booking
	return booking
}

func signedEvent(t *testing.T, eventType string, object interface{}) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("marshal object: %v", err)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"id":      "evt_1",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]json.RawMessage{"object": raw},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, payments.SignPayload(payload, testWebhookSecret, time.Now())
}

func TestCreateCheckoutSessionCardChargesTotal(t *testing.T) {
	svc, bookings, _, provider, _ := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCard)

	session, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if session.AmountTotal != 15400 {
		t.Errorf("amount = %d cents, want 15400", session.AmountTotal)
	}

	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if stored.ProviderSession != session.ID {
		t.Errorf("session id not persisted, got %q", stored.ProviderSession)
	}
	if len(provider.sessions) != 1 {
		t.Errorf("provider sessions = %d, want 1", len(provider.sessions))
	}
}

func TestCreateCheckoutSessionCashChargesDeposit(t *testing.T) {
	svc, bookings, _, _, _ := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCash)

	session, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if session.AmountTotal != 25000 {
		t.Errorf("amount = %d cents, want 25000 (deposit only)", session.AmountTotal)
	}
}

func TestCreateCheckoutSessionRequiresVerifiedEmail(t *testing.T) {
	svc, bookings, _, _, _ := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCard)
	bookings.bookings[booking.Id].EmailVerified = false

	_, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("got %v, want ErrEmailNotVerified", err)
	}
}

func TestCreateCheckoutSessionRequiresPendingBooking(t *testing.T) {
	svc, bookings, _, _, _ := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCard)
	bookings.bookings[booking.Id].Status = models.BookingCancelled

	_, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if !errors.Is(err, ErrBookingNotPayable) {
		t.Fatalf("got %v, want ErrBookingNotPayable", err)
	}
}

func TestCreateSetupIntentCashOnly(t *testing.T) {
	svc, bookings, _, _, _ := newPaymentFixture(t)

	card := seedPayableBooking(t, bookings, models.MethodCard)
	if _, err := svc.CreateSetupIntent(context.Background(), card.Id); err == nil {
		t.Fatal("setup intent for a card booking must be rejected")
	}

	cash := seedPayableBooking(t, bookings, models.MethodCash)
	intent, err := svc.CreateSetupIntent(context.Background(), cash.Id)
	if err != nil {
		t.Fatalf("CreateSetupIntent: %v", err)
	}
	stored, _ := bookings.GetBookingByID(context.Background(), cash.Id)
	if stored.ProviderIntent != intent.ID {
		t.Errorf("intent id not persisted, got %q", stored.ProviderIntent)
	}
}

func TestWebhookConfirmsCardBooking(t *testing.T) {
	svc, bookings, _, _, mail := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCard)

	session, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	session.PaymentStatus = "paid"
	payload, sig := signedEvent(t, payments.EventCheckoutCompleted, session)

	if err := svc.HandleWebhook(context.Background(), payload, sig); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if stored.Status != models.BookingConfirmed {
		t.Errorf("status = %s, want confirmed", stored.Status)
	}
	if stored.PaymentStatus != models.PaymentPaid {
		t.Errorf("payment status = %s, want paid", stored.PaymentStatus)
	}
	if stored.RemainingAmount != 0 {
		t.Errorf("remaining = %v, want 0", stored.RemainingAmount)
	}
	if len(mail.sent) != 1 || mail.sent[0].kind != "confirmation" {
		t.Errorf("expected one confirmation email, got %v", mail.sent)
	}
}

func TestWebhookConfirmsCashDepositAsPartial(t *testing.T) {
	svc, bookings, _, _, _ := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCash)

	session, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	session.PaymentStatus = "paid"
	payload, sig := signedEvent(t, payments.EventCheckoutCompleted, session)

	if err := svc.HandleWebhook(context.Background(), payload, sig); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if stored.PaymentStatus != models.PaymentPartial {
		t.Errorf("payment status = %s, want partial", stored.PaymentStatus)
	}
	// 350 total minus 250 deposit settles at the desk
	if stored.RemainingAmount != 100 {
		t.Errorf("remaining = %v, want 100", stored.RemainingAmount)
	}
}

func TestWebhookReplayIsNoOp(t *testing.T) {
	svc, bookings, _, _, mail := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCard)

	session, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	session.PaymentStatus = "paid"
	payload, sig := signedEvent(t, payments.EventCheckoutCompleted, session)

	if err := svc.HandleWebhook(context.Background(), payload, sig); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.HandleWebhook(context.Background(), payload, sig); err != nil {
		t.Fatalf("replay must be acknowledged, got %v", err)
	}

	if len(mail.sent) != 1 {
		t.Errorf("replay sent another confirmation email, total %d", len(mail.sent))
	}
	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if stored.Status != models.BookingConfirmed || stored.PaymentStatus != models.PaymentPaid {
		t.Errorf("replay mutated booking: %s/%s", stored.Status, stored.PaymentStatus)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, bookings, _, _, _ := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCard)

	session, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	session.PaymentStatus = "paid"
	payload, _ := signedEvent(t, payments.EventCheckoutCompleted, session)
	forged := payments.SignPayload(payload, "whsec_wrong", time.Now())

	if err := svc.HandleWebhook(context.Background(), payload, forged); !errors.Is(err, payments.ErrBadSignature) {
		t.Fatalf("got %v, want ErrBadSignature", err)
	}

	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if stored.Status != models.BookingPendingPayment {
		t.Errorf("forged webhook mutated booking: %s", stored.Status)
	}
}

func TestWebhookExpiredSessionCancelsBooking(t *testing.T) {
	svc, bookings, _, _, _ := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCard)

	session, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	payload, sig := signedEvent(t, payments.EventCheckoutExpired, session)

	if err := svc.HandleWebhook(context.Background(), payload, sig); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if stored.Status != models.BookingCancelled {
		t.Errorf("status = %s, want cancelled", stored.Status)
	}
}

func TestWebhookSetupIntentConfirmsCashBooking(t *testing.T) {
	svc, bookings, _, _, mail := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCash)

	intent, err := svc.CreateSetupIntent(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateSetupIntent: %v", err)
	}
	intent.Status = "succeeded"
	payload, sig := signedEvent(t, payments.EventSetupSucceeded, intent)

	if err := svc.HandleWebhook(context.Background(), payload, sig); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	stored, _ := bookings.GetBookingByID(context.Background(), booking.Id)
	if stored.Status != models.BookingConfirmed {
		t.Errorf("status = %s, want confirmed", stored.Status)
	}
	// The card is a guarantee; nothing was charged
	if stored.PaymentStatus != models.PaymentPending {
		t.Errorf("payment status = %s, want pending", stored.PaymentStatus)
	}
	if len(mail.sent) != 1 || mail.sent[0].kind != "confirmation" {
		t.Errorf("expected one confirmation email, got %v", mail.sent)
	}
}

func TestWebhookIgnoresUnknownEvent(t *testing.T) {
	svc, _, _, _, _ := newPaymentFixture(t)

	payload, sig := signedEvent(t, "invoice.created", map[string]string{"id": "in_1"})
	if err := svc.HandleWebhook(context.Background(), payload, sig); err != nil {
		t.Fatalf("unknown events must be acknowledged, got %v", err)
	}
}

func TestVerifySessionFallbackConfirms(t *testing.T) {
	svc, bookings, _, provider, _ := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCard)

	session, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	// The webhook never arrived but the provider shows the session as paid
	provider.sessions[session.ID].PaymentStatus = "paid"

	result, err := svc.VerifySession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if result.Status != models.BookingConfirmed {
		t.Errorf("status = %s, want confirmed", result.Status)
	}

	// Polling again after the webhook already settled stays idempotent
	again, err := svc.VerifySession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("second VerifySession: %v", err)
	}
	if again.Status != models.BookingConfirmed || again.PaymentStatus != models.PaymentPaid {
		t.Errorf("second verify mutated booking: %s/%s", again.Status, again.PaymentStatus)
	}
}

func TestVerifySessionUnpaidDoesNotConfirm(t *testing.T) {
	svc, bookings, _, _, _ := newPaymentFixture(t)
	booking := seedPayableBooking(t, bookings, models.MethodCard)

	session, err := svc.CreateCheckoutSession(context.Background(), booking.Id)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}

	result, err := svc.VerifySession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if result.Status != models.BookingPendingPayment {
		t.Errorf("unpaid session must not confirm, got %s", result.Status)
	}
}

func TestWebhookSessionWithoutBooking(t *testing.T) {
	svc, _, _, _, _ := newPaymentFixture(t)

	orphan := &payments.CheckoutSession{ID: "cs_orphan", PaymentStatus: "paid"}
	payload, sig := signedEvent(t, payments.EventCheckoutCompleted, orphan)

	if err := svc.HandleWebhook(context.Background(), payload, sig); err == nil {
		t.Fatal("expected error for session with no booking")
	} else if fmt.Sprint(err) == "" {
		t.Fatal("error must describe the missing booking")
	}
}
