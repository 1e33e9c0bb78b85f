package payments

import "encoding/json"

type CheckoutSessionParams struct {
	AmountCents   int64
	Currency      string
	Description   string
	CustomerEmail string
	BookingID     string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	Status            string            `json:"status"`         // open, complete, expired
	PaymentStatus     string            `json:"payment_status"` // unpaid, paid
	ClientReferenceID string            `json:"client_reference_id"`
	AmountTotal       int64             `json:"amount_total"`
	CustomerEmail     string            `json:"customer_email"`
	Metadata          map[string]string `json:"metadata"`
}

type SetupIntentParams struct {
	CustomerEmail string
	BookingID     string
}

type SetupIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"` // requires_payment_method, succeeded, ...
	Metadata     map[string]string `json:"metadata"`
}

// Event is a provider webhook notification. Data.Object carries the session
// or intent that triggered it.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
	Created int64 `json:"created"`
}

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventSetupSucceeded    = "setup_intent.succeeded"
)

// API is the slice of the provider the services depend on. Tests swap in a
// fake; production uses the HTTP client.
type API interface {
	CreateCheckoutSession(params CheckoutSessionParams) (*CheckoutSession, error)
	CreateSetupIntent(params SetupIntentParams) (*SetupIntent, error)
	GetCheckoutSession(sessionID string) (*CheckoutSession, error)
}
