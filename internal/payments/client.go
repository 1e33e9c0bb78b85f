package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com"

type httpClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHTTP returns the production provider client. The provider's REST API
// takes form-encoded bodies and bearer auth.
func NewHTTP(apiKey string) API {
	return &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewHTTPWithBaseURL exists for tests against a local stub server.
func NewHTTPWithBaseURL(apiKey, baseURL string) API {
	return &httpClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *httpClient) CreateCheckoutSession(params CheckoutSessionParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("client_reference_id", params.BookingID)
	form.Set("customer_email", params.CustomerEmail)
	form.Set("metadata[booking_id]", params.BookingID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", params.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.Description)

	var session CheckoutSession
	if err := c.post("/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, errors.New("payment provider returned an empty session id")
	}

	return &session, nil
}

func (c *httpClient) CreateSetupIntent(params SetupIntentParams) (*SetupIntent, error) {
	form := url.Values{}
	form.Set("usage", "off_session")
	form.Set("metadata[booking_id]", params.BookingID)

	var intent SetupIntent
	if err := c.post("/v1/setup_intents", form, &intent); err != nil {
		return nil, err
	}
	if intent.ID == "" {
		return nil, errors.New("payment provider returned an empty intent id")
	}

	return &intent, nil
}

func (c *httpClient) GetCheckoutSession(sessionID string) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, errors.New("empty session id")
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (c *httpClient) post(path string, form url.Values, out interface{}) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("payment provider error (%s): %s", resp.Status, apiErr.Error.Message)
		}
		return fmt.Errorf("payment provider request failed: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
