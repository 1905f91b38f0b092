// Package stripe is a minimal client for the Stripe REST endpoints the
// portal uses: customers, subscriptions and invoices. Stripe speaks
// form-encoded requests and JSON responses.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client calls the Stripe API
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a new Stripe client. baseURL is overridable for
// tests; pass "" for the production endpoint.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Customer is a Stripe customer
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SubscriptionItem is one line of a subscription
type SubscriptionItem struct {
	ID    string `json:"id"`
	Price Price  `json:"price"`
}

// Price is a Stripe price
type Price struct {
	ID       string `json:"id"`
	Product  string `json:"product"`
	Currency string `json:"currency"`
}

// Subscription is a Stripe subscription
type Subscription struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
}

// Invoice is a Stripe invoice
type Invoice struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
	Subscription     string `json:"subscription"`
}

// CheckoutSession is the slice of a Stripe checkout session the
// webhook mirror reads
type CheckoutSession struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

// APIError is a structured Stripe error response
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %s (%d): %s", e.Type, e.StatusCode, e.Message)
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// InlinePrice describes an operator-entered override price created
// inline on the subscription instead of referencing a standard price.
type InlinePrice struct {
	ProductID   string
	AmountCents int64
	Currency    string
	Interval    string
}

// CreateCustomer creates a Stripe customer
func (c *Client) CreateCustomer(ctx context.Context, email, name string) (*Customer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)

	var customer Customer
	if err := c.post(ctx, "/customers", form, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateSubscription creates a subscription for a customer, billed by
// invoice with the given due window. Exactly one of priceID or inline
// must be set.
func (c *Client) CreateSubscription(ctx context.Context, customerID, priceID string, inline *InlinePrice, daysUntilDue int) (*Subscription, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("collection_method", "send_invoice")
	form.Set("days_until_due", strconv.Itoa(daysUntilDue))

	if inline != nil {
		form.Set("items[0][price_data][product]", inline.ProductID)
		form.Set("items[0][price_data][unit_amount]", strconv.FormatInt(inline.AmountCents, 10))
		form.Set("items[0][price_data][currency]", inline.Currency)
		form.Set("items[0][price_data][recurring][interval]", inline.Interval)
	} else {
		form.Set("items[0][price]", priceID)
	}

	var sub Subscription
	if err := c.post(ctx, "/subscriptions", form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscription retrieves a subscription by id
func (c *Client) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	var sub Subscription
	if err := c.get(ctx, "/subscriptions/"+id, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListInvoices lists invoices for a subscription, newest first
func (c *Client) ListInvoices(ctx context.Context, subscriptionID string) ([]Invoice, error) {
	params := url.Values{}
	params.Set("subscription", subscriptionID)

	var list struct {
		Data []Invoice `json:"data"`
	}
	if err := c.get(ctx, "/invoices", params, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// FinalizeInvoice finalizes a draft invoice, making its hosted URL
// payable
func (c *Client) FinalizeInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	var invoice Invoice
	if err := c.post(ctx, "/invoices/"+invoiceID+"/finalize", url.Values{}, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				Type:       envelope.Error.Type,
				Message:    envelope.Error.Message,
			}
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Type:       "api_error",
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
