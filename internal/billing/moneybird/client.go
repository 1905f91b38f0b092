package moneybird

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenSource supplies the current access token and refreshes it when
// the API answers 401. Implemented by the Moneybird service, which
// keeps the encrypted tokens in the database.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshAccessToken(ctx context.Context) (string, error)
}

// ErrNotConnected is returned when no Moneybird authorization exists
var ErrNotConnected = errors.New("moneybird: administration not connected")

// Client calls the Moneybird administration API
type Client struct {
	administrationID string
	baseURL          string
	tokens           TokenSource
	client           *http.Client
}

// NewClient creates a new Moneybird client. baseURL is overridable for
// tests; pass "" for the production endpoint.
func NewClient(administrationID, baseURL string, tokens TokenSource) *Client {
	if baseURL == "" {
		baseURL = "https://moneybird.com/api/v2"
	}
	return &Client{
		administrationID: administrationID,
		baseURL:          baseURL,
		tokens:           tokens,
		client:           &http.Client{Timeout: 30 * time.Second},
	}
}

// Contact is a Moneybird contact
type Contact struct {
	ID          string `json:"id,omitempty"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email,omitempty"`
	SendMethod  string `json:"delivery_method,omitempty"`
}

type contactEnvelope struct {
	Contact Contact `json:"contact"`
}

// CreateContact creates a contact in the administration
func (c *Client) CreateContact(ctx context.Context, contact Contact) (*Contact, error) {
	var created Contact
	path := fmt.Sprintf("/%s/contacts.json", c.administrationID)
	if err := c.do(ctx, http.MethodPost, path, contactEnvelope{Contact: contact}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateContact updates an existing contact
func (c *Client) UpdateContact(ctx context.Context, contactID string, contact Contact) (*Contact, error) {
	var updated Contact
	path := fmt.Sprintf("/%s/contacts/%s.json", c.administrationID, contactID)
	if err := c.do(ctx, http.MethodPatch, path, contactEnvelope{Contact: contact}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetContact retrieves a contact by id
func (c *Client) GetContact(ctx context.Context, contactID string) (*Contact, error) {
	var contact Contact
	path := fmt.Sprintf("/%s/contacts/%s.json", c.administrationID, contactID)
	if err := c.do(ctx, http.MethodGet, path, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// do performs a request with bearer auth; on a 401 it refreshes the
// token once and retries.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	status, body, err := c.attempt(ctx, method, path, token, in)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		token, err = c.tokens.RefreshAccessToken(ctx)
		if err != nil {
			return fmt.Errorf("token refresh failed: %w", err)
		}
		status, body, err = c.attempt(ctx, method, path, token, in)
		if err != nil {
			return err
		}
	}

	if status >= 400 {
		return fmt.Errorf("moneybird: %s %s returned %d: %s", method, path, status, strings.TrimSpace(string(body)))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) attempt(ctx context.Context, method, path, token string, in any) (int, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}
