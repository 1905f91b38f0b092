// Package moneybird is a minimal client for the Moneybird contacts
// API plus the OAuth2 authorization-code flow that authorizes it.
package moneybird

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSet holds the tokens returned by the OAuth token endpoint
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ExpiresAt converts the relative expiry into a deadline
func (t TokenSet) ExpiresAt(now time.Time) time.Time {
	if t.ExpiresIn <= 0 {
		// Moneybird access tokens omit expiry in some responses
		return now.Add(2 * time.Hour)
	}
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// OAuth handles the Moneybird authorization-code flow
type OAuth struct {
	clientID     string
	clientSecret string
	redirectURL  string
	authBaseURL  string
	client       *http.Client
}

// NewOAuth creates the OAuth helper. authBaseURL is overridable for
// tests; pass "" for the production endpoint.
func NewOAuth(clientID, clientSecret, redirectURL, authBaseURL string) *OAuth {
	if authBaseURL == "" {
		authBaseURL = "https://moneybird.com/oauth"
	}
	return &OAuth{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		authBaseURL:  authBaseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthorizeURL builds the login redirect URL carrying the state nonce
func (o *OAuth) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", o.clientID)
	params.Set("redirect_uri", o.redirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "sales_invoices documents estimates bank settings")
	params.Set("state", state)

	return o.authBaseURL + "/authorize?" + params.Encode()
}

// Exchange trades an authorization code for a token set
func (o *OAuth) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", o.redirectURL)

	return o.tokenRequest(ctx, form)
}

// Refresh trades a refresh token for a fresh token set
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	return o.tokenRequest(ctx, form)
}

func (o *OAuth) tokenRequest(ctx context.Context, form url.Values) (*TokenSet, error) {
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.authBaseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tokens TokenSet
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	return &tokens, nil
}
