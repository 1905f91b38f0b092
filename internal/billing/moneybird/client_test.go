package moneybird

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	access    string
	refreshed string
	refreshes int
}

func (s *staticTokens) AccessToken(ctx context.Context) (string, error) {
	return s.access, nil
}

func (s *staticTokens) RefreshAccessToken(ctx context.Context) (string, error) {
	s.refreshes++
	return s.refreshed, nil
}

func TestClient_CreateContact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/123/contacts.json", r.URL.Path)
		require.Equal(t, "Bearer tok_live", r.Header.Get("Authorization"))

		var envelope map[string]Contact
		require.NoError(t, json.NewDecoder(r.Body).Decode(&envelope))
		assert.Equal(t, "Acme BV", envelope["contact"].CompanyName)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Contact{ID: "mb_1", CompanyName: "Acme BV", Email: "billing@acme.nl"})
	}))
	defer server.Close()

	client := NewClient("123", server.URL, &staticTokens{access: "tok_live"})
	contact, err := client.CreateContact(context.Background(), Contact{CompanyName: "Acme BV", Email: "billing@acme.nl"})
	require.NoError(t, err)
	assert.Equal(t, "mb_1", contact.ID)
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer tok_fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(Contact{ID: "mb_1", CompanyName: "Acme BV"})
	}))
	defer server.Close()

	tokens := &staticTokens{access: "tok_stale", refreshed: "tok_fresh"}
	client := NewClient("123", server.URL, tokens)

	contact, err := client.GetContact(context.Background(), "mb_1")
	require.NoError(t, err)
	assert.Equal(t, "mb_1", contact.ID)
	assert.Equal(t, 1, tokens.refreshes)
	assert.Equal(t, 2, calls)
}

func TestClient_PersistentlyUnauthorizedFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &staticTokens{access: "tok_stale", refreshed: "tok_still_stale"}
	client := NewClient("123", server.URL, tokens)

	_, err := client.GetContact(context.Background(), "mb_1")
	require.Error(t, err)
	assert.Equal(t, 1, tokens.refreshes, "refresh must be attempted exactly once")
}

func TestOAuth_AuthorizeURL(t *testing.T) {
	oauth := NewOAuth("client-id", "client-secret", "https://portal.example.com/callback", "")

	u := oauth.AuthorizeURL("nonce-1")
	assert.Contains(t, u, "https://moneybird.com/oauth/authorize?")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "state=nonce-1")
	assert.Contains(t, u, "response_type=code")
}

func TestOAuth_Exchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "code-123", r.PostForm.Get("code"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		json.NewEncoder(w).Encode(TokenSet{
			AccessToken:  "tok_access",
			RefreshToken: "tok_refresh",
			ExpiresIn:    7200,
			TokenType:    "Bearer",
		})
	}))
	defer server.Close()

	oauth := NewOAuth("client-id", "client-secret", "https://portal.example.com/callback", server.URL)
	tokens, err := oauth.Exchange(context.Background(), "code-123")
	require.NoError(t, err)
	assert.Equal(t, "tok_access", tokens.AccessToken)
	assert.Equal(t, "tok_refresh", tokens.RefreshToken)
}

func TestOAuth_ExchangeErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	oauth := NewOAuth("client-id", "client-secret", "https://portal.example.com/callback", server.URL)
	_, err := oauth.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}
