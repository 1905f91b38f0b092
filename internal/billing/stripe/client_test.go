package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateSubscription_StandardPrice(t *testing.T) {
	var gotForm map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subscriptions", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		json.NewEncoder(w).Encode(map[string]any{
			"id":                   "sub_1",
			"customer":             "cus_123",
			"status":               "active",
			"current_period_start": 1700000000,
			"current_period_end":   1702592000,
			"items": map[string]any{
				"data": []map[string]any{
					{"id": "si_1", "price": map[string]any{"id": "price_A", "product": "prod_1", "currency": "eur"}},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_123", server.URL)
	sub, err := client.CreateSubscription(context.Background(), "cus_123", "price_A", nil, 14)
	require.NoError(t, err)

	assert.Equal(t, "sub_1", sub.ID)
	assert.Equal(t, "active", sub.Status)
	require.Len(t, sub.Items.Data, 1)
	assert.Equal(t, "price_A", sub.Items.Data[0].Price.ID)

	assert.Equal(t, []string{"cus_123"}, gotForm["customer"])
	assert.Equal(t, []string{"send_invoice"}, gotForm["collection_method"])
	assert.Equal(t, []string{"14"}, gotForm["days_until_due"])
	assert.Equal(t, []string{"price_A"}, gotForm["items[0][price]"])
}

func TestClient_CreateSubscription_InlinePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "prod_custom", r.PostForm.Get("items[0][price_data][product]"))
		assert.Equal(t, "4999", r.PostForm.Get("items[0][price_data][unit_amount]"))
		assert.Equal(t, "eur", r.PostForm.Get("items[0][price_data][currency]"))
		assert.Equal(t, "month", r.PostForm.Get("items[0][price_data][recurring][interval]"))

		json.NewEncoder(w).Encode(map[string]any{"id": "sub_2", "status": "active"})
	}))
	defer server.Close()

	client := NewClient("sk_test_123", server.URL)
	sub, err := client.CreateSubscription(context.Background(), "cus_123", "", &InlinePrice{
		ProductID:   "prod_custom",
		AmountCents: 4999,
		Currency:    "eur",
		Interval:    "month",
	}, 14)
	require.NoError(t, err)
	assert.Equal(t, "sub_2", sub.ID)
}

func TestClient_ListInvoicesAndFinalize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/invoices" && r.Method == http.MethodGet:
			assert.Equal(t, "sub_1", r.URL.Query().Get("subscription"))
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"id": "in_1", "status": "draft", "subscription": "sub_1"},
				},
			})
		case r.URL.Path == "/invoices/in_1/finalize" && r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]any{
				"id":                 "in_1",
				"status":             "open",
				"hosted_invoice_url": "https://invoice.stripe.com/i/in_1",
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient("sk_test_123", server.URL)

	invoices, err := client.ListInvoices(context.Background(), "sub_1")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "draft", invoices[0].Status)

	finalized, err := client.FinalizeInvoice(context.Background(), invoices[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "open", finalized.Status)
	assert.Equal(t, "https://invoice.stripe.com/i/in_1", finalized.HostedInvoiceURL)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "card_error", "message": "Your card was declined."},
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_123", server.URL)
	_, err := client.CreateCustomer(context.Background(), "a@b.nl", "Test")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, "card_error", apiErr.Type)
	assert.Contains(t, apiErr.Message, "declined")
}
