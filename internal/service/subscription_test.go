package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sitegrid/portal/internal/billing/stripe"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeStripe serves the subset of the Stripe API the assignment flow
// touches.
func fakeStripe(t *testing.T, invoiceStatus string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /subscriptions", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_123", r.Form.Get("customer"))
		assert.Equal(t, "send_invoice", r.Form.Get("collection_method"))

		priceID := r.Form.Get("items[0][price]")
		if priceID == "" {
			priceID = "price_inline"
		}

		now := time.Now().Unix()
		fmt.Fprintf(w, `{
			"id": "sub_123",
			"customer": "cus_123",
			"status": "active",
			"current_period_start": %d,
			"current_period_end": %d,
			"items": {"data": [{"id": "si_1", "price": {"id": %q, "product": "prod_1", "currency": "eur"}}]}
		}`, now, now+2592000, priceID)
	})

	mux.HandleFunc("GET /subscriptions/{id}", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Unix()
		fmt.Fprintf(w, `{
			"id": %q,
			"customer": "cus_123",
			"status": "active",
			"current_period_start": %d,
			"current_period_end": %d,
			"items": {"data": [{"id": "si_1", "price": {"id": "price_A", "product": "prod_1", "currency": "eur"}}]}
		}`, r.PathValue("id"), now, now+2592000)
	})

	mux.HandleFunc("GET /invoices", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sub_123", r.URL.Query().Get("subscription"))
		fmt.Fprintf(w, `{"data": [{"id": "in_1", "status": %q, "hosted_invoice_url": "", "subscription": "sub_123"}]}`, invoiceStatus)
	})

	mux.HandleFunc("POST /invoices/in_1/finalize", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "in_1", "status": "open", "hosted_invoice_url": "https://pay.stripe.com/in_1", "subscription": "sub_123"}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newAssignService(t *testing.T, server *httptest.Server, tenant *domain.Tenant) (*SubscriptionService, *mockSubscriptionRepo, *mockAssignmentRepo) {
	t.Helper()

	tenantRepo := new(mockTenantRepo)
	subRepo := new(mockSubscriptionRepo)
	assignmentRepo := new(mockAssignmentRepo)
	auditRepo := new(mockAuditRepo)

	tenantRepo.On("GetByID", context.Background(), tenant.ID).Return(tenant, nil)
	assignmentRepo.On("Create", context.Background(), mock.AnythingOfType("*domain.SubscriptionAssignment")).Return(nil)
	assignmentRepo.On("SetStep", context.Background(), mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	auditRepo.On("Record", context.Background(), mock.AnythingOfType("*domain.AuditEntry")).Return(nil)

	client := stripe.NewClient("sk_test", server.URL)
	svc := NewSubscriptionService(tenantRepo, subRepo, assignmentRepo, auditRepo, client, 14)
	return svc, subRepo, assignmentRepo
}

func TestAssign_StandardPrice(t *testing.T) {
	server := fakeStripe(t, "draft")
	tenant := &domain.Tenant{
		ID:               uuid.New(),
		Name:             "Acme",
		BillingEmail:     "billing@acme.test",
		StripeCustomerID: "cus_123",
	}
	svc, subRepo, assignmentRepo := newAssignService(t, server, tenant)

	var persisted *domain.Subscription
	subRepo.On("Create", context.Background(), mock.AnythingOfType("*domain.Subscription")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(*domain.Subscription)
		}).
		Return(nil)

	result, err := svc.Assign(context.Background(), uuid.New(), tenant.ID, domain.SubscriptionAssign{PriceID: "price_A"})
	require.NoError(t, err)

	require.NotNil(t, persisted)
	assert.Equal(t, "sub_123", persisted.StripeSubscriptionID)
	assert.Equal(t, "price_A", persisted.StripePriceID)
	assert.Equal(t, tenant.ID, persisted.TenantID)
	assert.Equal(t, "active", persisted.Status)

	assert.Equal(t, "https://pay.stripe.com/in_1", result.HostedInvoiceURL)
	assert.Equal(t, "billing@acme.test", result.BillingEmail)

	assignmentRepo.AssertCalled(t, "SetStep", context.Background(), mock.Anything, domain.AssignmentStepSubscription, "sub_123", "")
	assignmentRepo.AssertCalled(t, "SetStep", context.Background(), mock.Anything, domain.AssignmentStepInvoice, "sub_123", "")
	assignmentRepo.AssertCalled(t, "SetStep", context.Background(), mock.Anything, domain.AssignmentStepPersisted, "sub_123", "")
}

func TestAssign_InvoiceAlreadyFinalized(t *testing.T) {
	server := fakeStripe(t, "open")
	tenant := &domain.Tenant{
		ID:               uuid.New(),
		Name:             "Acme",
		BillingEmail:     "billing@acme.test",
		StripeCustomerID: "cus_123",
	}
	svc, subRepo, _ := newAssignService(t, server, tenant)

	subRepo.On("Create", context.Background(), mock.AnythingOfType("*domain.Subscription")).Return(nil)

	// An already-open invoice is not finalized again; the flow just
	// takes its hosted URL (empty in this fixture).
	result, err := svc.Assign(context.Background(), uuid.New(), tenant.ID, domain.SubscriptionAssign{PriceID: "price_A"})
	require.NoError(t, err)
	assert.Empty(t, result.HostedInvoiceURL)
}

func TestAssign_OverridePrice(t *testing.T) {
	server := fakeStripe(t, "draft")
	tenant := &domain.Tenant{
		ID:               uuid.New(),
		Name:             "Acme",
		BillingEmail:     "billing@acme.test",
		StripeCustomerID: "cus_123",
	}
	svc, subRepo, _ := newAssignService(t, server, tenant)

	subRepo.On("Create", context.Background(), mock.AnythingOfType("*domain.Subscription")).Return(nil)

	result, err := svc.Assign(context.Background(), uuid.New(), tenant.ID, domain.SubscriptionAssign{
		Override: &domain.PriceOverride{
			AmountCents: 4900,
			Currency:    "eur",
			Interval:    "month",
			ProductID:   "prod_1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "price_inline", result.Subscription.StripePriceID)
}

func TestAssign_RequiresExactlyOnePriceSource(t *testing.T) {
	server := fakeStripe(t, "draft")
	tenant := &domain.Tenant{ID: uuid.New(), BillingEmail: "b@acme.test", StripeCustomerID: "cus_123"}
	svc, _, _ := newAssignService(t, server, tenant)

	_, err := svc.Assign(context.Background(), uuid.New(), tenant.ID, domain.SubscriptionAssign{})
	require.Error(t, err)

	_, err = svc.Assign(context.Background(), uuid.New(), tenant.ID, domain.SubscriptionAssign{
		PriceID:  "price_A",
		Override: &domain.PriceOverride{AmountCents: 100, Currency: "eur", Interval: "month", ProductID: "prod_1"},
	})
	require.Error(t, err)
}

func TestAssign_TenantWithoutBillingCustomer(t *testing.T) {
	server := fakeStripe(t, "draft")
	tenant := &domain.Tenant{ID: uuid.New(), Name: "Acme", BillingEmail: "b@acme.test"}
	svc, _, _ := newAssignService(t, server, tenant)

	_, err := svc.Assign(context.Background(), uuid.New(), tenant.ID, domain.SubscriptionAssign{PriceID: "price_A"})
	require.Error(t, err)
	assert.Equal(t, "tenant has no billing customer", err.Error())
}

func TestAssign_StripeFailureRecordsFailedStep(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /subscriptions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error": {"type": "card_error", "message": "customer has no payment method"}}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	tenant := &domain.Tenant{ID: uuid.New(), Name: "Acme", BillingEmail: "b@acme.test", StripeCustomerID: "cus_123"}
	svc, _, assignmentRepo := newAssignService(t, server, tenant)

	_, err := svc.Assign(context.Background(), uuid.New(), tenant.ID, domain.SubscriptionAssign{PriceID: "price_A"})
	require.Error(t, err)

	assignmentRepo.AssertCalled(t, "SetStep", context.Background(), mock.Anything, domain.AssignmentStepFailed, "", mock.Anything)
}

func TestReconcile_PersistsMissingMirror(t *testing.T) {
	server := fakeStripe(t, "open")

	tenantID := uuid.New()
	tenantRepo := new(mockTenantRepo)
	subRepo := new(mockSubscriptionRepo)
	assignmentRepo := new(mockAssignmentRepo)
	auditRepo := new(mockAuditRepo)

	assignmentRepo.On("ListIncomplete", context.Background()).Return([]domain.SubscriptionAssignment{
		{ID: uuid.New(), TenantID: tenantID, StripeSubscriptionID: "sub_123", Step: domain.AssignmentStepInvoice},
	}, nil)
	subRepo.On("GetByStripeID", context.Background(), "sub_123").Return(nil, nil)

	var persisted *domain.Subscription
	subRepo.On("Create", context.Background(), mock.AnythingOfType("*domain.Subscription")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(*domain.Subscription)
		}).
		Return(nil)
	assignmentRepo.On("SetStep", context.Background(), mock.Anything, domain.AssignmentStepPersisted, "sub_123", "").Return(nil)

	client := stripe.NewClient("sk_test", server.URL)
	svc := NewSubscriptionService(tenantRepo, subRepo, assignmentRepo, auditRepo, client, 14)

	repaired, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	require.NotNil(t, persisted)
	assert.Equal(t, tenantID, persisted.TenantID)
	assert.Equal(t, "price_A", persisted.StripePriceID)
}

func TestHandleWebhookEvent_SubscriptionUpdated(t *testing.T) {
	tenantRepo := new(mockTenantRepo)
	subRepo := new(mockSubscriptionRepo)
	assignmentRepo := new(mockAssignmentRepo)
	auditRepo := new(mockAuditRepo)
	svc := NewSubscriptionService(tenantRepo, subRepo, assignmentRepo, auditRepo, stripe.NewClient("sk_test", ""), 14)

	auditRepo.On("Record", context.Background(), mock.AnythingOfType("*domain.AuditEntry")).Return(nil)
	subRepo.On("GetByStripeID", context.Background(), "sub_123").
		Return(&domain.Subscription{StripeSubscriptionID: "sub_123", Status: "active"}, nil)
	subRepo.On("UpdateStatus", context.Background(), "sub_123", "past_due", mock.Anything, mock.Anything).Return(nil)

	object, _ := json.Marshal(map[string]any{
		"id":                   "sub_123",
		"status":               "past_due",
		"current_period_start": time.Now().Unix(),
		"current_period_end":   time.Now().Add(720 * time.Hour).Unix(),
	})
	event := &stripe.Event{Type: stripe.EventCustomerSubscriptionUpdated}
	event.Data.Object = object

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
	subRepo.AssertExpectations(t)
}

func TestHandleWebhookEvent_UnknownTypeIgnored(t *testing.T) {
	auditRepo := new(mockAuditRepo)
	svc := NewSubscriptionService(new(mockTenantRepo), new(mockSubscriptionRepo), new(mockAssignmentRepo), auditRepo, stripe.NewClient("sk_test", ""), 14)

	auditRepo.On("Record", context.Background(), mock.AnythingOfType("*domain.AuditEntry")).Return(nil)

	event := &stripe.Event{Type: "customer.updated"}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
}

func TestHandleWebhookEvent_RecordsEventID(t *testing.T) {
	auditRepo := new(mockAuditRepo)
	svc := NewSubscriptionService(new(mockTenantRepo), new(mockSubscriptionRepo), new(mockAssignmentRepo), auditRepo, stripe.NewClient("sk_test", ""), 14)

	var recorded *domain.AuditEntry
	auditRepo.On("Record", context.Background(), mock.AnythingOfType("*domain.AuditEntry")).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).(*domain.AuditEntry)
		}).
		Return(nil)

	event := &stripe.Event{ID: "evt_42", Type: "customer.updated"}
	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))

	require.NotNil(t, recorded)
	assert.Equal(t, "stripe.webhook_received", recorded.Action)
	assert.Equal(t, "stripe_event", recorded.ObjectType)
	assert.Equal(t, "evt_42", recorded.ObjectID)
	assert.Equal(t, "customer.updated", recorded.Detail)
}

func TestHandleWebhookEvent_CheckoutSessionCompleted(t *testing.T) {
	server := fakeStripe(t, "open")

	subRepo := new(mockSubscriptionRepo)
	auditRepo := new(mockAuditRepo)
	svc := NewSubscriptionService(new(mockTenantRepo), subRepo, new(mockAssignmentRepo), auditRepo, stripe.NewClient("sk_test", server.URL), 14)

	auditRepo.On("Record", context.Background(), mock.AnythingOfType("*domain.AuditEntry")).Return(nil)
	subRepo.On("GetByStripeID", context.Background(), "sub_123").
		Return(&domain.Subscription{StripeSubscriptionID: "sub_123", Status: "incomplete"}, nil)
	subRepo.On("UpdateStatus", context.Background(), "sub_123", "active", mock.Anything, mock.Anything).Return(nil)

	object, _ := json.Marshal(map[string]any{"id": "cs_1", "customer": "cus_123", "subscription": "sub_123"})
	event := &stripe.Event{ID: "evt_cs", Type: stripe.EventCheckoutSessionCompleted}
	event.Data.Object = object

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
	subRepo.AssertExpectations(t)
}

func TestHandleWebhookEvent_CheckoutSessionWithoutSubscription(t *testing.T) {
	subRepo := new(mockSubscriptionRepo)
	auditRepo := new(mockAuditRepo)
	svc := NewSubscriptionService(new(mockTenantRepo), subRepo, new(mockAssignmentRepo), auditRepo, stripe.NewClient("sk_test", ""), 14)

	auditRepo.On("Record", context.Background(), mock.AnythingOfType("*domain.AuditEntry")).Return(nil)

	object, _ := json.Marshal(map[string]any{"id": "cs_1", "customer": "cus_123"})
	event := &stripe.Event{ID: "evt_cs", Type: stripe.EventCheckoutSessionCompleted}
	event.Data.Object = object

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
	subRepo.AssertNotCalled(t, "GetByStripeID", mock.Anything, mock.Anything)
}

func TestHandleWebhookEvent_UnknownSubscriptionIgnored(t *testing.T) {
	subRepo := new(mockSubscriptionRepo)
	auditRepo := new(mockAuditRepo)
	svc := NewSubscriptionService(new(mockTenantRepo), subRepo, new(mockAssignmentRepo), auditRepo, stripe.NewClient("sk_test", ""), 14)

	auditRepo.On("Record", context.Background(), mock.AnythingOfType("*domain.AuditEntry")).Return(nil)
	subRepo.On("GetByStripeID", context.Background(), "sub_unknown").Return(nil, nil)

	object, _ := json.Marshal(map[string]any{"id": "sub_unknown", "status": "active"})
	event := &stripe.Event{Type: stripe.EventCustomerSubscriptionCreated}
	event.Data.Object = object

	require.NoError(t, svc.HandleWebhookEvent(context.Background(), event))
	subRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
