package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subscription mirrors a Stripe subscription for a tenant. Stripe is
// the system of record; this row exists for local reporting and the
// reconciliation pass.
type Subscription struct {
	ID                   uuid.UUID `json:"id"`
	TenantID             uuid.UUID `json:"tenant_id"`
	StripeSubscriptionID string    `json:"stripe_subscription_id"`
	StripePriceID        string    `json:"stripe_price_id"`
	StripeProductID      string    `json:"stripe_product_id,omitempty"`
	Status               string    `json:"status"`
	CurrentPeriodStart   time.Time `json:"current_period_start"`
	CurrentPeriodEnd     time.Time `json:"current_period_end"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// PriceOverride describes an operator-entered inline price used
// instead of a standard price id.
type PriceOverride struct {
	AmountCents int64  `json:"amount_cents" validate:"required,min=1"`
	Currency    string `json:"currency" validate:"required,len=3,lowercase"`
	Interval    string `json:"interval" validate:"required,oneof=day week month year"`
	ProductID   string `json:"product_id" validate:"required"`
}

// SubscriptionAssign is the operator request to assign a subscription
// to a tenant. Exactly one of PriceID or Override must be set.
type SubscriptionAssign struct {
	PriceID  string         `json:"price_id,omitempty"`
	Override *PriceOverride `json:"override,omitempty"`
}

// SubscriptionAssignResult is returned to the caller for out-of-band
// emailing of the payable invoice.
type SubscriptionAssignResult struct {
	Subscription     *Subscription `json:"subscription"`
	HostedInvoiceURL string        `json:"hosted_invoice_url"`
	BillingEmail     string        `json:"billing_email"`
}

// Assignment step markers. Each external step of the assignment flow
// records its completion so partial failures are detectable.
const (
	AssignmentStepStarted      = "started"
	AssignmentStepSubscription = "subscription_created"
	AssignmentStepInvoice      = "invoice_finalized"
	AssignmentStepPersisted    = "persisted"
	AssignmentStepFailed       = "failed"
)

// SubscriptionAssignment records the progress of one assignment flow
type SubscriptionAssignment struct {
	ID                   uuid.UUID `json:"id"`
	TenantID             uuid.UUID `json:"tenant_id"`
	StripeSubscriptionID string    `json:"stripe_subscription_id,omitempty"`
	Step                 string    `json:"step"`
	LastError            string    `json:"last_error,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// SubscriptionRepository defines the interface for subscription storage
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*Subscription, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Subscription, error)
	UpdateStatus(ctx context.Context, stripeSubscriptionID, status string, periodStart, periodEnd time.Time) error
}

// AssignmentRepository records assignment saga progress
type AssignmentRepository interface {
	Create(ctx context.Context, a *SubscriptionAssignment) error
	SetStep(ctx context.Context, id uuid.UUID, step, stripeSubscriptionID, lastError string) error
	ListIncomplete(ctx context.Context) ([]SubscriptionAssignment, error)
}
