package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant represents a billed customer organization
type Tenant struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	BillingEmail       string    `json:"billing_email"`
	StripeCustomerID   string    `json:"stripe_customer_id,omitempty"`
	MoneybirdContactID string    `json:"moneybird_contact_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TenantCreate represents tenant creation data
type TenantCreate struct {
	Name         string `json:"name" validate:"required,max=255"`
	BillingEmail string `json:"billing_email" validate:"required,email,max=255"`
}

// TenantUpdate represents tenant update data
type TenantUpdate struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=255"`
	BillingEmail *string `json:"billing_email,omitempty" validate:"omitempty,email,max=255"`
}

// TenantRepository defines the interface for tenant storage
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Update(ctx context.Context, id uuid.UUID, update *TenantUpdate) error
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
	SetMoneybirdContactID(ctx context.Context, id uuid.UUID, contactID string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
