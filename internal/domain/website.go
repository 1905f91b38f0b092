package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WebsiteStatus represents the operational state of a website.
// Transitions are not gated; any status may be set from any other.
type WebsiteStatus string

const (
	WebsiteStatusActive      WebsiteStatus = "active"
	WebsiteStatusInactive    WebsiteStatus = "inactive"
	WebsiteStatusMaintenance WebsiteStatus = "maintenance"
)

// Website represents a managed site belonging to a tenant
type Website struct {
	ID        uuid.UUID     `json:"id"`
	TenantID  uuid.UUID     `json:"tenant_id"`
	Name      string        `json:"name"`
	Domain    string        `json:"domain"`
	Status    WebsiteStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// WebsiteCreate represents website creation data
type WebsiteCreate struct {
	Name   string `json:"name" validate:"required,max=255"`
	Domain string `json:"domain" validate:"required,max=253"`
}

// WebsiteUpdate represents website update data
type WebsiteUpdate struct {
	Name   *string        `json:"name,omitempty" validate:"omitempty,max=255"`
	Domain *string        `json:"domain,omitempty" validate:"omitempty,max=253"`
	Status *WebsiteStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive maintenance"`
}

// WebsiteRepository defines the interface for website storage
type WebsiteRepository interface {
	Create(ctx context.Context, website *Website) error
	GetByID(ctx context.Context, id uuid.UUID) (*Website, error)
	GetByIDAndTenant(ctx context.Context, id, tenantID uuid.UUID) (*Website, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Website, error)
	Update(ctx context.Context, id uuid.UUID, update *WebsiteUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}
