package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PageStatus is a flat tri-state label; any transition is permitted.
type PageStatus string

const (
	PageStatusDraft    PageStatus = "draft"
	PageStatusActive   PageStatus = "active"
	PageStatusArchived PageStatus = "archived"
)

// Page represents a content page within a website.
// Slug is unique within the owning website, enforced at the
// persistence boundary.
type Page struct {
	ID        uuid.UUID  `json:"id"`
	WebsiteID uuid.UUID  `json:"website_id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Status    PageStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PageCreate represents page creation data
type PageCreate struct {
	Name string `json:"name" validate:"required,max=255"`
	Slug string `json:"slug" validate:"required,max=255,lowercase"`
}

// PageUpdate represents page update data
type PageUpdate struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Slug *string `json:"slug,omitempty" validate:"omitempty,max=255,lowercase"`
}

// PageStatusUpdate sets the page status
type PageStatusUpdate struct {
	Status PageStatus `json:"status" validate:"required,oneof=draft active archived"`
}

// PageRepository defines the interface for page storage
type PageRepository interface {
	Create(ctx context.Context, page *Page) error
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	GetByIDAndWebsite(ctx context.Context, id, websiteID uuid.UUID) (*Page, error)
	ListByWebsite(ctx context.Context, websiteID uuid.UUID) ([]Page, error)
	SlugExists(ctx context.Context, websiteID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, update *PageUpdate) error
	SetStatus(ctx context.Context, id uuid.UUID, status PageStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}
