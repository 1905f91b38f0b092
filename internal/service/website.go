package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/security"
)

// WebsiteService handles website operations
type WebsiteService struct {
	websiteRepo domain.WebsiteRepository
	hostnames   *security.HostnameValidator
}

// NewWebsiteService creates a new website service
func NewWebsiteService(websiteRepo domain.WebsiteRepository) *WebsiteService {
	return &WebsiteService{
		websiteRepo: websiteRepo,
		hostnames:   security.NewHostnameValidator(),
	}
}

// Create creates a website for a tenant. The domain must pass the
// hostname check before anything is persisted.
func (s *WebsiteService) Create(ctx context.Context, tenantID uuid.UUID, input domain.WebsiteCreate) (*domain.Website, error) {
	if err := s.hostnames.Validate(input.Domain); err != nil {
		return nil, fmt.Errorf("invalid domain: %w", err)
	}

	now := time.Now()
	website := &domain.Website{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      input.Name,
		Domain:    security.Normalize(input.Domain),
		Status:    domain.WebsiteStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.websiteRepo.Create(ctx, website); err != nil {
		return nil, fmt.Errorf("failed to create website: %w", err)
	}

	return website, nil
}

// GetByID retrieves a website scoped to a tenant
func (s *WebsiteService) GetByID(ctx context.Context, tenantID, websiteID uuid.UUID) (*domain.Website, error) {
	website, err := s.websiteRepo.GetByIDAndTenant(ctx, websiteID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get website: %w", err)
	}
	if website == nil {
		return nil, errors.New("website not found")
	}
	return website, nil
}

// ListByTenant retrieves all websites for a tenant
func (s *WebsiteService) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Website, error) {
	return s.websiteRepo.ListByTenant(ctx, tenantID)
}

// Update updates a website. Status changes are not gated; any status
// may follow any other.
func (s *WebsiteService) Update(ctx context.Context, tenantID, websiteID uuid.UUID, input domain.WebsiteUpdate) (*domain.Website, error) {
	if _, err := s.GetByID(ctx, tenantID, websiteID); err != nil {
		return nil, err
	}

	if input.Domain != nil {
		if err := s.hostnames.Validate(*input.Domain); err != nil {
			return nil, fmt.Errorf("invalid domain: %w", err)
		}
		normalized := security.Normalize(*input.Domain)
		input.Domain = &normalized
	}

	if err := s.websiteRepo.Update(ctx, websiteID, &input); err != nil {
		return nil, fmt.Errorf("failed to update website: %w", err)
	}

	return s.websiteRepo.GetByID(ctx, websiteID)
}

// Delete deletes a website and, through the persistence layer, its
// pages and their schemas.
func (s *WebsiteService) Delete(ctx context.Context, tenantID, websiteID uuid.UUID) error {
	if _, err := s.GetByID(ctx, tenantID, websiteID); err != nil {
		return err
	}

	return s.websiteRepo.Delete(ctx, websiteID)
}
