package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sitegrid/portal/internal/domain"
)

// PageService handles page operations
type PageService struct {
	pageRepo domain.PageRepository
}

// NewPageService creates a new page service
func NewPageService(pageRepo domain.PageRepository) *PageService {
	return &PageService{pageRepo: pageRepo}
}

// Create creates a page. Slug uniqueness is scoped to the owning
// website: the same slug on another website never conflicts.
func (s *PageService) Create(ctx context.Context, websiteID uuid.UUID, input domain.PageCreate) (*domain.Page, error) {
	taken, err := s.pageRepo.SlugExists(ctx, websiteID, input.Slug, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		return nil, errors.New("slug already in use")
	}

	now := time.Now()
	page := &domain.Page{
		ID:        uuid.New(),
		WebsiteID: websiteID,
		Name:      input.Name,
		Slug:      input.Slug,
		Status:    domain.PageStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.pageRepo.Create(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return page, nil
}

// GetByID retrieves a page scoped to a website
func (s *PageService) GetByID(ctx context.Context, websiteID, pageID uuid.UUID) (*domain.Page, error) {
	page, err := s.pageRepo.GetByIDAndWebsite(ctx, pageID, websiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if page == nil {
		return nil, errors.New("page not found")
	}
	return page, nil
}

// ListByWebsite retrieves all pages of a website
func (s *PageService) ListByWebsite(ctx context.Context, websiteID uuid.UUID) ([]domain.Page, error) {
	return s.pageRepo.ListByWebsite(ctx, websiteID)
}

// Update updates page name and slug
func (s *PageService) Update(ctx context.Context, websiteID, pageID uuid.UUID, input domain.PageUpdate) (*domain.Page, error) {
	if _, err := s.GetByID(ctx, websiteID, pageID); err != nil {
		return nil, err
	}

	if input.Slug != nil {
		taken, err := s.pageRepo.SlugExists(ctx, websiteID, *input.Slug, pageID)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		if taken {
			return nil, errors.New("slug already in use")
		}
	}

	if err := s.pageRepo.Update(ctx, pageID, &input); err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}

	return s.pageRepo.GetByID(ctx, pageID)
}

// SetStatus sets the page status. Transitions are ungated; the
// returned message is cosmetic.
func (s *PageService) SetStatus(ctx context.Context, websiteID, pageID uuid.UUID, status domain.PageStatus) (string, error) {
	if _, err := s.GetByID(ctx, websiteID, pageID); err != nil {
		return "", err
	}

	if err := s.pageRepo.SetStatus(ctx, pageID, status); err != nil {
		return "", fmt.Errorf("failed to set status: %w", err)
	}

	switch status {
	case domain.PageStatusActive:
		return "page activated", nil
	case domain.PageStatusArchived:
		return "page archived", nil
	default:
		return "page set to draft", nil
	}
}

// Delete deletes a page
func (s *PageService) Delete(ctx context.Context, websiteID, pageID uuid.UUID) error {
	if _, err := s.GetByID(ctx, websiteID, pageID); err != nil {
		return err
	}

	return s.pageRepo.Delete(ctx, pageID)
}
