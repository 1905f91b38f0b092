package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitegrid/portal/internal/domain"
)

// PageRepository handles page data access
type PageRepository struct {
	db *DB
}

// NewPageRepository creates a new page repository
func NewPageRepository(db *DB) *PageRepository {
	return &PageRepository{db: db}
}

// Create creates a new page. A unique index on (website_id, slug)
// backs the per-website slug invariant.
func (r *PageRepository) Create(ctx context.Context, page *domain.Page) error {
	query := `
		INSERT INTO pages (id, website_id, name, slug, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		page.ID,
		page.WebsiteID,
		page.Name,
		page.Slug,
		page.Status,
		page.CreatedAt,
		page.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}

	return nil
}

// GetByID retrieves a page by ID
func (r *PageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error) {
	query := `
		SELECT id, website_id, name, slug, status, created_at, updated_at
		FROM pages
		WHERE id = $1
	`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

// GetByIDAndWebsite retrieves a page scoped to a website
func (r *PageRepository) GetByIDAndWebsite(ctx context.Context, id, websiteID uuid.UUID) (*domain.Page, error) {
	query := `
		SELECT id, website_id, name, slug, status, created_at, updated_at
		FROM pages
		WHERE id = $1 AND website_id = $2
	`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id, websiteID))
}

func (r *PageRepository) scanOne(row pgx.Row) (*domain.Page, error) {
	var page domain.Page
	err := row.Scan(
		&page.ID,
		&page.WebsiteID,
		&page.Name,
		&page.Slug,
		&page.Status,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	return &page, nil
}

// ListByWebsite retrieves all pages of a website
func (r *PageRepository) ListByWebsite(ctx context.Context, websiteID uuid.UUID) ([]domain.Page, error) {
	query := `
		SELECT id, website_id, name, slug, status, created_at, updated_at
		FROM pages
		WHERE website_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query, websiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		var page domain.Page
		if err := rows.Scan(
			&page.ID,
			&page.WebsiteID,
			&page.Name,
			&page.Slug,
			&page.Status,
			&page.CreatedAt,
			&page.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}

	return pages, nil
}

// SlugExists checks whether a slug is taken within a website. The same
// slug on a different website does not conflict. excludeID skips the
// page being updated.
func (r *PageRepository) SlugExists(ctx context.Context, websiteID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM pages
			WHERE website_id = $1 AND slug = $2 AND id <> $3
		)
	`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, websiteID, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return exists, nil
}

// Update updates a page
func (r *PageRepository) Update(ctx context.Context, id uuid.UUID, update *domain.PageUpdate) error {
	query := `
		UPDATE pages
		SET name = COALESCE($2, name),
		    slug = COALESCE($3, slug),
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, update.Name, update.Slug); err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}

	return nil
}

// SetStatus sets the page status
func (r *PageRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.PageStatus) error {
	query := `UPDATE pages SET status = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, id, status); err != nil {
		return fmt.Errorf("failed to set page status: %w", err)
	}

	return nil
}

// Delete deletes a page
func (r *PageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM pages WHERE id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}

	return nil
}
