package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitegrid/portal/internal/domain"
)

// WebsiteRepository handles website data access
type WebsiteRepository struct {
	db *DB
}

// NewWebsiteRepository creates a new website repository
func NewWebsiteRepository(db *DB) *WebsiteRepository {
	return &WebsiteRepository{db: db}
}

// Create creates a new website
func (r *WebsiteRepository) Create(ctx context.Context, website *domain.Website) error {
	query := `
		INSERT INTO websites (id, tenant_id, name, domain, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		website.ID,
		website.TenantID,
		website.Name,
		website.Domain,
		website.Status,
		website.CreatedAt,
		website.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create website: %w", err)
	}

	return nil
}

// GetByID retrieves a website by ID
func (r *WebsiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Website, error) {
	query := `
		SELECT id, tenant_id, name, domain, status, created_at, updated_at
		FROM websites
		WHERE id = $1
	`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

// GetByIDAndTenant retrieves a website scoped to a tenant
func (r *WebsiteRepository) GetByIDAndTenant(ctx context.Context, id, tenantID uuid.UUID) (*domain.Website, error) {
	query := `
		SELECT id, tenant_id, name, domain, status, created_at, updated_at
		FROM websites
		WHERE id = $1 AND tenant_id = $2
	`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id, tenantID))
}

func (r *WebsiteRepository) scanOne(row pgx.Row) (*domain.Website, error) {
	var website domain.Website
	err := row.Scan(
		&website.ID,
		&website.TenantID,
		&website.Name,
		&website.Domain,
		&website.Status,
		&website.CreatedAt,
		&website.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get website: %w", err)
	}

	return &website, nil
}

// ListByTenant retrieves all websites for a tenant
func (r *WebsiteRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Website, error) {
	query := `
		SELECT id, tenant_id, name, domain, status, created_at, updated_at
		FROM websites
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list websites: %w", err)
	}
	defer rows.Close()

	var websites []domain.Website
	for rows.Next() {
		var website domain.Website
		if err := rows.Scan(
			&website.ID,
			&website.TenantID,
			&website.Name,
			&website.Domain,
			&website.Status,
			&website.CreatedAt,
			&website.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan website: %w", err)
		}
		websites = append(websites, website)
	}

	return websites, nil
}

// Update updates a website
func (r *WebsiteRepository) Update(ctx context.Context, id uuid.UUID, update *domain.WebsiteUpdate) error {
	query := `
		UPDATE websites
		SET name = COALESCE($2, name),
		    domain = COALESCE($3, domain),
		    status = COALESCE($4, status),
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, update.Name, update.Domain, update.Status); err != nil {
		return fmt.Errorf("failed to update website: %w", err)
	}

	return nil
}

// Delete deletes a website. Pages, sections and fields beneath it go
// with it via FK cascade.
func (r *WebsiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM websites WHERE id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete website: %w", err)
	}

	return nil
}
