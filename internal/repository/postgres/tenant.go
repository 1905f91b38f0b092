package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitegrid/portal/internal/domain"
)

// TenantRepository handles tenant data access
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, billing_email, stripe_customer_id, moneybird_contact_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.BillingEmail,
		tenant.StripeCustomerID,
		tenant.MoneybirdContactID,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `
		SELECT id, name, billing_email, stripe_customer_id, moneybird_contact_id, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	var tenant domain.Tenant
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.BillingEmail,
		&tenant.StripeCustomerID,
		&tenant.MoneybirdContactID,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

// List retrieves all tenants
func (r *TenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	query := `
		SELECT id, name, billing_email, stripe_customer_id, moneybird_contact_id, created_at, updated_at
		FROM tenants
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.BillingEmail,
			&tenant.StripeCustomerID,
			&tenant.MoneybirdContactID,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}

	return tenants, nil
}

// Update updates a tenant
func (r *TenantRepository) Update(ctx context.Context, id uuid.UUID, update *domain.TenantUpdate) error {
	query := `
		UPDATE tenants
		SET name = COALESCE($2, name),
		    billing_email = COALESCE($3, billing_email),
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, update.Name, update.BillingEmail); err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	return nil
}

// SetStripeCustomerID stores the billing customer id for a tenant
func (r *TenantRepository) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	query := `UPDATE tenants SET stripe_customer_id = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, id, customerID); err != nil {
		return fmt.Errorf("failed to set stripe customer id: %w", err)
	}

	return nil
}

// SetMoneybirdContactID stores the Moneybird contact id for a tenant
func (r *TenantRepository) SetMoneybirdContactID(ctx context.Context, id uuid.UUID, contactID string) error {
	query := `UPDATE tenants SET moneybird_contact_id = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, id, contactID); err != nil {
		return fmt.Errorf("failed to set moneybird contact id: %w", err)
	}

	return nil
}

// Delete deletes a tenant
func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tenants WHERE id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	return nil
}
