package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sitegrid/portal/internal/domain"
)

// SubscriptionRepository handles local subscription mirror rows
type SubscriptionRepository struct {
	db *DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a subscription mirror row
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, tenant_id, stripe_subscription_id, stripe_price_id, stripe_product_id,
			status, current_period_start, current_period_end, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		sub.ID,
		sub.TenantID,
		sub.StripeSubscriptionID,
		sub.StripePriceID,
		sub.StripeProductID,
		sub.Status,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// GetByStripeID retrieves the mirror row for a Stripe subscription id
func (r *SubscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	query := `
		SELECT id, tenant_id, stripe_subscription_id, stripe_price_id, stripe_product_id,
		       status, current_period_start, current_period_end, created_at, updated_at
		FROM subscriptions
		WHERE stripe_subscription_id = $1
	`

	var sub domain.Subscription
	err := r.db.Pool.QueryRow(ctx, query, stripeSubscriptionID).Scan(
		&sub.ID,
		&sub.TenantID,
		&sub.StripeSubscriptionID,
		&sub.StripePriceID,
		&sub.StripeProductID,
		&sub.Status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// ListByTenant retrieves all subscriptions for a tenant
func (r *SubscriptionRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Subscription, error) {
	query := `
		SELECT id, tenant_id, stripe_subscription_id, stripe_price_id, stripe_product_id,
		       status, current_period_start, current_period_end, created_at, updated_at
		FROM subscriptions
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(
			&sub.ID,
			&sub.TenantID,
			&sub.StripeSubscriptionID,
			&sub.StripePriceID,
			&sub.StripeProductID,
			&sub.Status,
			&sub.CurrentPeriodStart,
			&sub.CurrentPeriodEnd,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, nil
}

// UpdateStatus updates status and period bounds from a webhook event
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, stripeSubscriptionID, status string, periodStart, periodEnd time.Time) error {
	query := `
		UPDATE subscriptions
		SET status = $2,
		    current_period_start = $3,
		    current_period_end = $4,
		    updated_at = NOW()
		WHERE stripe_subscription_id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, stripeSubscriptionID, status, periodStart, periodEnd); err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}

	return nil
}

// AssignmentRepository records the progress of subscription assignment
// flows so partial failures can be found and repaired.
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a new assignment record at the started step
func (r *AssignmentRepository) Create(ctx context.Context, a *domain.SubscriptionAssignment) error {
	query := `
		INSERT INTO subscription_assignments (id, tenant_id, stripe_subscription_id, step, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		a.ID,
		a.TenantID,
		a.StripeSubscriptionID,
		a.Step,
		a.LastError,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	return nil
}

// SetStep advances the recorded step of an assignment
func (r *AssignmentRepository) SetStep(ctx context.Context, id uuid.UUID, step, stripeSubscriptionID, lastError string) error {
	query := `
		UPDATE subscription_assignments
		SET step = $2,
		    stripe_subscription_id = COALESCE(NULLIF($3, ''), stripe_subscription_id),
		    last_error = $4,
		    updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, step, stripeSubscriptionID, lastError); err != nil {
		return fmt.Errorf("failed to set assignment step: %w", err)
	}

	return nil
}

// ListIncomplete lists assignments where a provider subscription was
// created but the local mirror row never landed.
func (r *AssignmentRepository) ListIncomplete(ctx context.Context) ([]domain.SubscriptionAssignment, error) {
	query := `
		SELECT id, tenant_id, stripe_subscription_id, step, last_error, created_at, updated_at
		FROM subscription_assignments
		WHERE step NOT IN ($1, $2)
		  AND stripe_subscription_id <> ''
		ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query, domain.AssignmentStepPersisted, domain.AssignmentStepStarted)
	if err != nil {
		return nil, fmt.Errorf("failed to list incomplete assignments: %w", err)
	}
	defer rows.Close()

	var assignments []domain.SubscriptionAssignment
	for rows.Next() {
		var a domain.SubscriptionAssignment
		if err := rows.Scan(
			&a.ID,
			&a.TenantID,
			&a.StripeSubscriptionID,
			&a.Step,
			&a.LastError,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, nil
}
