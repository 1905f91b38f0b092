package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sitegrid/portal/internal/billing/stripe"
	"github.com/sitegrid/portal/internal/domain"
)

// TenantService handles tenant operations
type TenantService struct {
	tenantRepo domain.TenantRepository
	auditRepo  domain.AuditRepository
	stripe     *stripe.Client
}

// NewTenantService creates a new tenant service
func NewTenantService(tenantRepo domain.TenantRepository, auditRepo domain.AuditRepository, stripeClient *stripe.Client) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		auditRepo:  auditRepo,
		stripe:     stripeClient,
	}
}

// Create creates a new tenant
func (s *TenantService) Create(ctx context.Context, actorID uuid.UUID, input domain.TenantCreate) (*domain.Tenant, error) {
	now := time.Now()
	tenant := &domain.Tenant{
		ID:           uuid.New(),
		Name:         input.Name,
		BillingEmail: input.BillingEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.audit(ctx, actorID, tenant.ID, "tenant.created", "tenant", tenant.ID.String(), tenant.Name)

	return tenant, nil
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if tenant == nil {
		return nil, errors.New("tenant not found")
	}
	return tenant, nil
}

// List retrieves all tenants
func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.tenantRepo.List(ctx)
}

// Update updates a tenant
func (s *TenantService) Update(ctx context.Context, actorID, id uuid.UUID, input domain.TenantUpdate) (*domain.Tenant, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Update(ctx, id, &input); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}

	s.audit(ctx, actorID, tenant.ID, "tenant.updated", "tenant", id.String(), "")

	return s.tenantRepo.GetByID(ctx, id)
}

// Delete deletes a tenant
func (s *TenantService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.tenantRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	s.audit(ctx, actorID, tenant.ID, "tenant.deleted", "tenant", id.String(), tenant.Name)

	return nil
}

// EnsureBillingCustomer creates a Stripe customer for the tenant if
// none exists yet and returns the customer id.
func (s *TenantService) EnsureBillingCustomer(ctx context.Context, actorID, id uuid.UUID) (string, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if tenant.StripeCustomerID != "" {
		return tenant.StripeCustomerID, nil
	}

	customer, err := s.stripe.CreateCustomer(ctx, tenant.BillingEmail, tenant.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create billing customer: %w", err)
	}

	if err := s.tenantRepo.SetStripeCustomerID(ctx, id, customer.ID); err != nil {
		return "", fmt.Errorf("failed to store billing customer id: %w", err)
	}

	s.audit(ctx, actorID, id, "tenant.billing_customer_created", "customer", customer.ID, "")

	return customer.ID, nil
}

// AuditLog lists recent audit entries for a tenant
func (s *TenantService) AuditLog(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.auditRepo.ListByTenant(ctx, tenantID, limit)
}

func (s *TenantService) audit(ctx context.Context, actorID, tenantID uuid.UUID, action, objectType, objectID, detail string) {
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		TenantID:   tenantID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
	// Audit writes are best-effort; the primary operation already
	// succeeded.
	_ = s.auditRepo.Record(ctx, entry)
}
