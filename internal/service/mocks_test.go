package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/stretchr/testify/mock"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) RolesByUserID(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	roles, _ := args.Get(0).([]string)
	return roles, args.Error(1)
}

func (m *mockUserRepo) AssignRole(ctx context.Context, userID uuid.UUID, role string) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *mockUserRepo) RevokeRole(ctx context.Context, userID uuid.UUID, role string) error {
	return m.Called(ctx, userID, role).Error(0)
}

type mockTenantRepo struct {
	mock.Mock
}

func (m *mockTenantRepo) Create(ctx context.Context, tenant *domain.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	tenant, _ := args.Get(0).(*domain.Tenant)
	return tenant, args.Error(1)
}

func (m *mockTenantRepo) List(ctx context.Context) ([]domain.Tenant, error) {
	args := m.Called(ctx)
	tenants, _ := args.Get(0).([]domain.Tenant)
	return tenants, args.Error(1)
}

func (m *mockTenantRepo) Update(ctx context.Context, id uuid.UUID, update *domain.TenantUpdate) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *mockTenantRepo) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return m.Called(ctx, id, customerID).Error(0)
}

func (m *mockTenantRepo) SetMoneybirdContactID(ctx context.Context, id uuid.UUID, contactID string) error {
	return m.Called(ctx, id, contactID).Error(0)
}

func (m *mockTenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockPageRepo struct {
	mock.Mock
}

func (m *mockPageRepo) Create(ctx context.Context, page *domain.Page) error {
	return m.Called(ctx, page).Error(0)
}

func (m *mockPageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error) {
	args := m.Called(ctx, id)
	page, _ := args.Get(0).(*domain.Page)
	return page, args.Error(1)
}

func (m *mockPageRepo) GetByIDAndWebsite(ctx context.Context, id, websiteID uuid.UUID) (*domain.Page, error) {
	args := m.Called(ctx, id, websiteID)
	page, _ := args.Get(0).(*domain.Page)
	return page, args.Error(1)
}

func (m *mockPageRepo) ListByWebsite(ctx context.Context, websiteID uuid.UUID) ([]domain.Page, error) {
	args := m.Called(ctx, websiteID)
	pages, _ := args.Get(0).([]domain.Page)
	return pages, args.Error(1)
}

func (m *mockPageRepo) SlugExists(ctx context.Context, websiteID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, websiteID, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPageRepo) Update(ctx context.Context, id uuid.UUID, update *domain.PageUpdate) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *mockPageRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.PageStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockPageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockSchemaRepo struct {
	mock.Mock
}

func (m *mockSchemaRepo) ListByPage(ctx context.Context, pageID uuid.UUID) ([]domain.Section, error) {
	args := m.Called(ctx, pageID)
	sections, _ := args.Get(0).([]domain.Section)
	return sections, args.Error(1)
}

func (m *mockSchemaRepo) ReplaceForPage(ctx context.Context, pageID uuid.UUID, sections []domain.Section) error {
	return m.Called(ctx, pageID, sections).Error(0)
}

func (m *mockSchemaRepo) UpdateFieldOrder(ctx context.Context, pageID uuid.UUID, sectionID, fieldID string, order int) error {
	return m.Called(ctx, pageID, sectionID, fieldID, order).Error(0)
}

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	args := m.Called(ctx, stripeSubscriptionID)
	sub, _ := args.Get(0).(*domain.Subscription)
	return sub, args.Error(1)
}

func (m *mockSubscriptionRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Subscription, error) {
	args := m.Called(ctx, tenantID)
	subs, _ := args.Get(0).([]domain.Subscription)
	return subs, args.Error(1)
}

func (m *mockSubscriptionRepo) UpdateStatus(ctx context.Context, stripeSubscriptionID, status string, periodStart, periodEnd time.Time) error {
	return m.Called(ctx, stripeSubscriptionID, status, periodStart, periodEnd).Error(0)
}

type mockAssignmentRepo struct {
	mock.Mock
}

func (m *mockAssignmentRepo) Create(ctx context.Context, a *domain.SubscriptionAssignment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAssignmentRepo) SetStep(ctx context.Context, id uuid.UUID, step, stripeSubscriptionID, lastError string) error {
	return m.Called(ctx, id, step, stripeSubscriptionID, lastError).Error(0)
}

func (m *mockAssignmentRepo) ListIncomplete(ctx context.Context) ([]domain.SubscriptionAssignment, error) {
	args := m.Called(ctx)
	assignments, _ := args.Get(0).([]domain.SubscriptionAssignment)
	return assignments, args.Error(1)
}

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockAuditRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, tenantID, limit)
	entries, _ := args.Get(0).([]domain.AuditEntry)
	return entries, args.Error(1)
}
