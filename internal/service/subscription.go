package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sitegrid/portal/internal/billing/stripe"
	"github.com/sitegrid/portal/internal/domain"
)

// SubscriptionService runs the subscription assignment flow against
// Stripe and keeps the local mirror rows current. Stripe remains the
// system of record; every local write follows a confirmed remote one.
type SubscriptionService struct {
	tenantRepo     domain.TenantRepository
	subRepo        domain.SubscriptionRepository
	assignmentRepo domain.AssignmentRepository
	auditRepo      domain.AuditRepository
	stripe         *stripe.Client
	daysUntilDue   int
}

// NewSubscriptionService creates a new subscription service.
// daysUntilDue is the payment window on subscription invoices.
func NewSubscriptionService(
	tenantRepo domain.TenantRepository,
	subRepo domain.SubscriptionRepository,
	assignmentRepo domain.AssignmentRepository,
	auditRepo domain.AuditRepository,
	stripeClient *stripe.Client,
	daysUntilDue int,
) *SubscriptionService {
	if daysUntilDue <= 0 {
		daysUntilDue = 14
	}
	return &SubscriptionService{
		tenantRepo:     tenantRepo,
		subRepo:        subRepo,
		assignmentRepo: assignmentRepo,
		auditRepo:      auditRepo,
		stripe:         stripeClient,
		daysUntilDue:   daysUntilDue,
	}
}

// Assign creates a Stripe subscription for the tenant, finalizes the
// first invoice and persists a local mirror row. Each external step is
// recorded on an assignment row before the next one starts, so a crash
// or a Stripe failure mid-flow leaves a row the reconciler can pick up.
func (s *SubscriptionService) Assign(ctx context.Context, actorID, tenantID uuid.UUID, input domain.SubscriptionAssign) (*domain.SubscriptionAssignResult, error) {
	if (input.PriceID == "") == (input.Override == nil) {
		return nil, errors.New("exactly one of price_id or override is required")
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if tenant == nil {
		return nil, errors.New("tenant not found")
	}
	if tenant.StripeCustomerID == "" {
		return nil, errors.New("tenant has no billing customer")
	}
	if tenant.BillingEmail == "" {
		return nil, errors.New("tenant has no billing email")
	}

	now := time.Now()
	assignment := &domain.SubscriptionAssignment{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Step:      domain.AssignmentStepStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to record assignment: %w", err)
	}

	var inline *stripe.InlinePrice
	if input.Override != nil {
		inline = &stripe.InlinePrice{
			ProductID:   input.Override.ProductID,
			AmountCents: input.Override.AmountCents,
			Currency:    input.Override.Currency,
			Interval:    input.Override.Interval,
		}
	}

	sub, err := s.stripe.CreateSubscription(ctx, tenant.StripeCustomerID, input.PriceID, inline, s.daysUntilDue)
	if err != nil {
		s.fail(ctx, assignment.ID, "", err)
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	s.step(ctx, assignment.ID, domain.AssignmentStepSubscription, sub.ID)

	hostedURL, err := s.firstInvoiceURL(ctx, sub.ID)
	if err != nil {
		s.fail(ctx, assignment.ID, sub.ID, err)
		return nil, err
	}
	s.step(ctx, assignment.ID, domain.AssignmentStepInvoice, sub.ID)

	mirror, err := s.persistMirror(ctx, tenantID, sub)
	if err != nil {
		s.fail(ctx, assignment.ID, sub.ID, err)
		return nil, err
	}
	s.step(ctx, assignment.ID, domain.AssignmentStepPersisted, sub.ID)

	s.audit(ctx, actorID, tenantID, "subscription.assigned", sub.ID)

	return &domain.SubscriptionAssignResult{
		Subscription:     mirror,
		HostedInvoiceURL: hostedURL,
		BillingEmail:     tenant.BillingEmail,
	}, nil
}

// firstInvoiceURL fetches the subscription's first invoice, finalizing
// it when still a draft, and returns its hosted payment URL.
func (s *SubscriptionService) firstInvoiceURL(ctx context.Context, subscriptionID string) (string, error) {
	invoices, err := s.stripe.ListInvoices(ctx, subscriptionID)
	if err != nil {
		return "", fmt.Errorf("failed to list invoices: %w", err)
	}
	if len(invoices) == 0 {
		return "", errors.New("subscription has no invoice")
	}

	invoice := invoices[0]
	if invoice.Status == "draft" {
		finalized, err := s.stripe.FinalizeInvoice(ctx, invoice.ID)
		if err != nil {
			return "", fmt.Errorf("failed to finalize invoice: %w", err)
		}
		invoice = *finalized
	}

	return invoice.HostedInvoiceURL, nil
}

func (s *SubscriptionService) persistMirror(ctx context.Context, tenantID uuid.UUID, sub *stripe.Subscription) (*domain.Subscription, error) {
	var priceID, productID string
	if len(sub.Items.Data) > 0 {
		priceID = sub.Items.Data[0].Price.ID
		productID = sub.Items.Data[0].Price.Product
	}

	now := time.Now()
	mirror := &domain.Subscription{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        priceID,
		StripeProductID:      productID,
		Status:               sub.Status,
		CurrentPeriodStart:   time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.subRepo.Create(ctx, mirror); err != nil {
		return nil, fmt.Errorf("failed to persist subscription: %w", err)
	}
	return mirror, nil
}

// ListByTenant lists the tenant's mirrored subscriptions
func (s *SubscriptionService) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Subscription, error) {
	return s.subRepo.ListByTenant(ctx, tenantID)
}

// Reconcile finishes assignments that created a Stripe subscription but
// never persisted the local mirror. It re-reads the subscription from
// Stripe and completes the missing steps.
func (s *SubscriptionService) Reconcile(ctx context.Context) (int, error) {
	pending, err := s.assignmentRepo.ListIncomplete(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list incomplete assignments: %w", err)
	}

	repaired := 0
	for _, a := range pending {
		sub, err := s.stripe.GetSubscription(ctx, a.StripeSubscriptionID)
		if err != nil {
			log.Warn().Err(err).
				Str("assignment_id", a.ID.String()).
				Str("stripe_subscription_id", a.StripeSubscriptionID).
				Msg("reconcile: subscription lookup failed")
			continue
		}

		existing, err := s.subRepo.GetByStripeID(ctx, sub.ID)
		if err != nil {
			log.Warn().Err(err).Str("assignment_id", a.ID.String()).Msg("reconcile: mirror lookup failed")
			continue
		}
		if existing == nil {
			if _, err := s.persistMirror(ctx, a.TenantID, sub); err != nil {
				log.Warn().Err(err).Str("assignment_id", a.ID.String()).Msg("reconcile: mirror persist failed")
				continue
			}
		}

		s.step(ctx, a.ID, domain.AssignmentStepPersisted, sub.ID)
		repaired++
	}

	return repaired, nil
}

// HandleWebhookEvent applies a verified Stripe event to the local
// mirror. Every verified event is written to the audit log; unknown
// event types are acknowledged and ignored.
func (s *SubscriptionService) HandleWebhookEvent(ctx context.Context, event *stripe.Event) error {
	s.auditEvent(ctx, event)

	switch event.Type {
	case stripe.EventCustomerSubscriptionCreated, stripe.EventCustomerSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
			return fmt.Errorf("failed to parse subscription object: %w", err)
		}
		return s.applySubscriptionState(ctx, &sub, sub.Status)

	case stripe.EventCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return fmt.Errorf("failed to parse checkout session object: %w", err)
		}
		if session.Subscription == "" {
			return nil
		}
		sub, err := s.stripe.GetSubscription(ctx, session.Subscription)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		return s.applySubscriptionState(ctx, sub, sub.Status)

	case stripe.EventInvoicePaymentSucceeded:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
			return fmt.Errorf("failed to parse invoice object: %w", err)
		}
		if invoice.Subscription == "" {
			return nil
		}
		sub, err := s.stripe.GetSubscription(ctx, invoice.Subscription)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		return s.applySubscriptionState(ctx, sub, "active")

	default:
		log.Debug().Str("type", event.Type).Msg("ignoring webhook event")
		return nil
	}
}

func (s *SubscriptionService) applySubscriptionState(ctx context.Context, sub *stripe.Subscription, status string) error {
	existing, err := s.subRepo.GetByStripeID(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to get subscription mirror: %w", err)
	}
	if existing == nil {
		// Mirror row not written yet; the assignment flow or the
		// reconciler will create it.
		log.Debug().Str("stripe_subscription_id", sub.ID).Msg("webhook for unknown subscription")
		return nil
	}

	return s.subRepo.UpdateStatus(ctx, sub.ID, status,
		time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		time.Unix(sub.CurrentPeriodEnd, 0).UTC())
}

func (s *SubscriptionService) auditEvent(ctx context.Context, event *stripe.Event) {
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		Action:     "stripe.webhook_received",
		ObjectType: "stripe_event",
		ObjectID:   event.ID,
		Detail:     event.Type,
		CreatedAt:  time.Now(),
	}
	// Best-effort; the event is still applied if the write fails.
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("failed to record webhook event")
	}
}

func (s *SubscriptionService) step(ctx context.Context, id uuid.UUID, step, stripeSubscriptionID string) {
	if err := s.assignmentRepo.SetStep(ctx, id, step, stripeSubscriptionID, ""); err != nil {
		log.Warn().Err(err).Str("assignment_id", id.String()).Str("step", step).Msg("failed to record assignment step")
	}
}

func (s *SubscriptionService) fail(ctx context.Context, id uuid.UUID, stripeSubscriptionID string, cause error) {
	if err := s.assignmentRepo.SetStep(ctx, id, domain.AssignmentStepFailed, stripeSubscriptionID, cause.Error()); err != nil {
		log.Warn().Err(err).Str("assignment_id", id.String()).Msg("failed to record assignment failure")
	}
}

func (s *SubscriptionService) audit(ctx context.Context, actorID, tenantID uuid.UUID, action, objectID string) {
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		TenantID:   tenantID,
		Action:     action,
		ObjectType: "subscription",
		ObjectID:   objectID,
		CreatedAt:  time.Now(),
	}
	_ = s.auditRepo.Record(ctx, entry)
}
