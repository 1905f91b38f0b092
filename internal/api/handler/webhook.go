package handler

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sitegrid/portal/internal/api/response"
	"github.com/sitegrid/portal/internal/billing/stripe"
	"github.com/sitegrid/portal/internal/service"
)

// maxWebhookBody caps the accepted webhook payload size
const maxWebhookBody = 1 << 20

// WebhookHandler receives Stripe webhook deliveries
type WebhookHandler struct {
	subscriptionService *service.SubscriptionService
	webhookSecret       string
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(subscriptionService *service.SubscriptionService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		subscriptionService: subscriptionService,
		webhookSecret:       webhookSecret,
	}
}

// HandleStripe verifies the signature and mirrors the event. The
// endpoint is unauthenticated; the signature is the authentication.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "failed to read payload")
		return
	}

	event, err := stripe.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret, stripe.DefaultTolerance)
	if err != nil {
		log.Warn().Err(err).Msg("webhook signature verification failed")
		response.BadRequest(w, "invalid signature")
		return
	}

	if err := h.subscriptionService.HandleWebhookEvent(r.Context(), event); err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Str("type", event.Type).Msg("webhook processing failed")
		// Non-2xx makes Stripe redeliver
		response.InternalError(w, "event processing failed")
		return
	}

	response.OK(w, map[string]string{"received": event.ID})
}
