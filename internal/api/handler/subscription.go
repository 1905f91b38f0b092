package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sitegrid/portal/internal/api/middleware"
	"github.com/sitegrid/portal/internal/api/response"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/service"
)

// SubscriptionHandler handles subscription endpoints
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Assign runs the subscription assignment flow for a tenant
func (h *SubscriptionHandler) Assign(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	var input domain.SubscriptionAssign
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if input.Override != nil {
		if err := validate.Struct(input.Override); err != nil {
			response.BadRequest(w, validationMessages(err))
			return
		}
	}

	result, err := h.subscriptionService.Assign(r.Context(), userID, tenantID, input)
	if err != nil {
		switch err.Error() {
		case "tenant not found":
			response.NotFound(w, err.Error())
		case "exactly one of price_id or override is required",
			"tenant has no billing customer",
			"tenant has no billing email":
			response.BadRequest(w, err.Error())
		default:
			response.Error(w, http.StatusBadGateway, "billing_error", err.Error())
		}
		return
	}

	response.Created(w, result)
}

// List lists a tenant's mirrored subscriptions
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	subscriptions, err := h.subscriptionService.ListByTenant(r.Context(), tenantID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, subscriptions)
}

// Reconcile finishes assignment flows that stopped partway
func (h *SubscriptionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	repaired, err := h.subscriptionService.Reconcile(r.Context())
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]int{"repaired": repaired})
}
