package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sitegrid/portal/internal/api/middleware"
	"github.com/sitegrid/portal/internal/api/response"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/service"
)

// TenantHandler handles tenant endpoints
type TenantHandler struct {
	tenantService *service.TenantService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Create handles tenant creation
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.TenantCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	tenant, err := h.tenantService.Create(r.Context(), userID, input)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Created(w, tenant)
}

// List handles listing all tenants
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenantService.List(r.Context())
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, tenants)
}

// Get handles getting a tenant by ID
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	tenant, err := h.tenantService.GetByID(r.Context(), tenantID)
	if err != nil {
		if err.Error() == "tenant not found" {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, tenant)
}

// Update handles updating a tenant
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input domain.TenantUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	tenant, err := h.tenantService.Update(r.Context(), userID, tenantID, input)
	if err != nil {
		if err.Error() == "tenant not found" {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, tenant)
}

// Delete handles deleting a tenant
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.tenantService.Delete(r.Context(), userID, tenantID); err != nil {
		if err.Error() == "tenant not found" {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.NoContent(w)
}

// EnsureBillingCustomer creates the tenant's Stripe customer if missing
func (h *TenantHandler) EnsureBillingCustomer(w http.ResponseWriter, r *http.Request) {
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

	customerID, err := h.tenantService.EnsureBillingCustomer(r.Context(), userID, tenantID)
	if err != nil {
		if err.Error() == "tenant not found" {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]string{"stripe_customer_id": customerID})
}

// AuditLog lists recent audit entries for a tenant
func (h *TenantHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.tenantService.AuditLog(r.Context(), tenantID, limit)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, entries)
}
