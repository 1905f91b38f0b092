package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sitegrid/portal/internal/api/middleware"
	"github.com/sitegrid/portal/internal/api/response"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/service"
)

// WebsiteHandler handles website endpoints
type WebsiteHandler struct {
	websiteService *service.WebsiteService
}

// NewWebsiteHandler creates a new website handler
func NewWebsiteHandler(websiteService *service.WebsiteService) *WebsiteHandler {
	return &WebsiteHandler{websiteService: websiteService}
}

// Create handles website creation
func (h *WebsiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	var input domain.WebsiteCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	website, err := h.websiteService.Create(r.Context(), tenantID, input)
	if err != nil {
		if strings.HasPrefix(err.Error(), "invalid domain") {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Created(w, website)
}

// List handles listing a tenant's websites
func (h *WebsiteHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	websites, err := h.websiteService.ListByTenant(r.Context(), tenantID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, websites)
}

// Get handles getting a website by ID
func (h *WebsiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	websiteID, ok := middleware.GetWebsiteID(r.Context())
	if !ok {
		response.BadRequest(w, "missing website ID")
		return
	}

	website, err := h.websiteService.GetByID(r.Context(), tenantID, websiteID)
	if err != nil {
		if err.Error() == "website not found" {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, website)
}

// Update handles updating a website
func (h *WebsiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	websiteID, ok := middleware.GetWebsiteID(r.Context())
	if !ok {
		response.BadRequest(w, "missing website ID")
		return
	}

	var input domain.WebsiteUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	website, err := h.websiteService.Update(r.Context(), tenantID, websiteID, input)
	if err != nil {
		switch {
		case err.Error() == "website not found":
			response.NotFound(w, err.Error())
		case strings.HasPrefix(err.Error(), "invalid domain"):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, err.Error())
		}
		return
	}

	response.OK(w, website)
}

// Delete handles deleting a website
func (h *WebsiteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	websiteID, ok := middleware.GetWebsiteID(r.Context())
	if !ok {
		response.BadRequest(w, "missing website ID")
		return
	}

	if err := h.websiteService.Delete(r.Context(), tenantID, websiteID); err != nil {
		if err.Error() == "website not found" {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.NoContent(w)
}
