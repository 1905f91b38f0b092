package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sitegrid/portal/internal/api/middleware"
	"github.com/sitegrid/portal/internal/api/response"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/service"
)

// PageHandler handles page endpoints
type PageHandler struct {
	pageService *service.PageService
}

// NewPageHandler creates a new page handler
func NewPageHandler(pageService *service.PageService) *PageHandler {
	return &PageHandler{pageService: pageService}
}

// Create handles page creation
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	websiteID, ok := middleware.GetWebsiteID(r.Context())
	if !ok {
		response.BadRequest(w, "missing website ID")
		return
	}

	var input domain.PageCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	page, err := h.pageService.Create(r.Context(), websiteID, input)
	if err != nil {
		if err.Error() == "slug already in use" {
			response.Conflict(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Created(w, page)
}

// List handles listing a website's pages
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	websiteID, ok := middleware.GetWebsiteID(r.Context())
	if !ok {
		response.BadRequest(w, "missing website ID")
		return
	}

	pages, err := h.pageService.ListByWebsite(r.Context(), websiteID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, pages)
}

// Get handles getting a page by ID
func (h *PageHandler) Get(w http.ResponseWriter, r *http.Request) {
	websiteID, ok := middleware.GetWebsiteID(r.Context())
	if !ok {
		response.BadRequest(w, "missing website ID")
		return
	}

	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	page, err := h.pageService.GetByID(r.Context(), websiteID, pageID)
	if err != nil {
		if err.Error() == "page not found" {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, page)
}

// Update handles updating a page
func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	websiteID, ok := middleware.GetWebsiteID(r.Context())
	if !ok {
		response.BadRequest(w, "missing website ID")
		return
	}

	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	var input domain.PageUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	page, err := h.pageService.Update(r.Context(), websiteID, pageID, input)
	if err != nil {
		switch err.Error() {
		case "page not found":
			response.NotFound(w, err.Error())
		case "slug already in use":
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, err.Error())
		}
		return
	}

	response.OK(w, page)
}

// SetStatus handles page status changes
func (h *PageHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	websiteID, ok := middleware.GetWebsiteID(r.Context())
	if !ok {
		response.BadRequest(w, "missing website ID")
		return
	}

	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	var input domain.PageStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	message, err := h.pageService.SetStatus(r.Context(), websiteID, pageID, input.Status)
	if err != nil {
		if err.Error() == "page not found" {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]string{"message": message})
}

// Delete handles deleting a page
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	websiteID, ok := middleware.GetWebsiteID(r.Context())
	if !ok {
		response.BadRequest(w, "missing website ID")
		return
	}

	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	if err := h.pageService.Delete(r.Context(), websiteID, pageID); err != nil {
		if err.Error() == "page not found" {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.NoContent(w)
}
