package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sitegrid/portal/internal/api/middleware"
	"github.com/sitegrid/portal/internal/api/response"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/service"
)

// SchemaHandler handles the content-model endpoints of a page
type SchemaHandler struct {
	schemaService *service.SchemaService
}

// NewSchemaHandler creates a new schema handler
func NewSchemaHandler(schemaService *service.SchemaService) *SchemaHandler {
	return &SchemaHandler{schemaService: schemaService}
}

func schemaError(w http.ResponseWriter, err error) {
	switch err.Error() {
	case "page not found", "section not found", "field not found":
		response.NotFound(w, err.Error())
	default:
		if strings.HasPrefix(err.Error(), "unsupported schema version") {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
	}
}

// ListSections lists the sections of a page
func (h *SchemaHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	sections, err := h.schemaService.Sections(r.Context(), pageID)
	if err != nil {
		schemaError(w, err)
		return
	}

	response.OK(w, sections)
}

// CreateSection adds a section to a page
func (h *SchemaHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	var input domain.SectionCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	section, err := h.schemaService.AddSection(r.Context(), pageID, input)
	if err != nil {
		schemaError(w, err)
		return
	}

	response.Created(w, section)
}

// UpdateSection updates a section
func (h *SchemaHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	var input domain.SectionUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	section, err := h.schemaService.UpdateSection(r.Context(), pageID, chi.URLParam(r, "sectionID"), input)
	if err != nil {
		schemaError(w, err)
		return
	}

	response.OK(w, section)
}

// DeleteSection removes a section and its fields
func (h *SchemaHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	if err := h.schemaService.RemoveSection(r.Context(), pageID, chi.URLParam(r, "sectionID")); err != nil {
		schemaError(w, err)
		return
	}

	response.NoContent(w)
}

// CreateField adds a field to a section
func (h *SchemaHandler) CreateField(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	var input domain.FieldData
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	field, err := h.schemaService.AddField(r.Context(), pageID, chi.URLParam(r, "sectionID"), input)
	if err != nil {
		schemaError(w, err)
		return
	}

	response.Created(w, field)
}

// UpdateField updates a field
func (h *SchemaHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	var input domain.FieldUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	field, err := h.schemaService.UpdateField(r.Context(), pageID, chi.URLParam(r, "sectionID"), chi.URLParam(r, "fieldID"), input)
	if err != nil {
		schemaError(w, err)
		return
	}

	response.OK(w, field)
}

// DeleteField removes a field
func (h *SchemaHandler) DeleteField(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	if err := h.schemaService.RemoveField(r.Context(), pageID, chi.URLParam(r, "sectionID"), chi.URLParam(r, "fieldID")); err != nil {
		schemaError(w, err)
		return
	}

	response.NoContent(w)
}

// ReorderFields replaces the field ordering of a section
func (h *SchemaHandler) ReorderFields(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	var input struct {
		Fields []domain.Field `json:"fields" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	fields, err := h.schemaService.ReorderFields(r.Context(), pageID, chi.URLParam(r, "sectionID"), input.Fields)
	if err != nil {
		if strings.HasPrefix(err.Error(), "failed to reorder fields") {
			// Some order writes landed, some did not
			response.Error(w, http.StatusConflict, "partial_reorder", err.Error())
			return
		}
		schemaError(w, err)
		return
	}

	response.OK(w, fields)
}

// Export returns a versioned schema snapshot
func (h *SchemaHandler) Export(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	export, err := h.schemaService.Export(r.Context(), pageID)
	if err != nil {
		schemaError(w, err)
		return
	}

	response.OK(w, export)
}

// Import replaces the page schema with an exported snapshot
func (h *SchemaHandler) Import(w http.ResponseWriter, r *http.Request) {
	pageID, ok := middleware.GetPageID(r.Context())
	if !ok {
		response.BadRequest(w, "missing page ID")
		return
	}

	var input domain.SchemaExport
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	sections, err := h.schemaService.Import(r.Context(), pageID, input)
	if err != nil {
		schemaError(w, err)
		return
	}

	response.OK(w, sections)
}
