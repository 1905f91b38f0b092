package handler

import (
	"errors"
	"net/http"

	"github.com/sitegrid/portal/internal/api/middleware"
	"github.com/sitegrid/portal/internal/api/response"
	"github.com/sitegrid/portal/internal/billing/moneybird"
	"github.com/sitegrid/portal/internal/service"
)

// MoneybirdHandler handles the Moneybird integration endpoints
type MoneybirdHandler struct {
	moneybirdService *service.MoneybirdService
	client           *moneybird.Client
}

// NewMoneybirdHandler creates a new Moneybird handler
func NewMoneybirdHandler(moneybirdService *service.MoneybirdService, client *moneybird.Client) *MoneybirdHandler {
	return &MoneybirdHandler{
		moneybirdService: moneybirdService,
		client:           client,
	}
}

// Connect starts the authorization-code flow with a redirect to
// Moneybird's consent screen
func (h *MoneybirdHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	url, err := h.moneybirdService.ConnectURL(r.Context(), userID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// Callback completes the authorization-code flow. Moneybird redirects
// here with the code and the state nonce.
func (h *MoneybirdHandler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		response.BadRequest(w, "missing state or code")
		return
	}

	if err := h.moneybirdService.HandleCallback(r.Context(), state, code); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.OK(w, map[string]string{"status": "connected"})
}

// Status reports whether the administration is connected
func (h *MoneybirdHandler) Status(w http.ResponseWriter, r *http.Request) {
	connected, err := h.moneybirdService.Connected(r.Context())
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]bool{"connected": connected})
}

// SyncContact pushes the tenant's billing details into Moneybird
func (h *MoneybirdHandler) SyncContact(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "missing tenant ID")
		return
	}

	contact, err := h.moneybirdService.SyncContact(r.Context(), h.client, tenantID)
	if err != nil {
		switch {
		case err.Error() == "tenant not found":
			response.NotFound(w, err.Error())
		case errors.Is(err, moneybird.ErrNotConnected):
			response.Error(w, http.StatusConflict, "not_connected", "moneybird administration not connected")
		default:
			response.Error(w, http.StatusBadGateway, "moneybird_error", err.Error())
		}
		return
	}

	response.OK(w, contact)
}
