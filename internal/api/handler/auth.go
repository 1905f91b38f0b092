package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sitegrid/portal/internal/api/middleware"
	"github.com/sitegrid/portal/internal/api/response"
	"github.com/sitegrid/portal/internal/domain"
	"github.com/sitegrid/portal/internal/service"
)

var validate = validator.New()

// AuthHandler handles authentication and role management endpoints
type AuthHandler struct {
	authService  *service.AuthService
	authzService *service.AuthzService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, authzService *service.AuthzService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		authzService: authzService,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TenantID uuid.UUID `json:"tenant_id" validate:"required"`
		domain.UserCreate
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	user, err := h.authService.Register(r.Context(), input.TenantID, input.UserCreate)
	if err != nil {
		if err.Error() == "email already registered" {
			response.Conflict(w, err.Error())
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	response.Created(w, map[string]any{
		"id":        user.ID,
		"tenant_id": user.TenantID,
		"email":     user.Email,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	response.OK(w, tokens)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	response.OK(w, tokens)
}

// Me returns the current authenticated user with their roles
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}
	if user == nil {
		response.Unauthorized(w, "user not found")
		return
	}

	roles, err := h.authzService.Roles(r.Context(), userID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]any{
		"id":        user.ID,
		"tenant_id": user.TenantID,
		"email":     user.Email,
		"name":      user.Name,
		"roles":     roles,
	})
}

// ListRoles lists the roles held by a user
func (h *AuthHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.BadRequest(w, "invalid user ID")
		return
	}

	roles, err := h.authzService.Roles(r.Context(), userID)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.OK(w, map[string]any{"roles": roles})
}

// AssignRole grants a role to a user
func (h *AuthHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.BadRequest(w, "invalid user ID")
		return
	}

	var input struct {
		Role string `json:"role" validate:"required,oneof=admin billing editor viewer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	if err := h.authzService.AssignRole(r.Context(), userID, input.Role); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.NoContent(w)
}

// RevokeRole removes a role from a user
func (h *AuthHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.BadRequest(w, "invalid user ID")
		return
	}

	role := chi.URLParam(r, "role")
	if role == "" {
		response.BadRequest(w, "missing role")
		return
	}

	if err := h.authzService.RevokeRole(r.Context(), userID, role); err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.NoContent(w)
}

// validationMessages flattens validator errors into field messages
func validationMessages(err error) any {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	errors := make(map[string]string)
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errors[field] = "field is required"
		case "email":
			errors[field] = "invalid email format"
		case "min":
			errors[field] = "must be at least " + e.Param() + " characters"
		case "max":
			errors[field] = "must be at most " + e.Param() + " characters"
		case "oneof":
			errors[field] = "must be one of: " + e.Param()
		default:
			errors[field] = "validation failed on " + e.Tag()
		}
	}
	return errors
}
