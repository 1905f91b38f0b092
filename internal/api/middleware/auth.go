package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sitegrid/portal/internal/api/response"
	"github.com/sitegrid/portal/internal/repository/redis"
	"github.com/sitegrid/portal/internal/security"
	"github.com/sitegrid/portal/internal/service"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
	TenantIDKey  contextKey = "tenantID"
	WebsiteIDKey contextKey = "websiteID"
	PageIDKey    contextKey = "pageID"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *security.JWTManager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *security.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// Authenticate validates the JWT token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UserEmailKey, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID gets the user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmail gets the user email from context
func GetUserEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// GetTenantID gets the tenant ID from context
func GetTenantID(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok
}

// GetWebsiteID gets the website ID from context
func GetWebsiteID(ctx context.Context) (uuid.UUID, bool) {
	websiteID, ok := ctx.Value(WebsiteIDKey).(uuid.UUID)
	return websiteID, ok
}

// GetPageID gets the page ID from context
func GetPageID(ctx context.Context) (uuid.UUID, bool) {
	pageID, ok := ctx.Value(PageIDKey).(uuid.UUID)
	return pageID, ok
}

func uuidParamContext(param string, key contextKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := chi.URLParam(r, param)
			if raw == "" {
				response.BadRequest(w, "missing "+param)
				return
			}

			id, err := uuid.Parse(raw)
			if err != nil {
				response.BadRequest(w, "invalid "+param)
				return
			}

			ctx := context.WithValue(r.Context(), key, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantContext extracts the tenant ID from the URL and adds it to context
var TenantContext = uuidParamContext("tenantID", TenantIDKey)

// WebsiteContext extracts the website ID from the URL and adds it to context
var WebsiteContext = uuidParamContext("websiteID", WebsiteIDKey)

// PageContext extracts the page ID from the URL and adds it to context
var PageContext = uuidParamContext("pageID", PageIDKey)

// RoleMiddleware guards routes behind role requirements
type RoleMiddleware struct {
	authz *service.AuthzService
}

// NewRoleMiddleware creates a new role middleware
func NewRoleMiddleware(authz *service.AuthzService) *RoleMiddleware {
	return &RoleMiddleware{authz: authz}
}

// Require rejects the request unless the user holds every listed role
func (m *RoleMiddleware) Require(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				response.Unauthorized(w, "unauthorized")
				return
			}

			if !m.authz.CheckRequiredRoles(r.Context(), userID, roles) {
				response.Forbidden(w, "insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	rateLimiter *redis.RateLimiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(rateLimiter *redis.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{rateLimiter: rateLimiter}
}

// Limit applies rate limiting based on user ID
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthorized")
			return
		}

		allowed, remaining, resetTime, err := m.rateLimiter.Allow(r.Context(), userID.String())
		if err != nil {
			// If rate limiter fails, allow the request
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", resetTime.Format("2006-01-02T15:04:05Z"))

		if !allowed {
			response.Error(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
