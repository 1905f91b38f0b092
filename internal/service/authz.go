package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sitegrid/portal/internal/domain"
)

// AuthzService answers role checks against the user_roles table.
// Every check hits the database; there is no cache and no role
// hierarchy, wildcard or any-of semantics.
type AuthzService struct {
	userRepo domain.UserRepository
}

// NewAuthzService creates a new authorization service
func NewAuthzService(userRepo domain.UserRepository) *AuthzService {
	return &AuthzService{userRepo: userRepo}
}

// CheckRequiredRoles reports whether the user holds every required
// role. Fails closed: a lookup error or a user with no roles at all
// yields false.
func (s *AuthzService) CheckRequiredRoles(ctx context.Context, userID uuid.UUID, required []string) bool {
	roles, err := s.userRepo.RolesByUserID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("role lookup failed, denying")
		return false
	}
	if len(roles) == 0 {
		return false
	}

	held := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		held[role] = struct{}{}
	}

	for _, role := range required {
		if _, ok := held[role]; !ok {
			return false
		}
	}

	return true
}

// AssignRole grants a role to a user
func (s *AuthzService) AssignRole(ctx context.Context, userID uuid.UUID, role string) error {
	return s.userRepo.AssignRole(ctx, userID, role)
}

// RevokeRole removes a role from a user
func (s *AuthzService) RevokeRole(ctx context.Context, userID uuid.UUID, role string) error {
	return s.userRepo.RevokeRole(ctx, userID, role)
}

// Roles lists the role names held by a user
func (s *AuthzService) Roles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.userRepo.RolesByUserID(ctx, userID)
}
