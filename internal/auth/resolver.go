package auth

import (
	"context"
	"strings"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
)

// ContextResolver turns a bearer header into an AuthContext. It is the single
// trust boundary: every authorization decision downstream takes its input from
// the resolved context, never from raw headers.
type ContextResolver struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewContextResolver constructs a resolver.
func NewContextResolver(tokens *TokenManager, users repository.UserRepository) *ContextResolver {
	return &ContextResolver{tokens: tokens, users: users}
}

// Resolve returns the principal for the Authorization header value, or nil.
// Any failure collapses to nil: missing header, wrong scheme, invalid or
// expired token, unknown user, inactive user. It never returns an error.
func (r *ContextResolver) Resolve(ctx context.Context, bearerHeader string) *AuthContext {
	if bearerHeader == "" {
		return nil
	}
	parts := strings.SplitN(bearerHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil
	}

	claims, err := r.tokens.ParseSessionToken(parts[1])
	if err != nil {
		return nil
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return nil
	}
	if !user.IsActive {
		return nil
	}

	// Roles come from the persisted grants, not the token: a grant revoked
	// after issuance must not survive in the context.
	roles := make([]domain.RoleName, len(user.Roles))
	copy(roles, user.Roles)

	return &AuthContext{
		UserID:         user.ID,
		Email:          user.Email,
		Roles:          roles,
		OrganizationID: user.OrganizationID,
		IsGlobalAdmin:  user.HasRole(domain.RoleGlobalAdmin),
	}
}
