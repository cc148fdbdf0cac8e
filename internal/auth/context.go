package auth

import "github.com/helpdesk-kit/helpdesk-service/internal/domain"

// AuthContext is the resolved identity of the acting principal. It is derived
// per request from the persisted user and never stored independently.
type AuthContext struct {
	UserID         string
	Email          string
	Roles          []domain.RoleName
	OrganizationID *string
	IsGlobalAdmin  bool
}

// HasRole reports membership of the role in the principal's role set.
func (c *AuthContext) HasRole(role domain.RoleName) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the role sets intersect.
func (c *AuthContext) HasAnyRole(roles ...domain.RoleName) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}
