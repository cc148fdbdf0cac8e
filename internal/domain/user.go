package domain

import "time"

// User is the domain model for any principal: end-users, agents and admins.
// A user may hold several roles at once.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	IsActive       bool
	OrganizationID *string
	Roles          []RoleName
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasRole reports whether the user currently holds the given role.
func (u *User) HasRole(role RoleName) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u *User) HasAnyRole(roles ...RoleName) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}
