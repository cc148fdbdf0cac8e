package domain

// RoleName enumerates the closed set of helpdesk roles.
type RoleName string

const (
	RoleEndUser     RoleName = "END_USER"
	RoleAgent       RoleName = "AGENT"
	RoleITManager   RoleName = "IT_MANAGER"
	RoleAdmin       RoleName = "ADMIN"
	RoleGlobalAdmin RoleName = "GLOBAL_ADMIN"
)

// ValidRole reports whether the name belongs to the closed role set.
func ValidRole(name RoleName) bool {
	switch name {
	case RoleEndUser, RoleAgent, RoleITManager, RoleAdmin, RoleGlobalAdmin:
		return true
	}
	return false
}

// StaffRoles lists the roles eligible for ticket assignment.
func StaffRoles() []RoleName {
	return []RoleName{RoleAgent, RoleITManager}
}
