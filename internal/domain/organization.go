package domain

import "time"

// Organization is the top-level administrative unit owning tenants.
type Organization struct {
	ID                 string
	Name               string
	AuditRetentionDays int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Tenant is a customer-facing helpdesk instance scoped under an organization.
type Tenant struct {
	ID             string
	OrganizationID *string
	Name           string
	IsActive       bool
	RequiresLogin  bool
	Categories     []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TenantAssignment links a user to a tenant, either for a single category or
// tenant-wide when Category is nil. Assignments define routing eligibility
// and the visibility scope of agents.
type TenantAssignment struct {
	ID        string
	UserID    string
	TenantID  string
	Category  *string
	CreatedAt time.Time
}

// Matches reports whether the assignment qualifies for the given category.
// A nil assignment category is tenant-wide and matches everything.
func (a *TenantAssignment) Matches(category string) bool {
	return a.Category == nil || *a.Category == category
}
