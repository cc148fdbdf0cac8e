package dto

import (
	"time"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
)

// TenantRequest payload for create/update.
type TenantRequest struct {
	OrganizationID *string  `json:"organization_id"`
	Name           string   `json:"name"`
	IsActive       bool     `json:"is_active"`
	RequiresLogin  bool     `json:"requires_login"`
	Categories     []string `json:"categories"`
}

// TenantResponse response.
type TenantResponse struct {
	ID             string    `json:"id"`
	OrganizationID *string   `json:"organization_id,omitempty"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"is_active"`
	RequiresLogin  bool      `json:"requires_login"`
	Categories     []string  `json:"categories"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TenantResponseFromDomain maps a tenant to its response shape.
func TenantResponseFromDomain(tenant *domain.Tenant) TenantResponse {
	return TenantResponse{
		ID:             tenant.ID,
		OrganizationID: tenant.OrganizationID,
		Name:           tenant.Name,
		IsActive:       tenant.IsActive,
		RequiresLogin:  tenant.RequiresLogin,
		Categories:     tenant.Categories,
		CreatedAt:      tenant.CreatedAt,
		UpdatedAt:      tenant.UpdatedAt,
	}
}

// AssignmentRequest payload.
type AssignmentRequest struct {
	UserID   string  `json:"user_id"`
	TenantID string  `json:"tenant_id"`
	Category *string `json:"category"`
}

// AssignmentResponse response.
type AssignmentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	Category  *string   `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SetAgentActiveRequest payload.
type SetAgentActiveRequest struct {
	Active bool `json:"active"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// AuditLogEntry response.
type AuditLogEntry struct {
	ID          string         `json:"id"`
	EventType   string         `json:"event_type"`
	EntityType  string         `json:"entity_type"`
	EntityID    *string        `json:"entity_id,omitempty"`
	UserID      *string        `json:"user_id,omitempty"`
	UserEmail   string         `json:"user_email"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IPAddress   string         `json:"ip_address"`
	UserAgent   string         `json:"user_agent"`
	CreatedAt   time.Time      `json:"created_at"`
}
