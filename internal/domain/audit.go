package domain

import "time"

// AuditLog is an immutable record of a security or administrative event.
// Entries are append-only; the application never mutates them.
type AuditLog struct {
	ID             string
	EventType      string
	EntityType     string
	EntityID       *string
	UserID         *string
	UserEmail      string
	Description    string
	Metadata       map[string]any
	IPAddress      string
	UserAgent      string
	OrganizationID *string
	CreatedAt      time.Time
}

// Audit event types recorded by the service.
const (
	AuditEventLogin             = "USER_LOGIN"
	AuditEventRegister          = "USER_REGISTER"
	AuditEventTicketCreated     = "TICKET_CREATED"
	AuditEventTicketAssigned    = "TICKET_ASSIGNED"
	AuditEventTicketStatus      = "TICKET_STATUS_CHANGED"
	AuditEventTenantCreated     = "TENANT_CREATED"
	AuditEventTenantUpdated     = "TENANT_UPDATED"
	AuditEventAssignmentAdded   = "TENANT_ASSIGNMENT_ADDED"
	AuditEventAssignmentRemoved = "TENANT_ASSIGNMENT_REMOVED"
	AuditEventAgentDisabled     = "AGENT_DISABLED"
	AuditEventAgentEnabled      = "AGENT_ENABLED"
	AuditEventPasswordReset     = "AGENT_PASSWORD_RESET"
	AuditEventTicketsMerged     = "PUBLIC_TICKETS_MERGED"
)
