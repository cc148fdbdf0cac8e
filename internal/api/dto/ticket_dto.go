package dto

import (
	"time"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	TenantID    *string               `json:"tenant_id"`
	Category    *string               `json:"category"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	TenantID     *string               `json:"tenant_id,omitempty"`
	Category     *string               `json:"category,omitempty"`
	AssigneeID   *string               `json:"assignee_id,omitempty"`
	Subject      string                `json:"subject"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	ClosedAt     *time.Time            `json:"closed_at,omitempty"`
}

// TicketSummaryFromDomain maps a domain ticket to its response shape.
func TicketSummaryFromDomain(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		TenantID:     ticket.TenantID,
		Category:     ticket.Category,
		AssigneeID:   ticket.AssigneeID,
		Subject:      ticket.Subject,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
		ClosedAt:     ticket.ClosedAt,
	}
}
