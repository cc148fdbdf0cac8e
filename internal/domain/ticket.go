package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew         TicketStatus = "NEW"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusCancelled   TicketStatus = "CANCELLED"
)

// OpenStatuses are the states that count toward an assignee's workload.
func OpenStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusNew, TicketStatusInProgress}
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Ticket is the aggregate for helpdesk requests. RequesterID is nil for
// tickets created through an anonymous public token; PublicID then carries
// ownership until the requester registers or logs in.
type Ticket struct {
	ID           string
	TicketNumber string
	RequesterID  *string
	PublicID     *string
	TenantID     *string
	Category     *string
	AssigneeID   *string
	Subject      string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}

// IsOpen reports whether the ticket counts toward assignee load.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusNew || t.Status == TicketStatusInProgress
}
