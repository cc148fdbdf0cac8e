package domain

import "time"

// NotificationKind classifies user notifications.
type NotificationKind string

const (
	NotificationTicketAssigned NotificationKind = "TICKET_ASSIGNED"
	NotificationTicketUpdated  NotificationKind = "TICKET_UPDATED"
	NotificationTicketCreated  NotificationKind = "TICKET_CREATED"
)

// Notification is a per-user message produced by domain events.
type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Payload   map[string]any
	ReadAt    *time.Time
	CreatedAt time.Time
}
