package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/events"
	"github.com/helpdesk-kit/helpdesk-service/internal/realtime"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
)

// NotificationService turns domain events into per-user notifications and
// realtime broadcasts. Everything here is fire-and-forget: a failed
// notification is logged and dropped, never surfaced to the operation that
// produced the event.
type NotificationService struct {
	notifications repository.NotificationRepository
	tickets       repository.TicketRepository
	broadcaster   *realtime.Broadcaster
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(
	notifications repository.NotificationRepository,
	tickets repository.TicketRepository,
	broadcaster *realtime.Broadcaster,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		tickets:       tickets,
		broadcaster:   broadcaster,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to dispatcher events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

// Notify persists a notification and broadcasts it to the user's channel.
func (n *NotificationService) Notify(ctx context.Context, userID string, kind domain.NotificationKind, payload map[string]any) {
	notification := &domain.Notification{
		UserID:  userID,
		Kind:    kind,
		Payload: payload,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Warn("notification write failed",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
	n.broadcaster.BroadcastToUser(ctx, userID, string(kind), payload)
}

// ListForUser returns a user's notifications, newest first.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	return n.notifications.ListByUser(ctx, userID, limit, offset)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeID == nil {
		return nil
	}
	n.Notify(ctx, *payload.AssigneeID, domain.NotificationTicketAssigned, map[string]any{
		"ticket_id": event.TicketID,
	})
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil || ticket.RequesterID == nil {
		return nil
	}
	n.Notify(ctx, *ticket.RequesterID, domain.NotificationTicketUpdated, map[string]any{
		"ticket_id":  event.TicketID,
		"old_status": payload.OldStatus,
		"new_status": payload.NewStatus,
	})
	return nil
}
