package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/service"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// NotificationsHandler exposes the authenticated user's notification feed.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notificationService}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.FromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := pagination(c)
	notifications, err := h.notifications.ListForUser(c.UserContext(), actor.UserID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notifications})
}
