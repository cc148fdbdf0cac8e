package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk-service/internal/api/dto"
	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
	"github.com/helpdesk-kit/helpdesk-service/internal/service"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// AgentTicketsHandler manages staff-facing ticket endpoints.
type AgentTicketsHandler struct {
	tickets *service.TicketService
	routing *service.RoutingService
}

// NewAgentTicketsHandler constructs handler.
func NewAgentTicketsHandler(ticketService *service.TicketService, routingService *service.RoutingService) *AgentTicketsHandler {
	return &AgentTicketsHandler{tickets: ticketService, routing: routingService}
}

// List GET /agent/tickets.
func (h *AgentTicketsHandler) List(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	limit, offset := pagination(c)
	filter := repository.TicketFilter{Limit: limit, Offset: offset}
	if tenantID := c.Query("tenant_id"); tenantID != "" {
		filter.TenantID = &tenantID
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []domain.TicketStatus{domain.TicketStatus(status)}
	}
	if search := c.Query("q"); search != "" {
		filter.SearchTerm = &search
	}
	tickets, err := h.tickets.ListAgentTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaries(tickets)})
}

// Get GET /agent/tickets/:id.
func (h *AgentTicketsHandler) Get(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	ticket, err := h.tickets.GetTicketForAgent(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSummaryFromDomain(ticket)})
}

// UpdateStatus PATCH /agent/tickets/:id/status.
func (h *AgentTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSummaryFromDomain(ticket)})
}

// UpdatePriority PATCH /agent/tickets/:id/priority.
func (h *AgentTicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdatePriority(c.UserContext(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSummaryFromDomain(ticket)})
}

// Assign POST /agent/tickets/:id/assign.
func (h *AgentTicketsHandler) Assign(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentID == "" {
		return apperrors.NewValidationError("agent_id is required", nil)
	}
	ticket, err := h.routing.AssignTicketToAgent(c.UserContext(), actor, c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSummaryFromDomain(ticket)})
}
