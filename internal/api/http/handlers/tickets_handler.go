package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk-service/internal/api/dto"
	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/service"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages end-user and anonymous ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	tokens  *auth.TokenManager
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, tokens *auth.TokenManager) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, tokens: tokens}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.FromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	req, err := parseCreateRequest(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor.UserID, req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketSummaryFromDomain(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.FromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := pagination(c)
	tickets, err := h.tickets.ListUserTickets(c.UserContext(), actor.UserID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaries(tickets)})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.FromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.GetTicketForUser(c.UserContext(), actor.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSummaryFromDomain(ticket)})
}

// Close POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	actor, ok := auth.FromFiber(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.CloseTicketAsUser(c.UserContext(), actor.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSummaryFromDomain(ticket)})
}

// CreatePublic POST /public/tickets creates a ticket under a public token.
func (h *TicketsHandler) CreatePublic(c *fiber.Ctx) error {
	publicID, err := h.publicID(c)
	if err != nil {
		return err
	}
	req, err := parseCreateRequest(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.CreatePublicTicket(c.UserContext(), publicID, req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketSummaryFromDomain(ticket)})
}

// ListPublic GET /public/tickets lists tickets owned by a public token.
func (h *TicketsHandler) ListPublic(c *fiber.Ctx) error {
	publicID, err := h.publicID(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	tickets, err := h.tickets.ListPublicTickets(c.UserContext(), publicID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaries(tickets)})
}

func (h *TicketsHandler) publicID(c *fiber.Ctx) (string, error) {
	token := c.Get(publicTokenHeader)
	if token == "" {
		return "", apperrors.NewUnauthorized("public token required")
	}
	publicID, err := h.tokens.ParsePublicToken(token)
	if err != nil {
		return "", apperrors.NewUnauthorized("invalid public token")
	}
	return publicID, nil
}

func parseCreateRequest(c *fiber.Ctx) (service.TicketCreateInput, error) {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return service.TicketCreateInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Subject == "" {
		return service.TicketCreateInput{}, apperrors.NewValidationError("subject is required", nil)
	}
	return service.TicketCreateInput{
		TenantID:    req.TenantID,
		Category:    req.Category,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
	}, nil
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	offset, _ = strconv.Atoi(c.Query("offset", "0"))
	return limit, offset
}

func summaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketSummaryFromDomain(&tickets[i]))
	}
	return items
}
