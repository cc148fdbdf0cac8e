package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk-service/internal/api/dto"
	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/service"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// AdminHandler manages tenant, assignment, agent and audit endpoints.
type AdminHandler struct {
	admin *service.AdminService
	audit *service.AuditService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService, auditService *service.AuditService) *AdminHandler {
	return &AdminHandler{admin: adminService, audit: auditService}
}

// CreateTenant POST /admin/tenants.
func (h *AdminHandler) CreateTenant(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	var req dto.TenantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tenant, err := h.admin.CreateTenant(c.UserContext(), actor, req.OrganizationID, service.TenantInput{
		Name:          req.Name,
		IsActive:      req.IsActive,
		RequiresLogin: req.RequiresLogin,
		Categories:    req.Categories,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TenantResponseFromDomain(tenant)})
}

// UpdateTenant PUT /admin/tenants/:id.
func (h *AdminHandler) UpdateTenant(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	var req dto.TenantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tenant, err := h.admin.UpdateTenant(c.UserContext(), actor, c.Params("id"), service.TenantInput{
		Name:          req.Name,
		IsActive:      req.IsActive,
		RequiresLogin: req.RequiresLogin,
		Categories:    req.Categories,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TenantResponseFromDomain(tenant)})
}

// AddAssignment POST /admin/assignments.
func (h *AdminHandler) AddAssignment(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	var req dto.AssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.TenantID == "" {
		return apperrors.NewValidationError("user_id and tenant_id required", nil)
	}
	assignment, err := h.admin.AddAssignment(c.UserContext(), actor, req.UserID, req.TenantID, req.Category)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AssignmentResponse{
		ID:        assignment.ID,
		UserID:    assignment.UserID,
		TenantID:  assignment.TenantID,
		Category:  assignment.Category,
		CreatedAt: assignment.CreatedAt,
	}})
}

// RemoveAssignment DELETE /admin/tenants/:tenantId/assignments/:id.
func (h *AdminHandler) RemoveAssignment(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	if err := h.admin.RemoveAssignment(c.UserContext(), actor, c.Params("id"), c.Params("tenantId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetAgentActive PATCH /admin/agents/:id/active.
func (h *AdminHandler) SetAgentActive(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	var req dto.SetAgentActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.admin.SetAgentActive(c.UserContext(), actor, c.Params("id"), req.Active); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ResetAgentPassword POST /admin/agents/:id/password.
func (h *AdminHandler) ResetAgentPassword(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.admin.ResetAgentPassword(c.UserContext(), actor, c.Params("id"), req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListAuditLog GET /admin/audit.
func (h *AdminHandler) ListAuditLog(c *fiber.Ctx) error {
	actor, _ := auth.FromFiber(c)
	if err := auth.RequireOperation(actor, auth.OpReadAuditLog); err != nil {
		return err
	}
	if actor.OrganizationID == nil {
		return c.JSON(fiber.Map{"data": []dto.AuditLogEntry{}})
	}
	limit, offset := pagination(c)
	entries, err := h.audit.List(c.UserContext(), *actor.OrganizationID, limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.AuditLogEntry, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditLogEntry{
			ID:          entry.ID,
			EventType:   entry.EventType,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			UserID:      entry.UserID,
			UserEmail:   entry.UserEmail,
			Description: entry.Description,
			Metadata:    entry.Metadata,
			IPAddress:   entry.IPAddress,
			UserAgent:   entry.UserAgent,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
