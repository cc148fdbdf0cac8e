package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AgentTickets   *handlers.AgentTicketsHandler
	Admin          *handlers.AdminHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.Middleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. The auth middleware only resolves the
// principal; per-route Require plus the service-level guards enforce access.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", func(c *fiber.Ctx) error {
		requests, errors := cfg.Metrics.Snapshot()
		return c.JSON(fiber.Map{"requests": requests, "errors": errors})
	})

	app.Post("/auth/register", cfg.Auth.Register)
	app.Post("/auth/login", cfg.Auth.Login)
	app.Post("/auth/public-token", cfg.Auth.PublicToken)

	public := app.Group("/public")
	public.Post("/tickets", cfg.Tickets.CreatePublic)
	public.Get("/tickets", cfg.Tickets.ListPublic)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, cfg.AuthMiddleware.Require)
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/close", cfg.Tickets.Close)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, cfg.AuthMiddleware.Require)
	notifications.Get("", cfg.Notifications.List)

	agent := app.Group("/agent/tickets", cfg.AuthMiddleware.Handle, cfg.AuthMiddleware.Require)
	agent.Get("", cfg.AgentTickets.List)
	agent.Get("/:id", cfg.AgentTickets.Get)
	agent.Patch("/:id/status", cfg.AgentTickets.UpdateStatus)
	agent.Patch("/:id/priority", cfg.AgentTickets.UpdatePriority)
	agent.Post("/:id/assign", cfg.AgentTickets.Assign)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, cfg.AuthMiddleware.Require)
	admin.Post("/tenants", cfg.Admin.CreateTenant)
	admin.Put("/tenants/:id", cfg.Admin.UpdateTenant)
	admin.Post("/assignments", cfg.Admin.AddAssignment)
	admin.Delete("/tenants/:tenantId/assignments/:id", cfg.Admin.RemoveAssignment)
	admin.Patch("/agents/:id/active", cfg.Admin.SetAgentActive)
	admin.Post("/agents/:id/password", cfg.Admin.ResetAgentPassword)
	admin.Get("/audit", cfg.Admin.ListAuditLog)
}
