package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticket-core/internal/api/http/handlers"
	"github.com/ticketdesk/ticket-core/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Tickets        *handlers.TicketsHandler
	Agents         *handlers.AgentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Live)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	app.Post("/auth/agents/login", cfg.Agents.Login)

	tickets := app.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.SearchTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/conversation", cfg.Tickets.AppendConversation)
	// route name kept for compatibility with the original intake UI
	tickets.Post("/:id/replies", cfg.Tickets.AppendConversation)
	tickets.Post("/:id/attachment", cfg.Tickets.RegisterAttachment)
	tickets.Post("/:id/ai-reply", cfg.AuthMiddleware.Handle, cfg.Tickets.SuggestReply)

	tickets.Patch("/:id", cfg.AuthMiddleware.Handle, cfg.Tickets.UpdateTicket)
}
