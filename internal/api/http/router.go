package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Tickets     *handlers.TicketsHandler
	Specialists *handlers.SpecialistsHandler
	Dashboard   *handlers.DashboardHandler
	Metrics     *observability.Metrics
	CORSOrigins []string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api", cors.New(corsConfig(cfg.CORSOrigins)))
	api.Get("/", handlers.Root)
	api.Get("/specialists", cfg.Specialists.List)
	api.Get("/dashboard/stats", cfg.Dashboard.Stats)

	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:ticket_number", cfg.Tickets.GetTicket)
	api.Put("/tickets/:ticket_id", cfg.Tickets.UpdateTicket)
}

func corsConfig(origins []string) cors.Config {
	allowed := strings.Join(origins, ",")
	if allowed == "" {
		allowed = "*"
	}
	return cors.Config{
		AllowOrigins: allowed,
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "*",
	}
}
