package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-pulse/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Session *handlers.SessionHandler
	Issues  *handlers.IssuesHandler
	WS      *handlers.WSHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	v1 := app.Group("/v1")
	v1.Post("/session", cfg.Session.Create)
	v1.Get("/issues", cfg.Issues.List)
	v1.Post("/issues/analyze", cfg.Issues.AnalyzeDraft)
	v1.Get("/issues/:id", cfg.Issues.Get)
	v1.Post("/issues/:id/vote", cfg.Issues.Vote)
	v1.Post("/issues/:id/media", cfg.Issues.AttachMedia)
	v1.Get("/stats", cfg.Issues.Stats)
	v1.Get("/metrics", cfg.Issues.Metrics)

	app.Get("/ws", cfg.WS.Upgrade, cfg.WS.Serve())
}
