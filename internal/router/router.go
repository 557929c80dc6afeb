package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/edugrade/grader-api/internal/config"
	"github.com/edugrade/grader-api/internal/handler"
	"github.com/edugrade/grader-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradingHandler *handler.GradingHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(api)
	}
}
