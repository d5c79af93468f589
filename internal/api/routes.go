package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/causality360/newsapi/internal/middleware"
)

// SetupRoutes wires the HTTP surface. The manual processing endpoints sit
// behind the per-caller throttle; read endpoints do not.
func SetupRoutes(app *fiber.App, h *Handlers, throttle *middleware.Throttle) {
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	app.Get("/health", h.HealthCheck)

	api := app.Group("/api/v1")

	events := api.Group("/events")
	{
		events.Get("/ping", h.Ping)
		events.Get("/recent", h.GetRecent)
		events.Get("/by-category/:name", h.GetByCategory)
		events.Get("/:id", h.GetEventByID)
		events.Post("", throttle.Handler(), h.CreateEvent)
		events.Post("/process-today", throttle.Handler(), h.ProcessToday)
		events.Post("/trigger-scheduler", h.TriggerScheduler)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Endpoint not found"})
	})
}
