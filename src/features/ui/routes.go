package ui

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the UI feature.
func RegisterRoutes(app fiber.Router, handler *Handler) {
	app.Get("/", handler.RenderUpload)

	ui := app.Group("/ui")
	ui.Post("/report", handler.RenderReport)
}
