package config

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the config feature behind the given middleware.
func RegisterRoutes(app fiber.Router, configManager *Manager, middleware ...fiber.Handler) {
	handler := NewHandler(configManager)

	handlers := append(middleware, handler.GetConfig)
	app.Get("/config", handlers...)
}
