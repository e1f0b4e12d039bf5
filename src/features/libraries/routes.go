package libraries

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rekorded/rekorded/src/features/auth"
)

// RegisterRoutes registers the routes for the libraries feature.
func RegisterRoutes(app fiber.Router, service *Service, verifier auth.TokenVerifier) {
	handler := NewHandler(service)

	app.Post("/upload", auth.OptionalUser(verifier), handler.Upload)

	libraries := app.Group("/libraries", auth.RequireUser(verifier))
	libraries.Get("/", handler.GetLibraries)
	libraries.Get("/:id", handler.GetLibrary)
	libraries.Get("/:id/charts/:chart", handler.GetChart)
	libraries.Get("/:id/top-played", handler.GetTopPlayed)
	libraries.Get("/:id/download", handler.Download)
	libraries.Delete("/:id", handler.DeleteLibrary)

	app.Get("/tracks/search", auth.RequireUser(verifier), handler.SearchTracks)
}
