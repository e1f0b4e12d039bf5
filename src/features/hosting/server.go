package hosting

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rekorded/rekorded/src/features/auth"
	"github.com/rekorded/rekorded/src/features/config"
	"github.com/rekorded/rekorded/src/features/libraries"
	"github.com/rekorded/rekorded/src/features/metrics"
	"github.com/rekorded/rekorded/src/features/ui"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Manager, libraryService *libraries.Service, verifier auth.TokenVerifier, recorder *metrics.Recorder) *Server {
	c := cfg.Get()

	app := fiber.New(fiber.Config{
		Views:                 ui.NewEngine(c.Logger.Level == "debug"),
		ErrorHandler:          ErrorHandler,
		AppName:               "Rekorded",
		DisableStartupMessage: true,
		EnablePrintRoutes:     c.Server.PrintRoutes,
		// Multipart framing on top of the largest accepted export.
		BodyLimit: c.Server.MaxUploadBytes() + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(c.Server.AllowedOrigins, ","),
		AllowCredentials: !allowsAnyOrigin(c.Server.AllowedOrigins),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "X-Library-ID, Location, Content-Disposition",
	}))
	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "message": "Rekorded API is running"})
	})

	ui.RegisterRoutes(app, ui.NewHandler(cfg, libraryService))
	libraries.RegisterRoutes(app, libraryService, verifier)
	config.RegisterRoutes(app, cfg, auth.RequireUser(verifier))
	metrics.RegisterRoutes(app, recorder)

	return &Server{app: app, port: c.Server.Port}
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// ErrorHandler renders errors that escaped the handlers as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	detail := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		detail = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("Internal Server Error", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"detail": detail})
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "port", s.port)
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
