package ui

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/rekorded/rekorded/src/features/config"
	"github.com/rekorded/rekorded/src/features/libraries"
	"github.com/rekorded/rekorded/src/features/metrics"
)

const layout = "layouts/main"

// Handler is the handler for the UI feature.
type Handler struct {
	configManager *config.Manager
	libraries     *libraries.Handler
	service       *libraries.Service
}

// NewHandler creates a new handler for the UI feature.
func NewHandler(configManager *config.Manager, service *libraries.Service) *Handler {
	return &Handler{
		configManager: configManager,
		libraries:     libraries.NewHandler(service),
		service:       service,
	}
}

// RenderUpload renders the guest upload page.
func (h *Handler) RenderUpload(c *fiber.Ctx) error {
	slog.Debug("RenderUpload handler called")
	return c.Render("upload", fiber.Map{
		"Title":       "Rekorded",
		"MaxUploadMB": h.configManager.Get().Server.MaxUploadMB,
	}, layout)
}

// RenderReport analyzes the posted export and renders the report page.
func (h *Handler) RenderReport(c *fiber.Ctx) error {
	slog.Debug("RenderReport handler called")

	filename, content, err := h.libraries.ReadUpload(c)
	if err == nil {
		result, aerr := h.service.Analyze(filename, content)
		if aerr == nil {
			return c.Render("report", fiber.Map{
				"Title":    "Report for " + filename,
				"Filename": filename,
				"Result":   result,
				"Stats":    result.Stats,
				"BPM":      metrics.BPMChartData(result.Stats),
				"Keys":     metrics.KeyChartData(result.Stats),
				"Genres":   metrics.GenreChartData(result.Stats),
				"Formats":  metrics.FormatChartData(result.Stats),
				"Issues":   metrics.IssueChartData(result.Stats),
				"Top":      libraries.TopPlayed(result.Tracks, libraries.DefaultTopPlayed),
			}, layout)
		}
		err = aerr
	}

	status, detail := libraries.ErrorStatus(err)
	return c.Status(status).Render("upload", fiber.Map{
		"Title":       "Rekorded",
		"MaxUploadMB": h.configManager.Get().Server.MaxUploadMB,
		"Error":       detail,
	}, layout)
}
