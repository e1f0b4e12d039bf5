package libraries

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rekorded/rekorded/src/features/analysis"
	"github.com/rekorded/rekorded/src/features/auth"
	"github.com/rekorded/rekorded/src/features/metrics"
	"github.com/rekorded/rekorded/src/music"
)

// Handler is the handler for the libraries feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the libraries feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ErrorStatus maps service errors to an HTTP status and a client-facing detail.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidFile):
		return fiber.StatusBadRequest, "Invalid file format. Please upload collection.xml"
	case errors.Is(err, ErrDocumentTooLarge):
		return fiber.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, analysis.ErrMalformedDocument):
		return fiber.StatusUnprocessableEntity, "Failed to parse XML: " + err.Error()
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound, "Library not found"
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func fail(c *fiber.Ctx, err error) error {
	status, detail := ErrorStatus(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("Request failed", "path", c.Path(), "error", err)
	} else {
		slog.Debug("Request rejected", "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"detail": detail})
}

// userID returns the authenticated subject, or "" for guests. The value is
// copied since verifiers may hand back strings backed by fiber's request buffers.
func userID(c *fiber.Ctx) string {
	if claims, ok := auth.ClaimsFrom(c); ok {
		return strings.Clone(claims.UserID())
	}
	return ""
}

// ReadUpload reads the multipart "file" field, enforcing the upload size limit before buffering.
func (h *Handler) ReadUpload(c *fiber.Ctx) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: no file uploaded", ErrInvalidFile)
	}
	limit := h.service.maxUploadBytes()
	if header.Size > int64(limit) {
		return "", nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrDocumentTooLarge, header.Size, limit)
	}
	f, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, int64(limit)+1))
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}

// Upload analyzes an export. Signed-in users also get it stored.
func (h *Handler) Upload(c *fiber.Ctx) error {
	filename, content, err := h.ReadUpload(c)
	if err != nil {
		return fail(c, err)
	}

	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		result, err := h.service.Analyze(filename, content)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(result)
	}

	user := music.User{ID: strings.Clone(claims.UserID()), Email: strings.Clone(claims.Email)}
	library, result, err := h.service.Upload(c.UserContext(), user, filename, content)
	if err != nil {
		return fail(c, err)
	}
	c.Set("X-Library-ID", library.ID)
	c.Location("/libraries/" + library.ID)
	return c.JSON(result)
}

// GetLibraries lists the caller's libraries.
func (h *Handler) GetLibraries(c *fiber.Ctx) error {
	libraries, err := h.service.ListLibraries(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(libraries)
}

// GetLibrary returns the regenerated report for a stored library, optionally filtered.
func (h *Handler) GetLibrary(c *fiber.Ctx) error {
	filter, err := ParseTrackFilter(c.Query("issue"), c.Query("q"), c.Query("flagged"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": err.Error()})
	}

	report, err := h.service.GetReport(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	c.Set("X-Library-Filename", report.Library.Filename)
	return c.JSON(filter.Apply(report.Result))
}

// GetChart returns one chart for a stored library.
func (h *Handler) GetChart(c *fiber.Ctx) error {
	chart, err := h.service.Chart(c.UserContext(), userID(c), c.Params("id"), c.Params("chart"))
	if errors.Is(err, metrics.ErrUnknownChart) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": err.Error()})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(chart)
}

// GetTopPlayed returns the most played tracks of a stored library.
func (h *Handler) GetTopPlayed(c *fiber.Ctx) error {
	report, err := h.service.GetReport(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(TopPlayed(report.Result.Tracks, c.QueryInt("limit", DefaultTopPlayed)))
}

// Download sends the stored export back as an attachment.
func (h *Handler) Download(c *fiber.Ctx) error {
	name, content, err := h.service.Download(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"%s\"", name))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.Send(content)
}

// DeleteLibrary removes a stored library.
func (h *Handler) DeleteLibrary(c *fiber.Ctx) error {
	if err := h.service.DeleteLibrary(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SearchTracks searches across all of the caller's stored libraries.
func (h *Handler) SearchTracks(c *fiber.Ctx) error {
	tracks, err := h.service.SearchTracks(c.UserContext(), userID(c), c.Query("q"), c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tracks)
}
