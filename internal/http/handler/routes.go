package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	"photosheet/internal/service"
	"photosheet/internal/staging"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, store staging.Store, sheetSvc service.SheetService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(store))
	app.Get("/healthz", LivenessProbe())

	app.Post("/sheets", GenerateSheet(sheetSvc))
	app.Post("/sheets/preview", PreviewSheet(sheetSvc))
}

// HealthCheck verifies the staging backend is reachable.
func HealthCheck(store staging.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// GenerateSheet builds the photo sheet PDF from a multipart form
// (repeated "images" files plus a "label" field) and returns it for download.
func GenerateSheet(sheetSvc service.SheetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uploads, label, cleanup, err := parseSheetForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		}
		defer cleanup()

		sheet, artifact, err := sheetSvc.Generate(c.UserContext(), uploads, label)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, sheet.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", sheet.Filename))
		c.Set("X-Sheet-ID", sheet.ID)
		c.Set("X-Sheet-Pages", fmt.Sprint(sheet.Pages))
		return c.Status(fiber.StatusOK).Send(artifact)
	}
}

// PreviewSheet reports the metadata the same form would generate, without
// rendering a PDF.
func PreviewSheet(sheetSvc service.SheetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uploads, label, cleanup, err := parseSheetForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		}
		defer cleanup()

		sheet, err := sheetSvc.Preview(c.UserContext(), uploads, label)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(sheet)
	}
}

// defaultLabel matches the pre-filled header text of the upload form.
const defaultLabel = "pic"

// parseSheetForm extracts the uploads and label from the multipart form.
// The returned cleanup closes every opened file and must always be called.
func parseSheetForm(c *fiber.Ctx) ([]service.Upload, string, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, "", nil, err
	}

	label := defaultLabel
	if v, ok := form.Value["label"]; ok && len(v) > 0 {
		label = v[0]
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	uploads := make([]service.Upload, 0, len(form.File["images"]))
	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, "", nil, err
		}
		opened = append(opened, f)
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Reader: f})
	}

	return uploads, label, cleanup, nil
}

// writeServiceError translates the service error taxonomy to HTTP responses.
func writeServiceError(c *fiber.Ctx, err error) error {
	var resErr *service.ResourceError
	switch {
	case errors.Is(err, service.ErrNoImages):
		return writeError(c, fiber.StatusBadRequest, "NO_IMAGES", "at least one image is required")
	case errors.As(err, &resErr):
		return writeError(c, fiber.StatusUnprocessableEntity, "UNREADABLE_IMAGE", resErr.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
