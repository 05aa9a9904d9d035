package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photosheet/internal/config"
	handlers "photosheet/internal/http/handler"
	"photosheet/internal/http/middleware"
	"photosheet/internal/layout"
	otelinit "photosheet/internal/otel"
	"photosheet/internal/service"
	"photosheet/internal/staging"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Initialize tracing; exporter failures degrade to a no-op provider
	shutdownTracing, err := otelinit.Init(context.Background(), time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Initialize the request-scoped staging store (memory or MinIO-backed)
	store, err := newStore(cfg.Staging)
	if err != nil {
		log.Fatalf("failed to initialize staging store: %v", err)
	}

	// Metrics registry shared by the HTTP middleware and the sheet service
	reg := prometheus.NewRegistry()
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to initialize prometheus middleware: %v", err)
	}
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register sheet metrics: %v", err)
	}

	sheetSvc := service.NewSheetService(store, layout.ParseFitMode(cfg.PDF.ImageFit), metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, store, sheetSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// newStore selects the staging backend. Memory is the default; MinIO is for
// deployments that cannot hold large uploads in process memory.
func newStore(cfg config.StagingConfig) (staging.Store, error) {
	if cfg.Backend == "minio" {
		return staging.NewMinIO(cfg.MinIO)
	}
	return staging.NewMemory(), nil
}
