package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-legend/internal/api/http"
	"github.com/i474232898/weather-legend/internal/audit"
	"github.com/i474232898/weather-legend/internal/config"
	"github.com/i474232898/weather-legend/internal/dataset"
	"github.com/i474232898/weather-legend/internal/legend"
	"github.com/i474232898/weather-legend/internal/logger"
	"github.com/i474232898/weather-legend/internal/metrics"
	"github.com/i474232898/weather-legend/internal/reference"
	"github.com/i474232898/weather-legend/internal/scheduler"
	"github.com/i474232898/weather-legend/internal/store"
)

var version = "dev"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "weather-legend",
		Version:     version,
		Environment: os.Getenv("ENVIRONMENT"),
	})

	registry, err := buildRegistry(cfg)
	if err != nil {
		slog.Error("failed to build legend registry", "error", err)
		os.Exit(1)
	}

	var manifest legend.AssetManifest
	if cfg.ManifestPath != "" {
		m, err := dataset.LoadManifest(cfg.ManifestPath)
		if err != nil {
			slog.Error("failed to load icon manifest", "path", cfg.ManifestPath, "error", err)
			os.Exit(1)
		}
		manifest = m
	}

	// Report store with configured retention.
	var reports audit.Store
	if cfg.ReportDBPath != "" {
		db, err := store.OpenSQLite(cfg.ReportDBPath, cfg.ReportMaxHistory, cfg.ReportMaxAge)
		if err != nil {
			slog.Error("failed to open report database", "path", cfg.ReportDBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		reports = db
	} else {
		reports = store.NewMemoryStore(cfg.ReportMaxHistory, cfg.ReportMaxAge)
	}

	service := audit.NewService(reports, registry, manifest)
	if cfg.ReferenceURL != "" {
		// Shared HTTP client for reference legend fetches.
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		service.WithReference(reference.NewFetcher(httpClient, cfg.VerifyInterval/2), cfg.ReferenceURL)
	}

	// Scheduler that periodically verifies every provider store.
	sched := scheduler.New(cfg.VerifyInterval, cfg.HTTPTimeout*4, service)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-legend",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		Immutable:             true,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(httpapi.RequestID())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${respHeader:X-Request-ID} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "weather-legend",
			"providers": len(registry.Providers()),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, registry, service)

	go func() {
		slog.Info("http server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
}

// buildRegistry loads the base legend and registers every configured
// provider. Any bad dataset or patch stops startup.
func buildRegistry(cfg *config.AppConfig) (*legend.Registry, error) {
	rows, err := dataset.LoadBase(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	base, err := legend.Load(rows)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.BasePath, err)
	}
	registry := legend.NewRegistry(base)

	for _, src := range cfg.Patches {
		patch, err := dataset.LoadPatch(src.Path)
		if err != nil {
			return nil, fmt.Errorf("load patch for %s: %w", src.Provider, err)
		}
		if patch.Provider != src.Provider {
			slog.Warn("patch file names a different provider", "configured", src.Provider, "file", patch.Provider)
		}
		patch.Provider = src.Provider
		if err := registry.Register(patch); err != nil {
			return nil, err
		}
	}
	for _, p := range cfg.Providers {
		if err := registry.RegisterBase(p); err != nil {
			return nil, err
		}
	}

	slog.Info("legend registry ready", "base_records", base.Len(), "providers", registry.Providers())
	return registry, nil
}
