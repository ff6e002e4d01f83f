package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/weatherpro/weather-ensemble/internal/api/http"
	"github.com/weatherpro/weather-ensemble/internal/config"
	"github.com/weatherpro/weather-ensemble/internal/observability"
	"github.com/weatherpro/weather-ensemble/internal/scheduler"
	"github.com/weatherpro/weather-ensemble/internal/store"
	"github.com/weatherpro/weather-ensemble/internal/weather"
	"github.com/weatherpro/weather-ensemble/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Sources in priority order; Open-Meteo needs no API key.
	sources := []weather.Fetcher{
		providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey),
		providers.NewOpenMeteoProvider(httpClient),
		providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey),
	}

	metrics := observability.NewMetrics()
	tracker := weather.NewTracker()
	service := weather.NewService(sources, tracker, metrics, cfg.SourceTimeout)

	// Bundle cache with configured retention.
	cache := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Scheduler that periodically refreshes configured locations.
	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, cfg.DefaultStrategy, service, cache)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-ensemble",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-ensemble",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service, cache, metrics)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
