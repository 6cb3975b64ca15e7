package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-anomaly/internal/anomaly"
	httpapi "github.com/i474232898/weather-anomaly/internal/api/http"
	"github.com/i474232898/weather-anomaly/internal/cache"
	"github.com/i474232898/weather-anomaly/internal/config"
	"github.com/i474232898/weather-anomaly/internal/logging"
	"github.com/i474232898/weather-anomaly/internal/metrics"
	"github.com/i474232898/weather-anomaly/internal/scheduler"
	"github.com/i474232898/weather-anomaly/internal/store"
	"github.com/i474232898/weather-anomaly/internal/weather"
	"github.com/i474232898/weather-anomaly/internal/weather/providers"
)

const maxUploadSize = 64 << 20

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log := logging.New(cfg.LogLevel)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store; datasets and live checks live only as long as the process.
	memStore := store.NewMemoryStore(cfg.StoreMaxDatasets, cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Providers with resilience (backoff + circuit breaker).
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}
	if len(provs) == 0 {
		log.Warn("no weather provider api keys configured; live checks are disabled")
	}

	opts := []weather.ServiceOption{
		weather.WithLogger(log),
		weather.WithDefaultSeason(cfg.LiveSeason),
	}

	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer client.Close()
		opts = append(opts, weather.WithReadingCache(cache.NewRedisReadingCache(client, cfg.ReadingCacheTTL)))
		log.WithFields(logrus.Fields{"addr": cfg.RedisAddr}).Info("live reading cache enabled")
	}

	// Only configured locations get their own city label.
	cities := make([]string, 0, len(cfg.Locations))
	for _, loc := range cfg.Locations {
		cities = append(cities, loc.City)
	}
	metrics.TrackCities(cities)

	// Core service orchestrating analysis, providers and store.
	service := weather.NewService(memStore, provs, anomaly.NewEngine(cfg.AnalysisWorkers), opts...)

	// Scheduler that periodically checks configured locations.
	sched := scheduler.New(cfg.Locations, cfg.CheckInterval, cfg.LiveSeason, service, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-anomaly",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             maxUploadSize,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-anomaly",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port}).Info("server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}
