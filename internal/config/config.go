package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-anomaly/internal/common"
	"github.com/i474232898/weather-anomaly/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration

	// CheckInterval controls how often the configured locations are checked.
	CheckInterval time.Duration

	// Locations to check periodically.
	Locations []weather.Location

	// LiveSeason is the baseline season used for live checks ("auto" = current season).
	LiveSeason string

	// AnalysisWorkers bounds how many cities are analysed in parallel.
	AnalysisWorkers int

	// In-memory store retention.
	StoreMaxDatasets int           // max number of uploaded datasets kept
	StoreMaxHistory  int           // max number of live checks per location (0 = unlimited)
	StoreMaxAge      time.Duration // max age of live checks (0 = unlimited)

	// Optional Redis cache for live readings; disabled when RedisAddr is empty.
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ReadingCacheTTL time.Duration

	LogLevel string
	Port     string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CheckInterval, err = getenvDuration("CHECK_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.LiveSeason = getenvDefault("LIVE_SEASON", "winter")
	cfg.AnalysisWorkers = getenvInt("ANALYSIS_WORKERS", 4)

	// Store retention.
	cfg.StoreMaxDatasets = getenvInt("STORE_MAX_DATASETS", 10)
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)
	if cfg.ReadingCacheTTL, err = getenvDuration("READING_CACHE_TTL", "10m"); err != nil {
		return nil, err
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

func loadLocations() ([]weather.Location, error) {
	cities := common.SplitList(os.Getenv("WEATHER_LOCATION_CITY"))
	countries := common.SplitList(os.Getenv("WEATHER_LOCATION_COUNTRY"))
	if len(cities) == 0 {
		return nil, nil
	}
	// Countries are optional; when given there must be one per city.
	if len(countries) != 0 && len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}
	var locs []weather.Location
	for i := range cities {
		if cities[i] == "" {
			return nil, fmt.Errorf("WEATHER_LOCATION_CITY contains an empty city")
		}
		loc := weather.Location{City: cities[i]}
		if len(countries) != 0 {
			loc.Country = countries[i]
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
