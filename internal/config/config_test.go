package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-anomaly/internal/weather"
)

var allKeys = []string{
	"OPENWEATHER_API_KEY", "WEATHERAPI_API_KEY", "HTTP_TIMEOUT", "CHECK_INTERVAL",
	"WEATHER_LOCATION_CITY", "WEATHER_LOCATION_COUNTRY", "LIVE_SEASON", "ANALYSIS_WORKERS",
	"STORE_MAX_DATASETS", "STORE_MAX_HISTORY", "STORE_MAX_AGE", "REDIS_ADDR", "REDIS_PASSWORD",
	"REDIS_DB", "READING_CACHE_TTL", "LOG_LEVEL", "PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 15*time.Minute, cfg.CheckInterval)
	assert.Equal(t, "winter", cfg.LiveSeason)
	assert.Equal(t, 4, cfg.AnalysisWorkers)
	assert.Equal(t, 10, cfg.StoreMaxDatasets)
	assert.Equal(t, 96, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, 10*time.Minute, cfg.ReadingCacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.Locations)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	t.Setenv("CHECK_INTERVAL", "5m")
	t.Setenv("WEATHER_LOCATION_CITY", "Berlin, Cairo")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "DE,EG")
	t.Setenv("LIVE_SEASON", "auto")
	t.Setenv("ANALYSIS_WORKERS", "8")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ow-key", cfg.OpenWeatherAPIKey)
	assert.Equal(t, 5*time.Minute, cfg.CheckInterval)
	assert.Equal(t, []weather.Location{
		{City: "Berlin", Country: "DE"},
		{City: "Cairo", Country: "EG"},
	}, cfg.Locations)
	assert.Equal(t, "auto", cfg.LiveSeason)
	assert.Equal(t, 8, cfg.AnalysisWorkers)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoad_CitiesWithoutCountries(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_LOCATION_CITY", "Oslo,Rome")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []weather.Location{{City: "Oslo"}, {City: "Rome"}}, cfg.Locations)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"bad interval":       {"CHECK_INTERVAL": "often"},
		"bad timeout":        {"HTTP_TIMEOUT": "10"},
		"bad store age":      {"STORE_MAX_AGE": "forever"},
		"bad cache ttl":      {"READING_CACHE_TTL": "x"},
		"location mismatch":  {"WEATHER_LOCATION_CITY": "Berlin,Paris", "WEATHER_LOCATION_COUNTRY": "DE"},
		"empty city in list": {"WEATHER_LOCATION_CITY": "Berlin,,Paris"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetenvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("ANALYSIS_WORKERS", "many")
	assert.Equal(t, 4, getenvInt("ANALYSIS_WORKERS", 4))
}
