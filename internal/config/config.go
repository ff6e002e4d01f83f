package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/weatherpro/weather-ensemble/internal/weather"
)

// AppConfig is the full service configuration, read from the environment.
type AppConfig struct {
	WeatherAPIKey     string
	OpenWeatherAPIKey string

	// FetchInterval controls how often the scheduler refreshes each location.
	FetchInterval time.Duration

	// HTTPTimeout bounds outbound provider requests (shared HTTP client).
	HTTPTimeout time.Duration

	// SourceTimeout bounds one source's whole current+hourly+daily fetch.
	SourceTimeout time.Duration

	// DefaultStrategy is used by the scheduler; unknown names mean "best".
	DefaultStrategy weather.Strategy

	// Locations refreshed by the scheduler.
	Locations []weather.Location

	// Cache retention.
	StoreMaxHistory int           // max entries per location (0 = unlimited)
	StoreMaxAge     time.Duration // max entry age (0 = unlimited)

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	interval, err := parseDuration("FETCH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	cfg.FetchInterval = interval

	if cfg.HTTPTimeout, err = parseDuration("HTTP_TIMEOUT", "20s"); err != nil {
		return nil, err
	}
	if cfg.SourceTimeout, err = parseDuration("SOURCE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	cfg.DefaultStrategy = weather.ParseStrategy(getenvDefault("DEFAULT_STRATEGY", "best"))

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = parseDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := parseLocations(os.Getenv("LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// parseLocations parses "name:lat:lon" entries separated by commas, e.g.
// "Ha Noi:21.0285:105.8542,Da Nang:16.0544:108.2022". Empty input yields no
// scheduled locations; on-demand API calls still work.
func parseLocations(raw string) ([]weather.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var locs []weather.Location
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid LOCATIONS entry %q: want name:lat:lon", entry)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in LOCATIONS entry %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in LOCATIONS entry %q: %w", entry, err)
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("coordinates out of range in LOCATIONS entry %q", entry)
		}
		locs = append(locs, weather.Location{Name: parts[0], Lat: lat, Lon: lon})
	}
	return locs, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
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
