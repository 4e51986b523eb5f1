// Package config loads service settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/altocumulus/weather-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DBPath   string
	CSVPath  string
	JSONPath string
	DataDir  string
	LogsDir  string

	APIKey     string
	APIBaseURL string
	APIEnabled bool
	APITimeout time.Duration
	Cities     []domain.City

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// defaultCities are queried when CITIES is unset.
var defaultCities = []domain.City{
	{Name: "Mexico City", Country: "MX"},
	{Name: "Guadalajara", Country: "MX"},
	{Name: "Monterrey", Country: "MX"},
	{Name: "Puebla", Country: "MX"},
	{Name: "Tijuana", Country: "MX"},
	{Name: "Cancun", Country: "MX"},
	{Name: "Merida", Country: "MX"},
	{Name: "Queretaro", Country: "MX"},
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first when
// present, without overriding already-exported variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	apiTimeout, err := parseDuration("API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cities, err := parseCities()
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	apiEnabled := apiKey != ""
	if v := os.Getenv("API_ENABLED"); v != "" {
		apiEnabled = v == "true"
	}

	cfg := &Config{
		DBPath:   envOrDefault("DB_PATH", "data/weather.db"),
		CSVPath:  envOrDefault("CSV_PATH", "data/weather_data.csv"),
		JSONPath: envOrDefault("JSON_PATH", "data/weather_data.json"),
		DataDir:  envOrDefault("DATA_DIR", "data"),
		LogsDir:  envOrDefault("LOGS_DIR", "logs"),

		APIKey:     apiKey,
		APIBaseURL: envOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),
		APIEnabled: apiEnabled,
		APITimeout: apiTimeout,
		Cities:     cities,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.APIEnabled && cfg.APIKey == "" {
		return nil, errors.New("API_ENABLED is true but OPENWEATHER_API_KEY is not set")
	}

	return cfg, nil
}

// EnsureDirs creates the data and logs directories, plus the database's
// parent directory, if they do not exist yet.
func (c *Config) EnsureDirs() error {
	dirs := []string{c.DataDir, c.LogsDir, filepath.Dir(c.DBPath)}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

// parseCities combines the CITIES and COUNTRIES lists pairwise. COUNTRIES may
// be shorter; missing entries default to MX.
func parseCities() ([]domain.City, error) {
	rawCities := os.Getenv("CITIES")
	if rawCities == "" {
		return defaultCities, nil
	}

	names := splitList(rawCities)
	countries := splitList(os.Getenv("COUNTRIES"))
	if len(countries) > len(names) {
		return nil, fmt.Errorf("COUNTRIES lists %d entries for %d cities", len(countries), len(names))
	}

	cities := make([]domain.City, len(names))
	for i, name := range names {
		country := "MX"
		if i < len(countries) {
			country = strings.ToUpper(countries[i])
		}
		cities[i] = domain.City{Name: name, Country: country}
	}
	return cities, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
