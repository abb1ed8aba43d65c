// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/EgonMoreau/VivesBike/internal/domain"
)

// MemoryDatabaseURL selects the in-memory stores instead of Postgres.
const MemoryDatabaseURL = "memory://"

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string `validate:"required,numeric"`

	// DatabaseURL is the Postgres connection string, or "memory://". Required.
	DatabaseURL string `validate:"required"`

	// LogLevel controls the minimum log level. Defaults to "info".
	LogLevel string `validate:"oneof=debug info warn error"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `validate:"min=1,dive,url"`

	// DailyRate is the price of one started rental day. Defaults to 1.00.
	DailyRate domain.Money `validate:"gt=0"`

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64 `validate:"gt=0"`
}

var validate = validator.New()

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is read first if present; variables
// already set in the environment win.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	rate, err := domain.ParseMoney(getEnv("DAILY_RATE", "1.00"))
	if err != nil {
		return Config{}, fmt.Errorf("DAILY_RATE: %w", err)
	}
	cfg.DailyRate = rate

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES: %w", err)
	}
	cfg.MaxBodyBytes = maxBody

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// UsesMemory reports whether the in-memory stores were selected.
func (c Config) UsesMemory() bool {
	return c.DatabaseURL == MemoryDatabaseURL
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
