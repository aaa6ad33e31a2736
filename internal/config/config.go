// Package config loads process-wide settings from the environment,
// following the teacher's .env-then-os.Getenv layering with defaults
// baked in for everything optional.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable this core reads at startup. All of it is
// optional — a bare `go run .` against an empty environment boots with
// sane defaults.
type Config struct {
	DatabaseURL                string
	BookingSiteBaseURL         string
	EnableTracker              bool
	SeedFromEnv                bool
	SeedRoutesCatalog          bool
	StartupWebhookURL          string
	DefaultPollIntervalSeconds int
	MinPollIntervalSeconds     int
	ShutdownDrainSeconds       int
	MaxConcurrentScrapes       int
	RequestTimeoutSeconds      int
	ListeningPort              int
	LogLevel                   string
}

// LoadConfig reads .env (if present) then the process environment,
// mirroring the teacher's "dotenv first, os.Getenv wins" load order.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		DatabaseURL:                getenvDefault("DATABASE_URL", "file:bus_tracker.db?_journal_mode=WAL"),
		BookingSiteBaseURL:         getenvDefault("BOOKING_SITE_BASE_URL", "https://www.highwaybus.com"),
		EnableTracker:              getBoolDefault("ENABLE_TRACKER", true),
		SeedFromEnv:                getBoolDefault("SEED_FROM_ENV", false),
		SeedRoutesCatalog:          getBoolDefault("SEED_ROUTES_CATALOG", false),
		StartupWebhookURL:          os.Getenv("STARTUP_WEBHOOK_URL"),
		DefaultPollIntervalSeconds: getIntDefault("DEFAULT_POLL_INTERVAL_SECONDS", 300),
		MinPollIntervalSeconds:     getIntDefault("MIN_POLL_INTERVAL_SECONDS", 5),
		ShutdownDrainSeconds:       getIntDefault("SHUTDOWN_DRAIN_SECONDS", 30),
		MaxConcurrentScrapes:       getIntDefault("MAX_CONCURRENT_SCRAPES", 3),
		RequestTimeoutSeconds:      getIntDefault("REQUEST_TIMEOUT_SECONDS", 30),
		ListeningPort:              getIntDefault("PORT", 8080),
		LogLevel:                   getenvDefault("LOG_LEVEL", "info"),
	}, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBoolDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
