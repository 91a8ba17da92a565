// Package config loads service configuration from the environment.
// Every variable carries the STOCK_INTEL_ prefix and has a sensible
// default, except the upstream API keys which must be provided.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the full service configuration.
type Config struct {
	Host   string
	Port   int
	WebDir string
	LogDir string

	AlphaVantageKey string
	FinnhubKey      string
	NewsAPIKey      string

	AIProvider string
	AIAPIKey   string
	AIBaseURL  string
	AIModel    string

	ProviderTimeout  time.Duration
	ModelTimeout     time.Duration
	ModelRetries     int
	CacheTTL         time.Duration
	SearchMaxResults int
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Host:   envString("STOCK_INTEL_HOST", "127.0.0.1"),
		Port:   envInt("STOCK_INTEL_PORT", 8000),
		WebDir: envString("STOCK_INTEL_WEB_DIR", ""),
		LogDir: envString("STOCK_INTEL_LOG_DIR", "logs"),

		AlphaVantageKey: envString("STOCK_INTEL_ALPHAVANTAGE_KEY", ""),
		FinnhubKey:      envString("STOCK_INTEL_FINNHUB_KEY", ""),
		NewsAPIKey:      envString("STOCK_INTEL_NEWSAPI_KEY", ""),

		AIProvider: envString("STOCK_INTEL_AI_PROVIDER", ""),
		AIAPIKey:   envString("STOCK_INTEL_AI_API_KEY", ""),
		AIBaseURL:  envString("STOCK_INTEL_AI_BASE_URL", ""),
		AIModel:    envString("STOCK_INTEL_AI_MODEL", "gpt-4o-mini"),

		ProviderTimeout:  envDuration("STOCK_INTEL_PROVIDER_TIMEOUT", 10*time.Second),
		ModelTimeout:     envDuration("STOCK_INTEL_MODEL_TIMEOUT", 5*time.Minute),
		ModelRetries:     envInt("STOCK_INTEL_MODEL_RETRIES", 1),
		CacheTTL:         envDuration("STOCK_INTEL_CACHE_TTL", 3*time.Hour),
		SearchMaxResults: envInt("STOCK_INTEL_SEARCH_MAX_RESULTS", 10),
	}
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	if c.AlphaVantageKey == "" {
		return errors.New("STOCK_INTEL_ALPHAVANTAGE_KEY is required")
	}
	if c.FinnhubKey == "" {
		return errors.New("STOCK_INTEL_FINNHUB_KEY is required")
	}
	if c.AIAPIKey == "" {
		return errors.New("STOCK_INTEL_AI_API_KEY is required")
	}
	return nil
}

func envString(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
