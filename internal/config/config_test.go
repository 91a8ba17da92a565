package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Host != "127.0.0.1" {
		t.Fatalf("unexpected host %q", cfg.Host)
	}
	if cfg.Port != 8000 {
		t.Fatalf("unexpected port %d", cfg.Port)
	}
	if cfg.CacheTTL != 3*time.Hour {
		t.Fatalf("unexpected cache TTL %s", cfg.CacheTTL)
	}
	if cfg.ModelTimeout != 5*time.Minute {
		t.Fatalf("unexpected model timeout %s", cfg.ModelTimeout)
	}
	if cfg.ModelRetries != 1 {
		t.Fatalf("unexpected retries %d", cfg.ModelRetries)
	}
	if cfg.SearchMaxResults != 10 {
		t.Fatalf("unexpected search cap %d", cfg.SearchMaxResults)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STOCK_INTEL_PORT", "9100")
	t.Setenv("STOCK_INTEL_CACHE_TTL", "45m")
	t.Setenv("STOCK_INTEL_AI_MODEL", "claude-sonnet-4-5")
	t.Setenv("STOCK_INTEL_ALPHAVANTAGE_KEY", "  av-key  ")

	cfg := Load()
	if cfg.Port != 9100 {
		t.Fatalf("unexpected port %d", cfg.Port)
	}
	if cfg.CacheTTL != 45*time.Minute {
		t.Fatalf("unexpected cache TTL %s", cfg.CacheTTL)
	}
	if cfg.AIModel != "claude-sonnet-4-5" {
		t.Fatalf("unexpected model %q", cfg.AIModel)
	}
	if cfg.AlphaVantageKey != "av-key" {
		t.Fatalf("expected trimmed key, got %q", cfg.AlphaVantageKey)
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("STOCK_INTEL_PORT", "not-a-number")
	t.Setenv("STOCK_INTEL_CACHE_TTL", "-5m")

	cfg := Load()
	if cfg.Port != 8000 {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
	if cfg.CacheTTL != 3*time.Hour {
		t.Fatalf("expected default TTL, got %s", cfg.CacheTTL)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty config")
	}

	cfg.AlphaVantageKey = "a"
	cfg.FinnhubKey = "f"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without AI key")
	}

	cfg.AIAPIKey = "m"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
