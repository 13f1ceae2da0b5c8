package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_KEY", "PRICE_FIAT", "PRICE_CACHE_TTL", "SELL_LOCK_TTL", "CORS_ORIGINS", "PRICE_MAX_RETRIES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
	if cfg.PriceFiat != "ars" {
		t.Errorf("PriceFiat = %q, want ars", cfg.PriceFiat)
	}
	if cfg.PriceCacheTTL != 0 {
		t.Errorf("PriceCacheTTL = %s, want 0", cfg.PriceCacheTTL)
	}
	if cfg.SellLockTTL != 30*time.Second {
		t.Errorf("SellLockTTL = %s, want 30s", cfg.SellLockTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PRICE_BASE_URL", "http://quotes.local/api/")
	t.Setenv("PRICE_FIAT", "USD")
	t.Setenv("PRICE_TIMEOUT", "3s")
	t.Setenv("PRICE_MAX_RETRIES", "-1")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("SELL_LOCK_TTL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.PriceBaseURL != "http://quotes.local/api" {
		t.Errorf("PriceBaseURL = %q, want trailing slash trimmed", cfg.PriceBaseURL)
	}
	if cfg.PriceFiat != "usd" {
		t.Errorf("PriceFiat = %q, want usd", cfg.PriceFiat)
	}
	if cfg.PriceTimeout != 3*time.Second {
		t.Errorf("PriceTimeout = %s", cfg.PriceTimeout)
	}
	if cfg.PriceMaxRetries != 0 {
		t.Errorf("PriceMaxRetries = %d, want clamped to 0", cfg.PriceMaxRetries)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.RateLimitRPS != 20 {
		t.Errorf("RateLimitRPS = %g, want default 20", cfg.RateLimitRPS)
	}
	if cfg.SellLockTTL != 30*time.Second {
		t.Errorf("SellLockTTL = %s, want default on parse error", cfg.SellLockTTL)
	}
}
