package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env            string
	Port           string
	CORSOrigins    []string
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Price feed
	PriceBaseURL    string
	PriceExchange   string
	PriceFiat       string
	PriceTimeout    time.Duration
	PriceMaxRetries int
	PriceRetryBase  time.Duration
	PriceCacheTTL   time.Duration

	// Sell locking
	RedisURL    string
	SellLockTTL time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Env:            getEnv("ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		APIKey:         os.Getenv("API_KEY"),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "ledger"),
		DBPassword: getEnv("DB_PASSWORD", "ledger"),
		DBName:     getEnv("DB_NAME", "ledger"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Price feed
		PriceBaseURL:    strings.TrimRight(getEnv("PRICE_BASE_URL", "https://criptoya.com/api"), "/"),
		PriceExchange:   getEnv("PRICE_EXCHANGE", "satoshitango"),
		PriceFiat:       strings.ToLower(getEnv("PRICE_FIAT", "ars")),
		PriceTimeout:    getDuration("PRICE_TIMEOUT", 10*time.Second),
		PriceMaxRetries: getInt("PRICE_MAX_RETRIES", 2),
		PriceRetryBase:  getDuration("PRICE_RETRY_BASE", 200*time.Millisecond),
		PriceCacheTTL:   getDuration("PRICE_CACHE_TTL", 0),

		// Sell locking
		RedisURL:    os.Getenv("REDIS_URL"),
		SellLockTTL: getDuration("SELL_LOCK_TTL", 30*time.Second),
	}

	if config.PriceMaxRetries < 0 {
		log.Printf("Warning: negative PRICE_MAX_RETRIES, falling back to 0\n")
		config.PriceMaxRetries = 0
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %g\n", key, raw, defaultValue)
		return defaultValue
	}
	return f
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
