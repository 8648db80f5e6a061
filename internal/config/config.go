// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Directory for client_data.db (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	ExchangeRate ExchangeRateConfig

	// IncludeFeesDefault is the fee toggle used when a client does not send one.
	IncludeFeesDefault bool
}

// ExchangeRateConfig configures the USD→KRW rate provider
type ExchangeRateConfig struct {
	URL          string  // Base URL, the base currency is appended as a path segment
	Base         string  // e.g. "USD"
	Quote        string  // e.g. "KRW"
	Refresh      string  // cron spec, e.g. "@every 5m"
	DefaultRate  float64 // Used until the first successful fetch
	FetchOnStart bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("AVGDOWN_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  dataDir,
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		ExchangeRate: ExchangeRateConfig{
			URL:          getEnv("EXCHANGE_RATE_URL", "https://open.er-api.com/v6/latest"),
			Base:         strings.ToUpper(getEnv("EXCHANGE_RATE_BASE", "USD")),
			Quote:        strings.ToUpper(getEnv("EXCHANGE_RATE_QUOTE", "KRW")),
			Refresh:      getEnv("EXCHANGE_RATE_REFRESH", "@every 5m"),
			DefaultRate:  getEnvAsFloat("EXCHANGE_RATE_DEFAULT", 1.0),
			FetchOnStart: getEnvAsBool("EXCHANGE_RATE_FETCH_ON_START", true),
		},
		IncludeFeesDefault: getEnvAsBool("INCLUDE_FEES_DEFAULT", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ExchangeRate.Base == "" || c.ExchangeRate.Quote == "" {
		return fmt.Errorf("exchange rate base and quote currencies are required")
	}
	if c.ExchangeRate.URL == "" {
		return fmt.Errorf("exchange rate URL is required")
	}
	if c.ExchangeRate.DefaultRate <= 0 {
		return fmt.Errorf("default exchange rate must be positive, got %v", c.ExchangeRate.DefaultRate)
	}
	return nil
}

// ClientDataDBPath returns the location of the exchange-rate cache database
func (c *Config) ClientDataDBPath() string {
	return filepath.Join(c.DataDir, "client_data.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
