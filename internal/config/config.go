// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Subscan API key sent with every reward request
	SubscanAPIKey string

	// Delay between consecutive API calls, in milliseconds
	APISleepDelay int

	// Base URL of the CoinGecko compatible price API
	PriceAPI string

	// Optional YAML file overriding the network table
	NetworksFile string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Optional node_exporter textfile the run metrics are written to
	MetricsTextfile string

	// Hex encoded secp256k1 key used to sign exported reports
	SigningKey string

	// Default fiat currency
	Currency string

	// Timeout of the whole fetch phase
	RequestTimeout time.Duration

	// Optional endpoint receiving every finished report
	WebhookURL    string
	WebhookAPIKey string

	// Report guard limits, zero disables a check
	MaxAnnualizedReturn float64
	MaxPriceChange      float64
}

// DefaultPriceAPI is the public CoinGecko v3 endpoint
const DefaultPriceAPI = "https://api.coingecko.com/api/v3"

// Load creates a new Config from environment variables
func Load() Config {
	return Config{
		SubscanAPIKey:   GetEnvOrDefault("SUBSCAN_API_KEY", ""),
		APISleepDelay:   GetEnvAsInt("API_SLEEP_DELAY", 300),
		PriceAPI:        strings.TrimRight(GetEnvOrDefault("PRICE_API", DefaultPriceAPI), "/"),
		NetworksFile:    GetEnvOrDefault("NETWORKS_FILE", ""),
		OtelEndpoint:    GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MetricsTextfile: GetEnvOrDefault("METRICS_TEXTFILE", ""),
		SigningKey:      GetEnvOrDefault("SIGNING_KEY", ""),
		Currency:        strings.ToLower(GetEnvOrDefault("CURRENCY", "usd")),
		RequestTimeout:  GetEnvAsDuration("REQUEST_TIMEOUT", 30*time.Minute),
		WebhookURL:      GetEnvOrDefault("WEBHOOK_URL", ""),
		WebhookAPIKey:   GetEnvOrDefault("WEBHOOK_API_KEY", ""),

		MaxAnnualizedReturn: GetEnvAsFloat("MAX_ANNUALIZED_RETURN", 0),
		MaxPriceChange:      GetEnvAsFloat("MAX_PRICE_CHANGE", 0),
	}
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
