package config

import (
	"os"
	"strconv"
	"time"
)

// BoundsTier is a named numeric acceptance window for parsed prices.
type BoundsTier struct {
	Name string
	Min  float64
	Max  float64
}

// Config holds all engine and server tunables, loaded from the environment.
type Config struct {
	// Wide is the generic page-scan tier; Targeted is the narrower tier
	// used by the structured strategies, sized to the catalog segment.
	Wide     BoundsTier
	Targeted BoundsTier

	ContentRetries    int
	ContentBackoff    time.Duration
	TransportReinits  int
	NavigationTimeout time.Duration
	SettleTimeout     time.Duration
	WarmupDelay       time.Duration

	SweepSchedule    string
	SweepConcurrency int
	SweepInterval    time.Duration

	Port         string
	Host         string
	RateLimitRPS float64
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Wide: BoundsTier{
			Name: "wide",
			Min:  getEnvFloat("PRICE_BOUND_WIDE_MIN", 5),
			Max:  getEnvFloat("PRICE_BOUND_WIDE_MAX", 15000),
		},
		Targeted: BoundsTier{
			Name: "targeted",
			Min:  getEnvFloat("PRICE_BOUND_TARGETED_MIN", 100),
			Max:  getEnvFloat("PRICE_BOUND_TARGETED_MAX", 5000),
		},
		ContentRetries:    getEnvInt("CONTENT_RETRIES", 2),
		ContentBackoff:    getEnvDuration("CONTENT_BACKOFF", 3*time.Second),
		TransportReinits:  getEnvInt("TRANSPORT_REINITS", 3),
		NavigationTimeout: getEnvDuration("NAVIGATION_TIMEOUT", 120*time.Second),
		SettleTimeout:     getEnvDuration("SETTLE_TIMEOUT", 15*time.Second),
		WarmupDelay:       getEnvDuration("WARMUP_DELAY", 1500*time.Millisecond),
		SweepSchedule:     getEnvOrDefault("SWEEP_SCHEDULE", "0 0 */12 * * *"),
		SweepConcurrency:  getEnvInt("SWEEP_CONCURRENCY", 2),
		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", 20*time.Second),
		Port:              getEnvOrDefault("PORT", "8080"),
		Host:              getEnvOrDefault("HOST", "0.0.0.0"),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 5),
	}
}

// getEnvOrDefault gets an environment variable or returns a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
