// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "json" or "text"

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Model settings
	ModelPath      string // JSON bundle on disk (optional, service starts without a model)
	ModelBundleKey string // key within a multi-model bundle file, empty for a bare bundle
	ScorerTimeout  time.Duration
	StoreTimeout   time.Duration

	// Scoring policy
	HistorySize     int
	BlockThreshold  float64
	ReviewThreshold float64
	FlagThreshold   float64

	// Security
	AdminSecret  string // gates model reloads
	RateLimitRPS int

	// Tracing
	OTLPEndpoint string // OTLP gRPC collector address (optional, tracing off if not set)
}

const (
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultScorerTimeout   = 2 * time.Second
	DefaultStoreTimeout    = 5 * time.Second
	DefaultHistorySize     = 100
	DefaultBlockThreshold  = 0.7
	DefaultReviewThreshold = 0.4
	DefaultFlagThreshold   = 0.2
	DefaultRateLimit       = 100
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:       getEnv("LOG_FORMAT", DefaultLogFormat),
		DatabaseURL:     os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		ModelPath:       os.Getenv("MODEL_PATH"),
		ModelBundleKey:  os.Getenv("MODEL_BUNDLE_KEY"),
		ScorerTimeout:   getEnvDuration("SCORER_TIMEOUT", DefaultScorerTimeout),
		StoreTimeout:    getEnvDuration("STORE_TIMEOUT", DefaultStoreTimeout),
		HistorySize:     int(getEnvInt64("HISTORY_SIZE", DefaultHistorySize)),
		BlockThreshold:  getEnvFloat("BLOCK_THRESHOLD", DefaultBlockThreshold),
		ReviewThreshold: getEnvFloat("REVIEW_THRESHOLD", DefaultReviewThreshold),
		FlagThreshold:   getEnvFloat("FLAG_THRESHOLD", DefaultFlagThreshold),
		AdminSecret:     os.Getenv("ADMIN_SECRET"),
		RateLimitRPS:    int(getEnvInt64("RATE_LIMIT_RPS", int64(DefaultRateLimit))),
		OTLPEndpoint:    os.Getenv("OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent
func (c *Config) Validate() error {
	if c.HistorySize <= 0 {
		return fmt.Errorf("HISTORY_SIZE must be positive")
	}
	if c.ScorerTimeout <= 0 || c.StoreTimeout <= 0 {
		return fmt.Errorf("SCORER_TIMEOUT and STORE_TIMEOUT must be positive")
	}
	for _, t := range []float64{c.BlockThreshold, c.ReviewThreshold, c.FlagThreshold} {
		if t < 0 || t > 1 {
			return fmt.Errorf("risk thresholds must be within [0, 1]")
		}
	}
	if !(c.FlagThreshold < c.ReviewThreshold && c.ReviewThreshold < c.BlockThreshold) {
		return fmt.Errorf("risk thresholds must be strictly ordered: FLAG_THRESHOLD < REVIEW_THRESHOLD < BLOCK_THRESHOLD")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
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
