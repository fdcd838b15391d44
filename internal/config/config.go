package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Gemini
	GeminiAPIKey   string
	GeminiModel    string
	GatewayTimeout time.Duration

	// Redis (optional; empty disables the response cache)
	RedisAddr string
	CacheTTL  time.Duration

	// Worker
	ReminderInterval time.Duration
	JobQueueSize     int
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spennies.db"),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GatewayTimeout: getEnvDuration("GATEWAY_TIMEOUT", 30*time.Second),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		CacheTTL:  getEnvDuration("CACHE_TTL", 6*time.Hour),

		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", 12*time.Hour),
		JobQueueSize:     getEnvInt("JOB_QUEUE_SIZE", 100),
	}
}

// Validate checks the configuration and returns an error describing every
// invalid value found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLITE_DB_PATH must not be empty")
	}

	if c.GatewayTimeout <= 0 {
		errors = append(errors, "GATEWAY_TIMEOUT must be positive")
	}

	if c.JobQueueSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid job queue size %d: must be at least 1", c.JobQueueSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
