// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// Storage
	Backend string
	DBPath  string

	// Logging
	LogLevel string

	// Metrics enables repository counters and the stats command.
	Metrics bool
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment take precedence over .env.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		Backend:  getEnv("BOOKKEEPER_BACKEND", BackendSQLite),
		DBPath:   getEnv("BOOKKEEPER_DB_PATH", "./bookkeeper.db"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "warn")),
		Metrics:  getEnvBool("BOOKKEEPER_METRICS", true),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{BackendSQLite, BackendMemory}
	if !slices.Contains(validBackends, c.Backend) {
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, validBackends))
	}

	if c.Backend == BackendSQLite && strings.TrimSpace(c.DBPath) == "" {
		errors = append(errors, "database path cannot be empty when using sqlite backend")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
