package config

import (
	"os"
	"strconv"
	"time"

	"rastercube/internal/errors"
)

// Config represents the complete assembler configuration
type Config struct {
	Retry    RetryConfig
	Assembly AssemblyConfig
}

// RetryConfig holds the backoff schedule applied to every remote band load
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// AssemblyConfig holds run-level processing settings
type AssemblyConfig struct {
	Parallelism int
}

// Load reads configuration from environment variables and validates it.
// Every field has a default matching the documented assembly behavior
// (5 attempts, 1s initial delay, doubling), so an empty environment is
// valid.
func Load() (*Config, error) {
	config := &Config{
		Retry: RetryConfig{
			MaxAttempts:  getEnvIntOrDefault("RETRY_MAX_ATTEMPTS", 5),
			InitialDelay: getEnvDurationOrDefault("RETRY_INITIAL_DELAY", time.Second),
			Multiplier:   getEnvFloatOrDefault("RETRY_MULTIPLIER", 2.0),
		},
		Assembly: AssemblyConfig{
			Parallelism: getEnvIntOrDefault("ASSEMBLY_PARALLELISM", 4),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Retry.MaxAttempts < 1 {
		return errors.ConfigInvalid("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if config.Retry.InitialDelay < 0 {
		return errors.ConfigInvalid("RETRY_INITIAL_DELAY must not be negative")
	}
	if config.Retry.Multiplier < 1 {
		return errors.ConfigInvalid("RETRY_MULTIPLIER must be at least 1")
	}
	if config.Assembly.Parallelism < 1 {
		return errors.ConfigInvalid("ASSEMBLY_PARALLELISM must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
