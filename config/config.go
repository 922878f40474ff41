// Package config supplies process-wide defaults for benchmark pipelines from
// the environment. Everything here is optional: a pipeline constructed with an
// explicit configuration never consults it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/upb/microbench/utils"
)

// Config represents the process-wide benchmark configuration
type Config struct {
	// Outfile is the default results destination path.
	Outfile string `validate:"required"`

	// Telemetry defaults applied when a pipeline enables sampling without
	// overriding them.
	TelemetryInterval    time.Duration `validate:"gt=0"`
	TelemetryJoinTimeout time.Duration `validate:"gt=0"`

	// Observability settings for the injected logger.
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`

	// DatabaseURL enables the Postgres sink when set.
	DatabaseURL string
}

// New creates a Config by loading environment variables. A .env file in the
// working directory is honored when present.
func New() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Outfile:              getEnv("MICROBENCH_OUTFILE", "microbench.jsonl"),
		TelemetryInterval:    getEnvAsDuration("MICROBENCH_TELEMETRY_INTERVAL", 60*time.Second),
		TelemetryJoinTimeout: getEnvAsDuration("MICROBENCH_TELEMETRY_JOIN_TIMEOUT", 30*time.Second),
		LogLevel:             getEnv("MICROBENCH_LOG_LEVEL", "info"),
		LogFormat:            getEnv("MICROBENCH_LOG_FORMAT", "json"),
		DatabaseURL:          getEnv("MICROBENCH_DATABASE_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration fields
func (c *Config) Validate() error {
	return utils.ValidateStruct(c)
}

// Helper functions

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsDuration returns an environment variable as a duration or a default.
// Accepts Go duration syntax ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
