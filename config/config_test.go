package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "microbench.jsonl", cfg.Outfile)
	assert.Equal(t, 60*time.Second, cfg.TelemetryInterval)
	assert.Equal(t, 30*time.Second, cfg.TelemetryJoinTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("MICROBENCH_OUTFILE", "/var/log/bench.jsonl")
	t.Setenv("MICROBENCH_TELEMETRY_INTERVAL", "5s")
	t.Setenv("MICROBENCH_TELEMETRY_JOIN_TIMEOUT", "10")
	t.Setenv("MICROBENCH_LOG_LEVEL", "debug")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/var/log/bench.jsonl", cfg.Outfile)
	assert.Equal(t, 5*time.Second, cfg.TelemetryInterval)
	assert.Equal(t, 10*time.Second, cfg.TelemetryJoinTimeout, "bare numbers are seconds")
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("MICROBENCH_LOG_LEVEL", "verbose")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestValidateRejectsNonPositiveInterval(t *testing.T) {
	cfg := &Config{
		Outfile:              "out.jsonl",
		TelemetryInterval:    0,
		TelemetryJoinTimeout: time.Second,
		LogLevel:             "info",
		LogFormat:            "json",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TelemetryInterval")
}
