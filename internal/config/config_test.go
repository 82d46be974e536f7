package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Session.MinAnswered)
	assert.Equal(t, 4, cfg.Session.CodeLength)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.ListenAddr, cfg.Server.ListenAddr)
}

func TestLoadMergesFileOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  listen_addr: ":9000"
kafka:
  brokers:
    - broker-1:9092
    - broker-2:9092
session:
  ttl: 15m
  min_answered: 5
verifier:
  base_url: https://verify.example.com
  timeout: 2s
api_keys:
  key-abc: pharmacy-portal
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 5, cfg.Session.MinAnswered)
	assert.Equal(t, "https://verify.example.com", cfg.Verifier.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Verifier.Timeout)
	assert.Equal(t, "pharmacy-portal", cfg.APIKeys["key-abc"])

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Postgres.DSN, cfg.Postgres.DSN)
	assert.Equal(t, 4, cfg.Session.CodeLength)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  ttl: soon\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ttl")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":7777")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("MIN_ANSWERED", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 2, cfg.Session.MinAnswered)
}

func TestValidateRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  min_answered: -1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
