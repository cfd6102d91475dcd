package config

import (
	"log/slog"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"VCDEMO_ADDR", "VCDEMO_ENV", "STORE_BACKEND", "DATA_DIR", "DATABASE_URL",
		"REDIS_URL", "KAFKA_BROKERS", "KAFKA_TOPIC", "REQUEST_TIMEOUT", "LOG_LEVEL", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "credential-lifecycle", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.IsDev())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VCDEMO_ADDR", ":9090")
	t.Setenv("VCDEMO_ENV", "prod")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "localhost:9092", cfg.Kafka.Brokers)
	assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}, cfg.TrustedProxies)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":      {"STORE_BACKEND": "mongo"},
		"postgres without url": {"STORE_BACKEND": "postgres"},
		"redis without url":    {"STORE_BACKEND": "redis"},
		"bad timeout":          {"REQUEST_TIMEOUT": "soon"},
		"non-positive timeout": {"REQUEST_TIMEOUT": "0s"},
		"bad log level":        {"LOG_LEVEL": "loud"},
		"bad trusted proxy":    {"TRUSTED_PROXIES": "10.0.0.0/40"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
