package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strings"
	"time"

	"vcdemo/pkg/platform/middleware/metadata"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	Environment    string
	StoreBackend   string
	DataDir        string
	DatabaseURL    string
	Redis          RedisConfig
	Kafka          KafkaConfig
	RequestTimeout time.Duration
	LogLevel       slog.Level
	// TrustedProxies may set X-Forwarded-For for client IP resolution.
	TrustedProxies []netip.Prefix
}

// RedisConfig holds connection settings for the redis credential store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds lifecycle event publishing settings. Empty Brokers
// disables Kafka and events are only logged.
type KafkaConfig struct {
	Brokers string
	Topic   string
}

// DefaultRedisConfig returns pool defaults for the redis client.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:           envOr("VCDEMO_ADDR", ":8080"),
		Environment:    envOr("VCDEMO_ENV", "dev"),
		StoreBackend:   strings.ToLower(envOr("STORE_BACKEND", BackendFile)),
		DataDir:        envOr("DATA_DIR", "./data"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Redis:          DefaultRedisConfig(),
		Kafka:          KafkaConfig{Brokers: os.Getenv("KAFKA_BROKERS"), Topic: envOr("KAFKA_TOPIC", "credential-lifecycle")},
		RequestTimeout: 30 * time.Second,
		LogLevel:       slog.LevelInfo,
	}
	cfg.Redis.URL = os.Getenv("REDIS_URL")

	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Server{}, fmt.Errorf("invalid REQUEST_TIMEOUT %q", raw)
		}
		cfg.RequestTimeout = d
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Server{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
		}
	}

	proxies, err := metadata.ParseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return Server{}, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("STORE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// IsDev reports whether the service runs in the development environment.
func (c Server) IsDev() bool {
	return c.Environment == "dev"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
