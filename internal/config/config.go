// Package config loads the server configuration from the environment.
//
// Variables use the PARCEL_ prefix and a double underscore for nesting:
// PARCEL_SERVER__PORT sets Server.Port and PARCEL_DATABASE__ACQUIRE_TIMEOUT
// sets Database.AcquireTimeout. A .env file in the working directory is
// loaded first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload" // loads .env into the process environment
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Prefix is the environment variable prefix.
const Prefix = "PARCEL_"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server" validate:"required"`
	Database  DatabaseConfig  `koanf:"database" validate:"required"`
	Log       LogConfig       `koanf:"log" validate:"required"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
}

// ServerConfig groups settings for the HTTP server.
type ServerConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port" validate:"min=1,max=65535"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gte=0"`
	BodyLimit      int64         `koanf:"body_limit" validate:"gte=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the session factory.
type DatabaseConfig struct {
	URL             string        `koanf:"url" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
	AcquireTimeout  time.Duration `koanf:"acquire_timeout" validate:"gt=0"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// RateLimitConfig configures per-client rate limiting. A zero rate
// disables it.
type RateLimitConfig struct {
	Rate  float64 `koanf:"rate" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// MetricsConfig toggles the Prometheus middleware and the /metrics route.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// TracingConfig configures per-request OpenTelemetry spans. Endpoint is
// only used by the otlp exporter.
type TracingConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter" validate:"oneof=stdout otlp"`
	Endpoint string `koanf:"endpoint"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8000,
			RequestTimeout: 30 * time.Second,
			BodyLimit:      1 << 20,
		},
		Database: DatabaseConfig{
			URL:             "sqlite://parcel.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			AcquireTimeout:  5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{Enabled: true},
		Tracing: TracingConfig{Exporter: "stdout"},
	}
}

// Load reads PARCEL_* variables on top of the defaults and validates the
// result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(Prefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration constraints.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envKey maps PARCEL_SERVER__REQUEST_TIMEOUT to server.request_timeout.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, Prefix))
	return strings.ReplaceAll(s, "__", ".")
}
