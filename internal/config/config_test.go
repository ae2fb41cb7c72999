package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelkit/api/internal/config"
)

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		env     map[string]string
		check   func(t *testing.T, cfg *config.Config)
		wantErr string
	}{
		"defaults": {
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.Default(), cfg)
				assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr())
			},
		},
		"nested keys": {
			env: map[string]string{
				"PARCEL_SERVER__PORT":              "9090",
				"PARCEL_SERVER__REQUEST_TIMEOUT":   "2s",
				"PARCEL_DATABASE__URL":             "postgres://app@db/parcel",
				"PARCEL_DATABASE__ACQUIRE_TIMEOUT": "250ms",
				"PARCEL_LOG__FORMAT":               "json",
				"PARCEL_RATELIMIT__RATE":           "2.5",
				"PARCEL_RATELIMIT__BURST":          "5",
				"PARCEL_TRACING__ENABLED":          "true",
				"PARCEL_TRACING__EXPORTER":         "otlp",
				"PARCEL_TRACING__ENDPOINT":         "collector:4318",
			},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
				assert.Equal(t, "postgres://app@db/parcel", cfg.Database.URL)
				assert.Equal(t, 250*time.Millisecond, cfg.Database.AcquireTimeout)
				assert.Equal(t, "json", cfg.Log.Format)
				assert.InDelta(t, 2.5, cfg.RateLimit.Rate, 0)
				assert.Equal(t, 5, cfg.RateLimit.Burst)
				assert.True(t, cfg.Tracing.Enabled)
				assert.Equal(t, "otlp", cfg.Tracing.Exporter)
				assert.Equal(t, "collector:4318", cfg.Tracing.Endpoint)
				assert.True(t, cfg.Metrics.Enabled)
			},
		},
		"invalid port": {
			env:     map[string]string{"PARCEL_SERVER__PORT": "70000"},
			wantErr: "invalid config",
		},
		"invalid log level": {
			env:     map[string]string{"PARCEL_LOG__LEVEL": "verbose"},
			wantErr: "invalid config",
		},
		"unknown trace exporter": {
			env:     map[string]string{"PARCEL_TRACING__EXPORTER": "jaeger"},
			wantErr: "invalid config",
		},
		"zero acquire timeout": {
			env:     map[string]string{"PARCEL_DATABASE__ACQUIRE_TIMEOUT": "0s"},
			wantErr: "invalid config",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load()
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, cfg)
		})
	}
}
