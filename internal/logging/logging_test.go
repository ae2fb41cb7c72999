package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelkit/api/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		"debug":      {input: "debug", want: slog.LevelDebug},
		"upper case": {input: "WARN", want: slog.LevelWarn},
		"error":      {input: "error", want: slog.LevelError},
		"unknown":    {input: "chatty", want: slog.LevelInfo, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := logging.ParseLevel(tc.input)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, _, err := logging.New(&buf, "info", "json")
		require.NoError(t, err)

		logger.Info("request", "status", 422)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "request", line["msg"])
		assert.InDelta(t, 422, line["status"], 0)
	})

	t.Run("console format has no color off a terminal", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, _, err := logging.New(&buf, "info", "text")
		require.NoError(t, err)

		logger.Info("request", "route", "items")

		out := buf.String()
		assert.Contains(t, out, "request")
		assert.Contains(t, out, "route=items")
		assert.NotContains(t, out, "\x1b[")
	})

	t.Run("level var filters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, lv, err := logging.New(&buf, "warn", "text")
		require.NoError(t, err)

		logger.Info("hidden")
		assert.Empty(t, buf.String())

		lv.Set(slog.LevelDebug)
		logger.Debug("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("bad level", func(t *testing.T) {
		t.Parallel()

		_, _, err := logging.New(&bytes.Buffer{}, "loud", "text")
		require.Error(t, err)
	})
}
