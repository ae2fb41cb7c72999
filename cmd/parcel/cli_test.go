package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_routes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"routes"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "/items/{item_id}")
	assert.Contains(t, out, "path.item_id*")
	assert.Contains(t, out, "item:object")
}

func TestRun_spec(t *testing.T) {
	tests := map[string]struct {
		args  []string
		check func(t *testing.T, data []byte)
	}{
		"json": {
			args: []string{"spec"},
			check: func(t *testing.T, data []byte) {
				t.Helper()
				var doc map[string]any
				require.NoError(t, json.Unmarshal(data, &doc))
				assert.Equal(t, "3.1.0", doc["openapi"])
			},
		},
		"yaml": {
			args: []string{"spec", "--format", "yaml"},
			check: func(t *testing.T, data []byte) {
				t.Helper()
				assert.True(t, bytes.HasPrefix(data, []byte("openapi: 3.1.0")))
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			require.NoError(t, run(context.Background(), tc.args, &stdout, &stderr))
			tc.check(t, stdout.Bytes())
		})
	}
}

func TestRun_spec_to_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.json")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"spec", "-o", path}, &stdout, &stderr))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"/users/{user_id}/items/{item_id}"`)
}

func TestRun_invalid_config(t *testing.T) {
	t.Setenv("PARCEL_LOG__LEVEL", "loud")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"routes"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
