package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelkit/api"
)

func TestLogger(t *testing.T) {
	t.Parallel()

	type Req struct {
		ID   int `path:"id"`
		Page int `query:"page" ge:"1"`
	}

	tests := map[string]struct {
		target       string
		wantStatus   int
		wantLevel    string
		wantRoute    string
		wantViolated float64
	}{
		"ok": {
			target:     "/items/1",
			wantStatus: http.StatusOK,
			wantLevel:  "INFO",
			wantRoute:  "/items/{id}",
		},
		"validation failed": {
			target:       "/items/x?page=0",
			wantStatus:   http.StatusUnprocessableEntity,
			wantLevel:    "INFO",
			wantRoute:    "/items/{id}",
			wantViolated: 2,
		},
		"server error": {
			target:     "/items/500",
			wantStatus: http.StatusInternalServerError,
			wantLevel:  "ERROR",
			wantRoute:  "/items/{id}",
		},
		"unmatched": {
			target:     "/nope",
			wantStatus: http.StatusNotFound,
			wantLevel:  "INFO",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			r := api.New()
			r.Use(api.RequestID(), api.Logger(logger))
			api.Get(r, "/items/{id}", func(_ context.Context, req *Req) (*idResp, error) {
				if req.ID == 500 {
					return nil, errors.New("broken")
				}
				return &idResp{}, nil
			})
			ready(t, r)

			rec := serve(t, r, http.MethodGet, tc.target, "")
			require.Equal(t, tc.wantStatus, rec.Code)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())

			assert.Equal(t, "request", entry["msg"])
			assert.Equal(t, tc.wantLevel, entry["level"])
			assert.Equal(t, "GET", entry["method"])
			assert.InDelta(t, float64(tc.wantStatus), entry["status"], 0)
			assert.Equal(t, rec.Header().Get("X-Request-ID"), entry["request_id"])

			if tc.wantRoute != "" {
				assert.Equal(t, tc.wantRoute, entry["route"])
			} else {
				assert.NotContains(t, entry, "route")
			}
			if tc.wantViolated > 0 {
				assert.InDelta(t, tc.wantViolated, entry["violations"], 0)
			} else {
				assert.NotContains(t, entry, "violations")
			}
		})
	}
}
