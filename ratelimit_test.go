package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelkit/api"
)

func TestRateLimit(t *testing.T) {
	t.Parallel()

	r := api.New()
	r.Use(api.RateLimit(api.RateLimitConfig{
		Rate:  0.5,
		Burst: 2,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-Client")
		},
	}))
	api.Get(r, "/items/", func(_ context.Context, _ *api.Void) (*idResp, error) {
		return &idResp{}, nil
	})
	ready(t, r)

	for range 2 {
		rec := serve(t, r, http.MethodGet, "/items/", "", "X-Client", "a")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(t, r, http.MethodGet, "/items/", "", "X-Client", "a")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", problem(t, rec).Detail)

	rec = serve(t, r, http.MethodGet, "/items/", "", "X-Client", "b")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_custom_handler(t *testing.T) {
	t.Parallel()

	r := api.New()
	r.Use(api.RateLimit(api.RateLimitConfig{
		Rate:  1,
		Burst: 1,
		OnLimit: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	}))
	api.Get(r, "/x", func(_ context.Context, _ *api.Void) (*idResp, error) {
		return &idResp{}, nil
	})
	ready(t, r)

	assert.Equal(t, http.StatusOK, serve(t, r, http.MethodGet, "/x", "").Code)

	rec := serve(t, r, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rate float64
		want string
	}{
		"zero":            {rate: 0, want: "1"},
		"fast":            {rate: 100, want: "1"},
		"one per second":  {rate: 1, want: "1"},
		"half per second": {rate: 0.5, want: "2"},
		"slow":            {rate: 0.1, want: "10"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, api.RetryAfter(tc.rate))
		})
	}
}
