package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelkit/api"
)

type tenant string

func TestContextValues(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := api.GetValue[tenant](req.Context())
	assert.False(t, ok)

	req = api.SetValue(req, tenant("acme"))
	req = api.SetValue(req, 7)

	got, ok := api.GetValue[tenant](req.Context())
	require.True(t, ok)
	assert.Equal(t, tenant("acme"), got)

	n, ok := api.GetValue[int](req.Context())
	require.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = api.GetValue[string](req.Context())
	assert.False(t, ok)
}

func TestContextValues_from_middleware(t *testing.T) {
	t.Parallel()

	r := api.New()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, api.SetValue(req, tenant(req.Header.Get("X-Tenant"))))
		})
	})
	api.Get(r, "/whoami", func(ctx context.Context, _ *api.Void) (*idResp, error) {
		tn, _ := api.GetValue[tenant](ctx)
		return &idResp{ID: string(tn)}, nil
	})
	ready(t, r)

	rec := serve(t, r, http.MethodGet, "/whoami", "", "X-Tenant", "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acme", decode[idResp](t, rec).ID)
}
