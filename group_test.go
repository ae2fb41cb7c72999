package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelkit/api"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	tagged := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Group", "v1")
			next.ServeHTTP(w, r)
		})
	}

	r := api.New()
	v1 := r.Group("/v1", api.WithGroupTags("v1"), api.WithGroupMiddleware(tagged))
	api.Get(v1, "/items/{id}", getID, api.WithTags("items"))
	api.Raw(v1, http.MethodGet, "/raw", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, api.OperationInfo{})
	api.Get(r, "/items/{id}", getID)
	ready(t, r)

	tests := map[string]struct {
		target    string
		wantGroup string
		wantCode  int
	}{
		"group route":     {target: "/v1/items/9", wantGroup: "v1", wantCode: http.StatusOK},
		"group raw route": {target: "/v1/raw", wantGroup: "v1", wantCode: http.StatusNoContent},
		"root route":      {target: "/items/9", wantCode: http.StatusOK},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, r, http.MethodGet, tc.target, "")
			require.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantGroup, rec.Header().Get("X-Group"))
		})
	}

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, "/v1/items/{id}", routes[0].Pattern)
	assert.Equal(t, []string{"v1", "items"}, routes[0].Tags)
	assert.Equal(t, "/v1/raw", routes[1].Pattern)
}

func TestGroup_registration_errors(t *testing.T) {
	t.Parallel()

	r := api.New()
	g := r.Group("/v1")
	api.Get(g, "/items/{other}", getID)
	api.Get(g, "/x", func(_ context.Context, _ *api.Void) (*idResp, error) { return nil, nil })
	api.Get(g, "/x", func(_ context.Context, _ *api.Void) (*idResp, error) { return nil, nil })

	err := r.Ready()
	require.Error(t, err)

	var dup *api.DuplicateRouteError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "/v1/x", dup.Pattern)
	assert.Contains(t, err.Error(), "/v1/items/{other}")
}

func TestGroup_nested(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) api.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := api.New()
	v1 := r.Group("/v1", api.WithGroupTags("v1"), api.WithGroupMiddleware(mark("v1")))
	admin := v1.Group("/admin", api.WithGroupTags("admin"), api.WithGroupMiddleware(mark("admin")))
	api.Get(admin, "/items/{id}", getID)
	api.Get(v1, "/items/{id}", getID)
	ready(t, r)

	rec := serve(t, r, http.MethodGet, "/v1/admin/items/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"v1", "admin"}, order)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/v1/admin/items/{id}", routes[0].Pattern)
	assert.Equal(t, []string{"v1", "admin"}, routes[0].Tags)
	assert.Equal(t, []string{"v1"}, routes[1].Tags)
}

func TestGroup_bad_prefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no leading slash": "v1",
		"trailing slash":   "/v1/",
	}

	for name, prefix := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := api.New()
			r.Group(prefix)

			var cfg *api.RouteConfigError
			require.ErrorAs(t, r.Ready(), &cfg)
			assert.Equal(t, prefix, cfg.Pattern)
		})
	}
}
