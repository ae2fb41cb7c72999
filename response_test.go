package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelkit/api"
)

type createdResp struct {
	ID string `json:"id"`
}

func (createdResp) StatusCode() int { return http.StatusCreated }

func (c createdResp) SetHeaders(h http.Header) { h.Set("Location", "/things/"+c.ID) }

func (c createdResp) Cookies() []*http.Cookie {
	return []*http.Cookie{{Name: "last", Value: c.ID, Path: "/"}}
}

func TestResponse_status(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/ok", func(_ context.Context, _ *api.Void) (*createdResp, error) {
		return &createdResp{ID: "1"}, nil
	})
	api.Get(r, "/plain", func(_ context.Context, _ *api.Void) (*item, error) {
		return &item{Name: "a", Price: 1}, nil
	})
	api.Post(r, "/created", func(_ context.Context, _ *api.Void) (*item, error) {
		return &item{Name: "a", Price: 1}, nil
	}, api.WithStatus(http.StatusCreated))
	api.Get(r, "/nil", func(_ context.Context, _ *api.Void) (*item, error) {
		return nil, nil
	})
	api.Delete(r, "/void", func(_ context.Context, _ *api.Void) (*api.Void, error) {
		return &api.Void{}, nil
	})
	api.Post(r, "/accepted", func(_ context.Context, _ *api.Void) (*item, error) {
		return nil, nil
	}, api.WithStatus(http.StatusAccepted))
	ready(t, r)

	tests := map[string]struct {
		method     string
		target     string
		wantStatus int
		wantBody   bool
	}{
		"default":                 {method: http.MethodGet, target: "/plain", wantStatus: http.StatusOK, wantBody: true},
		"route status":            {method: http.MethodPost, target: "/created", wantStatus: http.StatusCreated, wantBody: true},
		"status from result":      {method: http.MethodGet, target: "/ok", wantStatus: http.StatusCreated, wantBody: true},
		"nil result":              {method: http.MethodGet, target: "/nil", wantStatus: http.StatusNoContent},
		"void result":             {method: http.MethodDelete, target: "/void", wantStatus: http.StatusNoContent},
		"nil result keeps status": {method: http.MethodPost, target: "/accepted", wantStatus: http.StatusAccepted},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, r, tc.method, tc.target, "")
			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.NotEmpty(t, rec.Body.String())
			} else {
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestResponse_headers_and_cookies(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Post(r, "/things", func(_ context.Context, _ *api.Void) (*createdResp, error) {
		return &createdResp{ID: "42"}, nil
	})
	ready(t, r)

	rec := serve(t, r, http.MethodPost, "/things", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/things/42", rec.Header().Get("Location"))
	assert.Equal(t, "last=42; Path=/", rec.Header().Get("Set-Cookie"))
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
}

func TestResponse_negotiation(t *testing.T) {
	t.Parallel()

	r := api.New()
	api.Get(r, "/item", func(_ context.Context, _ *api.Void) (*item, error) {
		return &item{Name: "a", Price: 1.5}, nil
	})
	ready(t, r)

	tests := map[string]struct {
		accept   string
		wantType string
		wantBody string
	}{
		"no accept":       {accept: "", wantType: "application/json", wantBody: "{\"name\":\"a\",\"price\":1.5,\"tags\":null}\n"},
		"wildcard":        {accept: "*/*", wantType: "application/json"},
		"yaml":            {accept: "application/yaml", wantType: "application/yaml", wantBody: "name: a\nprice: 1.5\ntags: null\n"},
		"yaml alias":      {accept: "text/yaml", wantType: "application/yaml"},
		"quality":         {accept: "application/json;q=0.5, application/yaml", wantType: "application/yaml"},
		"quality reverse": {accept: "application/json, application/yaml;q=0.2", wantType: "application/json"},
		"no match":        {accept: "text/html", wantType: "application/json"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var headers []string
			if tc.accept != "" {
				headers = []string{"Accept", tc.accept}
			}
			rec := serve(t, r, http.MethodGet, "/item", "", headers...)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantType, rec.Header().Get("Content-Type"))
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}

func TestResponse_model_projection(t *testing.T) {
	t.Parallel()

	type Address struct {
		City   string `json:"city"`
		Secret string `json:"secret"`
	}
	type Account struct {
		Username  string            `json:"username"`
		Password  string            `json:"password"`
		Age       int64             `json:"age"`
		Addresses []Address         `json:"addresses"`
		Labels    map[string]string `json:"labels"`
	}
	type PublicAddress struct {
		City string `json:"city"`
	}
	type PublicAccount struct {
		Username  string            `json:"username"`
		Age       int32             `json:"age"`
		Email     string            `json:"email"`
		Addresses []PublicAddress   `json:"addresses"`
		Labels    map[string]string `json:"labels"`
	}

	r := api.New()
	api.Get(r, "/account", func(_ context.Context, _ *api.Void) (*Account, error) {
		return &Account{
			Username:  "ann",
			Password:  "hunter2",
			Age:       30,
			Addresses: []Address{{City: "Oslo", Secret: "x"}},
			Labels:    map[string]string{"a": "b"},
		}, nil
	}, api.WithResponseModel[PublicAccount]())
	ready(t, r)

	rec := serve(t, r, http.MethodGet, "/account", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"username":"ann","age":30,"email":"","addresses":[{"city":"Oslo"}],"labels":{"a":"b"}}`,
		rec.Body.String(),
	)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

type conflictErr struct{}

func (conflictErr) Error() string   { return "already exists" }
func (conflictErr) StatusCode() int { return http.StatusConflict }

func TestResponse_handler_errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err        error
		wantStatus int
		wantTitle  string
		wantDetail string
	}{
		"http error": {
			err:        api.Error(http.StatusNotFound, "item not found"),
			wantStatus: http.StatusNotFound,
			wantTitle:  "Not Found",
			wantDetail: "item not found",
		},
		"status coder": {
			err:        conflictErr{},
			wantStatus: http.StatusConflict,
			wantTitle:  "Conflict",
			wantDetail: "already exists",
		},
		"wrapped status coder": {
			err:        errors.Join(errors.New("saving"), conflictErr{}),
			wantStatus: http.StatusConflict,
			wantTitle:  "Conflict",
		},
		"plain error": {
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantTitle:  "Internal Server Error",
			wantDetail: "boom",
		},
		"problem detail": {
			err:        &api.ProblemDetail{Type: "https://example.com/teapot", Title: "Teapot", Status: http.StatusTeapot},
			wantStatus: http.StatusTeapot,
			wantTitle:  "Teapot",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := api.New()
			api.Get(r, "/fail", func(_ context.Context, _ *api.Void) (*item, error) {
				return nil, tc.err
			})
			ready(t, r)

			rec := serve(t, r, http.MethodGet, "/fail", "")
			require.Equal(t, tc.wantStatus, rec.Code)

			p := problem(t, rec)
			assert.Equal(t, tc.wantStatus, p.Status)
			assert.Equal(t, tc.wantTitle, p.Title)
			if tc.wantDetail != "" {
				assert.Equal(t, tc.wantDetail, p.Detail)
			}
		})
	}
}

func TestResponse_custom_error_handler(t *testing.T) {
	t.Parallel()

	var got error
	r := api.New(api.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(api.ErrorStatus(err))
	}))
	api.Get(r, "/items/{id}", func(_ context.Context, _ *struct {
		ID int `path:"id"`
	}) (*item, error) {
		return nil, nil
	})
	ready(t, r)

	rec := serve(t, r, http.MethodGet, "/items/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Body.String())

	errs, ok := api.IsValidationFailed(got)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "path.id", errs[0].Field)
}
