package api_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelkit/api"
)

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"plain":       {err: errors.New("x"), want: http.StatusInternalServerError},
		"http error":  {err: api.Error(http.StatusNotFound, "x"), want: http.StatusNotFound},
		"formatted":   {err: api.Errorf(http.StatusBadRequest, "bad %s", "x"), want: http.StatusBadRequest},
		"wrapped":     {err: fmt.Errorf("ctx: %w", api.Error(http.StatusConflict, "x")), want: http.StatusConflict},
		"problem":     {err: &api.ProblemDetail{Status: http.StatusTeapot}, want: http.StatusTeapot},
		"not found":   {err: &api.RouteNotFoundError{}, want: http.StatusNotFound},
		"not allowed": {err: &api.MethodNotAllowedError{}, want: http.StatusMethodNotAllowed},
		"validation":  {err: api.ValidationFailed(nil), want: http.StatusUnprocessableEntity},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, api.ErrorStatus(tc.err))
		})
	}
}

func TestValidationFailed(t *testing.T) {
	t.Parallel()

	errs := []api.ValidationError{
		{Field: "query.q", Constraint: "min_length", Message: "must be at least 3 characters", Value: "fo"},
		{Field: "body.price", Constraint: "missing", Message: "is required"},
	}

	p := api.ValidationFailed(errs)
	assert.Equal(t, http.StatusUnprocessableEntity, p.Status)
	assert.Equal(t, "Validation Failed", p.Title)
	assert.Equal(t, "2 constraint violation(s)", p.Error())
	assert.Equal(t, errs, p.Errors)

	got, ok := api.IsValidationFailed(fmt.Errorf("bind: %w", p))
	require.True(t, ok)
	assert.Equal(t, errs, got)

	_, ok = api.IsValidationFailed(api.Error(http.StatusBadRequest, "x"))
	assert.False(t, ok)

	_, ok = api.IsValidationFailed(&api.ProblemDetail{Status: http.StatusBadRequest})
	assert.False(t, ok)
}

func TestProblemDetail_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "detail", (&api.ProblemDetail{Title: "title", Detail: "detail"}).Error())
	assert.Equal(t, "title", (&api.ProblemDetail{Title: "title"}).Error())
}

func TestRouteErrors_messages(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want string
	}{
		"not found": {
			err:  &api.RouteNotFoundError{Method: "GET", Path: "/x"},
			want: "no route for GET /x",
		},
		"not allowed": {
			err:  &api.MethodNotAllowedError{Method: "DELETE", Path: "/items/", Allowed: []string{"GET", "POST"}},
			want: "method DELETE not allowed for /items/ (allowed: GET, POST)",
		},
		"duplicate": {
			err:  &api.DuplicateRouteError{Method: "GET", Pattern: "/items/", Existing: "/items/"},
			want: "duplicate route GET /items/",
		},
		"duplicate shape": {
			err:  &api.DuplicateRouteError{Method: "GET", Pattern: "/items/{a}", Existing: "/items/{b}"},
			want: "duplicate route GET /items/{a} (conflicts with /items/{b})",
		},
		"config": {
			err:  &api.RouteConfigError{Method: "GET", Pattern: "/x", Err: errors.New("bad")},
			want: "route GET /x: bad",
		},
		"config field": {
			err:  &api.RouteConfigError{Method: "GET", Pattern: "/x", Field: "q", Err: errors.New("bad")},
			want: "route GET /x: field q: bad",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.EqualError(t, tc.err, tc.want)
		})
	}
}

func TestRouteConfigError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := &api.RouteConfigError{Method: "GET", Pattern: "/x", Err: sentinel}
	assert.ErrorIs(t, err, sentinel)
}
