package api

import (
	"context"
	"net/http"
)

type contextKey[T any] struct{}

// SetValue stores a typed value in the request context. For use in middleware.
func SetValue[T any](r *http.Request, val T) *http.Request {
	ctx := context.WithValue(r.Context(), contextKey[T]{}, val)
	return r.WithContext(ctx)
}

// GetValue retrieves a typed value from the request context. For use in handlers.
func GetValue[T any](ctx context.Context) (T, bool) {
	val, ok := ctx.Value(contextKey[T]{}).(T)
	return val, ok
}

// requestState is created once per request by the Router and filled in
// while the request moves through dispatch. Middleware wrapping the router
// reads it after the inner handler returns.
type requestState struct {
	route      *RouteTemplate
	violations int
}

// MatchedRoute returns the route template resolved for the current request.
func MatchedRoute(ctx context.Context) (*RouteTemplate, bool) {
	m, ok := GetValue[*Match](ctx)
	if !ok || m == nil {
		return nil, false
	}
	return m.Route, true
}

// PathValue returns the raw value captured for the named placeholder.
func PathValue(ctx context.Context, name string) string {
	m, ok := GetValue[*Match](ctx)
	if !ok || m == nil {
		return ""
	}
	return m.Values[name]
}

func stateFrom(ctx context.Context) *requestState {
	s, _ := GetValue[*requestState](ctx)
	return s
}
