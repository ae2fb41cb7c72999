package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for request binding.
var (
	ErrBindBody        = errors.New("bind body")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrRegistryFrozen  = errors.New("route registry is frozen")
)

// StatusCoder is implemented by errors or responses that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// ProblemDetail is an RFC 9457 problem details response.
//
//nolint:errname // RFC 9457 standard name
type ProblemDetail struct {
	Type     string            `json:"type,omitempty"`
	Title    string            `json:"title,omitempty"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// Error returns the detail message (or title if detail is empty).
func (p *ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// StatusCode returns the HTTP status code.
func (p *ProblemDetail) StatusCode() int { return p.Status }

// ValidationError describes a single violation found while binding or
// validating a request. Field is prefixed with the parameter source, for
// example "query.item-query" or "body.items[0].price".
type ValidationError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
	Value      any    `json:"value,omitempty"`
}

// ValidationFailed builds the 422 problem returned when binding or
// validation produced violations. The order of errs is preserved.
func ValidationFailed(errs []ValidationError) *ProblemDetail {
	return &ProblemDetail{
		Type:   "about:blank",
		Title:  "Validation Failed",
		Status: http.StatusUnprocessableEntity,
		Detail: fmt.Sprintf("%d constraint violation(s)", len(errs)),
		Errors: errs,
	}
}

// IsValidationFailed reports whether err is a validation problem and returns
// its violations.
func IsValidationFailed(err error) ([]ValidationError, bool) {
	var pd *ProblemDetail
	if !errors.As(err, &pd) || pd.Status != http.StatusUnprocessableEntity {
		return nil, false
	}
	return pd.Errors, true
}

// HTTPError is an error with an HTTP status code.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Error returns the error message.
func (e *HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int { return e.Status }

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// ErrorStatus extracts the HTTP status code from an error. Returns
// http.StatusInternalServerError if the error does not implement StatusCoder.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// RouteNotFoundError is returned by Resolve when no template matches the path.
type RouteNotFoundError struct {
	Method string
	Path   string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("no route for %s %s", e.Method, e.Path)
}

// StatusCode returns 404.
func (e *RouteNotFoundError) StatusCode() int { return http.StatusNotFound }

// MethodNotAllowedError is returned by Resolve when the path matches but no
// template accepts the method.
type MethodNotAllowedError struct {
	Method  string
	Path    string
	Allowed []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s not allowed for %s (allowed: %s)", e.Method, e.Path, strings.Join(e.Allowed, ", "))
}

// StatusCode returns 405.
func (e *MethodNotAllowedError) StatusCode() int { return http.StatusMethodNotAllowed }

// AllowHeader returns the value for the Allow response header.
func (e *MethodNotAllowedError) AllowHeader() string { return strings.Join(e.Allowed, ", ") }

// DuplicateRouteError is a registration-time error: the (method, pattern)
// pair is already taken. Later registrations never shadow earlier ones.
type DuplicateRouteError struct {
	Method   string
	Pattern  string
	Existing string
}

func (e *DuplicateRouteError) Error() string {
	if e.Existing != "" && e.Existing != e.Pattern {
		return fmt.Sprintf("duplicate route %s %s (conflicts with %s)", e.Method, e.Pattern, e.Existing)
	}
	return fmt.Sprintf("duplicate route %s %s", e.Method, e.Pattern)
}

// RouteConfigError reports a malformed route declaration: a bad pattern or
// an invalid parameter tag on the request type.
type RouteConfigError struct {
	Method  string
	Pattern string
	Field   string
	Err     error
}

func (e *RouteConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("route %s %s: field %s: %v", e.Method, e.Pattern, e.Field, e.Err)
	}
	return fmt.Sprintf("route %s %s: %v", e.Method, e.Pattern, e.Err)
}

func (e *RouteConfigError) Unwrap() error { return e.Err }
