package api

import (
	"net/http"
	"reflect"
)

// RouteTemplate is a registered (method, pattern) binding to a handler,
// together with the parameter metadata derived from its request type.
// It is created during registration and never modified once the registry
// is frozen, so documentation generators can read it freely.
type RouteTemplate struct {
	Method  string
	Pattern string

	// Params are the path, query, header and cookie parameters in field order.
	Params []ParameterSpec
	// Body lists the body members. A single member without Embed is the
	// top-level payload; otherwise the payload is an object keyed by name.
	Body  []ParameterSpec
	Embed bool

	Status      int
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	OperationID string
	Errors      []int

	RequestType  reflect.Type
	ResponseType reflect.Type
	// ResponseModel is the declared output schema. When set, handler
	// results are projected onto it before serialization.
	ResponseModel reflect.Type

	bodyLimit int64
	segments  []segment
	handler   http.Handler
	raw       bool
	produces  string
	hidden    bool
}

// KeyedBody reports whether the request payload is an object keyed by body
// member name rather than the single member itself.
func (rt *RouteTemplate) KeyedBody() bool {
	return rt.Embed || len(rt.Body) > 1
}

// RouteOption configures a route at registration time.
type RouteOption func(*RouteTemplate)

// WithStatus sets the default HTTP status code for the response.
func WithStatus(code int) RouteOption {
	return func(rt *RouteTemplate) {
		rt.Status = code
	}
}

// WithSummary sets the OpenAPI summary for the route.
func WithSummary(s string) RouteOption {
	return func(rt *RouteTemplate) {
		rt.Summary = s
	}
}

// WithDescription sets the OpenAPI description for the route.
func WithDescription(d string) RouteOption {
	return func(rt *RouteTemplate) {
		rt.Description = d
	}
}

// WithTags adds OpenAPI tags to the route.
func WithTags(tags ...string) RouteOption {
	return func(rt *RouteTemplate) {
		rt.Tags = append(rt.Tags, tags...)
	}
}

// WithDeprecated marks the route as deprecated in the OpenAPI spec.
func WithDeprecated() RouteOption {
	return func(rt *RouteTemplate) {
		rt.Deprecated = true
	}
}

// WithErrors declares additional HTTP error status codes for the OpenAPI spec.
func WithErrors(codes ...int) RouteOption {
	return func(rt *RouteTemplate) {
		rt.Errors = append(rt.Errors, codes...)
	}
}

// WithOperationID sets a custom OpenAPI operationId.
func WithOperationID(id string) RouteOption {
	return func(rt *RouteTemplate) {
		rt.OperationID = id
	}
}

// WithBodyLimit sets a per-route maximum request body size in bytes.
// Larger payloads are rejected with 413 before binding.
func WithBodyLimit(maxBytes int64) RouteOption {
	return func(rt *RouteTemplate) {
		rt.bodyLimit = maxBytes
	}
}

// WithEmbedBody expects the body wrapped under the member's key even when
// the request declares a single body member:
//
//	{"item": {"name": "Foo", "price": 42}}
func WithEmbedBody() RouteOption {
	return func(rt *RouteTemplate) {
		rt.Embed = true
	}
}

// WithResponseModel declares T as the output schema of the route. Fields of
// the handler result that T does not declare are dropped from the response.
func WithResponseModel[T any]() RouteOption {
	return func(rt *RouteTemplate) {
		rt.ResponseModel = reflect.TypeFor[T]()
	}
}
