package api

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"slices"
)

// Registrar is the interface accepted by the registration functions.
// Both *Router and *Group implement it.
type Registrar interface {
	addRoute(rt *RouteTemplate)
	fail(err error)
	getValidator() Validator
	getErrorHandler() ErrorHandler
	getCodecs() *codecRegistry
	routeMiddleware() []Middleware
}

func (r *Router) getValidator() Validator       { return r.validator }
func (r *Router) getErrorHandler() ErrorHandler { return r.errorHandler }
func (r *Router) getCodecs() *codecRegistry     { return r.codecs }
func (r *Router) routeMiddleware() []Middleware { return nil }

// register is the internal generic registration function.
func register[Req, Resp any](reg Registrar, method, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	rt := &RouteTemplate{
		Method:       method,
		Pattern:      pattern,
		RequestType:  reflect.TypeFor[Req](),
		ResponseType: reflect.TypeFor[Resp](),
	}

	for _, opt := range opts {
		opt(rt)
	}

	// Determine default status: Void response → 204, otherwise 200.
	if rt.Status == 0 {
		if rt.ResponseType == reflect.TypeFor[Void]() {
			rt.Status = http.StatusNoContent
		} else {
			rt.Status = http.StatusOK
		}
	}

	plan, err := analyzeRequest(rt.RequestType)
	if err != nil {
		reg.fail(&RouteConfigError{Method: method, Pattern: pattern, Err: err})
		return
	}
	if rt.ResponseModel != nil {
		if err := compileType(rt.ResponseModel, map[reflect.Type]bool{}); err != nil {
			reg.fail(&RouteConfigError{Method: method, Pattern: pattern, Field: "response model", Err: err})
			return
		}
	}

	rt.Params = plan.params
	rt.Body = plan.body
	if slices.ContainsFunc(plan.body, func(b ParameterSpec) bool { return b.Embed }) {
		rt.Embed = true
	}
	if rt.Embed && plan.category == catBodyOnly {
		reg.fail(&RouteConfigError{Method: method, Pattern: pattern, Err: errors.New("embedding requires a named body member")})
		return
	}

	rt.handler = buildHandler(h, rt, plan, reg.getValidator(), reg.getErrorHandler(), reg.getCodecs())

	// Apply route-level middleware (from Group).
	routeMW := reg.routeMiddleware()
	for i := len(routeMW) - 1; i >= 0; i-- {
		rt.handler = routeMW[i](rt.handler)
	}

	reg.addRoute(rt)
}

// buildHandler wraps a typed Handler into an http.Handler that binds,
// validates, invokes and serializes.
func buildHandler[Req, Resp any](h Handler[Req, Resp], rt *RouteTemplate, plan *requestPlan, validator Validator, errHandler ErrorHandler, codecs *codecRegistry) http.Handler {
	writeErr := func(w http.ResponseWriter, r *http.Request, err error) {
		if errs, ok := IsValidationFailed(err); ok {
			if s := stateFrom(r.Context()); s != nil {
				s.violations += len(errs)
			}
		}
		if errHandler != nil {
			errHandler(w, r, err)
			return
		}
		writeErrorResponse(w, err)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var values map[string]string
		if m, ok := GetValue[*Match](r.Context()); ok && m != nil {
			values = m.Values
		}

		if rt.bodyLimit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, rt.bodyLimit)
		}

		req, verrs, err := decodeRequest[Req](r, rt, plan, codecs, values)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if len(verrs) > 0 {
			writeErr(w, r, ValidationFailed(verrs))
			return
		}

		// Run SelfValidator if implemented.
		if sv, ok := any(req).(SelfValidator); ok {
			if err := sv.Validate(); err != nil {
				writeErr(w, r, asViolation(err))
				return
			}
		}

		// Run global validator if set.
		if validator != nil {
			if err := validator.Validate(req); err != nil {
				writeErr(w, r, asViolation(err))
				return
			}
		}

		resp, err := h(r.Context(), req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && r.Context().Err() != nil {
				err = Error(http.StatusServiceUnavailable, "request timed out")
			}
			writeErr(w, r, err)
			return
		}

		env, err := serialize(r, resp, rt, codecs)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		env.Write(w)
	})
}

// asViolation keeps errors that carry a status and turns any other
// validation error into a single 422 violation.
func asViolation(err error) error {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return err
	}
	return ValidationFailed([]ValidationError{{
		Constraint: "custom",
		Message:    err.Error(),
	}})
}

// Get registers a GET handler.
func Get[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodGet, pattern, h, opts...)
}

// Post registers a POST handler.
func Post[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPost, pattern, h, opts...)
}

// Put registers a PUT handler.
func Put[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPut, pattern, h, opts...)
}

// Patch registers a PATCH handler.
func Patch[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodPatch, pattern, h, opts...)
}

// Delete registers a DELETE handler.
func Delete[Req, Resp any](reg Registrar, pattern string, h Handler[Req, Resp], opts ...RouteOption) {
	register(reg, http.MethodDelete, pattern, h, opts...)
}

// Raw registers a raw http.Handler with manual OperationInfo for the OpenAPI spec.
func Raw(reg Registrar, method, pattern string, h RawHandler, info OperationInfo) {
	rt := &RouteTemplate{
		Method:      method,
		Pattern:     pattern,
		Summary:     info.Summary,
		Description: info.Description,
		Tags:        info.Tags,
		Status:      info.Status,
		handler:     http.HandlerFunc(h),
		raw:         true,
		produces:    info.Produces,
		hidden:      info.Hidden,
	}
	if rt.Status == 0 {
		rt.Status = http.StatusOK
	}

	routeMW := reg.routeMiddleware()
	for i := len(routeMW) - 1; i >= 0; i-- {
		rt.handler = routeMW[i](rt.handler)
	}

	reg.addRoute(rt)
}
