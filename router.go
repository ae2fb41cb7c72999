package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"
)

// Router is the central type that holds routes, middleware, and configuration.
// It implements http.Handler.
type Router struct {
	registry   *Registry
	middleware []Middleware

	title       string
	version     string
	description string

	servers  []Server
	tagDescs map[string]string

	validator    Validator
	errorHandler ErrorHandler

	encoders []Encoder
	decoders []Decoder
	codecs   *codecRegistry

	tracer          SpanStarter
	redirectSlashes bool

	mu    sync.Mutex
	errs  []error
	ready sync.Once
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTitle sets the API title (used in OpenAPI spec).
func WithTitle(title string) RouterOption {
	return func(r *Router) {
		r.title = title
	}
}

// WithVersion sets the API version (used in OpenAPI spec).
func WithVersion(version string) RouterOption {
	return func(r *Router) {
		r.version = version
	}
}

// WithAPIDescription sets the API description (used in OpenAPI spec).
func WithAPIDescription(desc string) RouterOption {
	return func(r *Router) {
		r.description = desc
	}
}

// WithValidator sets a global request validator.
func WithValidator(v Validator) RouterOption {
	return func(r *Router) {
		r.validator = v
	}
}

// WithServers sets the OpenAPI servers array.
func WithServers(servers ...Server) RouterOption {
	return func(r *Router) {
		r.servers = servers
	}
}

// WithTagDescriptions sets tag descriptions for the OpenAPI spec.
func WithTagDescriptions(descs map[string]string) RouterOption {
	return func(r *Router) {
		r.tagDescs = descs
	}
}

// ErrorHandler is a custom error response writer.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithErrorHandler sets a custom error handler for the router.
func WithErrorHandler(h ErrorHandler) RouterOption {
	return func(r *Router) {
		r.errorHandler = h
	}
}

// WithEncoder registers an additional response encoder.
func WithEncoder(enc Encoder) RouterOption {
	return func(r *Router) {
		r.encoders = append(r.encoders, enc)
	}
}

// WithDecoder registers an additional request body decoder.
func WithDecoder(dec Decoder) RouterOption {
	return func(r *Router) {
		r.decoders = append(r.decoders, dec)
	}
}

// WithRedirectSlashes controls whether a path that only matches with its
// trailing slash toggled is answered with a 307 redirect. Enabled by default.
func WithRedirectSlashes(enabled bool) RouterOption {
	return func(r *Router) {
		r.redirectSlashes = enabled
	}
}

// SpanStarter is a tracing hook interface for creating spans per request.
// See OTelTracer for an OpenTelemetry implementation.
type SpanStarter interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func())
}

// WithTracer sets a tracing hook for the router.
func WithTracer(s SpanStarter) RouterOption {
	return func(r *Router) {
		r.tracer = s
	}
}

// New creates a new Router with the given options.
func New(opts ...RouterOption) *Router {
	r := &Router{
		registry:        NewRegistry(),
		redirectSlashes: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.codecs = newCodecRegistry(r.encoders, r.decoders)
	return r
}

// Use adds middleware to the router. Middleware is applied in the order added.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// Routes returns the registered route templates in registration order.
func (r *Router) Routes() []*RouteTemplate {
	return r.registry.Routes()
}

// Err returns every registration error collected so far, joined.
func (r *Router) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}

// Ready ends the registration phase and reports registration errors.
// Routes registered afterwards are rejected.
func (r *Router) Ready() error {
	r.ready.Do(r.registry.Freeze)
	return r.Err()
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.ready.Do(r.registry.Freeze)

	req = SetValue(req, &requestState{})

	handler := http.Handler(http.HandlerFunc(r.dispatch))
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

// dispatch resolves the route and runs its handler.
func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	m, err := r.registry.Resolve(req.Method, req.URL.Path)
	if err != nil {
		if r.redirectSlashes && r.redirectSlash(w, req, err) {
			return
		}
		writeErrorResponse(w, err)
		return
	}

	if s := stateFrom(req.Context()); s != nil {
		s.route = m.Route
	}
	req = SetValue(req, m)

	if r.tracer != nil {
		ctx, end := r.tracer.StartSpan(req.Context(), m.Route.Method+" "+m.Route.Pattern, map[string]string{
			"http.request.method": req.Method,
			"http.route":          m.Route.Pattern,
			"url.path":            req.URL.Path,
		})
		defer end()
		req = req.WithContext(ctx)
	}

	m.Route.handler.ServeHTTP(w, req)
}

// redirectSlash answers a miss with a redirect when the slash-toggled path
// resolves for the same method.
func (r *Router) redirectSlash(w http.ResponseWriter, req *http.Request, err error) bool {
	var nf *RouteNotFoundError
	if !errors.As(err, &nf) {
		return false
	}
	alt := toggleSlash(req.URL.Path)
	if alt == req.URL.Path {
		return false
	}
	if _, err := r.registry.Resolve(req.Method, alt); err != nil {
		return false
	}

	target := *req.URL
	target.Path = alt
	target.RawPath = ""
	http.Redirect(w, req, target.RequestURI(), http.StatusTemporaryRedirect)
	return true
}

// ListenAndServe starts an HTTP server on the given address.
// It blocks until the context is cancelled, then shuts down gracefully.
// Registration errors are returned before the server starts.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	if err := r.Ready(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// addRoute checks the template against its pattern and stores it in the
// registry. Global middleware is applied in ServeHTTP, not here; only
// group middleware is baked into rt.handler.
func (r *Router) addRoute(rt *RouteTemplate) {
	if !rt.raw {
		segs, err := parsePattern(rt.Pattern)
		if err != nil {
			r.fail(&RouteConfigError{Method: rt.Method, Pattern: rt.Pattern, Err: err})
			return
		}
		names := placeholders(segs)
		for _, p := range rt.Params {
			if p.Source == SourcePath && !slices.Contains(names, p.WireName()) {
				r.fail(&RouteConfigError{
					Method:  rt.Method,
					Pattern: rt.Pattern,
					Field:   p.Name,
					Err:     fmt.Errorf("path parameter %q has no placeholder", p.WireName()),
				})
				return
			}
		}
	}

	if err := r.registry.Register(rt); err != nil {
		r.fail(err)
	}
}

func (r *Router) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}
