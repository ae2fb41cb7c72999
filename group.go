package api

import (
	"errors"
	"strings"
)

var errGroupPrefix = errors.New("group prefix must start with / and must not end with /")

// Group registers routes under a shared path prefix. Its tags are put in
// front of each route's own tags and its middleware wraps only the group's
// routes. Groups nest.
type Group struct {
	router     *Router
	prefix     string
	middleware []Middleware
	tags       []string
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithGroupTags adds default tags to all routes registered on the group.
func WithGroupTags(tags ...string) GroupOption {
	return func(g *Group) {
		g.tags = append(g.tags, tags...)
	}
}

// WithGroupMiddleware adds middleware to the group.
func WithGroupMiddleware(mw ...Middleware) GroupOption {
	return func(g *Group) {
		g.middleware = append(g.middleware, mw...)
	}
}

// Group creates a new route group with the given prefix and options.
func (r *Router) Group(prefix string, opts ...GroupOption) *Group {
	return newGroup(r, "", nil, nil, prefix, opts)
}

// Group creates a child group. The child inherits the parent's prefix, tags
// and middleware; the parent's middleware runs first.
func (g *Group) Group(prefix string, opts ...GroupOption) *Group {
	return newGroup(g.router, g.prefix, g.tags, g.middleware, prefix, opts)
}

func newGroup(r *Router, base string, tags []string, mw []Middleware, prefix string, opts []GroupOption) *Group {
	if !strings.HasPrefix(prefix, "/") || strings.HasSuffix(prefix, "/") {
		r.fail(&RouteConfigError{Pattern: base + prefix, Err: errGroupPrefix})
	}
	g := &Group{
		router:     r,
		prefix:     base + prefix,
		tags:       append([]string(nil), tags...),
		middleware: append([]Middleware(nil), mw...),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Group) addRoute(rt *RouteTemplate) {
	rt.Pattern = g.prefix + rt.Pattern
	rt.Tags = append(append([]string(nil), g.tags...), rt.Tags...)
	g.router.addRoute(rt)
}

func (g *Group) fail(err error) { g.router.fail(err) }

func (g *Group) getValidator() Validator { return g.router.validator }

func (g *Group) getErrorHandler() ErrorHandler { return g.router.errorHandler }

func (g *Group) getCodecs() *codecRegistry { return g.router.codecs }

func (g *Group) routeMiddleware() []Middleware { return g.middleware }
