package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segParam               // {name}: one non-empty segment
	segGreedy              // {name...}: the non-empty remainder of the path
)

type segment struct {
	kind  segmentKind
	value string // literal text or placeholder name
}

// Match is the result of resolving a request path.
type Match struct {
	Route  *RouteTemplate
	Values map[string]string
}

// Registry maps (method, path pattern) to route templates. Registration
// happens during startup; after Freeze the registry is read-only and
// Resolve needs no locking.
type Registry struct {
	mu     sync.Mutex
	frozen atomic.Bool
	root   node
	routes []*RouteTemplate
}

type node struct {
	literal map[string]*node
	param   *node
	greedy  *node
	routes  map[string]*RouteTemplate
}

// NewRegistry returns an empty registry in the registration phase.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds rt to the registry. It fails with *DuplicateRouteError when
// a template with the same method and pattern shape already exists.
func (reg *Registry) Register(rt *RouteTemplate) error {
	if reg.frozen.Load() {
		return fmt.Errorf("%w: cannot register %s %s", ErrRegistryFrozen, rt.Method, rt.Pattern)
	}

	segs, err := parsePattern(rt.Pattern)
	if err != nil {
		return &RouteConfigError{Method: rt.Method, Pattern: rt.Pattern, Err: err}
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.frozen.Load() {
		return fmt.Errorf("%w: cannot register %s %s", ErrRegistryFrozen, rt.Method, rt.Pattern)
	}

	n := &reg.root
	for _, s := range segs {
		switch s.kind {
		case segLiteral:
			if n.literal == nil {
				n.literal = make(map[string]*node)
			}
			child, ok := n.literal[s.value]
			if !ok {
				child = &node{}
				n.literal[s.value] = child
			}
			n = child
		case segParam:
			if n.param == nil {
				n.param = &node{}
			}
			n = n.param
		case segGreedy:
			if n.greedy == nil {
				n.greedy = &node{}
			}
			n = n.greedy
		}
	}

	if existing, ok := n.routes[rt.Method]; ok {
		return &DuplicateRouteError{Method: rt.Method, Pattern: rt.Pattern, Existing: existing.Pattern}
	}
	if n.routes == nil {
		n.routes = make(map[string]*RouteTemplate)
	}

	rt.segments = segs
	n.routes[rt.Method] = rt
	reg.routes = append(reg.routes, rt)
	return nil
}

// Freeze ends the registration phase.
func (reg *Registry) Freeze() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.frozen.Store(true)
}

// Frozen reports whether the registry has left the registration phase.
func (reg *Registry) Frozen() bool { return reg.frozen.Load() }

// Routes returns the registered templates in registration order.
func (reg *Registry) Routes() []*RouteTemplate {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return slices.Clone(reg.routes)
}

// Resolve finds the template for method and path and extracts the raw
// placeholder values. Literal segments take precedence over placeholders,
// and placeholders over greedy placeholders; the first template in that
// order that accepts the method wins. HEAD falls back to GET.
func (reg *Registry) Resolve(method, path string) (*Match, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, &RouteNotFoundError{Method: method, Path: path}
	}
	parts := strings.Split(path[1:], "/")

	var candidates []*node
	reg.root.collect(parts, 0, &candidates)
	if len(candidates) == 0 {
		return nil, &RouteNotFoundError{Method: method, Path: path}
	}

	lookup := []string{method}
	if method == http.MethodHead {
		lookup = append(lookup, http.MethodGet)
	}
	for _, m := range lookup {
		for _, n := range candidates {
			if rt, ok := n.routes[m]; ok {
				return &Match{Route: rt, Values: extractValues(rt.segments, parts)}, nil
			}
		}
	}

	var allowed []string
	for _, n := range candidates {
		for m := range n.routes {
			if !slices.Contains(allowed, m) {
				allowed = append(allowed, m)
			}
		}
	}
	if slices.Contains(allowed, http.MethodGet) && !slices.Contains(allowed, http.MethodHead) {
		allowed = append(allowed, http.MethodHead)
	}
	slices.Sort(allowed)
	return nil, &MethodNotAllowedError{Method: method, Path: path, Allowed: allowed}
}

// collect appends every terminal node matching parts[i:] in precedence order.
func (n *node) collect(parts []string, i int, out *[]*node) {
	if i == len(parts) {
		if len(n.routes) > 0 {
			*out = append(*out, n)
		}
		return
	}

	part := parts[i]
	if child, ok := n.literal[part]; ok {
		child.collect(parts, i+1, out)
	}
	if n.param != nil && part != "" {
		n.param.collect(parts, i+1, out)
	}
	if n.greedy != nil && len(n.greedy.routes) > 0 {
		if rest := strings.Join(parts[i:], "/"); rest != "" {
			*out = append(*out, n.greedy)
		}
	}
}

func extractValues(segs []segment, parts []string) map[string]string {
	var values map[string]string
	for i, s := range segs {
		if s.kind == segLiteral {
			continue
		}
		if values == nil {
			values = make(map[string]string)
		}
		if s.kind == segGreedy {
			values[s.value] = strings.Join(parts[i:], "/")
			break
		}
		values[s.value] = parts[i]
	}
	return values
}

// parsePattern splits a pattern such as "/files/{file_path...}" into
// segments. An empty segment is only allowed at the end ("/items/").
func parsePattern(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, errors.New("pattern must start with /")
	}

	parts := strings.Split(pattern[1:], "/")
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for i, part := range parts {
		last := i == len(parts)-1

		if !strings.HasPrefix(part, "{") {
			if strings.ContainsAny(part, "{}") {
				return nil, fmt.Errorf("segment %q: braces must wrap the whole segment", part)
			}
			if part == "" && !last {
				return nil, errors.New("empty path segment")
			}
			segs = append(segs, segment{kind: segLiteral, value: part})
			continue
		}

		if !strings.HasSuffix(part, "}") {
			return nil, fmt.Errorf("segment %q: unterminated placeholder", part)
		}
		name := part[1 : len(part)-1]
		kind := segParam
		if trimmed, ok := strings.CutSuffix(name, "..."); ok {
			if !last {
				return nil, fmt.Errorf("segment %q: greedy placeholder must be last", part)
			}
			name = trimmed
			kind = segGreedy
		}
		if name == "" || strings.ContainsAny(name, "{}/") {
			return nil, fmt.Errorf("segment %q: invalid placeholder name", part)
		}
		if seen[name] {
			return nil, fmt.Errorf("placeholder %q declared twice", name)
		}
		seen[name] = true
		segs = append(segs, segment{kind: kind, value: name})
	}

	return segs, nil
}

// placeholders returns the placeholder names of a parsed pattern.
func placeholders(segs []segment) []string {
	var names []string
	for _, s := range segs {
		if s.kind != segLiteral {
			names = append(names, s.value)
		}
	}
	return names
}

// toggleSlash returns path with its trailing slash added or removed.
func toggleSlash(path string) string {
	if path == "/" {
		return path
	}
	if trimmed, ok := strings.CutSuffix(path, "/"); ok {
		return trimmed
	}
	return path + "/"
}
