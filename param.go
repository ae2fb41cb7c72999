package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Source is where a parameter value is read from.
type Source string

// Parameter sources.
const (
	SourcePath   Source = "path"
	SourceQuery  Source = "query"
	SourceHeader Source = "header"
	SourceCookie Source = "cookie"
	SourceBody   Source = "body"
)

// paramSources are the struct tags used for binding request parameters.
var paramSources = []Source{SourcePath, SourceQuery, SourceHeader, SourceCookie}

// EnumValuer is implemented by string types with a closed set of values.
// Binding resolves raw input to one of them or reports an enum violation.
type EnumValuer interface {
	EnumValues() []string
}

// Constraints are the per-field validation rules declared in struct tags.
type Constraints struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Gt        *float64 `json:"gt,omitempty"`
	Ge        *float64 `json:"ge,omitempty"`
	Lt        *float64 `json:"lt,omitempty"`
	Le        *float64 `json:"le,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Enum      []string `json:"enum,omitempty"`
	MinItems  *int     `json:"minItems,omitempty"`
	MaxItems  *int     `json:"maxItems,omitempty"`
	Format    string   `json:"format,omitempty"`

	re *regexp.Regexp
	// bound tag text, kept for exact integer comparison
	gtRaw, geRaw, ltRaw, leRaw string
}

// elementRules returns the rules that apply to each element of a collection.
func (c *Constraints) elementRules() *Constraints {
	if c == nil {
		return nil
	}
	el := *c
	el.MinItems, el.MaxItems = nil, nil
	return &el
}

// ParameterSpec describes one bound value of a request type.
type ParameterSpec struct {
	Name        string      `json:"name"`
	Alias       string      `json:"alias,omitempty"`
	Source      Source      `json:"in"`
	Type        string      `json:"type"`
	Required    bool        `json:"required"`
	Default     string      `json:"default,omitempty"`
	HasDefault  bool        `json:"-"`
	Constraints Constraints `json:"constraints"`
	Deprecated  bool        `json:"deprecated,omitempty"`
	Description string      `json:"description,omitempty"`
	Example     string      `json:"example,omitempty"`

	// Embed is set on body members declared with `body:"key,embed"`.
	Embed bool `json:"embed,omitempty"`

	index []int
	typ   reflect.Type
}

// WireName is the external name used for lookup: the alias when one is
// declared, otherwise the name.
func (p *ParameterSpec) WireName() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.Name
}

// GoType returns the Go type the parameter binds into.
func (p *ParameterSpec) GoType() reflect.Type { return p.typ }

func (p *ParameterSpec) location() string {
	return string(p.Source) + "." + p.WireName()
}

// requestCategory describes how a request type should be decoded.
type requestCategory int

const (
	catVoid     requestCategory = iota // Void: no params and no body
	catBodyOnly                        // the whole type is the body payload
	catFields                          // tagged fields: params and/or body members
)

// requestPlan is the registration-time analysis of a request type.
type requestPlan struct {
	category requestCategory
	params   []ParameterSpec
	body     []ParameterSpec
}

// analyzeRequest derives the parameter specs of a request type.
func analyzeRequest(t reflect.Type) (*requestPlan, error) {
	if t == reflect.TypeFor[Void]() {
		return &requestPlan{category: catVoid}, nil
	}

	if t.Kind() != reflect.Struct || (!hasParamTags(t) && !hasBodyMembers(t)) {
		if err := compileType(t, map[reflect.Type]bool{}); err != nil {
			return nil, err
		}
		return &requestPlan{
			category: catBodyOnly,
			body: []ParameterSpec{{
				Name:     "body",
				Source:   SourceBody,
				Type:     semanticType(t),
				Required: true,
				typ:      t,
			}},
		}, nil
	}

	plan := &requestPlan{category: catFields}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		spec, ok, err := fieldSpec(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if !ok {
			continue
		}

		if spec.Source == SourceBody {
			if err := compileType(f.Type, map[reflect.Type]bool{}); err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			plan.body = append(plan.body, spec)
			continue
		}
		plan.params = append(plan.params, spec)
	}

	if err := checkBodyKeys(plan.body); err != nil {
		return nil, err
	}
	return plan, nil
}

// fieldSpec builds the ParameterSpec of a single request struct field.
func fieldSpec(f reflect.StructField) (ParameterSpec, bool, error) {
	var (
		source Source
		name   string
		embed  bool
	)

	for _, s := range paramSources {
		tag := f.Tag.Get(string(s))
		if tag == "" {
			continue
		}
		if source != "" {
			return ParameterSpec{}, false, fmt.Errorf("declares both %s and %s sources", source, s)
		}
		source, name = s, tag
	}

	if tag, ok := f.Tag.Lookup("body"); ok || f.Name == "Body" {
		if source != "" {
			return ParameterSpec{}, false, fmt.Errorf("declares both %s and body sources", source)
		}
		key, opts := tagOptions(tag)
		if key == "" {
			key = "body"
		}
		source, name, embed = SourceBody, key, tagContains(opts, "embed")
	}

	if source == "" {
		return ParameterSpec{}, false, nil
	}

	rules, err := parseConstraints(f)
	if err != nil {
		return ParameterSpec{}, false, err
	}

	spec := ParameterSpec{
		Name:        name,
		Alias:       f.Tag.Get("alias"),
		Source:      source,
		Type:        semanticType(f.Type),
		Constraints: rules,
		Deprecated:  f.Tag.Get("deprecated") == "true",
		Description: f.Tag.Get("doc"),
		Example:     f.Tag.Get("example"),
		Embed:       embed,
		index:       f.Index,
		typ:         f.Type,
	}
	spec.Default, spec.HasDefault = f.Tag.Lookup("default")

	switch source {
	case SourcePath:
		spec.Required = true
		if spec.HasDefault {
			return ParameterSpec{}, false, errors.New("path parameters cannot declare a default")
		}
	case SourceBody:
		spec.Required = f.Type.Kind() != reflect.Pointer && f.Tag.Get("required") != "false"
	default:
		spec.Required = f.Tag.Get("required") == "true"
	}

	if source != SourceBody {
		if err := checkParamType(f.Type); err != nil {
			return ParameterSpec{}, false, err
		}
	}
	if spec.HasDefault {
		if err := checkDefault(f.Type, spec.Default); err != nil {
			return ParameterSpec{}, false, err
		}
	}

	return spec, true, nil
}

// checkBodyKeys rejects two body members sharing a key.
func checkBodyKeys(body []ParameterSpec) error {
	seen := make(map[string]bool, len(body))
	for _, b := range body {
		if seen[b.Name] {
			return fmt.Errorf("body key %q declared twice", b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// checkParamType rejects types that cannot be read from a string.
func checkParamType(t reflect.Type) error {
	if isSetType(t) {
		return checkParamType(setElemType(t))
	}
	elem := t
	if t.Kind() == reflect.Slice {
		elem = t.Elem()
	}
	if !isScalarType(elem) {
		return fmt.Errorf("unsupported parameter type %s", t)
	}
	return nil
}

// checkDefault makes sure a default tag can be coerced into the field type.
func checkDefault(t reflect.Type, def string) error {
	v := reflect.New(t).Elem()
	if err := setDefault(v, def); err != nil {
		return fmt.Errorf("invalid default %q: %w", def, err)
	}
	return nil
}

// parseConstraints reads the constraint tags of a struct field.
func parseConstraints(f reflect.StructField) (Constraints, error) {
	var c Constraints
	var err error

	intTag := func(name string) *int {
		tag := f.Tag.Get(name)
		if tag == "" || err != nil {
			return nil
		}
		n, perr := strconv.Atoi(tag)
		if perr != nil || n < 0 {
			err = fmt.Errorf("invalid %s %q", name, tag)
			return nil
		}
		return &n
	}
	floatTag := func(raw *string, names ...string) *float64 {
		for _, name := range names {
			tag := f.Tag.Get(name)
			if tag == "" || err != nil {
				continue
			}
			n, perr := strconv.ParseFloat(tag, 64)
			if perr != nil {
				err = fmt.Errorf("invalid %s %q", name, tag)
				return nil
			}
			*raw = strings.TrimSpace(tag)
			return &n
		}
		return nil
	}

	c.MinLength = intTag("minLength")
	c.MaxLength = intTag("maxLength")
	c.MinItems = intTag("minItems")
	c.MaxItems = intTag("maxItems")
	c.Gt = floatTag(&c.gtRaw, "gt")
	c.Ge = floatTag(&c.geRaw, "ge", "minimum")
	c.Lt = floatTag(&c.ltRaw, "lt")
	c.Le = floatTag(&c.leRaw, "le", "maximum")
	if err != nil {
		return c, err
	}

	if p := f.Tag.Get("pattern"); p != "" {
		re, rerr := regexp.Compile(p)
		if rerr != nil {
			return c, fmt.Errorf("invalid pattern %q: %w", p, rerr)
		}
		c.Pattern, c.re = p, re
	}
	if e := f.Tag.Get("enum"); e != "" {
		c.Enum = strings.Split(e, ",")
	}
	c.Format = f.Tag.Get("format")

	return c, nil
}

// structPlan caches the binding rules of a body struct type.
type structPlan struct {
	fields []fieldPlan
}

type fieldPlan struct {
	index      int
	name       string
	required   bool
	def        string
	hasDefault bool
	rules      Constraints
}

var plans sync.Map // reflect.Type → *structPlan

// planFor returns the cached plan of a struct type, building it on first use.
func planFor(t reflect.Type) (*structPlan, error) {
	if p, ok := plans.Load(t); ok {
		return p.(*structPlan), nil
	}

	p := &structPlan{}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonFieldName(f)
		if name == "-" {
			continue
		}
		rules, err := parseConstraints(f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
		}
		fp := fieldPlan{
			index:    i,
			name:     name,
			required: f.Tag.Get("required") == "true",
			rules:    rules,
		}
		fp.def, fp.hasDefault = f.Tag.Lookup("default")
		if fp.hasDefault {
			if err := checkDefault(f.Type, fp.def); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
			}
		}
		p.fields = append(p.fields, fp)
	}

	actual, _ := plans.LoadOrStore(t, p)
	return actual.(*structPlan), nil
}

// compileType walks a body type and builds the plan of every struct it
// reaches, so that tag errors surface at registration instead of per request.
func compileType(t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	if isSetType(t) {
		return compileType(setElemType(t), seen)
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return compileType(t.Elem(), seen)
	case reflect.Map:
		if !isScalarType(t.Key()) {
			return fmt.Errorf("unsupported map key type %s", t.Key())
		}
		return compileType(t.Elem(), seen)
	case reflect.Struct:
		if t == reflect.TypeFor[time.Time]() {
			return nil
		}
		p, err := planFor(t)
		if err != nil {
			return err
		}
		for _, fp := range p.fields {
			if err := compileType(t.Field(fp.index).Type, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// semanticType names the kind of value a Go type binds, for documentation.
func semanticType(t reflect.Type) string {
	if isSetType(t) {
		return "set"
	}
	if t.Kind() == reflect.Pointer {
		return semanticType(t.Elem())
	}
	if isEnumType(t) {
		return "enum"
	}
	switch t {
	case reflect.TypeFor[time.Time]():
		return "date-time"
	case reflect.TypeFor[time.Duration]():
		return "duration"
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "any"
	}
}

var enumValuerType = reflect.TypeFor[EnumValuer]()

func isEnumType(t reflect.Type) bool {
	return t.Kind() == reflect.String && t.Implements(enumValuerType)
}

func enumValues(t reflect.Type) []string {
	ev, ok := reflect.Zero(t).Interface().(EnumValuer)
	if !ok {
		return nil
	}
	return ev.EnumValues()
}

// isScalarType reports whether t can be coerced from a single string.
func isScalarType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeFor[time.Time]() || t == reflect.TypeFor[time.Duration]() {
		return true
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
