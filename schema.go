package api

import (
	"reflect"
	"time"
)

// JSONSchema represents a JSON Schema object (subset for OpenAPI 3.1).
type JSONSchema struct {
	Type        string                `json:"type,omitempty"`
	Format      string                `json:"format,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty"`
	Required    []string              `json:"required,omitempty"`
	Description string                `json:"description,omitempty"`
	Enum        []string              `json:"enum,omitempty"`
	Ref         string                `json:"$ref,omitempty"`
	Default     string                `json:"default,omitempty"`
	Examples    []string              `json:"examples,omitempty"`
	Deprecated  bool                  `json:"deprecated,omitempty"`

	MinLength        *int     `json:"minLength,omitempty"`
	MaxLength        *int     `json:"maxLength,omitempty"`
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	Pattern          string   `json:"pattern,omitempty"`
	MinItems         *int     `json:"minItems,omitempty"`
	MaxItems         *int     `json:"maxItems,omitempty"`
	UniqueItems      bool     `json:"uniqueItems,omitempty"`

	// AdditionalProperties can be true (any) or a schema.
	AdditionalProperties *JSONSchema `json:"additionalProperties,omitempty"`
}

// schemaGen converts Go types to schemas. Named struct types are emitted
// once under components and referenced by $ref, which also terminates
// recursive types.
type schemaGen struct {
	components map[string]JSONSchema
}

func newSchemaGen() *schemaGen {
	return &schemaGen{components: make(map[string]JSONSchema)}
}

// typeToSchema converts a reflect.Type to a JSONSchema.
func (g *schemaGen) typeToSchema(t reflect.Type) JSONSchema {
	// Unwrap pointer.
	if t.Kind() == reflect.Pointer {
		return g.typeToSchema(t.Elem())
	}

	if isSetType(t) {
		items := g.typeToSchema(setElemType(t))
		return JSONSchema{Type: "array", Items: &items, UniqueItems: true}
	}
	if isEnumType(t) {
		return JSONSchema{Type: "string", Enum: enumValues(t)}
	}

	// Handle well-known types.
	switch t {
	case reflect.TypeFor[time.Time]():
		return JSONSchema{Type: "string", Format: "date-time"}
	case reflect.TypeFor[time.Duration]():
		return JSONSchema{Type: "string", Format: "duration"}
	case reflect.TypeFor[Void]():
		return JSONSchema{}
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		return JSONSchema{Type: "string"}
	case reflect.Bool:
		return JSONSchema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return JSONSchema{Type: "integer"}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return JSONSchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return JSONSchema{Type: "number"}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return JSONSchema{Type: "string", Format: "byte"}
		}
		items := g.typeToSchema(t.Elem())
		return JSONSchema{Type: "array", Items: &items}
	case reflect.Array:
		items := g.typeToSchema(t.Elem())
		return JSONSchema{Type: "array", Items: &items}
	case reflect.Map:
		// Non-string keys are written as their text form.
		valSchema := g.typeToSchema(t.Elem())
		return JSONSchema{Type: "object", AdditionalProperties: &valSchema}
	case reflect.Struct:
		if t.Name() == "" {
			return g.structToSchema(t)
		}
		name := t.Name()
		if _, ok := g.components[name]; !ok {
			g.components[name] = JSONSchema{} // placeholder for recursion
			g.components[name] = g.structToSchema(t)
		}
		return JSONSchema{Ref: "#/components/schemas/" + name}
	default:
		return JSONSchema{}
	}
}

// structToSchema converts a struct type to a JSONSchema with properties,
// carrying over the constraint tags the binder enforces.
func (g *schemaGen) structToSchema(t reflect.Type) JSONSchema {
	schema := JSONSchema{
		Type:       "object",
		Properties: make(map[string]JSONSchema),
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		// Skip param/binding fields; they're not part of the body schema.
		if isParamField(f) {
			continue
		}

		name := jsonFieldName(f)
		if name == "-" {
			continue
		}

		prop := g.typeToSchema(f.Type)
		if rules, err := parseConstraints(f); err == nil {
			prop = withConstraints(prop, &rules)
		}
		prop = withDocs(prop, f)

		schema.Properties[name] = prop

		if f.Tag.Get("required") == "true" {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// withConstraints adds validation keywords to a schema. Collection
// schemas take the item-count rules and pass the rest to their items.
func withConstraints(s JSONSchema, c *Constraints) JSONSchema {
	if s.Ref != "" {
		return s
	}
	if s.Type == "array" && s.Items != nil {
		s.MinItems, s.MaxItems = c.MinItems, c.MaxItems
		items := withConstraints(*s.Items, c.elementRules())
		s.Items = &items
		return s
	}

	s.MinLength, s.MaxLength = c.MinLength, c.MaxLength
	s.ExclusiveMinimum, s.ExclusiveMaximum = c.Gt, c.Lt
	s.Minimum, s.Maximum = c.Ge, c.Le
	s.Pattern = c.Pattern
	if len(c.Enum) > 0 {
		s.Enum = c.Enum
	}
	if c.Format != "" && s.Format == "" {
		s.Format = c.Format
	}
	return s
}

// withDocs adds doc, example, default and deprecated tags to a schema.
func withDocs(s JSONSchema, f reflect.StructField) JSONSchema {
	if doc := f.Tag.Get("doc"); doc != "" && s.Ref == "" {
		s.Description = doc
	}
	if ex := f.Tag.Get("example"); ex != "" {
		s.Examples = []string{ex}
	}
	if def, ok := f.Tag.Lookup("default"); ok {
		s.Default = def
	}
	s.Deprecated = f.Tag.Get("deprecated") == "true"
	return s
}
