package api

import (
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// OpenAPISpec is the top-level OpenAPI 3.1 document.
type OpenAPISpec struct {
	OpenAPI    string              `json:"openapi"`
	Info       OpenAPIInfo         `json:"info"`
	Servers    []Server            `json:"servers,omitempty"`
	Tags       []Tag               `json:"tags,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components *Components         `json:"components,omitempty"`
}

// OpenAPIInfo holds API metadata.
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Server is an OpenAPI server entry.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Tag is an OpenAPI tag with its description.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Components holds the reusable schemas referenced from operations.
type Components struct {
	Schemas map[string]JSONSchema `json:"schemas,omitempty"`
}

// PathItem maps HTTP methods to operations.
type PathItem map[string]Operation

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	OperationID string        `json:"operationId,omitempty"`
	Parameters  []Parameter   `json:"parameters,omitempty"`
	RequestBody *RequestBody  `json:"requestBody,omitempty"`
	Responses   OperationResp `json:"responses"`
	Deprecated  bool          `json:"deprecated,omitempty"`
}

// Parameter describes a single operation parameter.
type Parameter struct {
	Name        string     `json:"name"`
	In          string     `json:"in"`
	Description string     `json:"description,omitempty"`
	Required    bool       `json:"required,omitempty"`
	Deprecated  bool       `json:"deprecated,omitempty"`
	Example     string     `json:"example,omitempty"`
	Schema      JSONSchema `json:"schema"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Required bool                `json:"required"`
	Content  map[string]MediaObj `json:"content"`
}

// MediaObj is a media type object with an optional schema.
type MediaObj struct {
	Schema *JSONSchema `json:"schema,omitempty"`
}

// OperationResp maps HTTP status codes to response objects.
type OperationResp map[string]ResponseObj

// ResponseObj describes a single response.
type ResponseObj struct {
	Description string              `json:"description"`
	Content     map[string]MediaObj `json:"content,omitempty"`
}

// Spec generates the full OpenAPI 3.1 specification from registered routes.
func (r *Router) Spec() OpenAPISpec {
	spec := OpenAPISpec{
		OpenAPI: "3.1.0",
		Info: OpenAPIInfo{
			Title:       r.title,
			Version:     r.version,
			Description: r.description,
		},
		Servers: r.servers,
		Paths:   make(map[string]PathItem),
	}

	gen := newSchemaGen()
	tags := make(map[string]bool)

	for _, rt := range r.registry.Routes() {
		if rt.hidden {
			continue
		}
		path := toOpenAPIPath(rt.Pattern)
		method := strings.ToLower(rt.Method)

		if spec.Paths[path] == nil {
			spec.Paths[path] = make(PathItem)
		}
		spec.Paths[path][method] = buildOperation(gen, rt, r.codecs.contentTypes())

		for _, t := range rt.Tags {
			tags[t] = true
		}
	}

	names := make([]string, 0, len(tags))
	for t := range tags {
		names = append(names, t)
	}
	slices.Sort(names)
	for _, name := range names {
		spec.Tags = append(spec.Tags, Tag{Name: name, Description: r.tagDescs[name]})
	}

	if len(gen.components) > 0 {
		spec.Components = &Components{Schemas: gen.components}
	}
	return spec
}

// buildOperation creates an Operation from a route template.
func buildOperation(gen *schemaGen, rt *RouteTemplate, mediaTypes []string) Operation {
	op := Operation{
		Summary:     rt.Summary,
		Description: rt.Description,
		Tags:        rt.Tags,
		OperationID: rt.OperationID,
		Deprecated:  rt.Deprecated,
		Responses:   make(OperationResp),
	}

	if rt.raw {
		ct := rt.produces
		if ct == "" {
			ct = "application/json"
		}
		op.Responses[statusToString(rt.Status)] = ResponseObj{
			Description: "Successful response",
			Content:     map[string]MediaObj{ct: {}},
		}
		return op
	}

	for i := range rt.Params {
		op.Parameters = append(op.Parameters, buildParameter(gen, &rt.Params[i]))
	}
	op.RequestBody = buildRequestBody(gen, rt, mediaTypes)

	status := rt.Status
	respType := rt.ResponseType
	if rt.ResponseModel != nil {
		respType = rt.ResponseModel
	}

	if respType == nil || respType == reflect.TypeFor[Void]() {
		op.Responses[statusToString(status)] = ResponseObj{Description: "No content"}
	} else {
		respSchema := gen.typeToSchema(respType)
		content := make(map[string]MediaObj, len(mediaTypes))
		for _, mt := range mediaTypes {
			content[mt] = MediaObj{Schema: &respSchema}
		}
		op.Responses[statusToString(status)] = ResponseObj{
			Description: "Successful response",
			Content:     content,
		}
	}

	problem := problemContent(gen)
	if len(rt.Params) > 0 || len(rt.Body) > 0 {
		op.Responses[statusToString(http.StatusUnprocessableEntity)] = ResponseObj{
			Description: "Validation Failed",
			Content:     problem,
		}
	}
	for _, code := range rt.Errors {
		op.Responses[statusToString(code)] = ResponseObj{
			Description: http.StatusText(code),
			Content:     problem,
		}
	}

	return op
}

// buildParameter creates an OpenAPI parameter from a parameter spec.
func buildParameter(gen *schemaGen, p *ParameterSpec) Parameter {
	schema := withConstraints(gen.typeToSchema(p.typ), &p.Constraints)
	if p.HasDefault {
		schema.Default = p.Default
	}
	return Parameter{
		Name:        p.WireName(),
		In:          string(p.Source),
		Description: p.Description,
		Required:    p.Required,
		Deprecated:  p.Deprecated,
		Example:     p.Example,
		Schema:      schema,
	}
}

// buildRequestBody describes the payload: the single member's schema, or an
// object keyed by member name in keyed mode.
func buildRequestBody(gen *schemaGen, rt *RouteTemplate, mediaTypes []string) *RequestBody {
	if len(rt.Body) == 0 {
		return nil
	}

	var schema JSONSchema
	required := false

	if rt.KeyedBody() {
		schema = JSONSchema{Type: "object", Properties: make(map[string]JSONSchema)}
		for i := range rt.Body {
			b := &rt.Body[i]
			schema.Properties[b.Name] = withConstraints(gen.typeToSchema(b.typ), &b.Constraints)
			if b.Required {
				schema.Required = append(schema.Required, b.Name)
				required = true
			}
		}
	} else {
		b := &rt.Body[0]
		schema = withConstraints(gen.typeToSchema(b.typ), &b.Constraints)
		required = b.Required
	}

	content := make(map[string]MediaObj, len(mediaTypes))
	for _, mt := range mediaTypes {
		content[mt] = MediaObj{Schema: &schema}
	}
	return &RequestBody{Required: required, Content: content}
}

// problemContent is the response content of an RFC 9457 error.
func problemContent(gen *schemaGen) map[string]MediaObj {
	schema := gen.typeToSchema(reflect.TypeFor[ProblemDetail]())
	return map[string]MediaObj{
		"application/problem+json": {Schema: &schema},
	}
}

// toOpenAPIPath converts a route pattern like "/files/{file_path...}" to an
// OpenAPI path by dropping the greedy suffix.
func toOpenAPIPath(pattern string) string {
	return strings.ReplaceAll(pattern, "...}", "}")
}

// statusToString converts an HTTP status code to its string representation.
func statusToString(code int) string {
	return strconv.Itoa(code)
}
