package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SelfValidator is implemented by request types that validate themselves.
type SelfValidator interface {
	Validate() error
}

// Validator validates any request.
type Validator interface {
	Validate(req any) error
}

// PlaygroundValidator is a Validator backed by go-playground/validator. It
// checks `validate:"..."` struct tags and reports failures as a 422 problem
// with one violation per failed field.
type PlaygroundValidator struct {
	v *validator.Validate
}

// NewPlaygroundValidator returns a PlaygroundValidator. Field names in
// violations use the request field's binding name where one is declared.
func NewPlaygroundValidator() *PlaygroundValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldLocation)
	return &PlaygroundValidator{v: v}
}

// Engine exposes the underlying validator for registering custom rules.
func (p *PlaygroundValidator) Engine() *validator.Validate { return p.v }

// Validate implements Validator.
func (p *PlaygroundValidator) Validate(req any) error {
	rv := reflect.ValueOf(req)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := p.v.Struct(rv.Interface())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:      trimRoot(fe.Namespace()),
			Constraint: fe.Tag(),
			Message:    playgroundMessage(fe),
			Value:      fe.Value(),
		})
	}
	return ValidationFailed(out)
}

// fieldLocation names a field the way binding violations do: a source
// prefix for request parameters, the JSON name otherwise.
func fieldLocation(f reflect.StructField) string {
	for _, s := range paramSources {
		if name := f.Tag.Get(string(s)); name != "" {
			if alias := f.Tag.Get("alias"); alias != "" {
				name = alias
			}
			return string(s) + "." + name
		}
	}
	if tag, ok := f.Tag.Lookup("body"); ok || f.Name == "Body" {
		key, _ := tagOptions(tag)
		if key == "" {
			return "body"
		}
		return "body." + key
	}
	name := jsonFieldName(f)
	if name == "-" {
		return ""
	}
	return name
}

// trimRoot drops the struct type name validator puts in front of every
// namespace.
func trimRoot(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

func playgroundMessage(fe validator.FieldError) string {
	if fe.Param() != "" {
		return "failed " + fe.Tag() + "=" + fe.Param()
	}
	return "failed " + fe.Tag()
}
