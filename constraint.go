package api

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// formatValidate checks `format` tags. Validate is safe for concurrent use.
var formatValidate = validator.New()

// violations accumulates every problem found in a request. Binding never
// stops at the first one.
type violations struct {
	errs []ValidationError
}

func (v *violations) add(field, constraint, message string, value any) {
	v.errs = append(v.errs, ValidationError{
		Field:      field,
		Constraint: constraint,
		Message:    message,
		Value:      value,
	})
}

func (v *violations) missing(field string) {
	v.add(field, "missing", "is required", nil)
}

func (v *violations) coerce(field string, err error, value any) {
	if ce, ok := err.(*coerceError); ok {
		v.add(field, ce.constraint, ce.message, value)
		return
	}
	v.add(field, "type", err.Error(), value)
}

// checkScalar applies, in order, length bounds, numeric bounds, pattern,
// enum membership and format to a bound scalar value.
func (v *violations) checkScalar(field string, fv reflect.Value, c *Constraints) {
	if c == nil {
		return
	}
	for fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return
		}
		fv = fv.Elem()
	}

	if fv.Kind() == reflect.String {
		val := fv.String()
		n := utf8.RuneCountInString(val)
		if c.MinLength != nil && n < *c.MinLength {
			v.add(field, "min_length", fmt.Sprintf("must be at least %d characters", *c.MinLength), val)
		}
		if c.MaxLength != nil && n > *c.MaxLength {
			v.add(field, "max_length", fmt.Sprintf("must be at most %d characters", *c.MaxLength), val)
		}
	}

	if isNumericKind(fv.Kind()) {
		if c.Gt != nil {
			if n, ok := compareBound(fv, *c.Gt, c.gtRaw); !ok || n <= 0 {
				v.add(field, "gt", "must be greater than "+formatBound(*c.Gt), fv.Interface())
			}
		}
		if c.Ge != nil {
			if n, ok := compareBound(fv, *c.Ge, c.geRaw); !ok || n < 0 {
				v.add(field, "ge", "must be greater than or equal to "+formatBound(*c.Ge), fv.Interface())
			}
		}
		if c.Lt != nil {
			if n, ok := compareBound(fv, *c.Lt, c.ltRaw); !ok || n >= 0 {
				v.add(field, "lt", "must be less than "+formatBound(*c.Lt), fv.Interface())
			}
		}
		if c.Le != nil {
			if n, ok := compareBound(fv, *c.Le, c.leRaw); !ok || n > 0 {
				v.add(field, "le", "must be less than or equal to "+formatBound(*c.Le), fv.Interface())
			}
		}
	}

	if c.re != nil && fv.Kind() == reflect.String {
		if val := fv.String(); !c.re.MatchString(val) {
			v.add(field, "pattern", "must match pattern "+c.Pattern, val)
		}
	}

	if len(c.Enum) > 0 {
		val := fmt.Sprint(fv.Interface())
		if !slices.Contains(c.Enum, val) {
			v.add(field, "enum", fmt.Sprintf("must be one of [%s]", strings.Join(c.Enum, ", ")), val)
		}
	}

	if c.Format != "" {
		if err := formatValidate.Var(fv.Interface(), c.Format); err != nil {
			v.add(field, "format", "must be a valid "+c.Format, fv.Interface())
		}
	}
}

// checkItems applies minItems and maxItems to a collection of n elements.
func (v *violations) checkItems(field string, n int, c *Constraints) {
	if c == nil {
		return
	}
	if c.MinItems != nil && n < *c.MinItems {
		v.add(field, "min_items", fmt.Sprintf("must have at least %d items", *c.MinItems), n)
	}
	if c.MaxItems != nil && n > *c.MaxItems {
		v.add(field, "max_items", fmt.Sprintf("must have at most %d items", *c.MaxItems), n)
	}
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isNumericKind(k reflect.Kind) bool {
	//exhaustive:ignore
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// compareBound compares fv with a numeric bound and returns -1, 0 or +1.
// Integer values against an integral bound are compared exactly; the rest
// go through float64. ok is false when either side is NaN.
func compareBound(fv reflect.Value, bound float64, raw string) (n int, ok bool) {
	//exhaustive:ignore
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if b, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return cmp.Compare(fv.Int(), b), true
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if b, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return cmp.Compare(fv.Uint(), b), true
		}
		if b, err := strconv.ParseInt(raw, 10, 64); err == nil && b < 0 {
			return 1, true
		}
	}

	num := toFloat64(fv)
	if math.IsNaN(num) || math.IsNaN(bound) {
		return 0, false
	}
	return cmp.Compare(num, bound), true
}

func toFloat64(v reflect.Value) float64 {
	//exhaustive:ignore
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default: // float32, float64
		return v.Float()
	}
}
