package api

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// coerceError is a failed conversion of a raw value into the target type.
type coerceError struct {
	constraint string
	message    string
}

func (e *coerceError) Error() string { return e.message }

func newCoerceError(constraint, format string, args ...any) *coerceError {
	return &coerceError{constraint: constraint, message: fmt.Sprintf(format, args...)}
}

// coerceString sets a scalar field from its raw string form. Numeric input
// is parsed strictly: anything that is not a finite number is rejected.
func coerceString(field reflect.Value, value string) error {
	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := coerceString(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	switch field.Type() {
	case reflect.TypeFor[time.Duration]():
		d, err := time.ParseDuration(value)
		if err != nil {
			return newCoerceError("duration_parsing", "must be a valid duration")
		}
		field.Set(reflect.ValueOf(d))
		return nil
	case reflect.TypeFor[time.Time]():
		ts, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return newCoerceError("datetime_parsing", "must be an RFC 3339 date-time")
		}
		field.Set(reflect.ValueOf(ts))
		return nil
	}

	if isEnumType(field.Type()) {
		allowed := enumValues(field.Type())
		if !slices.Contains(allowed, value) {
			return newCoerceError("enum", "must be one of [%s]", strings.Join(allowed, ", "))
		}
		field.SetString(value)
		return nil
	}

	//exhaustive:ignore
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, field.Type().Bits())
		if err != nil {
			return newCoerceError("int_parsing", "must be a valid integer")
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, field.Type().Bits())
		if err != nil {
			return newCoerceError("int_parsing", "must be a valid non-negative integer")
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(strings.TrimSpace(value), field.Type().Bits())
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return newCoerceError("float_parsing", "must be a valid number")
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, ok := parseBool(value)
		if !ok {
			return newCoerceError("bool_parsing", "must be a valid boolean")
		}
		field.SetBool(b)
	default:
		return newCoerceError("type", "unsupported type %s", field.Type())
	}
	return nil
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, true
	case "0", "f", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// coerceTree sets a scalar field from a decoded payload value. Strings
// holding numbers are accepted for numeric fields; numbers are not accepted
// for string fields.
func coerceTree(field reflect.Value, raw any) error {
	t := field.Type()
	if t == reflect.TypeFor[time.Duration]() || t == reflect.TypeFor[time.Time]() || isEnumType(t) {
		s, ok := raw.(string)
		if !ok {
			return newCoerceError("string_type", "must be a string")
		}
		return coerceString(field, s)
	}

	//exhaustive:ignore
	switch field.Kind() {
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return newCoerceError("string_type", "must be a string")
		}
		field.SetString(s)
		return nil
	case reflect.Bool:
		switch v := raw.(type) {
		case bool:
			field.SetBool(v)
			return nil
		case string:
			return coerceString(field, v)
		default:
			return newCoerceError("bool_type", "must be a boolean")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s, ok := numberText(raw)
		if !ok {
			return newCoerceError("int_type", "must be an integer")
		}
		// Accept integral floats such as 5.0.
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && strings.ContainsAny(s, ".eE") {
			s = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return coerceString(field, s)
	case reflect.Float32, reflect.Float64:
		s, ok := numberText(raw)
		if !ok {
			return newCoerceError("float_type", "must be a number")
		}
		return coerceString(field, s)
	default:
		return newCoerceError("type", "unsupported type %s", field.Type())
	}
}

// numberText renders a decoded number (or numeric string) as text.
func numberText(raw any) (string, bool) {
	switch v := raw.(type) {
	case json.Number:
		return v.String(), true
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	default:
		return "", false
	}
}

// setDefault assigns a default tag value. Collections take a
// comma-separated list.
func setDefault(field reflect.Value, def string) error {
	t := field.Type()

	if isSetType(t) {
		sink := field.Addr().Interface().(setSink)
		for _, part := range splitDefault(def) {
			elem := reflect.New(sink.elemType()).Elem()
			if err := coerceString(elem, part); err != nil {
				return err
			}
			sink.addValue(elem)
		}
		return nil
	}

	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		parts := splitDefault(def)
		s := reflect.MakeSlice(t, len(parts), len(parts))
		for i, part := range parts {
			if err := coerceString(s.Index(i), part); err != nil {
				return err
			}
		}
		field.Set(s)
		return nil
	}

	if !isScalarType(t) {
		return fmt.Errorf("default not supported for %s", t)
	}
	return coerceString(field, def)
}

func splitDefault(def string) []string {
	if def == "" {
		return nil
	}
	return strings.Split(def, ",")
}
