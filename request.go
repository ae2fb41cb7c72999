package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"slices"
	"strconv"
)

// payloadError is a body that could be read but not decoded.
type payloadError struct {
	err error
}

func (e *payloadError) Error() string { return e.err.Error() }

// decodeRequest creates a new Req value and populates it from the HTTP
// request. Violations are returned separately from transport errors.
func decodeRequest[Req any](r *http.Request, rt *RouteTemplate, plan *requestPlan, codecs *codecRegistry, values map[string]string) (*Req, []ValidationError, error) {
	req := new(Req)
	if plan.category == catVoid {
		return req, nil, nil
	}

	errs, err := bindRequest(r, reflect.ValueOf(req).Elem(), plan, rt, codecs, values)
	if err != nil {
		return nil, nil, err
	}
	return req, errs, nil
}

// bindRequest binds every parameter spec and body member of plan into
// target and returns all violations found.
func bindRequest(r *http.Request, target reflect.Value, plan *requestPlan, rt *RouteTemplate, codecs *codecRegistry, values map[string]string) ([]ValidationError, error) {
	v := &violations{}

	for i := range plan.params {
		spec := &plan.params[i]
		raws := lookupParam(r, spec, values)
		v.bindParam(spec, target.FieldByIndex(spec.index), raws)
	}

	if len(plan.body) > 0 {
		tree, present, err := readBody(r, codecs)
		var perr *payloadError
		switch {
		case errors.As(err, &perr):
			v.add("body", "json_invalid", "malformed request body: "+perr.Error(), nil)
		case err != nil:
			return nil, err
		default:
			v.bindBody(plan, rt, target, tree, present)
		}
	}

	return v.errs, nil
}

// lookupParam fetches the raw values of a parameter from its source. A nil
// result means the parameter is absent.
func lookupParam(r *http.Request, spec *ParameterSpec, values map[string]string) []string {
	name := spec.WireName()

	switch spec.Source {
	case SourcePath:
		if val, ok := values[name]; ok {
			return []string{val}
		}
	case SourceQuery:
		if vals, ok := r.URL.Query()[name]; ok {
			return vals
		}
	case SourceHeader:
		if vals := r.Header.Values(name); len(vals) > 0 {
			return vals
		}
	case SourceCookie:
		if c, err := r.Cookie(name); err == nil {
			return []string{c.Value}
		}
	case SourceBody:
	}
	return nil
}

// bindParam coerces and validates the raw values of a path, query, header
// or cookie parameter.
func (v *violations) bindParam(spec *ParameterSpec, field reflect.Value, raws []string) {
	loc := spec.location()

	if raws == nil {
		switch {
		case spec.HasDefault:
			// Checked at registration; the default is trusted and not validated.
			_ = setDefault(field, spec.Default)
		case spec.Required:
			v.missing(loc)
		}
		return
	}

	c := &spec.Constraints
	t := field.Type()

	switch {
	case isSetType(t):
		sink := field.Addr().Interface().(setSink)
		for i, raw := range raws {
			elemLoc := loc + "[" + strconv.Itoa(i) + "]"
			elem := reflect.New(sink.elemType()).Elem()
			if err := coerceString(elem, raw); err != nil {
				v.coerce(elemLoc, err, raw)
				continue
			}
			v.checkScalar(elemLoc, elem, c.elementRules())
			sink.addValue(elem)
		}
		v.checkItems(loc, field.Interface().(interface{ Len() int }).Len(), c)

	case t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8:
		s := reflect.MakeSlice(t, 0, len(raws))
		for i, raw := range raws {
			elemLoc := loc + "[" + strconv.Itoa(i) + "]"
			elem := reflect.New(t.Elem()).Elem()
			if err := coerceString(elem, raw); err != nil {
				v.coerce(elemLoc, err, raw)
				continue
			}
			v.checkScalar(elemLoc, elem, c.elementRules())
			s = reflect.Append(s, elem)
		}
		field.Set(s)
		v.checkItems(loc, len(raws), c)

	default:
		raw := raws[0]
		if err := coerceString(field, raw); err != nil {
			v.coerce(loc, err, raw)
			return
		}
		v.checkScalar(loc, field, c)
	}
}

// bindBody binds the decoded payload into the body members of the request.
func (v *violations) bindBody(plan *requestPlan, rt *RouteTemplate, target reflect.Value, tree any, present bool) {
	keyed := rt.KeyedBody()

	if !keyed {
		spec := &plan.body[0]
		dst := memberField(target, spec)
		if !present {
			if spec.Required {
				v.missing("body")
			}
			return
		}
		v.bindTree("body", tree, dst, &spec.Constraints)
		return
	}

	var obj map[string]any
	if present {
		m, ok := tree.(map[string]any)
		if !ok {
			v.add("body", "model_type", "must be an object", nil)
			return
		}
		obj = m
	}

	for i := range plan.body {
		spec := &plan.body[i]
		loc := "body." + spec.Name
		raw, ok := obj[spec.Name]
		if !ok {
			if spec.Required {
				v.missing(loc)
			}
			continue
		}
		v.bindTree(loc, raw, memberField(target, spec), &spec.Constraints)
	}
}

// memberField returns the value a body member binds into. Body-only
// requests bind the whole request value.
func memberField(target reflect.Value, spec *ParameterSpec) reflect.Value {
	if spec.index == nil {
		return target
	}
	return target.FieldByIndex(spec.index)
}

// bindTree binds a decoded payload value into dst, recursing into
// structs, slices, sets and maps. Each element is validated on its own.
func (v *violations) bindTree(loc string, raw any, dst reflect.Value, c *Constraints) {
	t := dst.Type()

	if raw == nil {
		//exhaustive:ignore
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface:
			dst.Set(reflect.Zero(t))
		default:
			v.add(loc, "null", "must not be null", nil)
		}
		return
	}

	if t.Kind() == reflect.Pointer {
		elem := reflect.New(t.Elem())
		v.bindTree(loc, raw, elem.Elem(), c)
		dst.Set(elem)
		return
	}

	if isSetType(t) {
		arr, ok := raw.([]any)
		if !ok {
			v.add(loc, "set_type", "must be an array", raw)
			return
		}
		sink := dst.Addr().Interface().(setSink)
		for i, item := range arr {
			elem := reflect.New(sink.elemType()).Elem()
			n := len(v.errs)
			v.bindTree(loc+"["+strconv.Itoa(i)+"]", item, elem, c.elementRules())
			if len(v.errs) == n {
				sink.addValue(elem)
			}
		}
		v.checkItems(loc, dst.Interface().(interface{ Len() int }).Len(), c)
		return
	}

	if isScalarType(t) {
		if err := coerceTree(dst, raw); err != nil {
			v.coerce(loc, err, raw)
			return
		}
		v.checkScalar(loc, dst, c)
		return
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.Interface:
		dst.Set(reflect.ValueOf(raw))

	case reflect.Struct:
		obj, ok := raw.(map[string]any)
		if !ok {
			v.add(loc, "model_type", "must be an object", raw)
			return
		}
		p, err := planFor(t)
		if err != nil {
			v.add(loc, "type", err.Error(), nil)
			return
		}
		for i := range p.fields {
			fp := &p.fields[i]
			fieldLoc := loc + "." + fp.name
			fv := dst.Field(fp.index)
			item, ok := obj[fp.name]
			if !ok {
				switch {
				case fp.hasDefault:
					_ = setDefault(fv, fp.def)
				case fp.required:
					v.missing(fieldLoc)
				}
				continue
			}
			v.bindTree(fieldLoc, item, fv, &fp.rules)
		}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			s, ok := raw.(string)
			if !ok {
				v.add(loc, "bytes_type", "must be a string", raw)
				return
			}
			dst.SetBytes([]byte(s))
			return
		}
		arr, ok := raw.([]any)
		if !ok {
			v.add(loc, "list_type", "must be an array", raw)
			return
		}
		s := reflect.MakeSlice(t, len(arr), len(arr))
		for i, item := range arr {
			v.bindTree(loc+"["+strconv.Itoa(i)+"]", item, s.Index(i), c.elementRules())
		}
		dst.Set(s)
		v.checkItems(loc, len(arr), c)

	case reflect.Map:
		obj, ok := raw.(map[string]any)
		if !ok {
			v.add(loc, "dict_type", "must be an object", raw)
			return
		}
		m := reflect.MakeMapWithSize(t, len(obj))
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			keyLoc := loc + "." + k
			key := reflect.New(t.Key()).Elem()
			if err := coerceString(key, k); err != nil {
				v.coerce(keyLoc, err, k)
				continue
			}
			val := reflect.New(t.Elem()).Elem()
			v.bindTree(keyLoc, obj[k], val, c.elementRules())
			m.SetMapIndex(key, val)
		}
		dst.Set(m)

	default:
		v.add(loc, "type", fmt.Sprintf("unsupported type %s", t), raw)
	}
}

// readBody decodes the request payload into a generic tree using the
// decoder selected by Content-Type.
func readBody(r *http.Request, codecs *codecRegistry) (any, bool, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, false, Errorf(http.StatusRequestEntityTooLarge, "request body exceeds %d bytes", mbe.Limit)
		}
		return nil, false, fmt.Errorf("%w: %w", ErrBindBody, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}

	dec, ok := codecs.decoderFor(r.Header.Get("Content-Type"))
	if !ok {
		return nil, false, &HTTPError{
			Status:  http.StatusUnsupportedMediaType,
			Message: fmt.Sprintf("%s: %s", ErrUnsupportedType, r.Header.Get("Content-Type")),
		}
	}

	var tree any
	if err := dec.Decode(bytes.NewReader(data), &tree); err != nil {
		return nil, true, &payloadError{err: err}
	}
	return tree, true, nil
}
