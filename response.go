package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"time"
)

// CookieSetter is optionally implemented by response types to set cookies.
type CookieSetter interface {
	Cookies() []*http.Cookie
}

// HeaderSetter is optionally implemented by response types to set response headers.
type HeaderSetter interface {
	SetHeaders(h http.Header)
}

// Envelope is a serialized response: status, headers and encoded body.
type Envelope struct {
	Status int
	Header http.Header
	Body   []byte
}

// Write sends the envelope to w.
func (e *Envelope) Write(w http.ResponseWriter) {
	for k, vals := range e.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(e.Status)
	if len(e.Body) > 0 {
		//nolint:errcheck,gosec // best-effort after WriteHeader
		w.Write(e.Body)
	}
}

// serialize turns a handler result into an Envelope. It honors Void,
// CookieSetter, HeaderSetter and StatusCoder, projects the value onto the
// route's response model and encodes it with the negotiated encoder.
func serialize(r *http.Request, resp any, rt *RouteTemplate, codecs *codecRegistry) (*Envelope, error) {
	env := &Envelope{Status: rt.Status, Header: make(http.Header)}

	rv := reflect.ValueOf(resp)
	if resp == nil || (rv.Kind() == reflect.Pointer && rv.IsNil()) || rt.ResponseType == reflect.TypeFor[Void]() {
		if env.Status == 0 || env.Status == http.StatusOK {
			env.Status = http.StatusNoContent
		}
		return env, nil
	}

	if cs, ok := resp.(CookieSetter); ok {
		for _, c := range cs.Cookies() {
			if v := c.String(); v != "" {
				env.Header.Add("Set-Cookie", v)
			}
		}
	}
	if hs, ok := resp.(HeaderSetter); ok {
		hs.SetHeaders(env.Header)
	}
	if sc, ok := resp.(StatusCoder); ok {
		env.Status = sc.StatusCode()
	}
	if env.Status == 0 {
		env.Status = http.StatusOK
	}

	body := resp
	if rt.ResponseModel != nil {
		body = project(rv, rt.ResponseModel).Interface()
	}

	enc, ok := codecs.negotiate(r.Header.Get("Accept"))
	if !ok {
		enc = codecs.encoders[0]
	}

	data, err := encodeBytes(enc, body)
	if err != nil {
		return nil, err
	}
	env.Header.Set("Content-Type", enc.ContentType())
	env.Body = data
	return env, nil
}

// project copies src into a new value of type dst, matching struct fields
// by JSON name. Fields dst does not declare are dropped, fields src lacks
// stay zero. Nested structs, collections and maps are projected
// recursively.
func project(src reflect.Value, dst reflect.Type) reflect.Value {
	for src.IsValid() && (src.Kind() == reflect.Pointer || src.Kind() == reflect.Interface) {
		if src.IsNil() {
			return reflect.Zero(dst)
		}
		src = src.Elem()
	}
	if !src.IsValid() {
		return reflect.Zero(dst)
	}

	if src.Type() == dst {
		return src
	}

	if dst.Kind() == reflect.Pointer {
		p := reflect.New(dst.Elem())
		p.Elem().Set(project(src, dst.Elem()))
		return p
	}

	if dst.Kind() == reflect.Interface {
		if src.Type().Implements(dst) {
			out := reflect.New(dst).Elem()
			out.Set(src)
			return out
		}
		return reflect.Zero(dst)
	}

	if isSetType(dst) {
		out := reflect.New(dst)
		sink := out.Interface().(setSink)
		items := collectionItems(src)
		for i := range items.Len() {
			sink.addValue(project(items.Index(i), sink.elemType()))
		}
		return out.Elem()
	}

	//exhaustive:ignore
	switch dst.Kind() {
	case reflect.Struct:
		if dst == reflect.TypeFor[time.Time]() {
			return reflect.Zero(dst)
		}
		out := reflect.New(dst).Elem()
		fields := sourceFields(src)
		for i := range dst.NumField() {
			f := dst.Field(i)
			if !f.IsExported() {
				continue
			}
			name := jsonFieldName(f)
			if name == "-" {
				continue
			}
			if sv, ok := fields[name]; ok {
				out.Field(i).Set(project(sv, f.Type))
			}
		}
		return out

	case reflect.Slice:
		items := collectionItems(src)
		if !items.IsValid() {
			return reflect.Zero(dst)
		}
		out := reflect.MakeSlice(dst, items.Len(), items.Len())
		for i := range items.Len() {
			out.Index(i).Set(project(items.Index(i), dst.Elem()))
		}
		return out

	case reflect.Array:
		items := collectionItems(src)
		out := reflect.New(dst).Elem()
		if !items.IsValid() {
			return out
		}
		for i := range min(items.Len(), dst.Len()) {
			out.Index(i).Set(project(items.Index(i), dst.Elem()))
		}
		return out

	case reflect.Map:
		if src.Kind() != reflect.Map || !src.Type().Key().ConvertibleTo(dst.Key()) {
			return reflect.Zero(dst)
		}
		if src.IsNil() {
			return reflect.Zero(dst)
		}
		out := reflect.MakeMapWithSize(dst, src.Len())
		iter := src.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key().Convert(dst.Key()), project(iter.Value(), dst.Elem()))
		}
		return out

	default:
		return convertScalar(src, dst)
	}
}

// sourceFields indexes the fields of a struct (or string-keyed map) by
// JSON name, flattening embedded structs.
func sourceFields(src reflect.Value) map[string]reflect.Value {
	fields := make(map[string]reflect.Value)

	switch src.Kind() {
	case reflect.Map:
		if src.Type().Key().Kind() != reflect.String {
			return fields
		}
		iter := src.MapRange()
		for iter.Next() {
			fields[iter.Key().String()] = iter.Value()
		}
	case reflect.Struct:
		t := src.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if f.Anonymous && f.Tag.Get("json") == "" && f.Type.Kind() == reflect.Struct {
				for k, v := range sourceFields(src.Field(i)) {
					if _, ok := fields[k]; !ok {
						fields[k] = v
					}
				}
				continue
			}
			name := jsonFieldName(f)
			if name != "-" {
				fields[name] = src.Field(i)
			}
		}
	default:
	}
	return fields
}

// collectionItems returns the elements of a slice, array or Set as an
// indexable value, or the zero Value for anything else.
func collectionItems(src reflect.Value) reflect.Value {
	if isSetType(src.Type()) {
		return src.Interface().(setSource).sliceValue()
	}
	//exhaustive:ignore
	switch src.Kind() {
	case reflect.Slice, reflect.Array:
		return src
	default:
		return reflect.Value{}
	}
}

// convertScalar converts between scalar values of compatible kinds:
// strings to strings, numbers to numbers, bools to bools.
func convertScalar(src reflect.Value, dst reflect.Type) reflect.Value {
	sk, dk := src.Kind(), dst.Kind()
	compatible := (sk == reflect.String && dk == reflect.String) ||
		(sk == reflect.Bool && dk == reflect.Bool) ||
		(isNumericKind(sk) && isNumericKind(dk))
	if !compatible || !src.Type().ConvertibleTo(dst) {
		return reflect.Zero(dst)
	}
	return src.Convert(dst)
}

// writeErrorResponse writes an error as an RFC 9457 problem details response.
func writeErrorResponse(w http.ResponseWriter, err error) {
	var mna *MethodNotAllowedError
	if errors.As(err, &mna) {
		w.Header().Set("Allow", mna.AllowHeader())
	}

	problem := problemFor(err)

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(problem)
}

// problemFor converts any error into a ProblemDetail.
func problemFor(err error) *ProblemDetail {
	var pd *ProblemDetail
	if errors.As(err, &pd) {
		return pd
	}

	status := ErrorStatus(err)
	return &ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: err.Error(),
	}
}
