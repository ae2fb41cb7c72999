package api

import (
	"encoding/json"
	"io"
	"net/http"
)

// ServeSpec registers a GET route at the given pattern that serves the
// OpenAPI document as JSON. The route is left out of the document itself.
func (r *Router) ServeSpec(pattern string) {
	Raw(r, http.MethodGet, pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort after WriteHeader
		r.WriteSpec(w)
	}, OperationInfo{Hidden: true})
}

// ServeSpecYAML registers a GET route at the given pattern that serves the
// OpenAPI document as YAML.
func (r *Router) ServeSpecYAML(pattern string) {
	Raw(r, http.MethodGet, pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		//nolint:errcheck,gosec // best-effort after WriteHeader
		r.WriteSpecYAML(w)
	}, OperationInfo{Hidden: true})
}

// WriteSpec writes the OpenAPI spec as indented JSON to w.
func (r *Router) WriteSpec(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Spec())
}

// WriteSpecYAML writes the OpenAPI spec as YAML to w. It goes through the
// JSON form so both documents carry the same keys.
func (r *Router) WriteSpecYAML(w io.Writer) error {
	return yamlCodec{}.Encode(w, r.Spec())
}
