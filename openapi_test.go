package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelkit/api"
)

type listReq struct {
	Skip  int      `query:"skip" ge:"0" default:"0"`
	Q     *string  `query:"q" alias:"item-query" minLength:"3" deprecated:"true" doc:"Search text" example:"foo"`
	Token []string `header:"X-Token" required:"true"`
}

type updateReq struct {
	ID         int   `path:"id" gt:"0"`
	Item       item  `body:"item"`
	User       *user `body:"user"`
	Importance int   `body:"importance" gt:"0"`
}

func specRouter(t *testing.T) *api.Router {
	t.Helper()

	r := api.New(
		api.WithTitle("Shop"),
		api.WithVersion("1.2.3"),
		api.WithAPIDescription("Things for sale."),
		api.WithServers(api.Server{URL: "https://shop.example.com"}),
		api.WithTagDescriptions(map[string]string{"items": "Item operations"}),
	)
	api.Get(r, "/items/", func(_ context.Context, _ *listReq) (*[]item, error) {
		return &[]item{}, nil
	}, api.WithTags("items"), api.WithSummary("List items"))
	api.Post(r, "/items/", echo[item], api.WithTags("items"), api.WithStatus(http.StatusCreated), api.WithErrors(http.StatusConflict))
	api.Put(r, "/items/{id}", func(_ context.Context, _ *updateReq) (*item, error) {
		return &item{}, nil
	}, api.WithTags("admin"), api.WithOperationID("updateItem"))
	api.Get(r, "/files/{path...}", func(_ context.Context, _ *struct {
		Path string `path:"path"`
	}) (*idResp, error) {
		return &idResp{}, nil
	})
	api.Delete(r, "/items/{id}", func(_ context.Context, _ *struct {
		ID int `path:"id"`
	}) (*api.Void, error) {
		return nil, nil
	})
	r.ServeSpec("/openapi.json")
	r.ServeSpecYAML("/openapi.yaml")
	r.ServeDocs("/docs")
	return ready(t, r)
}

func TestSpec_document(t *testing.T) {
	t.Parallel()

	spec := specRouter(t).Spec()

	assert.Equal(t, "3.1.0", spec.OpenAPI)
	assert.Equal(t, api.OpenAPIInfo{Title: "Shop", Version: "1.2.3", Description: "Things for sale."}, spec.Info)
	assert.Equal(t, []api.Server{{URL: "https://shop.example.com"}}, spec.Servers)
	assert.Equal(t, []api.Tag{{Name: "admin"}, {Name: "items", Description: "Item operations"}}, spec.Tags)

	paths := make([]string, 0, len(spec.Paths))
	for p := range spec.Paths {
		paths = append(paths, p)
	}
	assert.ElementsMatch(t, []string{"/items/", "/items/{id}", "/files/{path}"}, paths)
	assert.Contains(t, spec.Components.Schemas, "item")
	assert.Contains(t, spec.Components.Schemas, "ProblemDetail")
}

func TestSpec_parameters(t *testing.T) {
	t.Parallel()

	op := specRouter(t).Spec().Paths["/items/"]["get"]
	assert.Equal(t, "List items", op.Summary)
	require.Len(t, op.Parameters, 3)

	skip := op.Parameters[0]
	assert.Equal(t, "skip", skip.Name)
	assert.Equal(t, "query", skip.In)
	assert.False(t, skip.Required)
	assert.Equal(t, "integer", skip.Schema.Type)
	assert.Equal(t, "0", skip.Schema.Default)
	require.NotNil(t, skip.Schema.Minimum)
	assert.InDelta(t, 0.0, *skip.Schema.Minimum, 0)

	q := op.Parameters[1]
	assert.Equal(t, "item-query", q.Name)
	assert.True(t, q.Deprecated)
	assert.Equal(t, "Search text", q.Description)
	assert.Equal(t, "foo", q.Example)
	require.NotNil(t, q.Schema.MinLength)
	assert.Equal(t, 3, *q.Schema.MinLength)

	token := op.Parameters[2]
	assert.Equal(t, "X-Token", token.Name)
	assert.Equal(t, "header", token.In)
	assert.True(t, token.Required)
	assert.Equal(t, "array", token.Schema.Type)

	assert.Contains(t, op.Responses, "200")
	assert.Contains(t, op.Responses, "422")
}

func TestSpec_request_bodies(t *testing.T) {
	t.Parallel()

	spec := specRouter(t).Spec()

	create := spec.Paths["/items/"]["post"]
	require.NotNil(t, create.RequestBody)
	assert.True(t, create.RequestBody.Required)
	assert.Equal(t, "#/components/schemas/item", create.RequestBody.Content["application/json"].Schema.Ref)
	assert.Contains(t, create.RequestBody.Content, "application/yaml")
	assert.Contains(t, create.Responses, "201")
	assert.Contains(t, create.Responses, "409")
	assert.Contains(t, create.Responses["409"].Content, "application/problem+json")

	update := spec.Paths["/items/{id}"]["put"]
	assert.Equal(t, "updateItem", update.OperationID)
	schema := update.RequestBody.Content["application/json"].Schema
	assert.Equal(t, "object", schema.Type)
	assert.ElementsMatch(t, []string{"item", "user", "importance"}, keys(schema.Properties))
	assert.Equal(t, []string{"item", "importance"}, schema.Required)
	require.NotNil(t, schema.Properties["importance"].ExclusiveMinimum)

	del := spec.Paths["/items/{id}"]["delete"]
	assert.Nil(t, del.RequestBody)
	assert.Equal(t, "No content", del.Responses["204"].Description)
}

func TestSpec_component_schema(t *testing.T) {
	t.Parallel()

	s := specRouter(t).Spec().Components.Schemas["item"]
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"name", "price"}, s.Required)
	require.NotNil(t, s.Properties["price"].ExclusiveMinimum)
	assert.Equal(t, "array", s.Properties["tags"].Type)
	assert.Empty(t, s.Properties["tags"].Default)
}

func TestSpec_serve(t *testing.T) {
	t.Parallel()

	r := specRouter(t)

	rec := serve(t, r, http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.1.0", doc["openapi"])
	assert.NotContains(t, doc["paths"], "/openapi.json")
	assert.NotContains(t, doc["paths"], "/docs")

	rec = serve(t, r, http.MethodGet, "/openapi.yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "openapi: 3.1.0\n"), rec.Body.String())
}

func TestSpec_write(t *testing.T) {
	t.Parallel()

	r := specRouter(t)

	var jsonOut, yamlOut bytes.Buffer
	require.NoError(t, r.WriteSpec(&jsonOut))
	require.NoError(t, r.WriteSpecYAML(&yamlOut))

	assert.Contains(t, jsonOut.String(), `"title": "Shop"`)
	assert.Contains(t, yamlOut.String(), "title: Shop")
	assert.Contains(t, yamlOut.String(), "/files/{path}:")
}

func TestDocs(t *testing.T) {
	t.Parallel()

	r := api.New(api.WithTitle("Shop"))
	r.ServeDocs("/docs")
	r.ServeDocs("/docs/alt", api.WithDocsTitle("Alt <Docs>"), api.WithDocsSpecURL("/v2/openapi.json"))
	ready(t, r)

	rec := serve(t, r, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>Shop</title>")
	assert.Contains(t, rec.Body.String(), `apiDescriptionUrl="/openapi.json"`)

	rec = serve(t, r, http.MethodGet, "/docs/alt", "")
	assert.Contains(t, rec.Body.String(), "<title>Alt &lt;Docs&gt;</title>")
	assert.Contains(t, rec.Body.String(), `apiDescriptionUrl="/v2/openapi.json"`)

	assert.Empty(t, r.Spec().Paths)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
