// Package api is a request-validation-and-dispatch layer for HTTP services.
// Request types are the source of truth: their struct tags declare where
// each value comes from and which constraints it must satisfy, and the
// framework resolves routes, binds and validates parameters, and serializes
// responses from them.
//
// The core handler signature removes http.ResponseWriter and *http.Request:
//
//	type Handler[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)
//
// Routes are registered with package-level generic functions:
//
//	r := api.New(api.WithTitle("Items"), api.WithVersion("1.0.0"))
//	api.Get(r, "/items/{item_id}", readItem)
//	api.Post(r, "/user/", createUser, api.WithResponseModel[UserOut]())
//
// Request types declare one ParameterSpec per tagged field:
//
//	type ReadItemReq struct {
//	    ItemID int     `path:"item_id" ge:"0" le:"1000"`
//	    Query  *string `query:"q" alias:"item-query" minLength:"3"`
//	    Tokens []string `header:"X-Token"`
//	}
//
// Bodies are either the whole payload (a Body field, or a request type
// without parameter tags) or a set of keyed members tagged with `body`.
//
// Binding never stops at the first problem. Every violation in the request
// is collected and returned as a single 422 problem response, and the
// handler is not invoked.
//
// Route paths are matched by a Registry that rejects duplicate
// registrations, prefers literal segments over placeholders, and supports
// greedy "{name...}" placeholders that capture the rest of the path.
package api
