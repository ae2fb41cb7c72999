// Package tutorial wires the tutorial endpoints: path, query, header and
// cookie parameters, request bodies, nested models and response models.
package tutorial

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/parcelkit/api"
)

// Options wires the router to its collaborators. Zero values disable the
// matching feature.
type Options struct {
	Logger    *slog.Logger
	Sessions  Sessions
	Registry  *prometheus.Registry
	Tracer    api.SpanStarter
	RateLimit api.RateLimitConfig
	BodyLimit int64
	Timeout   time.Duration
	Servers   []api.Server
}

// NewRouter builds the tutorial API. The error reports every route that
// failed to register.
func NewRouter(opts Options) (*api.Router, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	routerOpts := []api.RouterOption{
		api.WithTitle("Parcel Tutorial API"),
		api.WithVersion("1.0.0"),
		api.WithAPIDescription("Request binding, validation and response models by example."),
		api.WithServers(opts.Servers...),
		api.WithTagDescriptions(map[string]string{
			"items":  "Item catalogue",
			"models": "Machine learning models",
			"users":  "User accounts",
			"ops":    "Operational endpoints",
		}),
	}
	if opts.Tracer != nil {
		routerOpts = append(routerOpts, api.WithTracer(opts.Tracer))
	}
	r := api.New(routerOpts...)

	// Global middleware.
	r.Use(api.Recovery())
	r.Use(api.RequestID())
	r.Use(api.Logger(opts.Logger))
	if opts.Registry != nil {
		r.Use(api.Metrics(api.MetricsConfig{Registry: opts.Registry}))
	}
	if opts.RateLimit.Rate > 0 {
		r.Use(api.RateLimit(opts.RateLimit))
	}
	if opts.BodyLimit > 0 {
		r.Use(api.BodyLimit(opts.BodyLimit))
	}
	if opts.Timeout > 0 {
		r.Use(api.Timeout(opts.Timeout))
	}

	// Documentation.
	r.ServeSpec("/openapi.json")
	r.ServeSpecYAML("/openapi.yaml")
	r.ServeDocs("/docs")

	if opts.Registry != nil {
		api.Raw(r, http.MethodGet, "/metrics", api.MetricsHandler(opts.Registry), api.OperationInfo{
			Summary:  "Prometheus metrics",
			Tags:     []string{"ops"},
			Produces: "text/plain",
		})
	}

	h := &health{sessions: opts.Sessions, logger: opts.Logger}
	api.Get(r, "/healthz", h.handle,
		api.WithSummary("Health check"),
		api.WithDescription("Opens and closes a database session."),
		api.WithTags("ops"),
		api.WithErrors(http.StatusServiceUnavailable),
	)

	api.Get(r, "/", handleRoot, api.WithSummary("Root"))
	api.Get(r, "/files/{file_path...}", handleReadFile, api.WithSummary("Read file"))
	api.Get(r, "/models/{model_name}", handleGetModel,
		api.WithSummary("Get model"),
		api.WithTags("models"),
	)

	// Items.
	api.Get(r, "/items/", handleListItems,
		api.WithSummary("List items"),
		api.WithTags("items"),
	)
	api.Get(r, "/manyItems/", handleManyItems,
		api.WithSummary("Echo item queries"),
		api.WithTags("items"),
	)
	api.Get(r, "/items/{item_id}", handleGetItem,
		api.WithSummary("Get item"),
		api.WithTags("items"),
	)
	api.Post(r, "/items/", handleCreateItem,
		api.WithStatus(http.StatusCreated),
		api.WithSummary("Create item"),
		api.WithDescription("Returns the item with price_with_tax when a tax is given."),
		api.WithTags("items"),
	)
	api.Put(r, "/items/{item_id}", handleUpdateItem,
		api.WithSummary("Update item"),
		api.WithTags("items"),
	)
	api.Post(r, "/offers/", handleCreateOffer,
		api.WithSummary("Create offer"),
		api.WithTags("items"),
	)
	api.Post(r, "/images/multiple/", handleCreateImages,
		api.WithSummary("Create images"),
		api.WithTags("items"),
	)
	api.Post(r, "/index-weights/", handleIndexWeights,
		api.WithSummary("Create index weights"),
		api.WithTags("items"),
	)

	// Users.
	api.Get(r, "/users/{user_id}/items/{item_id}", handleGetUserItem,
		api.WithSummary("Get user item"),
		api.WithTags("users", "items"),
	)
	api.Post(r, "/user/", handleCreateUser,
		api.WithResponseModel[UserOut](),
		api.WithSummary("Create user"),
		api.WithTags("users"),
	)

	return r, r.Err()
}
