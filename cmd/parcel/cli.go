package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/parcelkit/api"
	"github.com/parcelkit/api/internal/config"
	"github.com/parcelkit/api/internal/logging"
	"github.com/parcelkit/api/internal/tutorial"
)

// CLI is the command line interface of parcel.
type CLI struct {
	Serve  Serve  `kong:"cmd,help='Start the HTTP server.'"`
	Routes Routes `kong:"cmd,help='List the registered routes.'"`
	Spec   Spec   `kong:"cmd,help='Write the OpenAPI document.'"`

	Log struct {
		Level  string `enum:"debug,info,warn,error" default:"${logLevel}" help:"Logging level."`
		Format string `enum:"text,json" default:"${logFormat}" help:"Log output format."`
	} `embed:"" prefix:"log-"`
}

// appContext is handed to every command's Run method.
type appContext struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	logger *slog.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("parcel"),
		kong.Description("Typed request binding and validation, served over HTTP."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"host":        cfg.Server.Host,
			"port":        strconv.Itoa(cfg.Server.Port),
			"databaseURL": cfg.Database.URL,
			"logLevel":    cfg.Log.Level,
			"logFormat":   cfg.Log.Format,
		},
	)
	if err != nil {
		return fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}

	logger, _, err := logging.New(stderr, cli.Log.Level, cli.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	//nolint:wrapcheck // Command errors are reported as is.
	return kctx.Run(&appContext{
		ctx:    ctx,
		stdout: stdout,
		stderr: stderr,
		cfg:    cfg,
		logger: logger,
	})
}

// newRouter builds the tutorial router from the configuration.
func newRouter(app *appContext, sessions tutorial.Sessions, tracer api.SpanStarter) (*api.Router, error) {
	cfg := app.cfg

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	r, err := tutorial.NewRouter(tutorial.Options{
		Logger:    app.logger,
		Sessions:  sessions,
		Registry:  reg,
		Tracer:    tracer,
		BodyLimit: cfg.Server.BodyLimit,
		Timeout:   cfg.Server.RequestTimeout,
		RateLimit: api.RateLimitConfig{
			Rate:  cfg.RateLimit.Rate,
			Burst: cfg.RateLimit.Burst,
		},
		Servers: []api.Server{{URL: "http://" + cfg.Server.Addr()}},
	})
	if err != nil {
		return nil, fmt.Errorf("route registration failed: %w", err)
	}
	return r, nil
}
