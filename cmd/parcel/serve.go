package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/parcelkit/api"
	"github.com/parcelkit/api/internal/database"
)

// Serve starts the HTTP server.
type Serve struct {
	Host        string `default:"${host}" help:"Interface to listen on."`
	Port        int    `default:"${port}" help:"Port to listen on."`
	DatabaseURL string `name:"database-url" default:"${databaseURL}" help:"Connection string of the session store (postgres://, mysql://, mariadb://, sqlite:// or file:)."`
}

// Run the serve command.
func (c *Serve) Run(app *appContext) error {
	cfg := app.cfg
	cfg.Server.Host = c.Host
	cfg.Server.Port = c.Port
	cfg.Database.URL = c.DatabaseURL
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := database.Open(database.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		AcquireTimeout:  cfg.Database.AcquireTimeout,
	}, app.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			app.logger.Error("failed closing the database", "err", err)
		}
	}()

	var tracer api.SpanStarter
	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(app.ctx, cfg.Tracing, app.stderr)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(app.ctx), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				app.logger.Error("failed flushing traces", "err", err)
			}
		}()
		tracer = api.OTelTracer(tp)
	}

	r, err := newRouter(app, db, tracer)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(app.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr()
	app.logger.Info("starting server",
		"addr", addr,
		"driver", db.Driver(),
		"docs", "http://"+addr+"/docs",
	)

	if err := r.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server error: %w", err)
	}

	app.logger.Info("server stopped")
	return nil
}
