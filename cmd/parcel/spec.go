package main

import (
	"fmt"
	"io"
	"os"
)

// Spec writes the OpenAPI document.
type Spec struct {
	Format string `enum:"json,yaml" default:"json" help:"Output format (${enum})."`
	Output string `short:"o" type:"path" help:"Write to this file instead of stdout."`
}

// Run the spec command.
func (c *Spec) Run(app *appContext) (err error) {
	r, err := newRouter(app, nil, nil)
	if err != nil {
		return err
	}

	var w io.Writer = app.stdout
	if c.Output != "" {
		f, cerr := os.Create(c.Output) //nolint:gosec // user-provided CLI flag
		if cerr != nil {
			return fmt.Errorf("failed creating output file: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed closing output file: %w", cerr)
			}
		}()
		w = f
	}

	if c.Format == "yaml" {
		return r.WriteSpecYAML(w)
	}
	return r.WriteSpec(w)
}
