package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/parcelkit/api"
)

// Routes lists the registered routes.
type Routes struct{}

// Run the routes command.
func (c *Routes) Run(app *appContext) error {
	r, err := newRouter(app, nil, nil)
	if err != nil {
		return err
	}

	header := []string{"Method", "Pattern", "Status", "Parameters", "Body", "Summary"}
	data := make([][]string, 0, len(r.Routes()))
	for _, rt := range r.Routes() {
		data = append(data, routeRow(rt))
	}

	if err := renderTable(header, data, app.stdout); err != nil {
		return fmt.Errorf("failed rendering table: %w", err)
	}
	return nil
}

func routeRow(rt *api.RouteTemplate) []string {
	params := make([]string, 0, len(rt.Params))
	for _, p := range rt.Params {
		name := string(p.Source) + "." + p.WireName()
		if p.Required {
			name += "*"
		}
		params = append(params, name)
	}

	body := make([]string, 0, len(rt.Body))
	for _, b := range rt.Body {
		if rt.KeyedBody() {
			body = append(body, b.Name+":"+b.Type)
		} else {
			body = append(body, b.Type)
		}
	}

	return []string{
		rt.Method,
		rt.Pattern,
		strconv.Itoa(rt.Status),
		strings.Join(params, " "),
		strings.Join(body, " "),
		rt.Summary,
	}
}

func renderTable(header []string, data [][]string, w io.Writer) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(
			tw.Rendition{
				Borders: tw.BorderNone,
				Symbols: tw.NewSymbols(tw.StyleASCII),
				Settings: tw.Settings{
					Lines: tw.Lines{
						ShowHeaderLine: tw.Off,
						ShowFooterLine: tw.Off,
						ShowTop:        tw.Off,
						ShowBottom:     tw.Off,
					},
					Separators: tw.Separators{
						ShowHeader:     tw.Off,
						ShowFooter:     tw.Off,
						BetweenRows:    tw.Off,
						BetweenColumns: tw.Off,
					},
				},
			},
		)),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Formatting:   tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:    tw.CellAlignment{Global: tw.AlignLeft},
				ColMaxWidths: tw.CellWidth{Global: 60},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(data); err != nil {
		return err //nolint:wrapcheck // This is wrapped by the caller.
	}
	return table.Render() //nolint:wrapcheck // This is wrapped by the caller.
}
