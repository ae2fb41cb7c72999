// Command parcel serves the tutorial API and inspects its routes.
//
// Run:
//
//	go run ./cmd/parcel serve
//
// List the registered routes:
//
//	go run ./cmd/parcel routes
//
// Generate the OpenAPI document:
//
//	go run ./cmd/parcel spec --format yaml -o openapi.yaml
//
// Configuration is read from PARCEL_* environment variables (and a .env
// file); command-line flags take precedence.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "parcel: %v\n", err)
		os.Exit(1)
	}
}
