// Command fetchforecast retrieves the stage forecast for a named gauge from
// the National Water Prediction Service and writes it to a static JSON file
// consumed by the dashboard.
//
// Usage:
//
//	go run ./cmd/fetchforecast -gauge BVLN4 -out static/forecast.json
//
// The output is an array of {"t": ISO-8601 timestamp, "ft": number} points
// sorted ascending by time. The command exits non-zero with a message on
// any fetch or response-shape failure; it never writes a partial file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/adapter/nwps"
)

func main() {
	gauge := flag.String("gauge", "BVLN4", "NWPS gauge identifier")
	out := flag.String("out", "static/forecast.json", "output JSON file path")
	timeout := flag.Duration("timeout", 30*time.Second, "fetch timeout")
	flag.Parse()

	if code := run(*gauge, *out, *timeout); code != 0 {
		os.Exit(code)
	}
}

func run(gauge, out string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Quiet logger: this is an offline utility, errors go to stderr below.
	client := nwps.NewClient(timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))

	points, err := client.Forecast(ctx, gauge)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch forecast for %s: %v\n", gauge, err)
		return 1
	}

	data, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode forecast: %v\n", err)
		return 1
	}
	data = append(data, '\n')

	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", out, err)
		return 1
	}

	fmt.Printf("wrote %d forecast points to %s\n", len(points), out)
	return 0
}
