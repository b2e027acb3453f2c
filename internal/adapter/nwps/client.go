// Package nwps fetches stage forecasts from the National Water Prediction
// Service API for the offline forecast-fetch utility.
package nwps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
)

// Client reads the forecast series for one named gauge.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an NWPS forecast client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.water.noaa.gov/nwps/v1",
		logger:  logger,
	}
}

// forecastExtractors are the known places the forecast array has been
// observed in API responses, tried in order; the first non-empty wins.
// The endpoint has reshuffled its envelope across versions.
var forecastExtractors = []func(forecastResponse) []forecastPoint{
	func(r forecastResponse) []forecastPoint { return r.Data },
	func(r forecastResponse) []forecastPoint { return r.Forecast.Data },
	func(r forecastResponse) []forecastPoint { return r.Stageflow.Forecast.Data },
}

// Forecast fetches and normalizes the stage forecast for gauge, sorted
// ascending by time. It fails when no known response shape yields data.
func (c *Client) Forecast(ctx context.Context, gauge string) ([]domain.Point, error) {
	body, err := c.doGet(ctx, fmt.Sprintf("%s/gauges/%s/stageflow/forecast", c.baseURL, gauge))
	if err != nil {
		return nil, err
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	var raw []forecastPoint
	for _, extract := range forecastExtractors {
		if raw = extract(resp); len(raw) > 0 {
			break
		}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("forecast for gauge %s: no data in any known response shape", gauge)
	}

	points := make([]domain.Point, 0, len(raw))
	for _, rec := range raw {
		if math.IsNaN(rec.Primary) || math.IsInf(rec.Primary, 0) {
			continue
		}
		t, err := time.Parse(time.RFC3339, rec.ValidTime)
		if err != nil {
			continue
		}
		points = append(points, domain.Point{Time: t, Feet: rec.Primary})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

func (c *Client) doGet(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nwps request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StatusError{Feed: "nwps", Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nwps read body: %w", err)
	}
	return body, nil
}

// All envelope variants the extractor list knows about, overlaid in one
// struct so a single decode covers them.

type forecastResponse struct {
	Data     []forecastPoint `json:"data"`
	Forecast struct {
		Data []forecastPoint `json:"data"`
	} `json:"forecast"`
	Stageflow struct {
		Forecast struct {
			Data []forecastPoint `json:"data"`
		} `json:"forecast"`
	} `json:"stageflow"`
}

type forecastPoint struct {
	ValidTime string  `json:"validTime"`
	Primary   float64 `json:"primary"`
}
