// Package nws fetches active weather alerts from the National Weather
// Service API.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/observability"
)

// alertKeyword selects the alert types the dashboard cares about.
const alertKeyword = "coastal flood"

// Client queries active alerts for a fixed geographic point.
type Client struct {
	lat, lon   float64
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an NWS alerts client for the site's coordinates.
func NewClient(lat, lon float64, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		lat: lat,
		lon: lon,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.weather.gov",
		logger:  logger,
		metrics: metrics,
	}
}

// ActiveAlert returns the first active coastal-flood alert for the point,
// or nil when none is in effect. The caller decides whether an error means
// anything; for the dashboard banner it never does.
func (c *Client) ActiveAlert(ctx context.Context) (*domain.Alert, error) {
	params := url.Values{
		"point": {fmt.Sprintf("%.4f,%.4f", c.lat, c.lon)},
	}

	start := time.Now()
	body, err := c.doGet(ctx, c.baseURL+"/alerts/active?"+params.Encode())
	c.metrics.FeedDuration.WithLabelValues("nws").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("nws", "error").Inc()
		return nil, err
	}
	c.metrics.FeedRequests.WithLabelValues("nws", "success").Inc()

	var resp alertsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}

	for _, f := range resp.Features {
		if !strings.Contains(strings.ToLower(f.Properties.Event), alertKeyword) {
			continue
		}
		return &domain.Alert{
			Title:    f.Properties.Event,
			Headline: f.Properties.Headline,
			URL:      f.ID,
		}, nil
	}
	return nil, nil
}

func (c *Client) doGet(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// api.weather.gov rejects requests without an identifying user agent.
	req.Header.Set("User-Agent", "bivalve-flood-dashboard (hondrospj@github)")
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nws request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StatusError{Feed: "nws", Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nws read body: %w", err)
	}
	return body, nil
}

// GeoJSON-ish alert feed, condensed to the fields used.

type alertsResponse struct {
	Features []alertFeature `json:"features"`
}

type alertFeature struct {
	ID         string          `json:"id"`
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	Event    string `json:"event"`
	Headline string `json:"headline"`
}
