// Package coops fetches tide predictions from the NOAA CO-OPS data API.
package coops

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/observability"
)

// predictionWindow is how far ahead of now predictions are requested.
const predictionWindow = 72 * time.Hour

// coopsTimeLayout matches the API's local-time timestamps under
// time_zone=lst_ldt.
const coopsTimeLayout = "2006-01-02 15:04"

// Client reads 6-minute tide predictions for one station. Values arrive in
// MLLW and are shifted into the threshold datum with the configured offset
// before anything downstream sees them.
type Client struct {
	station    string
	offsetFt   float64
	loc        *time.Location
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a CO-OPS predictions client. offsetFt encodes
// NAVD88 − MLLW for the station; see domain.ConvertDatum.
func NewClient(station string, offsetFt float64, loc *time.Location, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		station:  station,
		offsetFt: offsetFt,
		loc:      loc,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter",
		logger:  logger,
		metrics: metrics,
	}
}

// Predictions fetches the prediction series from now to now+72h, converted
// into the threshold datum, oldest first.
func (c *Client) Predictions(ctx context.Context) ([]domain.Point, error) {
	now := domain.Clock().Now().In(c.loc)
	params := url.Values{
		"product":     {"predictions"},
		"application": {"bivalve-flood-dashboard"},
		"station":     {c.station},
		"begin_date":  {now.Format("20060102 15:04")},
		"end_date":    {now.Add(predictionWindow).Format("20060102 15:04")},
		"datum":       {"MLLW"},
		"units":       {"english"},
		"time_zone":   {"lst_ldt"},
		"interval":    {"6"},
		"format":      {"json"},
	}

	start := time.Now()
	body, err := c.doGet(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.FeedDuration.WithLabelValues("coops").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("coops", "error").Inc()
		return nil, err
	}
	c.metrics.FeedRequests.WithLabelValues("coops", "success").Inc()

	var resp predictionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}

	points := make([]domain.Point, 0, len(resp.Predictions))
	for _, rec := range resp.Predictions {
		v, err := strconv.ParseFloat(rec.V, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		t, err := time.ParseInLocation(coopsTimeLayout, rec.T, c.loc)
		if err != nil {
			continue
		}
		points = append(points, domain.Point{Time: t, Feet: domain.ConvertDatum(v, c.offsetFt)})
	}
	return points, nil
}

func (c *Client) doGet(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coops request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StatusError{Feed: "coops", Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coops read body: %w", err)
	}
	return body, nil
}

// CO-OPS predictions response: a flat list of {t, v} records with string
// values.

type predictionsResponse struct {
	Predictions []predictionRecord `json:"predictions"`
}

type predictionRecord struct {
	T string `json:"t"`
	V string `json:"v"`
}
