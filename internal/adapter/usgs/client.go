// Package usgs fetches gauge observations and daily statistics from the
// USGS water services API.
package usgs

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
	"strings"
	"time"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/observability"
)

// levelKeywords identify a water-level series among the site's time series.
// Matched case-insensitively as substrings of the variable name.
var levelKeywords = []string{"gage height", "water level", "tidal", "elevation"}

// Client reads the USGS instantaneous-values and daily-statistics services.
type Client struct {
	site       string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a USGS client for one monitoring site.
func NewClient(site string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		site: site,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://waterservices.usgs.gov",
		logger:  logger,
		metrics: metrics,
	}
}

// Observations fetches gauge-height readings for the retrieval period
// (an ISO-8601 duration such as "P7D"), oldest first as served.
func (c *Client) Observations(ctx context.Context, period string) ([]domain.Point, error) {
	params := url.Values{
		"format":      {"json"},
		"sites":       {c.site},
		"parameterCd": {"00065"},
		"period":      {period},
	}

	body, err := c.get(ctx, "usgs", "/nwis/iv/?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp ivResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}

	series := selectSeries(resp.Value.TimeSeries)
	if series == nil || len(series.Values) == 0 {
		// Absent or unexpectedly shaped container degrades to empty.
		return nil, nil
	}

	points := make([]domain.Point, 0, len(series.Values[0].Value))
	for _, rec := range series.Values[0].Value {
		v, err := strconv.ParseFloat(rec.Value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		t, err := time.Parse(time.RFC3339, rec.DateTime)
		if err != nil {
			continue
		}
		points = append(points, domain.Point{Time: t, Feet: v})
	}
	return points, nil
}

// DailyStats fetches the raw daily-statistics RDB export for the site. The
// text is handed to domain.ParseDailyStats untouched.
func (c *Client) DailyStats(ctx context.Context) ([]byte, error) {
	params := url.Values{
		"format":         {"rdb"},
		"sites":          {c.site},
		"statReportType": {"daily"},
		"statTypeCd":     {"all"},
		"parameterCd":    {"72279"},
	}
	return c.get(ctx, "usgs_stats", "/nwis/stat/?"+params.Encode())
}

// selectSeries picks the first series whose variable name matches a level
// keyword, falling back to the first series present.
func selectSeries(series []ivSeries) *ivSeries {
	if len(series) == 0 {
		return nil
	}
	for i := range series {
		name := strings.ToLower(series[i].Variable.VariableName)
		for _, kw := range levelKeywords {
			if strings.Contains(name, kw) {
				return &series[i]
			}
		}
	}
	return &series[0]
}

func (c *Client) get(ctx context.Context, feed, path string) ([]byte, error) {
	start := time.Now()
	body, err := c.doGet(ctx, feed, c.baseURL+path)
	c.metrics.FeedDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues(feed, "error").Inc()
		return nil, err
	}
	c.metrics.FeedRequests.WithLabelValues(feed, "success").Inc()
	return body, nil
}

func (c *Client) doGet(ctx context.Context, feed, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", feed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StatusError{Feed: feed, Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", feed, err)
	}
	return body, nil
}

// USGS instantaneous-values response, condensed to the fields used.

type ivResponse struct {
	Value struct {
		TimeSeries []ivSeries `json:"timeSeries"`
	} `json:"value"`
}

type ivSeries struct {
	Variable struct {
		VariableName string `json:"variableName"`
	} `json:"variable"`
	Values []struct {
		Value []ivRecord `json:"value"`
	} `json:"values"`
}

type ivRecord struct {
	Value    string `json:"value"`
	DateTime string `json:"dateTime"`
}
