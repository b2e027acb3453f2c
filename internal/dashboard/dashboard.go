// Package dashboard assembles the flood-conditions snapshot served to the
// browser: live feeds joined with static datasets, aggregated and
// classified.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/observability"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/staticdata"
)

// nearMatchTolerance is how close a past level must come to the current one
// to count as "the last time it was this high", in feet.
const nearMatchTolerance = 0.1

// GaugeFeed provides observed water levels and the daily-statistics export.
type GaugeFeed interface {
	Observations(ctx context.Context, period string) ([]domain.Point, error)
	DailyStats(ctx context.Context) ([]byte, error)
}

// TideFeed provides datum-converted tide predictions.
type TideFeed interface {
	Predictions(ctx context.Context) ([]domain.Point, error)
}

// AlertFeed provides the active coastal-flood alert, if any.
type AlertFeed interface {
	ActiveAlert(ctx context.Context) (*domain.Alert, error)
}

// EventPublisher archives parsed flood events downstream. Optional.
type EventPublisher interface {
	PublishEvents(ctx context.Context, events []domain.FloodEvent) error
}

// AlertStatus distinguishes "no active alert" from "alert feed unreachable";
// the banner is hidden either way, but the two are not the same condition.
type AlertStatus string

const (
	AlertActive      AlertStatus = "active"
	AlertNone        AlertStatus = "none"
	AlertUnavailable AlertStatus = "unavailable"
)

// Snapshot is one fully assembled view of current conditions. Snapshots are
// never mutated after Build returns; every build allocates fresh.
type Snapshot struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Thresholds  domain.Thresholds `json:"thresholds"`

	Observations []domain.Point `json:"observations"`
	Predictions  []domain.Point `json:"predictions"`

	Latest          *domain.Point   `json:"latest"`
	CurrentCategory domain.Category `json:"current_category"`

	Today       domain.DayRange   `json:"today"`
	PeriodMax   *domain.Point     `json:"period_max"`
	LastSimilar *domain.NearMatch `json:"last_similar"`

	Events             []domain.FloodEvent `json:"events"`
	EventsFromFallback bool                `json:"events_from_fallback"`

	AnnualCounts []staticdata.AnnualCount `json:"annual_counts"`
	TopTen       []staticdata.TopEvent    `json:"top_ten"`

	AlertStatus AlertStatus   `json:"alert_status"`
	Alert       *domain.Alert `json:"alert"`
}

// Builder fans out the feed requests for a snapshot and joins the results.
type Builder struct {
	gauges    GaugeFeed
	tides     TideFeed
	alerts    AlertFeed
	static    *staticdata.Loader
	publisher EventPublisher // nil disables archival

	thresholds domain.Thresholds
	period     string
	loc        *time.Location

	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Builder. publisher may be nil.
func New(gauges GaugeFeed, tides TideFeed, alerts AlertFeed, static *staticdata.Loader, publisher EventPublisher,
	thresholds domain.Thresholds, period string, loc *time.Location,
	logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{
		gauges:     gauges,
		tides:      tides,
		alerts:     alerts,
		static:     static,
		publisher:  publisher,
		thresholds: thresholds,
		period:     period,
		loc:        loc,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once at least one snapshot has been built.
func (b *Builder) CheckReadiness(_ context.Context) error {
	if !b.ready.Load() {
		return errors.New("no snapshot has been built yet")
	}
	return nil
}

// Build assembles a snapshot. All sections are fetched concurrently and the
// call suspends until every one has completed. A failure in any required
// section fails the build with an error naming the section; the alert slot
// is best-effort and the daily-stats export recovers via the static
// fallback list.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	var (
		wg sync.WaitGroup

		observations []domain.Point
		obsErr       error

		predictions []domain.Point
		predErr     error

		alert    *domain.Alert
		alertErr error

		events       []domain.FloodEvent
		fromFallback bool
		eventsErr    error

		annual    []staticdata.AnnualCount
		annualErr error

		topTen    []staticdata.TopEvent
		topTenErr error
	)

	wg.Add(6)
	go func() {
		defer wg.Done()
		observations, obsErr = b.gauges.Observations(ctx, b.period)
	}()
	go func() {
		defer wg.Done()
		predictions, predErr = b.tides.Predictions(ctx)
	}()
	go func() {
		defer wg.Done()
		alert, alertErr = b.alerts.ActiveAlert(ctx)
	}()
	go func() {
		defer wg.Done()
		events, fromFallback, eventsErr = b.loadEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		annual, annualErr = b.static.AnnualCounts()
	}()
	go func() {
		defer wg.Done()
		topTen, topTenErr = b.static.TopTen()
	}()
	wg.Wait()

	sections := []struct {
		name string
		err  error
	}{
		{"observations", obsErr},
		{"predictions", predErr},
		{"events", eventsErr},
		{"annual counts", annualErr},
		{"top ten", topTenErr},
	}
	for _, s := range sections {
		if s.err != nil {
			b.metrics.SnapshotFailures.Inc()
			return nil, fmt.Errorf("%s: %w", s.name, s.err)
		}
	}

	snap := &Snapshot{
		GeneratedAt:        domain.Clock().Now().In(b.loc),
		Thresholds:         b.thresholds,
		Observations:       observations,
		Predictions:        predictions,
		Today:              domain.TodayRange(observations, b.loc),
		Events:             events,
		EventsFromFallback: fromFallback,
		AnnualCounts:       annual,
		TopTen:             topTen,
	}

	if peak, ok := domain.RunningMax(observations); ok {
		snap.PeriodMax = &peak
	}
	if n := len(observations); n > 0 {
		latest := observations[n-1]
		snap.Latest = &latest
		snap.CurrentCategory = b.thresholds.Classify(latest.Feet)
		if m, ok := domain.NearLastMatch(observations, latest.Feet, nearMatchTolerance); ok {
			snap.LastSimilar = &m
		}
	}

	switch {
	case alertErr != nil:
		// Banner is best-effort: log and carry on with it hidden.
		b.logger.Warn("alert feed unavailable", "error", alertErr)
		snap.AlertStatus = AlertUnavailable
	case alert != nil:
		snap.AlertStatus = AlertActive
		snap.Alert = alert
	default:
		snap.AlertStatus = AlertNone
	}
	if snap.AlertStatus == AlertActive {
		b.metrics.AlertActive.Set(1)
	} else {
		b.metrics.AlertActive.Set(0)
	}

	b.metrics.SnapshotBuilds.Inc()
	b.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	b.metrics.EventsParsed.Set(float64(len(events)))
	b.ready.Store(true)

	b.archiveEvents(ctx, snap)
	return snap, nil
}

// loadEvents fetches and parses the daily-statistics export, substituting
// the static fallback list on any fetch or parse failure. A fallback load
// failure propagates: there is nothing left to recover with.
func (b *Builder) loadEvents(ctx context.Context) ([]domain.FloodEvent, bool, error) {
	raw, err := b.gauges.DailyStats(ctx)
	if err == nil {
		var events []domain.FloodEvent
		if events, err = domain.ParseDailyStats(raw, b.thresholds, b.loc); err == nil {
			return events, false, nil
		}
	}

	b.logger.Warn("daily stats unavailable, using fallback events", "error", err)
	b.metrics.StatsFallbacks.Inc()

	events, err := b.static.FallbackEvents()
	if err != nil {
		return nil, true, fmt.Errorf("fallback events: %w", err)
	}
	return events, true, nil
}

// archiveEvents publishes freshly parsed events downstream. Best-effort:
// failures are logged and counted, never surfaced. Fallback events are not
// archived; they came from a static file, not the live export.
func (b *Builder) archiveEvents(ctx context.Context, snap *Snapshot) {
	if b.publisher == nil || snap.EventsFromFallback || len(snap.Events) == 0 {
		return
	}
	if err := b.publisher.PublishEvents(ctx, snap.Events); err != nil {
		b.logger.Warn("publish flood events failed", "error", err, "count", len(snap.Events))
		b.metrics.PublishErrors.Inc()
		return
	}
	b.metrics.EventsPublished.Add(float64(len(snap.Events)))
}
