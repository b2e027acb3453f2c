package dashboard_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/dashboard"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/observability"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/staticdata"
)

// --- fakes ---

type fakeGauges struct {
	points   []domain.Point
	obsErr   error
	stats    []byte
	statsErr error
}

func (f *fakeGauges) Observations(_ context.Context, _ string) ([]domain.Point, error) {
	return f.points, f.obsErr
}

func (f *fakeGauges) DailyStats(_ context.Context) ([]byte, error) {
	return f.stats, f.statsErr
}

type fakeTides struct {
	points []domain.Point
	err    error
}

func (f *fakeTides) Predictions(_ context.Context) ([]domain.Point, error) {
	return f.points, f.err
}

type fakeAlerts struct {
	alert *domain.Alert
	err   error
}

func (f *fakeAlerts) ActiveAlert(_ context.Context) (*domain.Alert, error) {
	return f.alert, f.err
}

type fakePublisher struct {
	published [][]domain.FloodEvent
	err       error
}

func (f *fakePublisher) PublishEvents(_ context.Context, events []domain.FloodEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, events)
	return nil
}

// --- fixtures ---

var testTime = time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

const statsText = "agency_cd\tdatetime\t239251_72279_00021\t239252_72279_00022\n" +
	"USGS\t2024-06-01\t5.50\t3.10\n"

func testThresholds() domain.Thresholds {
	return domain.Thresholds{Minor: 5.0, Moderate: 5.5, Major: 6.5}
}

func testObservations() []domain.Point {
	return []domain.Point{
		{Time: testTime.Add(-3 * time.Hour), Feet: 5.02},
		{Time: testTime.Add(-2 * time.Hour), Feet: 5.61},
		{Time: testTime.Add(-1 * time.Hour), Feet: 4.20},
		{Time: testTime, Feet: 5.58},
	}
}

func testStatic(t *testing.T) *staticdata.Loader {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("annual_counts.json", `[{"year":2024,"minor":31,"moderate":11,"major":2}]`)
	write("top_ten_events.json", `[{"rank":1,"date":"2012-10-29","peak":8.87,"type":"Major"}]`)
	write("fallback_events.json", `[{"datetime":"2024-01-10 12:00","peak":6.08,"type":"Moderate"}]`)
	return staticdata.NewLoader(dir)
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(testTime))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func newBuilder(t *testing.T, gauges *fakeGauges, tides *fakeTides, alerts *fakeAlerts, pub dashboard.EventPublisher) *dashboard.Builder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return dashboard.New(gauges, tides, alerts, testStatic(t), pub,
		testThresholds(), "P7D", time.UTC, logger, observability.NewMetricsForTesting())
}

// --- tests ---

func TestBuilder_Build_HappyPath(t *testing.T) {
	freezeClock(t)

	gauges := &fakeGauges{points: testObservations(), stats: []byte(statsText)}
	tides := &fakeTides{points: []domain.Point{{Time: testTime.Add(time.Hour), Feet: 2.4}}}
	pub := &fakePublisher{}
	b := newBuilder(t, gauges, tides, &fakeAlerts{}, pub)

	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	require.NotNil(t, snap.Latest)
	assert.InDelta(t, 5.58, snap.Latest.Feet, 1e-9)
	assert.Equal(t, domain.Moderate, snap.CurrentCategory)

	require.NotNil(t, snap.Today.Min)
	require.NotNil(t, snap.Today.Max)
	assert.InDelta(t, 4.20, *snap.Today.Min, 1e-9)
	assert.InDelta(t, 5.61, *snap.Today.Max, 1e-9)

	require.NotNil(t, snap.PeriodMax)
	assert.InDelta(t, 5.61, snap.PeriodMax.Feet, 1e-9)

	// The last level within tolerance of 5.58, excluding the latest point.
	require.NotNil(t, snap.LastSimilar)
	assert.InDelta(t, 5.61, snap.LastSimilar.Point.Feet, 1e-9)
	assert.Equal(t, testTime, snap.LastSimilar.Latest)

	require.Len(t, snap.Events, 2)
	assert.False(t, snap.EventsFromFallback)
	assert.Equal(t, domain.Moderate, snap.Events[0].Type)

	require.Len(t, snap.AnnualCounts, 1)
	require.Len(t, snap.TopTen, 1)
	assert.Len(t, snap.Predictions, 1)

	assert.Equal(t, dashboard.AlertNone, snap.AlertStatus)
	assert.Nil(t, snap.Alert)

	// Fresh parsed events were archived.
	require.Len(t, pub.published, 1)
	assert.Len(t, pub.published[0], 2)

	assert.NoError(t, b.CheckReadiness(context.Background()))
}

func TestBuilder_Build_StatsFallback(t *testing.T) {
	freezeClock(t)

	t.Run("fetch failure", func(t *testing.T) {
		gauges := &fakeGauges{points: testObservations(), statsErr: errors.New("boom")}
		pub := &fakePublisher{}
		b := newBuilder(t, gauges, &fakeTides{}, &fakeAlerts{}, pub)

		snap, err := b.Build(context.Background())
		require.NoError(t, err)

		assert.True(t, snap.EventsFromFallback)
		require.Len(t, snap.Events, 1)
		assert.InDelta(t, 6.08, snap.Events[0].Peak, 1e-9)

		// Fallback events are not archived.
		assert.Empty(t, pub.published)
	})

	t.Run("parse failure", func(t *testing.T) {
		gauges := &fakeGauges{points: testObservations(), stats: []byte("no header here\n")}
		b := newBuilder(t, gauges, &fakeTides{}, &fakeAlerts{}, nil)

		snap, err := b.Build(context.Background())
		require.NoError(t, err)
		assert.True(t, snap.EventsFromFallback)
	})
}

func TestBuilder_Build_FallbackLoadFailurePropagates(t *testing.T) {
	freezeClock(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gauges := &fakeGauges{points: testObservations(), statsErr: errors.New("boom")}

	// A loader pointed at an empty directory has no fallback list to offer.
	b := dashboard.New(gauges, &fakeTides{}, &fakeAlerts{}, staticdata.NewLoader(t.TempDir()), nil,
		testThresholds(), "P7D", time.UTC, logger, observability.NewMetricsForTesting())

	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events")
}

func TestBuilder_Build_AlertStates(t *testing.T) {
	freezeClock(t)

	t.Run("feed unreachable is unavailable, not empty", func(t *testing.T) {
		gauges := &fakeGauges{points: testObservations(), stats: []byte(statsText)}
		b := newBuilder(t, gauges, &fakeTides{}, &fakeAlerts{err: errors.New("dns")}, nil)

		snap, err := b.Build(context.Background())
		require.NoError(t, err, "alert failures are best-effort")
		assert.Equal(t, dashboard.AlertUnavailable, snap.AlertStatus)
		assert.Nil(t, snap.Alert)
	})

	t.Run("active alert", func(t *testing.T) {
		gauges := &fakeGauges{points: testObservations(), stats: []byte(statsText)}
		alert := &domain.Alert{Title: "Coastal Flood Warning", Headline: "h", URL: "u"}
		b := newBuilder(t, gauges, &fakeTides{}, &fakeAlerts{alert: alert}, nil)

		snap, err := b.Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, dashboard.AlertActive, snap.AlertStatus)
		require.NotNil(t, snap.Alert)
		assert.Equal(t, "Coastal Flood Warning", snap.Alert.Title)
	})
}

func TestBuilder_Build_RequiredSectionFailure(t *testing.T) {
	freezeClock(t)

	t.Run("observations", func(t *testing.T) {
		gauges := &fakeGauges{obsErr: errors.New("usgs down"), stats: []byte(statsText)}
		b := newBuilder(t, gauges, &fakeTides{}, &fakeAlerts{}, nil)

		_, err := b.Build(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "observations")
		assert.Error(t, b.CheckReadiness(context.Background()))
	})

	t.Run("predictions", func(t *testing.T) {
		gauges := &fakeGauges{points: testObservations(), stats: []byte(statsText)}
		b := newBuilder(t, gauges, &fakeTides{err: errors.New("coops down")}, &fakeAlerts{}, nil)

		_, err := b.Build(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "predictions")
	})
}

func TestBuilder_Build_EmptyObservations(t *testing.T) {
	freezeClock(t)

	gauges := &fakeGauges{stats: []byte(statsText)}
	b := newBuilder(t, gauges, &fakeTides{}, &fakeAlerts{}, nil)

	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snap.Latest)
	assert.Equal(t, domain.NoFlood, snap.CurrentCategory)
	assert.Nil(t, snap.PeriodMax)
	assert.Nil(t, snap.LastSimilar)
	assert.Nil(t, snap.Today.Min)
}

func TestBuilder_Build_PublisherFailureIsSwallowed(t *testing.T) {
	freezeClock(t)

	gauges := &fakeGauges{points: testObservations(), stats: []byte(statsText)}
	pub := &fakePublisher{err: errors.New("broker down")}
	b := newBuilder(t, gauges, &fakeTides{}, &fakeAlerts{}, pub)

	snap, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.EventsFromFallback)
}
