package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dashboard service.
type Metrics struct {
	// Feed metrics.
	FeedRequests *prometheus.CounterVec   // labels: feed={usgs,usgs_stats,coops,nws,nwps}, outcome={success,error}
	FeedDuration *prometheus.HistogramVec // labels: feed

	// Snapshot metrics.
	SnapshotBuilds   prometheus.Counter
	SnapshotFailures prometheus.Counter
	SnapshotDuration prometheus.Histogram
	EventsParsed     prometheus.Gauge
	StatsFallbacks   prometheus.Counter
	AlertActive      prometheus.Gauge // 1 when a coastal-flood alert is showing

	// Event archival metrics.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsForTesting creates metrics on a throwaway registry so parallel
// tests never hit "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "feed_requests_total",
			Help:      "External feed requests by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FeedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flood_dashboard",
			Name:      "feed_request_duration_seconds",
			Help:      "External feed request latency by feed.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"feed"}),
		SnapshotBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "snapshot_builds_total",
			Help:      "Total successful dashboard snapshot builds.",
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "snapshot_failures_total",
			Help:      "Total snapshot builds that failed a required section.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_dashboard",
			Name:      "snapshot_build_duration_seconds",
			Help:      "Wall time to assemble a full snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		EventsParsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_dashboard",
			Name:      "events_parsed",
			Help:      "Flood events in the most recent snapshot.",
		}),
		StatsFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "stats_fallbacks_total",
			Help:      "Times the daily-stats parse failed and the static fallback list was used.",
		}),
		AlertActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_dashboard",
			Name:      "alert_active",
			Help:      "Whether a coastal-flood alert is currently displayed.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "events_published_total",
			Help:      "Flood events published to the archival topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "publish_errors_total",
			Help:      "Failed publishes to the archival topic.",
		}),
	}

	reg.MustRegister(
		m.FeedRequests, m.FeedDuration,
		m.SnapshotBuilds, m.SnapshotFailures, m.SnapshotDuration,
		m.EventsParsed, m.StatsFallbacks, m.AlertActive,
		m.EventsPublished, m.PublishErrors,
	)
	return m
}
