package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Site selection. The USGS site, CO-OPS station, and NWPS gauge are
	// independent identifiers for the same physical location.
	USGSSite     string
	USGSPeriod   string
	COOPSStation string
	NWPSGauge    string
	AlertLat     float64
	AlertLon     float64

	// DatumOffsetFt converts CO-OPS predictions into the threshold datum:
	// navd88 = mllw + offset, i.e. the offset encodes NAVD88 − MLLW. The
	// sign is deployment-specific; confirm against the NOAA datum tables.
	DatumOffsetFt float64

	Thresholds domain.Thresholds

	FeedTimeout time.Duration
	Timezone    string

	DataDir   string
	StaticDir string

	// Optional flood-event archival to Kafka. Disabled when no brokers are
	// configured.
	KafkaBrokers     []string
	KafkaEventsTopic string
}

// PublisherEnabled reports whether the Kafka event publisher is configured.
func (c *Config) PublisherEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults
// where unset. Defaults describe the Bivalve, NJ deployment.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	feedTimeout, err := parseDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	alertLat, err := parseFloat("ALERT_LAT", "39.2326")
	if err != nil {
		return nil, err
	}
	alertLon, err := parseFloat("ALERT_LON", "-75.0352")
	if err != nil {
		return nil, err
	}
	datumOffset, err := parseFloat("DATUM_OFFSET_FT", "-3.10")
	if err != nil {
		return nil, err
	}

	minor, err := parseFloat("FLOOD_MINOR_FT", "5.0")
	if err != nil {
		return nil, err
	}
	moderate, err := parseFloat("FLOOD_MODERATE_FT", "5.5")
	if err != nil {
		return nil, err
	}
	major, err := parseFloat("FLOOD_MAJOR_FT", "6.5")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		USGSSite:     envOrDefault("USGS_SITE", "01412150"),
		USGSPeriod:   envOrDefault("USGS_PERIOD", "P7D"),
		COOPSStation: envOrDefault("COOPS_STATION", "8536931"),
		NWPSGauge:    envOrDefault("NWPS_GAUGE", "BVLN4"),
		AlertLat:     alertLat,
		AlertLon:     alertLon,

		DatumOffsetFt: datumOffset,
		Thresholds:    domain.Thresholds{Minor: minor, Moderate: moderate, Major: major},

		FeedTimeout: feedTimeout,
		Timezone:    envOrDefault("TIMEZONE", "America/New_York"),

		DataDir:   envOrDefault("DATA_DIR", "data"),
		StaticDir: envOrDefault("STATIC_DIR", "static"),

		KafkaBrokers:     parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaEventsTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "flood-events"),
	}

	if cfg.USGSSite == "" {
		return nil, errors.New("USGS_SITE is required")
	}
	if cfg.COOPSStation == "" {
		return nil, errors.New("COOPS_STATION is required")
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	if cfg.PublisherEnabled() && strings.TrimSpace(cfg.KafkaEventsTopic) == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_EVENTS_TOPIC is empty")
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key, fallback string) (float64, error) {
	s := envOrDefault(key, fallback)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
