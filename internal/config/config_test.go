package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "01412150", cfg.USGSSite)
	assert.Equal(t, "P7D", cfg.USGSPeriod)
	assert.Equal(t, "8536931", cfg.COOPSStation)
	assert.Equal(t, "BVLN4", cfg.NWPSGauge)
	assert.InDelta(t, 39.2326, cfg.AlertLat, 1e-9)
	assert.InDelta(t, -75.0352, cfg.AlertLon, 1e-9)

	assert.InDelta(t, -3.10, cfg.DatumOffsetFt, 1e-9)
	assert.InDelta(t, 5.0, cfg.Thresholds.Minor, 1e-9)
	assert.InDelta(t, 5.5, cfg.Thresholds.Moderate, 1e-9)
	assert.InDelta(t, 6.5, cfg.Thresholds.Major, 1e-9)

	assert.Equal(t, 10*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "static", cfg.StaticDir)

	assert.False(t, cfg.PublisherEnabled())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "flood-events", cfg.KafkaEventsTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("USGS_SITE", "01411390")
	t.Setenv("USGS_PERIOD", "P3D")
	t.Setenv("COOPS_STATION", "8537121")
	t.Setenv("NWPS_GAUGE", "SJSN4")
	t.Setenv("ALERT_LAT", "39.305")
	t.Setenv("ALERT_LON", "-75.375")
	t.Setenv("DATUM_OFFSET_FT", "3.02")
	t.Setenv("FLOOD_MINOR_FT", "4.8")
	t.Setenv("FLOOD_MODERATE_FT", "5.3")
	t.Setenv("FLOOD_MAJOR_FT", "6.1")
	t.Setenv("FEED_TIMEOUT", "5s")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("STATIC_DIR", "/srv/static")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_EVENTS_TOPIC", "bivalve-events")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "01411390", cfg.USGSSite)
	assert.Equal(t, "P3D", cfg.USGSPeriod)
	assert.Equal(t, "8537121", cfg.COOPSStation)
	assert.Equal(t, "SJSN4", cfg.NWPSGauge)

	// The opposite sign convention used by the second deployment variant.
	assert.InDelta(t, 3.02, cfg.DatumOffsetFt, 1e-9)

	assert.InDelta(t, 4.8, cfg.Thresholds.Minor, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "UTC", cfg.Timezone)

	assert.True(t, cfg.PublisherEnabled())
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "bivalve-events", cfg.KafkaEventsTopic)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("non-ascending thresholds", func(t *testing.T) {
		t.Setenv("FLOOD_MINOR_FT", "6.0")
		t.Setenv("FLOOD_MODERATE_FT", "5.5")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strictly ascending")
	})

	t.Run("unparsable offset", func(t *testing.T) {
		t.Setenv("DATUM_OFFSET_FT", "three feet")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATUM_OFFSET_FT")
	})

	t.Run("bad feed timeout", func(t *testing.T) {
		t.Setenv("FEED_TIMEOUT", "-1s")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("bad timezone", func(t *testing.T) {
		t.Setenv("TIMEZONE", "Atlantis/Lost")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("brokers without topic", func(t *testing.T) {
		t.Setenv("KAFKA_BROKERS", "localhost:9092")
		t.Setenv("KAFKA_EVENTS_TOPIC", " ")
		_, err := Load()
		require.Error(t, err)
	})
}
