// Command dashboard serves the Bivalve flood dashboard: it assembles water
// level observations, tide predictions, historical flood events, and active
// coastal-flood alerts into a conditions snapshot served as JSON alongside
// the dashboard's static assets.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/adapter/coops"
	httpadapter "github.com/hondrospj/bivalve-flood-dashboard/internal/adapter/http"
	kafkaadapter "github.com/hondrospj/bivalve-flood-dashboard/internal/adapter/kafka"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/adapter/nws"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/adapter/usgs"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/config"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/dashboard"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/observability"
	"github.com/hondrospj/bivalve-flood-dashboard/internal/staticdata"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	loc := cfg.Location()

	gauges := usgs.NewClient(cfg.USGSSite, cfg.FeedTimeout, logger, metrics)
	tides := coops.NewClient(cfg.COOPSStation, cfg.DatumOffsetFt, loc, cfg.FeedTimeout, logger, metrics)
	alerts := nws.NewClient(cfg.AlertLat, cfg.AlertLon, cfg.FeedTimeout, logger, metrics)
	static := staticdata.NewLoader(cfg.DataDir)

	// Flood-event archival is feature-flagged via KAFKA_BROKERS.
	var publisher dashboard.EventPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.PublisherEnabled() {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("event archival enabled", "topic", cfg.KafkaEventsTopic)
	} else {
		logger.Info("event archival disabled")
	}

	builder := dashboard.New(gauges, tides, alerts, static, publisher,
		cfg.Thresholds, cfg.USGSPeriod, loc, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, builder, cfg.StaticDir, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
