package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/aquaview"
	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/coops"
	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/erddap"
	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/fetch"
	"github.com/couchcryptid/gulf-ocean-etl/internal/adapter/filestore"
	kafkaadapter "github.com/couchcryptid/gulf-ocean-etl/internal/adapter/kafka"
	"github.com/couchcryptid/gulf-ocean-etl/internal/config"
	"github.com/couchcryptid/gulf-ocean-etl/internal/observability"
	"github.com/couchcryptid/gulf-ocean-etl/internal/pipeline"
)

const metricsJob = "gulf-ocean-etl"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(cfg.UserAgent, metrics, logger)
	store := filestore.New(cfg.OutputDir, logger)

	// Snapshot publishing is feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.Publisher
	if cfg.KafkaEnabled() {
		kp := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaSnapshotTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(
		pipeline.Sources{
			Catalog:     aquaview.NewClient(cfg.AquaviewURL, client, logger),
			Text:        client,
			Tracks:      erddap.NewClient(client),
			WaterLevels: coops.NewClient(cfg.CoopsURL, client),
		},
		store,
		publisher,
		pipeline.Options{
			NDBCURL:         cfg.NDBCURL,
			CurrentsURL:     cfg.CurrentsURL,
			GliderERDDAPURL: cfg.GliderERDDAPURL,
			BuoyLiveLimit:   cfg.BuoyLiveLimit,
			TideLiveLimit:   cfg.TideLiveLimit,
		},
		logger,
		metrics,
	)

	logger.Info("update started", "output_dir", cfg.OutputDir)
	start := time.Now()
	report := p.Run(ctx)
	elapsed := time.Since(start)
	metrics.RunDuration.Set(elapsed.Seconds())

	logger.Info("update complete",
		"duration", elapsed.Round(100*time.Millisecond),
		"succeeded", len(report.Succeeded),
		"skipped", report.Skipped,
		"failed", report.Failed,
	)

	if sum, err := store.Summarize(); err != nil {
		logger.Warn("output summary unavailable", "error", err)
	} else {
		logger.Info("data files", "files", sum.Files, "total_kb", sum.KB())
	}

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL, metricsJob); err != nil {
			logger.Error("metrics push failed", "error", err)
		}
	}
}
