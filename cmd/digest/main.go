// Package main builds the weekly change digests and writes the delivery
// payload as JSON to stdout. Actual email delivery is handled downstream.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/offer-tracker/internal/config"
	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/service"
	"github.com/offer-tracker/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger().WithField("component", "digest-job")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer postgres.Close()

	snapshotService := service.NewSnapshotService(storage.NewSnapshotRepository(postgres), cfg.Snapshot.DigestWindow, cfg.Snapshot.HistoryLimit)
	subscriberService := service.NewSubscriberService(storage.NewSubscriberRepository(postgres))
	digestService := service.NewDigestService(snapshotService, subscriberService)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	digests, err := digestService.BuildDigests(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to build digests")
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(digests); err != nil {
		logger.WithError(err).Fatal("failed to encode digests")
	}

	logger.WithField("digests", len(digests)).Info("digest run finished")
}
