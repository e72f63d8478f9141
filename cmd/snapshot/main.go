// Package main runs the snapshot ingestion job. It records one observation
// per active offer from the offer's current terms. The job is the only
// snapshot writer; run a single instance at a time.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/offer-tracker/internal/config"
	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/retry"
	"github.com/offer-tracker/internal/service"
	"github.com/offer-tracker/internal/storage"
)

func main() {
	var offerID = flag.String("offer", "", "Capture a single offer instead of all active offers")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger().WithField("component", "snapshot-job")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer postgres.Close()

	offerRepo := storage.NewOfferRepository(postgres)
	snapshotService := service.NewSnapshotService(storage.NewSnapshotRepository(postgres), cfg.Snapshot.DigestWindow, cfg.Snapshot.HistoryLimit)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	var offers []*models.Offer
	if *offerID != "" {
		offer, err := offerRepo.GetByID(ctx, *offerID)
		if err != nil {
			logger.WithError(err).Fatal("failed to load offer")
		}
		offers = []*models.Offer{offer}
	} else {
		offers, err = offerRepo.Find(ctx, nil)
		if err != nil {
			logger.WithError(err).Fatal("failed to load active offers")
		}
	}

	var captured, failed int
	for _, offer := range offers {
		err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
			return snapshotService.CaptureFromOffer(ctx, offer, nil)
		})
		if err != nil {
			logger.WithError(err).WithField("offer_id", offer.ID).Error("failed to capture snapshot")
			failed++
			continue
		}
		captured++
	}

	logger.WithFields(map[string]interface{}{
		"captured": captured,
		"failed":   failed,
	}).Info("snapshot run finished")
}
