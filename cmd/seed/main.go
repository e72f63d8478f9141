// Package main seeds the database with a starter set of issuers, card
// products, offers, currency valuations and snapshot history.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/offer-tracker/internal/config"
	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/service"
	"github.com/offer-tracker/internal/storage"
	"github.com/offer-tracker/internal/types"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger().WithField("component", "seed")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer postgres.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := seed(ctx, postgres); err != nil {
		logger.WithError(err).Fatal("seeding failed")
	}

	logger.Info("seeding completed")
}

// skipDuplicate swallows conflict errors so reruns are safe
func skipDuplicate(err error) error {
	var svcErr *types.ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Code {
		case "DUPLICATE_SLUG", "DUPLICATE_EMAIL", "DUPLICATE_CURRENCY_CODE":
			return nil
		}
	}
	return err
}

func seed(ctx context.Context, db *storage.PostgresDB) error {
	issuerRepo := storage.NewIssuerRepository(db)
	productRepo := storage.NewCardProductRepository(db)
	offerRepo := storage.NewOfferRepository(db)
	currencyRepo := storage.NewCurrencyRepository(db)
	snapshotRepo := storage.NewSnapshotRepository(db)
	snapshotService := service.NewSnapshotService(snapshotRepo, 0, 0)

	currencies := []struct {
		code  string
		rate  float64
		notes string
	}{
		{"AA", 1.4, "American Airlines AAdvantage"},
		{"UA", 1.2, "United MileagePlus"},
		{"DL", 1.1, "Delta SkyMiles"},
		{"MR", 1.7, "American Express Membership Rewards"},
		{"UR", 1.6, "Chase Ultimate Rewards"},
		{"TYP", 1.5, "Citi ThankYou Points"},
	}

	for _, c := range currencies {
		notes := c.notes
		err := currencyRepo.Create(ctx, &models.CurrencyValuation{
			CurrencyCode:  c.code,
			CentsPerPoint: decimal.NewFromFloat(c.rate),
			Notes:         &notes,
		})
		if err := skipDuplicate(err); err != nil {
			return err
		}
	}

	issuers := map[string]*models.Issuer{
		"citi":             {Name: "Citi", Slug: "citi", Website: "https://www.citi.com"},
		"american-express": {Name: "American Express", Slug: "american-express", Website: "https://www.americanexpress.com"},
		"chase":            {Name: "Chase", Slug: "chase", Website: "https://www.chase.com"},
		"bank-of-america":  {Name: "Bank of America", Slug: "bank-of-america", Website: "https://www.bankofamerica.com"},
		"capital-one":      {Name: "Capital One", Slug: "capital-one", Website: "https://www.capitalone.com"},
		"us-bank":          {Name: "U.S. Bank", Slug: "us-bank", Website: "https://www.usbank.com"},
	}

	for _, issuer := range issuers {
		err := issuerRepo.Create(ctx, issuer)
		if err := skipDuplicate(err); err != nil {
			return err
		}
		if issuer.ID == "" {
			existing, err := issuerRepo.GetBySlug(ctx, issuer.Slug)
			if err != nil {
				return err
			}
			issuer.ID = existing.ID
		}
	}

	products := []*models.CardProduct{
		{
			IssuerID:     issuers["citi"].ID,
			Name:         "AAdvantage Platinum Select",
			Slug:         "citi-aadvantage-platinum-select",
			Network:      types.NetworkMastercard,
			Type:         types.TypePersonal,
			Currency:     "American Airlines AAdvantage",
			CurrencyCode: "AA",
		},
		{
			IssuerID:     issuers["american-express"].ID,
			Name:         "American Express Gold Card",
			Slug:         "amex-gold",
			Network:      types.NetworkAmex,
			Type:         types.TypePersonal,
			Currency:     "Membership Rewards",
			CurrencyCode: "MR",
		},
		{
			IssuerID:     issuers["chase"].ID,
			Name:         "Sapphire Preferred",
			Slug:         "chase-sapphire-preferred",
			Network:      types.NetworkVisa,
			Type:         types.TypePersonal,
			Currency:     "Ultimate Rewards",
			CurrencyCode: "UR",
		},
		{
			IssuerID:     issuers["chase"].ID,
			Name:         "United Explorer",
			Slug:         "chase-united-explorer",
			Network:      types.NetworkVisa,
			Type:         types.TypePersonal,
			Currency:     "United MileagePlus",
			CurrencyCode: "UA",
		},
	}

	for _, product := range products {
		err := productRepo.Create(ctx, product)
		if err := skipDuplicate(err); err != nil {
			return err
		}
		if product.ID == "" {
			existing, err := productRepo.GetBySlug(ctx, product.Slug)
			if err != nil {
				return err
			}
			product.ID = existing.ID
		}
	}

	now := time.Now()
	published := now.AddDate(0, -2, 0)
	offers := []*models.Offer{
		{
			ProductID:          products[0].ID,
			Headline:           "Earn 80,000 AAdvantage bonus miles",
			BonusPoints:        80000,
			MinSpendAmount:     decimal.NewFromInt(3500),
			MinSpendWindowDays: 120,
			AnnualFee:          decimal.NewFromInt(99),
			FirstYearWaived:    false,
			LandingURL:         "https://www.citi.com/credit-cards/citi-aadvantage-platinum-select",
			SourceType:         types.SourcePublic,
			Geo:                "US",
			Status:             types.StatusActive,
			PublishedAt:        &published,
		},
		{
			ProductID:          products[1].ID,
			Headline:           "Earn 90,000 Membership Rewards points",
			BonusPoints:        90000,
			MinSpendAmount:     decimal.NewFromInt(6000),
			MinSpendWindowDays: 180,
			AnnualFee:          decimal.NewFromInt(325),
			FirstYearWaived:    false,
			StatementCredits:   decimal.NewFromInt(120),
			LandingURL:         "https://www.americanexpress.com/us/credit-cards/card/gold-card/",
			SourceType:         types.SourcePublic,
			Geo:                "US",
			Status:             types.StatusActive,
			PublishedAt:        &published,
		},
		{
			ProductID:          products[2].ID,
			Headline:           "Earn 75,000 Ultimate Rewards points",
			BonusPoints:        75000,
			MinSpendAmount:     decimal.NewFromInt(4000),
			MinSpendWindowDays: 90,
			AnnualFee:          decimal.NewFromInt(95),
			FirstYearWaived:    false,
			LandingURL:         "https://creditcards.chase.com/rewards-credit-cards/sapphire/preferred",
			SourceType:         types.SourcePublic,
			Geo:                "US",
			Status:             types.StatusActive,
			PublishedAt:        &published,
		},
	}

	for _, offer := range offers {
		if err := offerRepo.Create(ctx, offer); err != nil {
			return err
		}
	}

	// Snapshot history for the Sapphire Preferred offer: the bonus moved from
	// 60,000 to 75,000 three weeks ago, so the change feed has real content.
	sapphire := offers[2]
	first := &models.OfferSnapshot{
		OfferID:            sapphire.ID,
		BonusPoints:        60000,
		MinSpendAmount:     sapphire.MinSpendAmount,
		MinSpendWindowDays: sapphire.MinSpendWindowDays,
		AnnualFee:          sapphire.AnnualFee,
		LandingURL:         sapphire.LandingURL,
		CapturedAt:         now.AddDate(0, 0, -42),
	}
	if err := snapshotService.Record(ctx, first); err != nil {
		return err
	}

	second := &models.OfferSnapshot{
		OfferID:            sapphire.ID,
		BonusPoints:        75000,
		MinSpendAmount:     sapphire.MinSpendAmount,
		MinSpendWindowDays: sapphire.MinSpendWindowDays,
		AnnualFee:          sapphire.AnnualFee,
		LandingURL:         sapphire.LandingURL,
		CapturedAt:         now.AddDate(0, 0, -21),
	}
	if err := snapshotService.Record(ctx, second); err != nil {
		return err
	}

	// Current observations for the other offers
	for _, offer := range offers[:2] {
		if err := snapshotService.CaptureFromOffer(ctx, offer, nil); err != nil {
			return err
		}
	}

	return nil
}
