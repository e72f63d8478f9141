// Package main provides the API server entry point for the offer tracker service.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/offer-tracker/internal/api"
	"github.com/offer-tracker/internal/config"
	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/service"
	"github.com/offer-tracker/internal/storage"
	"github.com/offer-tracker/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("structured logging initialized")

	// Connect to Postgres
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer postgres.Close()

	// Connect to Redis. The rate cache is optional; valuations fall back to
	// the database when Redis is unavailable.
	var rateCache service.RateCache
	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, running without rate cache")
	} else {
		defer redis.Close()
		rateCache = storage.NewRateCache(redis, cfg.Cache.TTL)
	}

	logger.Info("database connections established")

	// Initialize repositories
	issuerRepo := storage.NewIssuerRepository(postgres)
	productRepo := storage.NewCardProductRepository(postgres)
	offerRepo := storage.NewOfferRepository(postgres)
	snapshotRepo := storage.NewSnapshotRepository(postgres)
	currencyRepo := storage.NewCurrencyRepository(postgres)
	subscriberRepo := storage.NewSubscriberRepository(postgres)

	// Initialize services
	offerService := service.NewOfferService(offerRepo, currencyRepo, snapshotRepo, rateCache)
	snapshotService := service.NewSnapshotService(snapshotRepo, cfg.Snapshot.DigestWindow, cfg.Snapshot.HistoryLimit)
	subscriberService := service.NewSubscriberService(subscriberRepo)

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}

	server := api.NewServer(
		serverConfig,
		offerService,
		snapshotService,
		subscriberService,
		issuerRepo,
		productRepo,
		postgres,
	)

	// Mount the HTML pages alongside the JSON API
	webHandler, err := web.NewHandler(offerService, snapshotService, issuerRepo, postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize web pages")
	}
	webHandler.Register(server.Router())

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("server started")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	logger.Info("server exited")
}
