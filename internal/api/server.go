// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/offer-tracker/internal/logging"
	"github.com/offer-tracker/internal/models"
	"github.com/offer-tracker/internal/service"
	"github.com/offer-tracker/internal/storage"
	"github.com/offer-tracker/internal/types"
)

// Service interfaces for dependency injection and testing

// OfferServiceInterface defines the interface for offer operations
type OfferServiceInterface interface {
	List(ctx context.Context, filters *storage.OfferFilters) ([]*service.ValuedOffer, error)
	Get(ctx context.Context, id string) (*service.ValuedOffer, error)
	ListByProduct(ctx context.Context, productID string) ([]*service.ValuedOffer, error)
	Create(ctx context.Context, offer *models.Offer) error
	Update(ctx context.Context, offer *models.Offer) error
	UpdateStatus(ctx context.Context, id string, status types.OfferStatus) error
	Delete(ctx context.Context, id string) error
	ListCurrencies(ctx context.Context) ([]*models.CurrencyValuation, error)
	GetCurrency(ctx context.Context, code string) (*models.CurrencyValuation, error)
	CreateCurrency(ctx context.Context, val *models.CurrencyValuation) error
	UpdateCurrency(ctx context.Context, val *models.CurrencyValuation) error
}

// SnapshotServiceInterface defines the interface for snapshot operations
type SnapshotServiceInterface interface {
	History(ctx context.Context, offerID string, limit int) ([]*models.OfferSnapshot, error)
	GetWeeklyChanges(ctx context.Context) ([]*models.OfferSnapshot, error)
	GetChangesSince(ctx context.Context, since time.Time) ([]*models.OfferSnapshot, error)
}

// SubscriberServiceInterface defines the interface for subscriber operations
type SubscriberServiceInterface interface {
	Subscribe(ctx context.Context, email string) (*models.Subscriber, error)
	Verify(ctx context.Context, token string) (*models.Subscriber, error)
	Unsubscribe(ctx context.Context, token string) error
	Get(ctx context.Context, email string) (*models.Subscriber, error)
	UpdatePreferences(ctx context.Context, email string, prefs []models.SubscriberPreference) (*models.Subscriber, error)
}

// IssuerStore defines the issuer persistence the API needs
type IssuerStore interface {
	Create(ctx context.Context, issuer *models.Issuer) error
	GetBySlug(ctx context.Context, slug string) (*models.Issuer, error)
	List(ctx context.Context) ([]*models.Issuer, error)
	Update(ctx context.Context, issuer *models.Issuer) error
	Delete(ctx context.Context, id string) error
}

// ProductStore defines the card product persistence the API needs
type ProductStore interface {
	Create(ctx context.Context, product *models.CardProduct) error
	GetBySlug(ctx context.Context, slug string) (*models.CardProduct, error)
	List(ctx context.Context) ([]*models.CardProduct, error)
	ListByIssuer(ctx context.Context, issuerID string) ([]*models.CardProduct, error)
}

// HealthStore defines the storage access the health endpoint needs
type HealthStore interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (offerCount, issuerCount int64, err error)
}

// Server represents the HTTP API server.
type Server struct {
	router            *mux.Router
	httpServer        *http.Server
	offerService      OfferServiceInterface
	snapshotService   SnapshotServiceInterface
	subscriberService SubscriberServiceInterface
	issuerStore       IssuerStore
	productStore      ProductStore
	healthStore       HealthStore
	config            *ServerConfig
	logger            *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	offerService OfferServiceInterface,
	snapshotService SnapshotServiceInterface,
	subscriberService SubscriberServiceInterface,
	issuerStore IssuerStore,
	productStore ProductStore,
	healthStore HealthStore,
) *Server {
	s := &Server{
		router:            mux.NewRouter(),
		offerService:      offerService,
		snapshotService:   snapshotService,
		subscriberService: subscriberService,
		issuerStore:       issuerStore,
		productStore:      productStore,
		healthStore:       healthStore,
		config:            config,
		logger:            logging.GetGlobalLogger().WithField("component", "api"),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Middleware order matters
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Offer endpoints
	api.HandleFunc("/offers", s.handleListOffers).Methods("GET")
	api.HandleFunc("/offers", s.handleCreateOffer).Methods("POST")
	api.HandleFunc("/offers/{id}", s.handleGetOffer).Methods("GET")
	api.HandleFunc("/offers/{id}", s.handleUpdateOffer).Methods("PUT")
	api.HandleFunc("/offers/{id}", s.handleDeleteOffer).Methods("DELETE")
	api.HandleFunc("/offers/{id}/status", s.handleUpdateOfferStatus).Methods("PATCH")
	api.HandleFunc("/offers/{id}/snapshots", s.handleOfferHistory).Methods("GET")

	// Change feed
	api.HandleFunc("/changes", s.handleGetChanges).Methods("GET")

	// Issuer endpoints
	api.HandleFunc("/issuers", s.handleListIssuers).Methods("GET")
	api.HandleFunc("/issuers", s.handleCreateIssuer).Methods("POST")
	api.HandleFunc("/issuers/{slug}", s.handleGetIssuer).Methods("GET")
	api.HandleFunc("/issuers/{slug}", s.handleUpdateIssuer).Methods("PUT")
	api.HandleFunc("/issuers/{slug}", s.handleDeleteIssuer).Methods("DELETE")
	api.HandleFunc("/issuers/{slug}/products", s.handleListIssuerProducts).Methods("GET")

	// Card product endpoints
	api.HandleFunc("/products", s.handleListProducts).Methods("GET")
	api.HandleFunc("/products", s.handleCreateProduct).Methods("POST")
	api.HandleFunc("/products/{slug}", s.handleGetProduct).Methods("GET")
	api.HandleFunc("/products/{slug}/offers", s.handleListProductOffers).Methods("GET")

	// Currency valuation endpoints
	api.HandleFunc("/currencies", s.handleListCurrencies).Methods("GET")
	api.HandleFunc("/currencies", s.handleCreateCurrency).Methods("POST")
	api.HandleFunc("/currencies/{code}", s.handleGetCurrency).Methods("GET")
	api.HandleFunc("/currencies/{code}", s.handleUpdateCurrency).Methods("PUT")

	// Subscriber endpoints
	api.HandleFunc("/subscribers", s.handleSubscribe).Methods("POST")
	api.HandleFunc("/subscribers/verify", s.handleVerifySubscriber).Methods("GET")
	api.HandleFunc("/subscribers/unsubscribe", s.handleUnsubscribe).Methods("POST")
	api.HandleFunc("/subscribers/{email}", s.handleGetSubscriber).Methods("GET")
	api.HandleFunc("/subscribers/{email}/preferences", s.handleUpdatePreferences).Methods("PUT")
}

// Router exposes the configured router so callers can mount additional
// surfaces, such as the HTML pages
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Infof("starting API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
