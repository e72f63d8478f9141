// Package web serves the server-rendered HTML pages: the ranked offer list,
// the issuer directory and the weekly change feed. The pages read through the
// same services as the JSON API.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/offer-tracker/internal/api"
	apperrors "github.com/offer-tracker/internal/errors"
	"github.com/offer-tracker/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler renders the HTML pages
type Handler struct {
	offerService    api.OfferServiceInterface
	snapshotService api.SnapshotServiceInterface
	issuerStore     api.IssuerStore
	healthStore     api.HealthStore
	templates       *template.Template
	logger          *logging.Logger
}

// NewHandler creates a new web handler. Template parsing happens once at
// construction; a bad template is a startup failure, not a request failure.
func NewHandler(
	offerService api.OfferServiceInterface,
	snapshotService api.SnapshotServiceInterface,
	issuerStore api.IssuerStore,
	healthStore api.HealthStore,
) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money": func(v int64) string {
			return fmt.Sprintf("$%d", v)
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Handler{
		offerService:    offerService,
		snapshotService: snapshotService,
		issuerStore:     issuerStore,
		healthStore:     healthStore,
		templates:       tmpl,
		logger:          logging.GetGlobalLogger().WithField("component", "web"),
	}, nil
}

// Register mounts the page routes on the router
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/", h.handleHome).Methods("GET")
	router.HandleFunc("/issuers", h.handleIssuers).Methods("GET")
	router.HandleFunc("/changes", h.handleChanges).Methods("GET")
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.WithError(err).Error("template render failed")
	}
}

// renderUnavailable shows the database-down page instead of a bare 500
func (h *Handler) renderUnavailable(w http.ResponseWriter) {
	w.WriteHeader(http.StatusServiceUnavailable)
	h.render(w, "unavailable.html", nil)
}

// renderFailure routes user errors to a plain error response with their own
// status code; everything else is logged and shown as the unavailable page
func (h *Handler) renderFailure(w http.ResponseWriter, err error, msg string) {
	if apperrors.IsUserError(err) {
		http.Error(w, apperrors.Categorize(err).Message, apperrors.GetHTTPStatusCode(err))
		return
	}

	h.logger.WithError(err).Error(msg)
	h.renderUnavailable(w)
}

// handleHome renders the ranked offer list
func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	filters, err := parsePageFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	offers, err := h.offerService.List(r.Context(), filters)
	if err != nil {
		h.renderFailure(w, err, "offer listing failed")
		return
	}

	h.render(w, "home.html", map[string]interface{}{
		"Offers": offers,
	})
}

// handleIssuers renders the issuer directory
func (h *Handler) handleIssuers(w http.ResponseWriter, r *http.Request) {
	issuers, err := h.issuerStore.List(r.Context())
	if err != nil {
		h.renderFailure(w, err, "issuer listing failed")
		return
	}

	h.render(w, "issuers.html", map[string]interface{}{
		"Issuers": issuers,
	})
}

// handleChanges renders the weekly change feed
func (h *Handler) handleChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := h.snapshotService.GetWeeklyChanges(r.Context())
	if err != nil {
		h.renderFailure(w, err, "change feed failed")
		return
	}

	h.render(w, "changes.html", map[string]interface{}{
		"Changes": changes,
	})
}
