// Package handler contains the HTTP handlers of the storefront gateway.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming request (query params, body, path values)
// 2. Call the upstream client or the session manager
// 3. Write the JSON response (or the mapped error)
//
// Handlers hold no state of their own. Everything they serve comes from the
// remote Rootz API or from the session manager; the interfaces they depend on
// are declared here, next to their consumers, so tests can swap in fakes.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rootzapp/storefront/internal/apperror"
	"github.com/rootzapp/storefront/internal/model"
)

// CatalogFetcher is the slice of the upstream client the catalog needs.
type CatalogFetcher interface {
	Companies(ctx context.Context) ([]model.Company, error)
	SearchCompanies(ctx context.Context, query string) ([]model.Company, error)
}

// CatalogHandler serves the public shop catalog. No session required —
// browsing shops works logged out, exactly like the shop windows of a mall.
type CatalogHandler struct {
	upstream CatalogFetcher
	logger   *slog.Logger
}

func NewCatalogHandler(upstream CatalogFetcher, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{upstream: upstream, logger: logger}
}

// HandleList serves the full catalog.
//
// HTTP: GET /api/companies
func (h *CatalogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	companies, err := h.upstream.Companies(r.Context())
	if err != nil {
		h.logger.Error("listing companies", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// An empty catalog serializes as [], not null.
	if companies == nil {
		companies = []model.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

// HandleSearch serves shops matching a query.
//
// HTTP: GET /api/companies/search?searchQuery=nike
func (h *CatalogHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("searchQuery"))
	if query == "" {
		writeError(w, apperror.ValidationFailed("searchQuery", "searchQuery is required"))
		return
	}

	companies, err := h.upstream.SearchCompanies(r.Context(), query)
	if err != nil {
		h.logger.Error("searching companies",
			slog.String("query", query),
			slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if companies == nil {
		companies = []model.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}
