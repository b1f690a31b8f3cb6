package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rootzapp/storefront/internal/model"
	"github.com/rootzapp/storefront/internal/session"
)

// DashboardFetcher is the slice of the upstream client the admin page needs.
type DashboardFetcher interface {
	Dashboard(ctx context.Context, credential string) (*model.Dashboard, error)
}

// DashboardHandler serves the admin aggregates. Whether the caller is
// actually an admin is the upstream's call: a non-admin credential comes back
// 403 from the remote API, which keeps its meaning through the gateway.
type DashboardHandler struct {
	upstream DashboardFetcher
	logger   *slog.Logger
}

func NewDashboardHandler(upstream DashboardFetcher, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{upstream: upstream, logger: logger}
}

// HandleDashboard serves site visits, wallet totals, top shops, recent
// transactions, and the month-by-month user growth series.
//
// HTTP: GET /api/dashboard
// Auth: required
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	cred, _ := session.CredentialFromContext(r.Context())

	dash, err := h.upstream.Dashboard(r.Context(), cred)
	if err != nil {
		h.logger.Error("fetching dashboard", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dash)
}
