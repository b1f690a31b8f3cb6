package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rootzapp/storefront/internal/apperror"
	"github.com/rootzapp/storefront/internal/model"
	"github.com/rootzapp/storefront/internal/session"
)

// ShopActions is the slice of the upstream client the per-shop actions need.
type ShopActions interface {
	LikeShop(ctx context.Context, credential, shopID string) error
	LikedShops(ctx context.Context, credential string) ([]model.Company, error)
	SimulatePurchase(ctx context.Context, credential, shopID string) (string, error)
}

// ShopHandler serves the authenticated per-shop actions: favorites and the
// cashback purchase click.
type ShopHandler struct {
	upstream ShopActions
	logger   *slog.Logger
}

func NewShopHandler(upstream ShopActions, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{upstream: upstream, logger: logger}
}

// HandleLike toggles a shop on the user's favorites.
//
// HTTP: POST /api/shops/{id}/like
// Auth: required
func (h *ShopHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	cred, _ := session.CredentialFromContext(r.Context())

	shopID := chi.URLParam(r, "id")
	if shopID == "" {
		writeError(w, apperror.ValidationFailed("id", "shop id is required"))
		return
	}

	if err := h.upstream.LikeShop(r.Context(), cred, shopID); err != nil {
		h.logger.Error("liking shop",
			slog.String("shopID", shopID),
			slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// HandleLiked serves the user's favorite shops.
//
// HTTP: GET /api/shops/liked
// Auth: required
func (h *ShopHandler) HandleLiked(w http.ResponseWriter, r *http.Request) {
	cred, _ := session.CredentialFromContext(r.Context())

	companies, err := h.upstream.LikedShops(r.Context(), cred)
	if err != nil {
		h.logger.Error("fetching liked shops", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if companies == nil {
		companies = []model.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

// HandlePurchase registers a cashback click on the shop and answers with the
// shop's outbound URL for the UI to open.
//
// HTTP: POST /api/shops/{id}/purchase
// Auth: required
func (h *ShopHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	cred, _ := session.CredentialFromContext(r.Context())

	shopID := chi.URLParam(r, "id")
	if shopID == "" {
		writeError(w, apperror.ValidationFailed("id", "shop id is required"))
		return
	}

	siteURL, err := h.upstream.SimulatePurchase(r.Context(), cred, shopID)
	if err != nil {
		h.logger.Error("simulating purchase",
			slog.String("shopID", shopID),
			slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"siteUrl": siteURL})
}
