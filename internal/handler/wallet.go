package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rootzapp/storefront/internal/apperror"
	"github.com/rootzapp/storefront/internal/model"
	"github.com/rootzapp/storefront/internal/session"
)

// Pagination defaults for the transaction ledger.
const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// WalletFetcher is the slice of the upstream client the wallet pages need.
type WalletFetcher interface {
	Wallet(ctx context.Context, credential string) (*model.Wallet, error)
	Transactions(ctx context.Context, credential string, page, limit int) (*model.TransactionPage, error)
}

// WalletHandler serves the earnings summary and the transaction ledger.
type WalletHandler struct {
	upstream WalletFetcher
	logger   *slog.Logger
}

func NewWalletHandler(upstream WalletFetcher, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{upstream: upstream, logger: logger}
}

// HandleWallet serves the four-figure earnings summary.
//
// HTTP: GET /api/wallet
// Auth: required
func (h *WalletHandler) HandleWallet(w http.ResponseWriter, r *http.Request) {
	cred, _ := session.CredentialFromContext(r.Context())

	wallet, err := h.upstream.Wallet(r.Context(), cred)
	if err != nil {
		h.logger.Error("fetching wallet", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}

// HandleTransactions serves one page of the ledger.
//
// HTTP: GET /api/transactions[?page=N&limit=M]
// Auth: required
//
// Missing parameters take the defaults; a parameter that is present but not a
// positive integer is the caller's mistake and gets a 400, never a silent
// correction.
func (h *WalletHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	cred, _ := session.CredentialFromContext(r.Context())

	page, err := positiveIntParam(r, "page", defaultPage)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := positiveIntParam(r, "limit", defaultLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	txPage, err := h.upstream.Transactions(r.Context(), cred, page, limit)
	if err != nil {
		h.logger.Error("fetching transactions", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if txPage.Items == nil {
		txPage.Items = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txPage)
}

// positiveIntParam reads a query parameter that must be a positive integer,
// returning def when the parameter is absent.
func positiveIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.ValidationFailed(name, name+" must be a positive integer")
	}
	return n, nil
}
