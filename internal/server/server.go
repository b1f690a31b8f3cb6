// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer — the composition root where every
// dependency chain is assembled in one place:
//
//	sqlite.DB → session.Manager (restored at startup)
//	api.Client → handlers (catalog, auth, profile, wallet, shops, dashboard)
//
// Handlers receive interfaces, never the concrete client, and nothing below
// this package knows about routes or middleware order.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rootzapp/storefront/internal/api"
	"github.com/rootzapp/storefront/internal/auth"
	"github.com/rootzapp/storefront/internal/handler"
	"github.com/rootzapp/storefront/internal/middleware"
	sqliteRepo "github.com/rootzapp/storefront/internal/repository/sqlite"
	"github.com/rootzapp/storefront/internal/session"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string
	DBPath      string // SQLite file holding the persisted session
	UpstreamURL string // base URL of the remote Rootz API
	AppBaseURL  string // public URL of this gateway, used to build invite links

	// Google OAuth client. When unset, the Google routes are not registered
	// and sign-in falls back to email/password.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Server is the HTTP server and the resources it owns. The database
// connection is closed during graceful shutdown; the session manager's expiry
// timer dies with the process.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions *session.Manager
}

// New assembles the full dependency chain and wires the routes.
//
// Session restore happens here, before the listener opens: whoever was logged
// in when the process last stopped is logged in again (or logged out, if the
// credential expired in the meantime) before the first request arrives.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sessions := session.NewManager(db, logger)
	sessions.Restore(context.Background())

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: sessions,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET  /                                → storefront shell (HTML)
//	GET  /static/*                        → static assets
//	GET  /api/session                     → session state (never 401)
//	GET  /api/companies                   → catalog
//	GET  /api/companies/search            → catalog search
//	POST /api/auth/register               → signup
//	POST /api/auth/verify-email           → signup step 2, starts session
//	POST /api/auth/login                  → email+password, starts session
//	POST /api/auth/logout                 → ends session
//	POST /api/users/request-password-reset → reset flow step 1
//	POST /api/users/submit-new-password   → reset flow step 2
//	GET  /auth/google/login               → redirect to Google consent
//	GET  /auth/google/callback            → OAuth callback, starts session
//
// Session-gated (401 when logged out):
//
//	GET  /api/profile                     → fresh profile
//	GET  /api/profile/tree                → flattened referral tree
//	GET  /api/invite-link                 → referral invite URL
//	GET  /api/wallet                      → earnings summary
//	GET  /api/transactions                → paginated ledger
//	GET  /api/shops/liked                 → favorites
//	POST /api/shops/{id}/like             → toggle favorite
//	POST /api/shops/{id}/purchase         → cashback click
//	GET  /api/dashboard                   → admin aggregates
//
// MIDDLEWARE ORDER MATTERS: RequestID first so the logger can include it,
// Recoverer before the logger's wrapped writer sees a panic, then our logger.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Static assets.
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	upstream := api.New(s.config.UpstreamURL)

	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
	)

	homeHandler, err := handler.NewHomeHandler(s.config.TemplateDir, s.sessions, s.logger)
	if err != nil {
		return fmt.Errorf("creating home handler: %w", err)
	}
	s.router.Get("/", homeHandler.HandleHome)

	catalogHandler := handler.NewCatalogHandler(upstream, s.logger)
	authHandler := handler.NewAuthHandler(upstream, s.sessions, google, s.logger)
	profileHandler := handler.NewProfileHandler(upstream, s.sessions, s.config.AppBaseURL, s.logger)
	walletHandler := handler.NewWalletHandler(upstream, s.logger)
	shopHandler := handler.NewShopHandler(upstream, s.logger)
	dashboardHandler := handler.NewDashboardHandler(upstream, s.logger)

	if google.Configured() {
		s.router.Get("/auth/google/login", authHandler.HandleGoogleLogin)
		s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
	} else {
		s.logger.Warn("Google OAuth not configured — Google sign-in routes not registered")
	}

	s.router.Route("/api", func(r chi.Router) {
		// Public routes: browsing and authenticating need no session.
		r.Get("/session", authHandler.HandleSession)
		r.Get("/companies", catalogHandler.HandleList)
		r.Get("/companies/search", catalogHandler.HandleSearch)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/verify-email", authHandler.HandleVerifyEmail)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
		})

		// The reset pair lives under /users, mirroring the upstream paths.
		r.Route("/users", func(r chi.Router) {
			r.Post("/request-password-reset", authHandler.HandleRequestPasswordReset)
			r.Post("/submit-new-password", authHandler.HandleSubmitNewPassword)
		})

		// Everything below requires a live session; the gate also puts the
		// bearer credential into the request context for the handlers.
		r.Group(func(r chi.Router) {
			r.Use(session.Require(s.sessions))

			r.Get("/profile", profileHandler.HandleProfile)
			r.Get("/profile/tree", profileHandler.HandleTree)
			r.Get("/invite-link", profileHandler.HandleInviteLink)
			r.Get("/wallet", walletHandler.HandleWallet)
			r.Get("/transactions", walletHandler.HandleTransactions)
			r.Get("/shops/liked", shopHandler.HandleLiked)
			r.Post("/shops/{id}/like", shopHandler.HandleLike)
			r.Post("/shops/{id}/purchase", shopHandler.HandlePurchase)
			r.Get("/dashboard", dashboardHandler.HandleDashboard)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// SHUTDOWN ORDER:
// 1. Stop accepting new connections
// 2. Wait up to 30s for in-flight requests
// 3. Close the database (flushes the WAL, releases the file lock) — after
//    this the persisted session is exactly what the manager last wrote, which
//    is what Restore picks up next start.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("upstream", s.config.UpstreamURL),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
