package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/rootzapp/storefront/internal/session"
)

// HomeHandler serves the storefront shell page.
//
// Templates are parsed once at startup and reused: base.html defines the page
// frame with a {{template "content" .}} placeholder, home.html fills it in.
type HomeHandler struct {
	templates *template.Template
	sessions  *session.Manager
	logger    *slog.Logger
}

func NewHomeHandler(templateDir string, sessions *session.Manager, logger *slog.Logger) (*HomeHandler, error) {
	tmpl, err := template.ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, "home.html"),
	)
	if err != nil {
		return nil, err
	}

	return &HomeHandler{
		templates: tmpl,
		sessions:  sessions,
		logger:    logger,
	}, nil
}

// HandleHome serves the shell. The session state rides along so the page can
// render the right header (greeting vs. sign-in button) without a second
// round trip.
//
// HTTP: GET /
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":    "Rootz — Shop and Earn",
		"LoggedIn": h.sessions.LoggedIn(),
	}
	if profile, ok := h.sessions.Current(); ok {
		data["UserName"] = profile.Name
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
