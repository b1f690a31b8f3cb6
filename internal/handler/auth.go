package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/rootzapp/storefront/internal/api"
	"github.com/rootzapp/storefront/internal/apperror"
	"github.com/rootzapp/storefront/internal/auth"
	"github.com/rootzapp/storefront/internal/session"
)

// Authenticator is the slice of the upstream client the auth flows need.
// Every method ends at the remote Rootz API; the gateway holds no passwords
// and mints no credentials of its own.
type Authenticator interface {
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	VerifyEmail(ctx context.Context, email, code string) (*api.AuthResult, error)
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	GoogleLogin(ctx context.Context, tokenID string) (*api.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	SubmitNewPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler drives the authentication flows.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister / HandleVerifyEmail → two-step signup
//   - HandleLogin / HandleLogout         → email+password session control
//   - HandleGoogleLogin / HandleGoogleCallback → OAuth leg of Google sign-in
//   - HandleRequestPasswordReset / HandleSubmitNewPassword → reset flow
//
// Each successful identity exchange ends the same way: the upstream's
// credential and profile go into the session manager, which persists them and
// arms the expiry timer. The handler never stores either itself.
type AuthHandler struct {
	upstream Authenticator
	sessions *session.Manager
	google   *auth.GoogleProvider
	logger   *slog.Logger
}

func NewAuthHandler(upstream Authenticator, sessions *session.Manager,
	google *auth.GoogleProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		upstream: upstream,
		sessions: sessions,
		google:   google,
		logger:   logger,
	}
}

// sessionResponse is what every successful login-shaped endpoint returns.
type sessionResponse struct {
	LoggedIn  bool   `json:"loggedIn"`
	User      any    `json:"user,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

func (h *AuthHandler) currentSession() sessionResponse {
	profile, ok := h.sessions.Current()
	if !ok {
		return sessionResponse{LoggedIn: false}
	}
	return sessionResponse{
		LoggedIn:  true,
		User:      profile,
		ExpiresAt: h.sessions.ExpiresAt().UTC().Format(time.RFC3339),
	}
}

// HandleRegister submits a signup to the upstream.
//
// HTTP: POST /api/auth/register
// Body: {"name": ..., "email": ..., "password": ..., "parentId": ...}
//
// parentId is the referrer carried in from an invite link; it is how a new
// account lands in an existing user's downline. No session starts here — the
// account first needs its email verified.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, apperror.ValidationFailed("name", "name is required"))
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, apperror.ValidationFailed("email", "email is required"))
		return
	}
	if req.Password == "" {
		writeError(w, apperror.ValidationFailed("password", "password is required"))
		return
	}

	msg, err := h.upstream.Register(r.Context(), req)
	if err != nil {
		h.logger.Error("register failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": msg})
}

// HandleVerifyEmail confirms the emailed code. On success the upstream
// answers with a credential and profile, so the session starts right here —
// the user never types their password a second time.
//
// HTTP: POST /api/auth/verify-email
// Body: {"email": ..., "code": ...}
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Email == "" || req.Code == "" {
		writeError(w, apperror.ValidationFailed("", "email and code are required"))
		return
	}

	result, err := h.upstream.VerifyEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		h.logger.Error("email verification failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	h.startSession(w, r, result)
}

// HandleLogin exchanges email+password for a session.
//
// HTTP: POST /api/auth/login
// Body: {"email": ..., "password": ...}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("", "email and password are required"))
		return
	}

	result, err := h.upstream.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("login failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	h.startSession(w, r, result)
}

// HandleLogout ends the session.
//
// HTTP: POST /api/auth/logout
//
// POST, not GET: logout changes state, and GET would be vulnerable to CSRF
// and browser pre-fetching. Logging out while logged out succeeds quietly.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleRequestPasswordReset asks the upstream to email a reset link.
//
// HTTP: POST /api/auth/request-password-reset
// Body: {"email": ...}
func (h *AuthHandler) HandleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Email == "" {
		writeError(w, apperror.ValidationFailed("email", "email is required"))
		return
	}

	if err := h.upstream.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Error("password reset request failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "if the address exists, a reset link has been sent",
	})
}

// HandleSubmitNewPassword redeems a reset token for a new password.
//
// HTTP: POST /api/auth/submit-new-password
// Body: {"token": ..., "newPassword": ...}
func (h *AuthHandler) HandleSubmitNewPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		writeError(w, apperror.ValidationFailed("", "token and newPassword are required"))
		return
	}

	if err := h.upstream.SubmitNewPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.logger.Error("password reset failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// HandleGoogleLogin redirects the browser to Google's consent page.
//
// HTTP: GET /auth/google/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes out in both the redirect URL and a short-lived
// HttpOnly cookie. The callback only proceeds when the two match, which
// proves the flow started here.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the Google sign-in.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter against the cookie (CSRF check)
//  2. Exchange the code for Google's ID token
//  3. Forward the ID token to the upstream's google-login endpoint
//  4. Start the session with the credential+profile the upstream returns
//  5. Redirect to the app home page
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("google callback: missing state cookie")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: user denied authorization",
			slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	idToken, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: code exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Upstream("google sign-in", err))
		return
	}

	result, err := h.upstream.GoogleLogin(r.Context(), idToken)
	if err != nil {
		h.logger.Error("google callback: upstream rejected ID token", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if err := h.sessions.Login(r.Context(), result.Profile, result.Credential); err != nil {
		h.logger.Error("google callback: starting session", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// startSession installs the auth result as the live session and answers with
// the standard session shape.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, result *api.AuthResult) {
	if err := h.sessions.Login(r.Context(), result.Profile, result.Credential); err != nil {
		h.logger.Error("starting session", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.currentSession())
}

// HandleSession reports the current session state.
//
// HTTP: GET /api/session
//
// The UI calls this on load to decide between the logged-in and logged-out
// shells. It never errors: logged out is a normal answer, not a 401.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentSession())
}
