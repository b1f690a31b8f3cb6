// Package api is the HTTP client for the remote Rootz API — the only place
// in the gateway that talks to the network.
//
// Every data-bearing operation in this application is a thin call through
// here: the catalog, the auth exchanges, the profile with its referral tree,
// the wallet and ledger. The client does exactly one request per call — no
// retries, no backoff, no queueing. A call either succeeds or the caller is
// told once, and deciding what to do about a failure is the caller's job.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rootzapp/storefront/internal/apperror"
	"github.com/rootzapp/storefront/internal/model"
)

// Client calls the remote Rootz API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the API at baseURL (no trailing slash needed).
// The timeout bounds the whole request including body read — a hung upstream
// must not hang a render.
func New(baseURL string) *Client {
	return &Client{
		baseURL: trimSlash(baseURL),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithHTTPClient creates a Client with a caller-supplied http.Client.
// Used by tests to point at an httptest server without the default timeout.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: trimSlash(baseURL), http: hc}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// AuthResult is what every successful authentication exchange returns:
// the bearer credential plus the profile snapshot it belongs to.
type AuthResult struct {
	Credential string         `json:"token"`
	Profile    *model.Profile `json:"user"`
}

// RegisterRequest is the signup payload. ParentID is the referrer from the
// invite link; empty means the user joins with no upline.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	ParentID string `json:"parentId,omitempty"`
}

// remoteError is the upstream's error body shape.
type remoteError struct {
	Message string `json:"message"`
}

// =========================================================================
// CATALOG
// =========================================================================

// Companies fetches the full shop catalog.
func (c *Client) Companies(ctx context.Context) ([]model.Company, error) {
	var out []model.Company
	err := c.do(ctx, http.MethodGet, "/companies", nil, nil, "", &out, "fetching companies")
	return out, err
}

// SearchCompanies fetches shops matching the query.
func (c *Client) SearchCompanies(ctx context.Context, query string) ([]model.Company, error) {
	q := url.Values{"searchQuery": {query}}
	var out []model.Company
	err := c.do(ctx, http.MethodGet, "/companies/search", q, nil, "", &out, "searching companies")
	return out, err
}

// =========================================================================
// AUTHENTICATION
// =========================================================================

// Register submits a signup. The account stays inactive until the emailed
// verification code is confirmed; the upstream's acknowledgement message is
// returned for display.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var out remoteError // the success body is also {"message": ...}
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, "", &out, "registering"); err != nil {
		return "", err
	}
	return out.Message, nil
}

// VerifyEmail confirms the emailed code and completes the signup. On success
// the upstream logs the user straight in.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) (*AuthResult, error) {
	body := map[string]string{"email": email, "code": code}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email", nil, body, "", &out, "verifying email"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges email/password for a credential and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, "", &out, "logging in"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GoogleLogin exchanges a Google ID token for a credential and profile.
// The upstream verifies the assertion with Google and creates the account on
// first sign-in.
func (c *Client) GoogleLogin(ctx context.Context, tokenID string) (*AuthResult, error) {
	body := map[string]string{"tokenId": tokenID}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/google-login", nil, body, "", &out, "google sign-in"); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPasswordReset asks the upstream to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/users/request-password-reset", nil, body, "", nil,
		"requesting password reset")
}

// SubmitNewPassword redeems a reset token for a new password.
func (c *Client) SubmitNewPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/users/submit-new-password", nil, body, "", nil,
		"submitting new password")
}

// =========================================================================
// AUTHENTICATED RESOURCES
// =========================================================================

// profileEnvelope matches the upstream's {"user": {...}} wrapper.
type profileEnvelope struct {
	User *model.Profile `json:"user"`
}

// Profile fetches the authenticated user's profile, including the referral
// tree and wallet.
func (c *Client) Profile(ctx context.Context, credential string) (*model.Profile, error) {
	var out profileEnvelope
	if err := c.do(ctx, http.MethodGet, "/users/profile", nil, nil, credential, &out, "fetching profile"); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, apperror.Contract("fetching profile: upstream response has no user")
	}
	return out.User, nil
}

// Wallet fetches the authenticated user's earnings summary.
func (c *Client) Wallet(ctx context.Context, credential string) (*model.Wallet, error) {
	var out model.Wallet
	if err := c.do(ctx, http.MethodGet, "/users/wallet", nil, nil, credential, &out, "fetching wallet"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions fetches one page of the wallet ledger.
func (c *Client) Transactions(ctx context.Context, credential string, page, limit int) (*model.TransactionPage, error) {
	q := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	var out model.TransactionPage
	if err := c.do(ctx, http.MethodGet, "/users/transactions", q, nil, credential, &out, "fetching transactions"); err != nil {
		return nil, err
	}
	return &out, nil
}

// LikeShop toggles the shop on the user's favorites list.
func (c *Client) LikeShop(ctx context.Context, credential, shopID string) error {
	return c.do(ctx, http.MethodPost, "/companies/"+url.PathEscape(shopID)+"/like",
		nil, nil, credential, nil, "liking shop")
}

// LikedShops fetches the user's favorites.
func (c *Client) LikedShops(ctx context.Context, credential string) ([]model.Company, error) {
	var out []model.Company
	err := c.do(ctx, http.MethodGet, "/companies/liked", nil, nil, credential, &out, "fetching liked shops")
	return out, err
}

// purchaseResponse carries the outbound shop link the UI opens after the
// upstream registers the cashback click.
type purchaseResponse struct {
	SiteURL string `json:"siteUrl"`
}

// SimulatePurchase registers a cashback click on the shop and returns the
// shop's outbound URL.
func (c *Client) SimulatePurchase(ctx context.Context, credential, shopID string) (string, error) {
	var out purchaseResponse
	err := c.do(ctx, http.MethodPost, "/companies/"+url.PathEscape(shopID)+"/purchase",
		nil, nil, credential, &out, "simulating purchase")
	if err != nil {
		return "", err
	}
	return out.SiteURL, nil
}

// Dashboard fetches the admin aggregates.
func (c *Client) Dashboard(ctx context.Context, credential string) (*model.Dashboard, error) {
	var out model.Dashboard
	if err := c.do(ctx, http.MethodGet, "/admin/dashboard", nil, nil, credential, &out, "fetching dashboard"); err != nil {
		return nil, err
	}
	return &out, nil
}

// =========================================================================
// TRANSPORT
// =========================================================================

// do runs one request and decodes the response into out (out may be nil).
//
// STATUS MAPPING:
// Upstream 4xx responses describe the USER's mistake (wrong password, unknown
// email, bad reset token), so they keep their meaning through the gateway:
// 400→validation, 401/403→unauthorized, 404→not found. Anything else
// non-2xx — and any transport failure — is an upstream error: the remote
// service misbehaved, which the handler layer reports as a bad gateway.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any,
	credential string, out any, op string) error {

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Upstream(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(op, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperror.Upstream(op, fmt.Errorf("decoding response: %w", err))
		}
	}
	return nil
}

func (c *Client) statusError(op string, resp *http.Response) error {
	var remote remoteError
	// Best effort — an empty or non-JSON error body just loses the message.
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&remote)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperror.ValidationFailed("", remoteMessageOr(remote, "invalid request"))
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperror.Unauthorized(remoteMessageOr(remote, "authentication required"))
	case http.StatusNotFound:
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: remoteMessageOr(remote, op+": not found"),
		}
	default:
		return apperror.UpstreamStatus(op, resp.StatusCode, remote.Message)
	}
}

func remoteMessageOr(remote remoteError, fallback string) string {
	if remote.Message != "" {
		return remote.Message
	}
	return fallback
}
