package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rootzapp/storefront/internal/apperror"
	"github.com/rootzapp/storefront/internal/model"
	"github.com/rootzapp/storefront/internal/referral"
	"github.com/rootzapp/storefront/internal/session"
)

// ProfileFetcher is the slice of the upstream client the profile pages need.
type ProfileFetcher interface {
	Profile(ctx context.Context, credential string) (*model.Profile, error)
}

// ProfileHandler serves the authenticated user's profile and referral tree.
//
// The profile is always fetched fresh from the upstream — the snapshot the
// session manager persisted is only a restart convenience, and earnings
// figures in particular go stale the moment a referral shops somewhere.
type ProfileHandler struct {
	upstream   ProfileFetcher
	sessions   *session.Manager
	appBaseURL string
	logger     *slog.Logger
}

func NewProfileHandler(upstream ProfileFetcher, sessions *session.Manager,
	appBaseURL string, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		upstream:   upstream,
		sessions:   sessions,
		appBaseURL: appBaseURL,
		logger:     logger,
	}
}

// HandleProfile serves the fresh profile, wallet and downline included.
//
// HTTP: GET /api/profile
// Auth: required (session.Require)
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	cred, _ := session.CredentialFromContext(r.Context())

	profile, err := h.upstream.Profile(r.Context(), cred)
	if err != nil {
		h.logger.Error("fetching profile", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleTree serves the referral tree flattened for rendering: one entry per
// node, pre-order, each carrying depth, relationship label, and the earnings
// figure that node should display (or none).
//
// HTTP: GET /api/profile/tree[?viewer=<nodeID>]
// Auth: required
//
// The optional viewer parameter drills into a descendant's subtree. A viewer
// that is not in the user's downline yields an empty list — an empty family,
// not an error.
func (h *ProfileHandler) HandleTree(w http.ResponseWriter, r *http.Request) {
	cred, _ := session.CredentialFromContext(r.Context())

	profile, err := h.upstream.Profile(r.Context(), cred)
	if err != nil {
		h.logger.Error("fetching profile for tree", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	root := profile.Tree()
	viewer := root
	if viewerID := r.URL.Query().Get("viewer"); viewerID != "" {
		viewer = &model.ReferralNode{ID: viewerID}
	}

	entries := referral.Collect(referral.Traverse(root, viewer))
	if entries == nil {
		entries = []referral.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleInviteLink serves the user's referral invite link: the app origin
// with the user's ID as parentId. Registration accepts that parentId, which
// is how whoever signs up through the link lands in this user's downline.
//
// HTTP: GET /api/invite-link
// Auth: required
func (h *ProfileHandler) HandleInviteLink(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.sessions.Current()
	if !ok {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"inviteLink": h.appBaseURL + "?parentId=" + profile.ID,
	})
}
