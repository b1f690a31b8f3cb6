// Package session owns the authenticated-session lifecycle: who is logged
// in, until when, and nothing else gets to touch the persisted state.
//
// THE STATE MACHINE:
//
//	LoggedOut --Login--> LoggedIn(profile, expiry)
//	LoggedIn  --Login--> LoggedIn   (credential replaced, timer re-armed)
//	LoggedIn  --Logout--> LoggedOut
//	LoggedIn  --timer fires--> LoggedOut (identical to Logout)
//	LoggedOut --Logout--> LoggedOut (no-op)
//
// The manager arms a single timer at the credential's expiry so the session
// dies locally at the same moment the upstream stops accepting it. At most
// one timer is ever live: Login and Logout stop the previous one before
// doing anything else, and a generation counter makes a stale timer that
// already fired into a no-op.
//
// The session is one object, injected into whoever needs it, rather than
// ambient state scattered across consumers. Components that want fresh data
// after a login/logout subscribe for the event and re-fetch deliberately.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rootzapp/storefront/internal/apperror"
	"github.com/rootzapp/storefront/internal/auth"
	"github.com/rootzapp/storefront/internal/model"
	"github.com/rootzapp/storefront/internal/repository"
)

// Event is a session transition notification.
type Event int

const (
	EventLogin  Event = iota // a session became live (incl. replacement login)
	EventLogout              // the session ended (explicit or expiry)
)

// Manager is the single owner of the session. All methods are safe for
// concurrent use; every transition runs under one lock, so no reader ever
// observes a half-written state (credential persisted but no profile, a
// cancelled timer still counted live, and so on).
type Manager struct {
	store  repository.SessionStore
	logger *slog.Logger

	// nowFunc is replaceable in tests.
	nowFunc func() time.Time

	mu       sync.RWMutex
	profile  *model.Profile
	cred     string
	expiry   time.Time
	timer    *time.Timer
	timerGen uint64

	subMu sync.Mutex
	subs  []func(Event)
}

// NewManager creates a Manager in the LoggedOut state. Call Restore once at
// startup to pick up a persisted session.
func NewManager(store repository.SessionStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Restore loads any persisted session at process start.
//
// Outcomes, none of which are surfaced as errors:
//   - nothing persisted           → LoggedOut
//   - persisted state unreadable  → LoggedOut, storage cleared
//   - credential already expired  → LoggedOut, storage cleared (same as logout)
//   - credential still live       → LoggedIn, timer armed for the remainder
func (m *Manager) Restore(ctx context.Context) {
	snap, err := m.store.Load(ctx)
	if err != nil {
		// Corrupt local state is recovered, not reported: treat as absent.
		m.logger.Warn("session: discarding unreadable persisted session",
			slog.String("error", err.Error()))
		m.clearStore(ctx)
		return
	}
	if snap == nil || snap.Credential == "" || snap.Profile == nil {
		return
	}

	expiry, err := auth.DecodeExpiry(snap.Credential)
	if err != nil {
		m.logger.Warn("session: persisted credential does not decode, discarding",
			slog.String("error", err.Error()))
		m.clearStore(ctx)
		return
	}

	if !expiry.After(m.nowFunc()) {
		m.logger.Info("session: persisted credential expired, logging out",
			slog.Time("expiry", expiry))
		m.clearStore(ctx)
		return
	}

	m.mu.Lock()
	m.profile = snap.Profile
	m.cred = snap.Credential
	m.expiry = expiry
	m.armTimerLocked(expiry)
	m.mu.Unlock()

	m.logger.Info("session restored",
		slog.String("userID", snap.Profile.ID),
		slog.Time("expiry", expiry),
	)
}

// Login installs a new session: persists profile+credential as one unit,
// replaces any live expiry timer, and transitions to LoggedIn.
//
// The credential must decode to a claim set with a numeric expiry. If it does
// not, the upstream identity flow broke its contract — the error is returned
// and the current state (logged in or out) is left untouched.
func (m *Manager) Login(ctx context.Context, profile *model.Profile, credential string) error {
	if profile == nil || credential == "" {
		return apperror.Contract("session: login requires a profile and a credential")
	}

	expiry, err := auth.DecodeExpiry(credential)
	if err != nil {
		return fmt.Errorf("session: %w", apperror.Contract(
			fmt.Sprintf("credential from identity flow does not decode: %v", err)))
	}

	m.mu.Lock()
	if err := m.store.Save(ctx, &repository.SessionSnapshot{
		Credential: credential,
		Profile:    profile,
	}); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("session: persisting session: %w", err)
	}

	m.profile = profile
	m.cred = credential
	m.expiry = expiry
	m.armTimerLocked(expiry)
	m.mu.Unlock()

	m.logger.Info("session started",
		slog.String("userID", profile.ID),
		slog.Time("expiry", expiry),
	)

	m.notify(EventLogin)
	return nil
}

// Logout ends the session: stops the timer, clears the persisted state, and
// transitions to LoggedOut. Calling it while already logged out is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	wasLoggedIn := m.profile != nil
	m.stopTimerLocked()
	m.profile = nil
	m.cred = ""
	m.expiry = time.Time{}
	err := m.store.Clear(ctx)
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("session: clearing persisted session: %w", err)
	}

	if wasLoggedIn {
		m.logger.Info("session ended")
		m.notify(EventLogout)
	}
	return nil
}

// LoggedIn reports whether a session is live.
func (m *Manager) LoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile != nil
}

// Current returns the profile of the live session, or (nil, false).
func (m *Manager) Current() (*model.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile, m.profile != nil
}

// Credential returns the live bearer credential, or ("", false). Callers use
// it to authorize upstream requests; nobody else may persist it.
func (m *Manager) Credential() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred, m.cred != ""
}

// ExpiresAt returns the live session's expiry, or the zero time when logged
// out.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiry
}

// Subscribe registers fn to run on every login/logout transition. Data views
// that must refresh on session change subscribe here and re-fetch
// deliberately.
func (m *Manager) Subscribe(fn func(Event)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subs = append(m.subs, fn)
}

// armTimerLocked replaces the expiry timer. Caller holds m.mu.
//
// The generation counter is the double-fire guard: a timer that was already
// in flight when we stopped it will still run its callback, but the callback
// compares generations and gives up.
func (m *Manager) armTimerLocked(expiry time.Time) {
	m.stopTimerLocked()
	m.timerGen++
	gen := m.timerGen
	m.timer = time.AfterFunc(expiry.Sub(m.nowFunc()), func() {
		m.expire(gen)
	})
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerGen++ // invalidate any in-flight callback
}

// expire is the timer callback: behaves exactly like Logout, provided the
// timer that fired is still the current one.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.timerGen || m.profile == nil {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.profile = nil
	m.cred = ""
	m.expiry = time.Time{}
	err := m.store.Clear(context.Background())
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("session: clearing persisted session on expiry",
			slog.String("error", err.Error()))
	}
	m.logger.Info("session expired")
	m.notify(EventLogout)
}

func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("session: clearing persisted session",
			slog.String("error", err.Error()))
	}
}

func (m *Manager) notify(e Event) {
	m.subMu.Lock()
	subs := make([]func(Event), len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}
