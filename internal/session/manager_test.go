package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rootzapp/storefront/internal/apperror"
	"github.com/rootzapp/storefront/internal/model"
	"github.com/rootzapp/storefront/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory SessionStore. Error fields simulate storage
// failures; clearCalls lets tests assert the persisted state was wiped.
type fakeStore struct {
	mu         sync.Mutex
	snap       *repository.SessionSnapshot
	loadErr    error
	saveErr    error
	clearErr   error
	clearCalls int
}

func (f *fakeStore) Load(_ context.Context) (*repository.SessionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.snap, nil
}

func (f *fakeStore) Save(_ context.Context, snap *repository.SessionSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snap = snap
	return nil
}

func (f *fakeStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.snap = nil
	return nil
}

func (f *fakeStore) snapshot() *repository.SessionSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

// eventLog records session events thread-safely — the expiry timer delivers
// them from a timer goroutine.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) count(e Event) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, got := range l.events {
		if got == e {
			n++
		}
	}
	return n
}

// mintCredential signs a token the way the upstream API does.
func mintCredential(t *testing.T, expiry time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(expiry),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("remote-api-secret"))
	if err != nil {
		t.Fatalf("signing test credential: %v", err)
	}
	return signed
}

func testProfile(id string) *model.Profile {
	return &model.Profile{ID: id, Name: "Test User", Email: id + "@example.com"}
}

func newTestManager(store *fakeStore) *Manager {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewManager(store, logger)
}

// =========================================================================
// RESTORE TESTS
// =========================================================================

func TestRestore_NothingPersisted(t *testing.T) {
	m := newTestManager(&fakeStore{})
	m.Restore(context.Background())

	if m.LoggedIn() {
		t.Error("Restore() with empty store should leave manager logged out")
	}
}

func TestRestore_LiveCredential(t *testing.T) {
	store := &fakeStore{
		snap: &repository.SessionSnapshot{
			Credential: mintCredential(t, time.Now().Add(time.Hour)),
			Profile:    testProfile("u1"),
		},
	}
	m := newTestManager(store)
	m.Restore(context.Background())

	profile, ok := m.Current()
	if !ok || profile.ID != "u1" {
		t.Fatalf("Current() = (%v, %v), want profile u1", profile, ok)
	}
	if m.ExpiresAt().IsZero() {
		t.Error("ExpiresAt() should be set after restore")
	}
}

func TestRestore_ExpiredCredentialIsLogout(t *testing.T) {
	store := &fakeStore{
		snap: &repository.SessionSnapshot{
			Credential: mintCredential(t, time.Now().Add(-time.Minute)),
			Profile:    testProfile("u1"),
		},
	}
	m := newTestManager(store)
	m.Restore(context.Background())

	if m.LoggedIn() {
		t.Error("expired credential on restore should yield logged out")
	}
	if store.snapshot() != nil {
		t.Error("expired credential on restore should clear persisted storage")
	}
}

func TestRestore_CorruptStateRecoversToLoggedOut(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("invalid character 'x'")}
	m := newTestManager(store)
	m.Restore(context.Background())

	if m.LoggedIn() {
		t.Error("unreadable persisted state should yield logged out")
	}
	if store.clearCalls == 0 {
		t.Error("unreadable persisted state should be cleared")
	}
}

func TestRestore_UndecodableCredential(t *testing.T) {
	store := &fakeStore{
		snap: &repository.SessionSnapshot{
			Credential: "not-a-jwt",
			Profile:    testProfile("u1"),
		},
	}
	m := newTestManager(store)
	m.Restore(context.Background())

	if m.LoggedIn() {
		t.Error("undecodable persisted credential should yield logged out")
	}
	if store.snapshot() != nil {
		t.Error("undecodable persisted credential should be cleared")
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_PersistsAndNotifies(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)

	log := &eventLog{}
	m.Subscribe(log.record)

	cred := mintCredential(t, time.Now().Add(time.Hour))
	if err := m.Login(context.Background(), testProfile("u1"), cred); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if !m.LoggedIn() {
		t.Error("manager should be logged in")
	}
	got, ok := m.Credential()
	if !ok || got != cred {
		t.Error("Credential() should return the live credential")
	}

	snap := store.snapshot()
	if snap == nil || snap.Credential != cred || snap.Profile == nil {
		t.Error("Login() should persist credential and profile together")
	}
	if log.count(EventLogin) != 1 {
		t.Errorf("EventLogin count = %d, want 1", log.count(EventLogin))
	}
}

func TestLogin_UndecodableCredentialIsContractViolation(t *testing.T) {
	m := newTestManager(&fakeStore{})

	err := m.Login(context.Background(), testProfile("u1"), "garbage-token")
	if !errors.Is(err, apperror.ErrContract) {
		t.Fatalf("error = %v, want ErrContract", err)
	}
	if m.LoggedIn() {
		t.Error("failed login should leave manager logged out")
	}
}

func TestLogin_StoreFailurePropagates(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	m := newTestManager(store)

	err := m.Login(context.Background(), testProfile("u1"),
		mintCredential(t, time.Now().Add(time.Hour)))
	if err == nil {
		t.Fatal("Login() should propagate store errors")
	}
	if m.LoggedIn() {
		t.Error("failed login should not transition to logged in")
	}
}

// =========================================================================
// LOGOUT TESTS
// =========================================================================

func TestLogout_Idempotent(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)

	log := &eventLog{}
	m.Subscribe(log.record)

	if err := m.Login(context.Background(), testProfile("u1"),
		mintCredential(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("first Logout() error = %v", err)
	}
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}

	if m.LoggedIn() {
		t.Error("manager should be logged out")
	}
	if store.snapshot() != nil {
		t.Error("persisted storage should be empty after logout")
	}
	if log.count(EventLogout) != 1 {
		t.Errorf("EventLogout count = %d, want 1 (no event for the no-op)", log.count(EventLogout))
	}
}

func TestLogout_WhenNeverLoggedIn(t *testing.T) {
	m := newTestManager(&fakeStore{})
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() on fresh manager error = %v", err)
	}
}

// =========================================================================
// EXPIRY TIMER TESTS
// =========================================================================

func TestExpiry_FiresLogoutOnce(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)

	log := &eventLog{}
	m.Subscribe(log.record)

	if err := m.Login(context.Background(), testProfile("u1"),
		mintCredential(t, time.Now().Add(60*time.Millisecond))); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if m.LoggedIn() {
		t.Error("manager should have logged out at expiry")
	}
	if store.snapshot() != nil {
		t.Error("expiry should clear persisted storage")
	}
	if got := log.count(EventLogout); got != 1 {
		t.Errorf("EventLogout count = %d, want exactly 1", got)
	}
}

func TestExpiry_ReloginReplacesTimer(t *testing.T) {
	// login(c1) then login(c2): only c2's timer may fire, and only once.
	store := &fakeStore{}
	m := newTestManager(store)

	log := &eventLog{}
	m.Subscribe(log.record)

	ctx := context.Background()
	if err := m.Login(ctx, testProfile("u1"),
		mintCredential(t, time.Now().Add(60*time.Millisecond))); err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	if err := m.Login(ctx, testProfile("u2"),
		mintCredential(t, time.Now().Add(200*time.Millisecond))); err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	// Past c1's expiry, before c2's: still logged in, as u2.
	time.Sleep(120 * time.Millisecond)
	profile, ok := m.Current()
	if !ok || profile.ID != "u2" {
		t.Fatalf("after c1's expiry: Current() = (%v, %v), want u2 still live", profile, ok)
	}

	// Past c2's expiry: logged out, exactly one logout overall.
	time.Sleep(200 * time.Millisecond)
	if m.LoggedIn() {
		t.Error("manager should have logged out at c2's expiry")
	}
	if got := log.count(EventLogout); got != 1 {
		t.Errorf("EventLogout count = %d, want exactly 1", got)
	}
}

func TestExpiry_LogoutCancelsTimer(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store)

	log := &eventLog{}
	m.Subscribe(log.record)

	ctx := context.Background()
	if err := m.Login(ctx, testProfile("u1"),
		mintCredential(t, time.Now().Add(60*time.Millisecond))); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	// The explicit logout is the only one — the cancelled timer must not
	// deliver a second.
	if got := log.count(EventLogout); got != 1 {
		t.Errorf("EventLogout count = %d, want exactly 1", got)
	}
}
