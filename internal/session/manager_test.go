package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// stubAuthenticator scripts the upstream login exchange.
type stubAuthenticator struct {
	cred  Credential
	err   error
	calls int
}

func (s *stubAuthenticator) Login(ctx context.Context, email, password string) (Credential, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return Credential{}, err
	}
	if s.err != nil {
		return Credential{}, s.err
	}
	return s.cred, nil
}

// refusal mimics an upstream 4xx response.
type refusal struct{ msg string }

func (r refusal) Error() string         { return r.msg }
func (r refusal) Rejected() bool        { return true }
func (r refusal) ServerMessage() string { return r.msg }

func testIdentityToken(t *testing.T, role domain.Role, expiry time.Time) string {
	t.Helper()
	return mintToken(t, jwt.MapClaims{
		"userId":    11,
		"userName":  "hossam",
		"userGroup": string(role),
		"exp":       expiry.Unix(),
	})
}

func newTestManager(store TokenStore, auth Authenticator, now time.Time) *Manager {
	return NewManager(store, auth, zap.NewNop(), WithClock(func() time.Time { return now }))
}

// blockingAuth parks the first blockBefore logins on their context and lets
// later ones through, so tests can stack superseding attempts.
type blockingAuth struct {
	cred        Credential
	blockBefore int
	started     chan struct{}

	mu    sync.Mutex
	calls int
}

func (b *blockingAuth) Login(ctx context.Context, email, password string) (Credential, error) {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()
	b.started <- struct{}{}
	if call <= b.blockBefore {
		<-ctx.Done()
		return Credential{}, ctx.Err()
	}
	return b.cred, nil
}

func TestLoginOpensFreshSession(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	auth := &stubAuthenticator{cred: Credential{
		Token:     testIdentityToken(t, domain.RoleSuperAdmin, now.Add(time.Hour)),
		ExpiresAt: now.Add(time.Hour),
	}}
	m := newTestManager(store, auth, now)

	sessionID, identity, err := m.Login(context.Background(), "", "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sessionID == "" {
		t.Fatal("expected a session ID")
	}
	if identity.UserName != "hossam" || identity.Role != domain.RoleSuperAdmin {
		t.Errorf("identity = %+v", identity)
	}

	if _, present, _ := store.Load(context.Background(), sessionID); !present {
		t.Error("credential not persisted")
	}
	if got, ok := m.Current(context.Background(), sessionID); !ok || got.UserName != "hossam" {
		t.Errorf("Current = %+v, %v", got, ok)
	}
	if m.Status(sessionID) != StatusAuthenticated {
		t.Errorf("Status = %v, want authenticated", m.Status(sessionID))
	}
}

func TestLoginRotatesSessionID(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	auth := &stubAuthenticator{cred: Credential{
		Token:     testIdentityToken(t, domain.RoleSystemUser, now.Add(time.Hour)),
		ExpiresAt: now.Add(time.Hour),
	}}
	m := newTestManager(store, auth, now)

	first, _, err := m.Login(context.Background(), "", "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, _, err := m.Login(context.Background(), first, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first == second {
		t.Fatal("session ID did not rotate")
	}
	if _, ok := m.Current(context.Background(), second); !ok {
		t.Error("new session not resolvable")
	}
}

func TestSupersededLoginChainCancellation(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	auth := &blockingAuth{
		cred: Credential{
			Token:     testIdentityToken(t, domain.RoleSystemUser, now.Add(time.Hour)),
			ExpiresAt: now.Add(time.Hour),
		},
		blockBefore: 2,
		started:     make(chan struct{}, 3),
	}
	m := newTestManager(NewMemoryStore(), auth, now)

	const previous = "browser-session"
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := m.Login(context.Background(), previous, "a@example.com", "secret123")
		firstErr <- err
	}()
	<-auth.started

	secondErr := make(chan error, 1)
	go func() {
		_, _, err := m.Login(context.Background(), previous, "b@example.com", "secret123")
		secondErr <- err
	}()
	<-auth.started

	// The second attempt supersedes the first.
	select {
	case err := <-firstErr:
		if !errors.Is(err, ErrNetworkFailure) {
			t.Fatalf("first login err = %v, want ErrNetworkFailure", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first login was not cancelled by the second")
	}

	// The first attempt's cleanup has already run; a third attempt must
	// still find and cancel the second.
	if _, _, err := m.Login(context.Background(), previous, "c@example.com", "secret123"); err != nil {
		t.Fatalf("third login: %v", err)
	}
	select {
	case err := <-secondErr:
		if !errors.Is(err, ErrNetworkFailure) {
			t.Fatalf("second login err = %v, want ErrNetworkFailure", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second login was not cancelled by the third")
	}
}

func TestLoginRejectedCarriesServerReason(t *testing.T) {
	now := time.Now()
	m := newTestManager(NewMemoryStore(), &stubAuthenticator{err: refusal{msg: "Invalid email or password"}}, now)

	_, _, err := m.Login(context.Background(), "", "admin@example.com", "wrong")
	if !errors.Is(err, ErrLoginRejected) {
		t.Fatalf("err = %v, want ErrLoginRejected", err)
	}
	if !strings.Contains(err.Error(), "Invalid email or password") {
		t.Errorf("err = %q, want the server reason preserved", err)
	}
}

func TestLoginTransportFailure(t *testing.T) {
	now := time.Now()
	m := newTestManager(NewMemoryStore(), &stubAuthenticator{err: errors.New("connection refused")}, now)

	_, _, err := m.Login(context.Background(), "", "admin@example.com", "secret123")
	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("err = %v, want ErrNetworkFailure", err)
	}
}

func TestBootstrapRestoresPersistedSession(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	sessionID := "restored-session"
	_ = store.Save(context.Background(), sessionID, Credential{
		Token:     testIdentityToken(t, domain.RoleSystemUser, now.Add(time.Hour)),
		ExpiresAt: now.Add(time.Hour),
	})
	m := newTestManager(store, &stubAuthenticator{}, now)

	identity, ok := m.Bootstrap(context.Background(), sessionID)
	if !ok {
		t.Fatal("expected an authenticated session")
	}
	if identity.Role != domain.RoleSystemUser {
		t.Errorf("Role = %q", identity.Role)
	}
}

func TestBootstrapAfterRestartYieldsSameIdentity(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	auth := &stubAuthenticator{cred: Credential{
		Token:     testIdentityToken(t, domain.RoleSuperAdmin, now.Add(time.Hour)),
		ExpiresAt: now.Add(time.Hour),
	}}
	m := newTestManager(store, auth, now)

	sessionID, identity, err := m.Login(context.Background(), "", "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// A fresh manager over the same store stands in for a gateway restart.
	restarted := newTestManager(store, &stubAuthenticator{}, now)
	got, ok := restarted.Bootstrap(context.Background(), sessionID)
	if !ok {
		t.Fatal("session did not survive the restart")
	}
	if got.UserID != identity.UserID || got.UserName != identity.UserName || got.Role != identity.Role {
		t.Errorf("Bootstrap identity = %+v, want %+v", got, identity)
	}
	if !got.ExpiresAt.Equal(identity.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, identity.ExpiresAt)
	}
	if restarted.Status(sessionID) != StatusAuthenticated {
		t.Errorf("Status = %v, want authenticated", restarted.Status(sessionID))
	}
}

func TestBootstrapClearsExpiredCredential(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	sessionID := "stale-session"
	_ = store.Save(context.Background(), sessionID, Credential{
		Token: testIdentityToken(t, domain.RoleSystemUser, now.Add(-time.Minute)),
	})
	m := newTestManager(store, &stubAuthenticator{}, now)

	if _, ok := m.Bootstrap(context.Background(), sessionID); ok {
		t.Fatal("expected an unauthenticated session")
	}
	if _, present, _ := store.Load(context.Background(), sessionID); present {
		t.Error("expired credential survived bootstrap")
	}
}

func TestBootstrapClearsMalformedCredential(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore()
	sessionID := "broken-session"
	_ = store.Save(context.Background(), sessionID, Credential{Token: "not-a-token"})
	m := newTestManager(store, &stubAuthenticator{}, now)

	if _, ok := m.Bootstrap(context.Background(), sessionID); ok {
		t.Fatal("expected an unauthenticated session")
	}
	if _, present, _ := store.Load(context.Background(), sessionID); present {
		t.Error("malformed credential survived bootstrap")
	}
}

func TestCurrentSelfHealsExpiry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	store := NewMemoryStore()
	auth := &stubAuthenticator{cred: Credential{
		Token:     testIdentityToken(t, domain.RoleSuperAdmin, now.Add(time.Hour)),
		ExpiresAt: now.Add(time.Hour),
	}}
	m := NewManager(store, auth, zap.NewNop(), WithClock(func() time.Time { return clock }))

	sessionID, _, err := m.Login(context.Background(), "", "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, ok := m.Current(context.Background(), sessionID); !ok {
		t.Fatal("session should be live before expiry")
	}

	clock = now.Add(2 * time.Hour)
	if _, ok := m.Current(context.Background(), sessionID); ok {
		t.Fatal("session should have expired")
	}
	if _, present, _ := store.Load(context.Background(), sessionID); present {
		t.Error("expired credential not cleared")
	}
	if m.Status(sessionID) != StatusUnknown {
		t.Errorf("Status = %v, want unknown after self-heal", m.Status(sessionID))
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	auth := &stubAuthenticator{cred: Credential{
		Token:     testIdentityToken(t, domain.RoleSuperAdmin, now.Add(time.Hour)),
		ExpiresAt: now.Add(time.Hour),
	}}
	m := newTestManager(store, auth, now)

	sessionID, _, err := m.Login(context.Background(), "", "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	m.Logout(context.Background(), sessionID)
	if _, ok := m.Current(context.Background(), sessionID); ok {
		t.Fatal("session survived logout")
	}
	if _, present, _ := store.Load(context.Background(), sessionID); present {
		t.Error("credential survived logout")
	}

	// A second logout of the same session is a harmless no-op.
	m.Logout(context.Background(), sessionID)
	m.Logout(context.Background(), "")
}

func TestCredentialResolvesRawToken(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	token := testIdentityToken(t, domain.RoleSuperAdmin, now.Add(time.Hour))
	store := NewMemoryStore()
	auth := &stubAuthenticator{cred: Credential{Token: token, ExpiresAt: now.Add(time.Hour)}}
	m := newTestManager(store, auth, now)

	sessionID, _, err := m.Login(context.Background(), "", "admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	got, ok := m.Credential(context.Background(), sessionID)
	if !ok || got != token {
		t.Fatalf("Credential = %q, %v", got, ok)
	}
	if _, ok := m.Credential(context.Background(), "unknown"); ok {
		t.Error("unknown session should have no credential")
	}
}

func TestLoginExpiryFallsBackToClaim(t *testing.T) {
	// When the upstream omits expiresIn, the stored expiry comes from the
	// token's own exp claim.
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	claimExpiry := now.Add(45 * time.Minute)
	store := NewMemoryStore()
	auth := &stubAuthenticator{cred: Credential{
		Token: testIdentityToken(t, domain.RoleSystemUser, claimExpiry),
	}}
	m := newTestManager(store, auth, now)

	sessionID, _, err := m.Login(context.Background(), "", "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	cred, present, _ := store.Load(context.Background(), sessionID)
	if !present {
		t.Fatal("credential not persisted")
	}
	if !cred.ExpiresAt.Equal(time.Unix(claimExpiry.Unix(), 0)) {
		t.Errorf("ExpiresAt = %v, want %v", cred.ExpiresAt, claimExpiry)
	}
}
