package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// Authenticator exchanges user credentials for a bearer token at the
// issuing service.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Credential, error)
}

// rejection is implemented by authenticator errors that represent an
// active refusal (bad password, unknown account) rather than a transport
// problem.
type rejection interface {
	Rejected() bool
	ServerMessage() string
}

// Status is the lifecycle state of one browser session.
type Status int

const (
	StatusUnknown Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

// Manager is the single authority over session state. It owns every write
// to the token store and keeps an in-memory identity cache per browser
// session; the screens only ever call Login, Logout and Current.
type Manager struct {
	store TokenStore
	auth  Authenticator
	log   *zap.Logger

	now          func() time.Time
	loginTimeout time.Duration

	mu         sync.Mutex
	identities map[string]domain.Identity
	inflight   map[string]*loginAttempt
}

// loginAttempt identifies one in-flight login so a superseded attempt can
// be cancelled, and so its cleanup removes only its own registration.
type loginAttempt struct {
	cancel context.CancelFunc
}

// Option tweaks manager construction.
type Option func(*Manager)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLoginTimeout bounds the wait on an in-flight login attempt.
func WithLoginTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.loginTimeout = d
		}
	}
}

// NewManager builds the session authority.
func NewManager(store TokenStore, auth Authenticator, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		auth:         auth,
		log:          logger,
		now:          time.Now,
		loginTimeout: 15 * time.Second,
		identities:   make(map[string]domain.Identity),
		inflight:     make(map[string]*loginAttempt),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bootstrap restores a session from the token store: decode success yields
// an authenticated session, anything else clears the stale record and
// leaves the session unauthenticated. It runs the first time a session ID
// is seen; later reads come from the cache.
func (m *Manager) Bootstrap(ctx context.Context, sessionID string) (domain.Identity, bool) {
	if sessionID == "" {
		return domain.Identity{}, false
	}

	cred, present, err := m.store.Load(ctx, sessionID)
	if err != nil {
		m.log.Warn("token store read failed", zap.Error(err))
		return domain.Identity{}, false
	}
	if !present {
		return domain.Identity{}, false
	}

	identity, err := DecodeIdentity(cred.Token, m.now())
	if err != nil {
		// Self-healing: a malformed or expired record never survives a read.
		if clearErr := m.store.Clear(ctx, sessionID); clearErr != nil {
			m.log.Warn("token store clear failed", zap.Error(clearErr))
		}
		if errors.Is(err, ErrTokenExpired) {
			m.log.Info("restored credential expired", zap.String("session", sessionID))
		} else {
			m.log.Warn("restored credential invalid", zap.Error(err))
		}
		return domain.Identity{}, false
	}

	m.mu.Lock()
	m.identities[sessionID] = identity
	m.mu.Unlock()
	return identity, true
}

// Login exchanges credentials upstream and, on success, opens a fresh
// session. The previous session ID (empty for a first visit) is used to
// cancel a superseded in-flight attempt from the same browser session.
//
// Failures map onto exactly two categories: ErrLoginRejected carries the
// server-provided reason, everything else is ErrNetworkFailure. Neither is
// retried here.
func (m *Manager) Login(ctx context.Context, previousSessionID, email, password string) (string, domain.Identity, error) {
	loginCtx, cancel := context.WithTimeout(ctx, m.loginTimeout)
	defer cancel()

	if previousSessionID != "" {
		attempt := &loginAttempt{cancel: cancel}
		m.mu.Lock()
		if prev, ok := m.inflight[previousSessionID]; ok {
			prev.cancel()
		}
		m.inflight[previousSessionID] = attempt
		m.mu.Unlock()
		defer func() {
			m.mu.Lock()
			// A newer attempt may have replaced this entry; only
			// remove our own registration.
			if m.inflight[previousSessionID] == attempt {
				delete(m.inflight, previousSessionID)
			}
			m.mu.Unlock()
		}()
	}

	cred, err := m.auth.Login(loginCtx, email, password)
	if err != nil {
		var rej rejection
		if errors.As(err, &rej) && rej.Rejected() {
			msg := rej.ServerMessage()
			if msg == "" {
				msg = "invalid credentials"
			}
			return "", domain.Identity{}, fmt.Errorf("%w: %s", ErrLoginRejected, msg)
		}
		return "", domain.Identity{}, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}

	identity, err := DecodeIdentity(cred.Token, m.now())
	if err != nil {
		return "", domain.Identity{}, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	if cred.ExpiresAt.IsZero() {
		cred.ExpiresAt = identity.ExpiresAt
	}

	// The session ID rotates on every successful login.
	sessionID := uuid.NewString()
	if err := m.store.Save(ctx, sessionID, cred); err != nil {
		return "", domain.Identity{}, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}

	m.mu.Lock()
	m.identities[sessionID] = identity
	if previousSessionID != "" {
		delete(m.identities, previousSessionID)
	}
	m.mu.Unlock()

	m.log.Info("login succeeded",
		zap.String("user", identity.UserName),
		zap.String("role", string(identity.Role)),
	)
	return sessionID, identity, nil
}

// Logout clears the persisted credential and drops the cached identity.
// It never fails: storage errors are logged and the in-memory state is
// discarded regardless, so a second call is a harmless no-op.
func (m *Manager) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := m.store.Clear(ctx, sessionID); err != nil {
		m.log.Warn("token store clear failed on logout", zap.Error(err))
	}
	m.mu.Lock()
	delete(m.identities, sessionID)
	if attempt, ok := m.inflight[sessionID]; ok {
		attempt.cancel()
		delete(m.inflight, sessionID)
	}
	m.mu.Unlock()
}

// Current resolves the identity for a session. Cached identities are
// re-checked for expiry on every read; discovering a stale one transitions
// the session to unauthenticated and clears storage on the spot. A cache
// miss falls back to Bootstrap, covering gateway restarts.
func (m *Manager) Current(ctx context.Context, sessionID string) (domain.Identity, bool) {
	if sessionID == "" {
		return domain.Identity{}, false
	}

	m.mu.Lock()
	identity, cached := m.identities[sessionID]
	if cached && identity.ExpiredAt(m.now()) {
		delete(m.identities, sessionID)
		m.mu.Unlock()
		if err := m.store.Clear(ctx, sessionID); err != nil {
			m.log.Warn("token store clear failed", zap.Error(err))
		}
		return domain.Identity{}, false
	}
	m.mu.Unlock()

	if cached {
		return identity, true
	}
	return m.Bootstrap(ctx, sessionID)
}

// Credential returns the raw bearer token for a session so the upstream
// client can attach it. Sessions that fail resolution have no credential.
func (m *Manager) Credential(ctx context.Context, sessionID string) (string, bool) {
	if _, ok := m.Current(ctx, sessionID); !ok {
		return "", false
	}
	cred, present, err := m.store.Load(ctx, sessionID)
	if err != nil || !present {
		return "", false
	}
	return cred.Token, true
}

// Status reports the lifecycle state of a session without side effects on
// storage, for diagnostics.
func (m *Manager) Status(sessionID string) Status {
	if sessionID == "" {
		return StatusUnauthenticated
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[sessionID]
	if !ok {
		return StatusUnknown
	}
	if identity.ExpiredAt(m.now()) {
		return StatusUnauthenticated
	}
	return StatusAuthenticated
}
