// internal/application/usecase/session_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"drmoto/internal/application/observable"
	"drmoto/internal/domain/session"
	userdom "drmoto/internal/domain/user"
)

// SessionManager wraps the identity provider and publishes the signed-in
// user profile. Users() is the single source of truth for "is a user logged in".
type SessionManager struct {
	provider session.ProviderPort
	users    userdom.RepositoryPort
	clock    Clock
	log      *zap.Logger
	metrics  Metrics

	current *observable.Value[*userdom.User]

	mu          sync.Mutex
	ctx         context.Context
	cancel      func()
	registering int
}

func NewSessionManager(
	provider session.ProviderPort,
	users userdom.RepositoryPort,
	clock Clock,
	log *zap.Logger,
	metrics Metrics,
) *SessionManager {
	if clock == nil {
		clock = systemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		provider: provider,
		users:    users,
		clock:    clock,
		log:      log,
		metrics:  orNop(metrics),
		current:  observable.New[*userdom.User](nil),
		ctx:      context.Background(),
	}
}

// Start follows the provider's session stream. ctx bounds the profile fetches
// triggered by session changes. Calling Start twice is a no-op.
func (m *SessionManager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	m.ctx = ctx
	m.mu.Unlock()

	cancel := m.provider.Subscribe(m.onSession)

	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
}

// Close stops following the provider stream.
func (m *SessionManager) Close() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (m *SessionManager) onSession(id *session.Identity) {
	if id == nil || strings.TrimSpace(id.UID) == "" {
		m.current.Set(nil)
		return
	}

	m.mu.Lock()
	ctx := m.ctx
	busy := m.registering > 0
	m.mu.Unlock()
	// Register publishes the profile once the document is written.
	if busy {
		return
	}

	u, err := m.users.GetByID(ctx, id.UID)
	switch {
	case err == nil && u != nil:
		m.current.Set(u)
		return
	case err == nil || errors.Is(err, userdom.ErrNotFound):
		m.log.Warn("profile document missing; using identity", zap.String("uid", id.UID))
	default:
		m.log.Warn("profile fetch failed; using identity", zap.String("uid", id.UID), zap.Error(err))
	}
	m.current.Set(fallbackUser(*id, m.clock))
}

func fallbackUser(id session.Identity, clock Clock) *userdom.User {
	return &userdom.User{
		ID:          id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		CreatedAt:   clock.Now().UTC(),
	}
}

// Register creates the identity, then the profile document keyed by its UID.
// If the document write fails the identity is deleted so no half-registered
// account remains.
func (m *SessionManager) Register(ctx context.Context, email, password, displayName string) error {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)

	m.mu.Lock()
	m.registering++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.registering--
		m.mu.Unlock()
	}()

	id, err := m.provider.CreateAccount(ctx, email, password, displayName)
	if err != nil {
		m.metrics.AuthAttempt("register", ResultError)
		ae := ClassifyAuth(err)
		m.log.Warn("create account failed", zap.String("kind", string(ae.Kind)), zap.Error(err))
		return ae
	}

	if displayName == "" {
		displayName = id.DisplayName
	}
	u, err := userdom.New(id.UID, email, displayName, m.clock.Now())
	if err == nil {
		err = m.users.Create(ctx, u)
	}
	if err != nil {
		m.metrics.AuthAttempt("register", ResultError)
		m.log.Error("profile write failed; rolling back identity", zap.String("uid", id.UID), zap.Error(err))
		if derr := m.provider.DeleteAccount(ctx, id.UID); derr != nil {
			m.log.Error("identity rollback failed", zap.String("uid", id.UID), zap.Error(derr))
		}
		m.current.Set(nil)
		return writeErr(OpRegister, StageDocument, err)
	}

	m.metrics.AuthAttempt("register", ResultOK)
	m.current.Set(&u)
	return nil
}

// Login signs in; the provider stream populates the profile.
func (m *SessionManager) Login(ctx context.Context, email, password string) error {
	if _, err := m.provider.SignIn(ctx, strings.TrimSpace(email), password); err != nil {
		m.metrics.AuthAttempt("login", ResultError)
		ae := ClassifyAuth(err)
		m.log.Warn("sign in failed", zap.String("kind", string(ae.Kind)), zap.Error(err))
		return ae
	}
	m.metrics.AuthAttempt("login", ResultOK)
	return nil
}

// Logout clears the session. Observers receive nil even when the provider call fails.
func (m *SessionManager) Logout(ctx context.Context) error {
	err := m.provider.SignOut(ctx)
	m.current.Set(nil)
	m.metrics.AuthAttempt("logout", resultOf(err))
	if err != nil {
		m.log.Warn("sign out failed", zap.Error(err))
		return ClassifyAuth(err)
	}
	return nil
}

// ResetPassword asks the provider to deliver a reset email. Success only
// acknowledges delivery.
func (m *SessionManager) ResetPassword(ctx context.Context, email string) error {
	err := m.provider.SendResetEmail(ctx, strings.TrimSpace(email))
	m.metrics.AuthAttempt("reset", resultOf(err))
	if err != nil {
		ae := ClassifyAuth(err)
		m.log.Warn("reset email failed", zap.String("kind", string(ae.Kind)), zap.Error(err))
		return ae
	}
	return nil
}

// UpdateProfile writes the patched profile remotely, then publishes it.
func (m *SessionManager) UpdateProfile(ctx context.Context, in userdom.UpdateUserInput) error {
	cur := m.current.Get()
	if cur == nil {
		return ErrNotAuthenticated
	}
	if in.IsEmpty() {
		return nil
	}

	next := cloneUser(*cur)
	if err := next.Apply(in, m.clock.Now()); err != nil {
		return &ValidationError{Field: "profile", Reason: err.Error()}
	}
	if err := m.users.Update(ctx, next); err != nil {
		if !errors.Is(err, userdom.ErrNotFound) {
			m.log.Error("profile update failed", zap.String("uid", next.ID), zap.Error(err))
			return writeErr(OpProfile, StageDocument, err)
		}
		// Accounts created before the profile document existed.
		if cerr := m.users.Create(ctx, next); cerr != nil {
			m.log.Error("profile create failed", zap.String("uid", next.ID), zap.Error(cerr))
			return writeErr(OpProfile, StageDocument, cerr)
		}
	}
	m.current.Set(&next)
	return nil
}

func (m *SessionManager) CurrentUser() *userdom.User {
	return m.current.Get()
}

func (m *SessionManager) Users() *observable.Value[*userdom.User] {
	return m.current
}

func (m *SessionManager) IsAuthenticated() bool {
	return m.current.Get() != nil
}

// IDToken returns a bearer token for calls made on behalf of the user.
func (m *SessionManager) IDToken(ctx context.Context) (string, error) {
	if !m.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	tok, err := m.provider.IDToken(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return "", ErrNotAuthenticated
		}
		return "", err
	}
	return tok, nil
}

func cloneUser(u userdom.User) userdom.User {
	out := u
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		out.UpdatedAt = &t
	}
	if u.Preferences != nil {
		p := *u.Preferences
		out.Preferences = &p
	}
	return out
}
