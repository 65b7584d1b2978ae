// internal/adapters/out/firebase/identity_provider.go
package firebase

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"drmoto/internal/application/observable"
	"drmoto/internal/domain/session"
)

// AdminAuth is the subset of *auth.Client the provider uses.
type AdminAuth interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	PasswordResetLinkWithSettings(ctx context.Context, email string, settings *auth.ActionCodeSettings) (string, error)
}

// ResetMailer delivers an admin-generated reset link.
type ResetMailer interface {
	SendResetLink(ctx context.Context, toEmail, link string) error
}

const minPasswordLength = 6

// tokens are refreshed this long before they expire
const refreshSkew = time.Minute

// IdentityProvider implements session.ProviderPort on Firebase Auth.
type IdentityProvider struct {
	admin       AdminAuth
	toolkit     *ToolkitClient
	mailer      ResetMailer
	continueURL string
	log         *zap.Logger
	now         func() time.Time

	stream *observable.Value[*session.Identity]

	mu        sync.Mutex
	expiresAt time.Time
}

var _ session.ProviderPort = (*IdentityProvider)(nil)

type Option func(*IdentityProvider)

// WithResetMailer delivers reset links through m instead of the provider template.
func WithResetMailer(m ResetMailer, continueURL string) Option {
	return func(p *IdentityProvider) {
		p.mailer = m
		p.continueURL = strings.TrimSpace(continueURL)
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *IdentityProvider) { p.now = now }
}

func NewIdentityProvider(admin AdminAuth, toolkit *ToolkitClient, log *zap.Logger, opts ...Option) *IdentityProvider {
	if log == nil {
		log = zap.NewNop()
	}
	p := &IdentityProvider{
		admin:   admin,
		toolkit: toolkit,
		log:     log,
		now:     time.Now,
		stream:  observable.New[*session.Identity](nil),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CreateAccount creates the identity and signs it in.
func (p *IdentityProvider) CreateAccount(ctx context.Context, email, password, displayName string) (session.Identity, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return session.Identity{}, session.NewProviderError(session.CodeInvalidEmail, nil)
	}
	if len(password) < minPasswordLength {
		return session.Identity{}, session.NewProviderError(session.CodeWeakPassword, nil)
	}
	if p.admin == nil {
		return session.Identity{}, session.NewProviderError(session.CodeInternal, errAdminNotConfigured)
	}

	params := (&auth.UserToCreate{}).Email(email).Password(password)
	if name := strings.TrimSpace(displayName); name != "" {
		params = params.DisplayName(name)
	}
	rec, err := p.admin.CreateUser(ctx, params)
	if err != nil {
		return session.Identity{}, fromAdminError(err)
	}
	p.log.Info("account created", zap.String("uid", rec.UID))

	if !p.toolkit.Configured() {
		id := session.Identity{UID: rec.UID, Email: rec.Email, DisplayName: rec.DisplayName}
		p.publish(&id, time.Time{})
		return id, nil
	}
	id, err := p.SignIn(ctx, email, password)
	if err != nil {
		// no half-created accounts: the caller sees the registration as failed
		if derr := p.admin.DeleteUser(ctx, rec.UID); derr != nil && !auth.IsUserNotFound(derr) {
			p.log.Error("rollback of created account failed", zap.String("uid", rec.UID), zap.Error(derr))
		} else {
			p.log.Warn("sign-in after create failed, account removed", zap.String("uid", rec.UID), zap.Error(err))
		}
		return session.Identity{}, err
	}
	if id.DisplayName == "" {
		id.DisplayName = strings.TrimSpace(displayName)
	}
	return id, nil
}

func (p *IdentityProvider) SignIn(ctx context.Context, email, password string) (session.Identity, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return session.Identity{}, session.NewProviderError(session.CodeInvalidEmail, nil)
	}
	tok, err := p.toolkit.SignInWithPassword(ctx, email, password, p.now())
	if err != nil {
		return session.Identity{}, asProviderError(err)
	}

	if p.admin != nil {
		verified, err := p.admin.VerifyIDToken(ctx, tok.IDToken)
		if err != nil {
			return session.Identity{}, session.NewProviderError(session.CodeInternal, err)
		}
		tok.UID = verified.UID
	}

	id := session.Identity{
		UID:          tok.UID,
		Email:        tok.Email,
		DisplayName:  tok.DisplayName,
		IDToken:      tok.IDToken,
		RefreshToken: tok.RefreshToken,
	}
	if id.Email == "" {
		id.Email = email
	}
	p.publish(&id, tok.ExpiresAt)
	return id, nil
}

// SignOut always clears the local session; token revocation is best effort.
func (p *IdentityProvider) SignOut(ctx context.Context) error {
	cur := p.stream.Get()
	p.publish(nil, time.Time{})
	if cur == nil || p.admin == nil {
		return nil
	}
	if err := p.admin.RevokeRefreshTokens(ctx, cur.UID); err != nil {
		p.log.Warn("revoke refresh tokens failed", zap.String("uid", cur.UID), zap.Error(err))
	}
	return nil
}

func (p *IdentityProvider) SendResetEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return session.NewProviderError(session.CodeInvalidEmail, nil)
	}

	if p.mailer != nil && p.admin != nil {
		var settings *auth.ActionCodeSettings
		if p.continueURL != "" {
			settings = &auth.ActionCodeSettings{URL: p.continueURL}
		}
		link, err := p.admin.PasswordResetLinkWithSettings(ctx, email, settings)
		if err != nil {
			return fromAdminError(err)
		}
		if err := p.mailer.SendResetLink(ctx, email, link); err != nil {
			return session.NewProviderError(session.CodeNetwork, err)
		}
		return nil
	}

	return asProviderError(p.toolkit.SendPasswordReset(ctx, email, p.continueURL))
}

// DeleteAccount treats an unknown uid as already deleted.
func (p *IdentityProvider) DeleteAccount(ctx context.Context, uid string) error {
	uid = strings.TrimSpace(uid)
	if p.admin == nil {
		return session.NewProviderError(session.CodeInternal, errAdminNotConfigured)
	}
	if err := p.admin.DeleteUser(ctx, uid); err != nil && !auth.IsUserNotFound(err) {
		return fromAdminError(err)
	}
	if cur := p.stream.Get(); cur != nil && cur.UID == uid {
		p.publish(nil, time.Time{})
	}
	return nil
}

func (p *IdentityProvider) Subscribe(fn func(*session.Identity)) func() {
	return p.stream.Subscribe(fn)
}

// IDToken returns the current ID token, refreshing it when close to expiry.
func (p *IdentityProvider) IDToken(ctx context.Context) (string, error) {
	cur := p.stream.Get()
	if cur == nil {
		return "", session.ErrNoSession
	}

	p.mu.Lock()
	expiresAt := p.expiresAt
	p.mu.Unlock()

	if cur.IDToken != "" && (expiresAt.IsZero() || p.now().Add(refreshSkew).Before(expiresAt)) {
		return cur.IDToken, nil
	}
	if cur.RefreshToken == "" || !p.toolkit.Configured() {
		if cur.IDToken == "" {
			return "", session.ErrNoSession
		}
		return cur.IDToken, nil
	}

	tok, err := p.toolkit.Refresh(ctx, cur.RefreshToken, p.now())
	if err != nil {
		return "", asProviderError(err)
	}
	next := *cur
	next.IDToken = tok.IDToken
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}
	p.publish(&next, tok.ExpiresAt)
	return next.IDToken, nil
}

// Current returns the signed-in identity or nil.
func (p *IdentityProvider) Current() *session.Identity {
	return p.stream.Get()
}

func (p *IdentityProvider) publish(id *session.Identity, expiresAt time.Time) {
	p.mu.Lock()
	p.expiresAt = expiresAt
	p.mu.Unlock()
	p.stream.Set(id)
}

func validEmail(v string) bool {
	if v == "" {
		return false
	}
	addr, err := mail.ParseAddress(v)
	return err == nil && addr.Address == v
}

// asProviderError keeps provider errors and wraps anything else as internal.
func asProviderError(err error) error {
	if err == nil {
		return nil
	}
	if session.CodeOf(err) != "" {
		return err
	}
	return session.NewProviderError(session.CodeInternal, err)
}
