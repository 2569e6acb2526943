package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corpdesk/employee-portal/internal/config"
	"github.com/corpdesk/employee-portal/internal/domain"
	"github.com/corpdesk/employee-portal/internal/repository"
)

// Credential is the proof of identity used to re-verify a signed-in principal.
type Credential struct {
	Email    string
	Password string
}

// EmailCredential builds a password credential for email.
func EmailCredential(email, password string) Credential {
	return Credential{Email: email, Password: password}
}

// Provider is the identity backend used by the employee workflows. Every call that acts on
// a signed-in principal receives that principal's session explicitly.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, sess *domain.Session) error
	Reauthenticate(ctx context.Context, sess *domain.Session, cred Credential) error
	DeleteAccount(ctx context.Context, sess *domain.Session) error
	UpdateDisplayName(ctx context.Context, sess *domain.Session, name string) error
	UpdateEmail(ctx context.Context, sess *domain.Session, email string) error
	CurrentPrincipal(sess *domain.Session) *domain.Principal
}

// AccountDirectory enumerates and removes accounts without a session. It is used by
// maintenance jobs, never by request handlers.
type AccountDirectory interface {
	ListAccounts(ctx context.Context) ([]domain.Principal, error)
	PurgeAccount(ctx context.Context, uid string) error
}

// LocalProvider implements Provider on top of the accounts table, Redis sessions and JWTs.
type LocalProvider struct {
	accounts    repository.AccountRepository
	sessions    SessionStore
	tokens      *TokenManager
	throttle    *SignInThrottle
	bcryptCost  int
	minPassword int
	recentLogin time.Duration
	now         func() time.Time
}

// ProviderOption customizes a LocalProvider.
type ProviderOption func(*LocalProvider)

// WithClock replaces time.Now, mainly for tests around the recent-login window.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *LocalProvider) {
		p.now = now
	}
}

// NewLocalProvider wires the provider from auth configuration.
func NewLocalProvider(cfg config.AuthConfig, accounts repository.AccountRepository, sessions SessionStore, opts ...ProviderOption) *LocalProvider {
	p := &LocalProvider{
		accounts:    accounts,
		sessions:    sessions,
		tokens:      NewTokenManager(cfg.JWTSecret, cfg.SessionTTL()),
		throttle:    NewSignInThrottle(cfg.SignInMaxFailures, cfg.SignInFailureWindow()),
		bcryptCost:  cfg.BcryptCost,
		minPassword: cfg.MinPasswordLength,
		recentLogin: cfg.RecentLoginWindow(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close releases background resources.
func (p *LocalProvider) Close() {
	p.throttle.Close()
}

func (p *LocalProvider) CreateAccount(ctx context.Context, email, password string) (*domain.Session, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(password, p.minPassword); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password, p.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		UID:          uuid.NewString(),
		Email:        normalized,
		PasswordHash: hash,
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return p.startSession(ctx, account)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := p.throttle.Allow(normalized); err != nil {
		return nil, err
	}

	account, err := p.accounts.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			p.throttle.RecordFailure(normalized)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := ComparePassword(account.PasswordHash, password); err != nil {
		p.throttle.RecordFailure(normalized)
		return nil, ErrInvalidCredentials
	}

	p.throttle.Reset(normalized)
	return p.startSession(ctx, account)
}

func (p *LocalProvider) SignOut(ctx context.Context, sess *domain.Session) error {
	if sess == nil {
		return nil
	}
	if err := p.sessions.Delete(ctx, sess.ID); err != nil {
		return err
	}
	sess.Principal = nil
	return nil
}

func (p *LocalProvider) Reauthenticate(ctx context.Context, sess *domain.Session, cred Credential) error {
	rec, err := p.activeRecord(ctx, sess)
	if err != nil {
		return err
	}

	account, err := p.accounts.GetByID(ctx, rec.UID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(account.Email, strings.TrimSpace(cred.Email)) {
		return ErrInvalidCredentials
	}
	if err := ComparePassword(account.PasswordHash, cred.Password); err != nil {
		return ErrInvalidCredentials
	}

	rec.AuthTime = p.now().UTC()
	if err := p.sessions.Save(ctx, rec); err != nil {
		return err
	}
	sess.AuthTime = rec.AuthTime
	return nil
}

func (p *LocalProvider) DeleteAccount(ctx context.Context, sess *domain.Session) error {
	rec, err := p.activeRecord(ctx, sess)
	if err != nil {
		return err
	}
	if !p.recentlyAuthenticated(rec) {
		return ErrRequiresRecentLogin
	}

	if err := p.PurgeAccount(ctx, rec.UID); err != nil {
		return err
	}
	sess.Principal = nil
	return nil
}

func (p *LocalProvider) UpdateDisplayName(ctx context.Context, sess *domain.Session, name string) error {
	rec, err := p.activeRecord(ctx, sess)
	if err != nil {
		return err
	}

	account, err := p.accounts.GetByID(ctx, rec.UID)
	if err != nil {
		return err
	}
	account.DisplayName = strings.TrimSpace(name)
	if err := p.accounts.Update(ctx, account); err != nil {
		return err
	}
	sess.Principal.DisplayName = account.DisplayName
	return nil
}

func (p *LocalProvider) UpdateEmail(ctx context.Context, sess *domain.Session, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	rec, err := p.activeRecord(ctx, sess)
	if err != nil {
		return err
	}
	if !p.recentlyAuthenticated(rec) {
		return ErrRequiresRecentLogin
	}

	account, err := p.accounts.GetByID(ctx, rec.UID)
	if err != nil {
		return err
	}
	if account.Email == normalized {
		return nil
	}
	account.Email = normalized
	if err := p.accounts.Update(ctx, account); err != nil {
		return err
	}
	sess.Principal.Email = normalized
	return nil
}

// CurrentPrincipal returns the principal carried by sess without any I/O.
func (p *LocalProvider) CurrentPrincipal(sess *domain.Session) *domain.Principal {
	if !sess.Active(p.now()) {
		return nil
	}
	return sess.Principal
}

// Resume rebuilds a session from a bearer token issued by this provider.
func (p *LocalProvider) Resume(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	rec, err := p.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if rec.UID != claims.Subject || !p.now().Before(rec.ExpiresAt) {
		return nil, ErrSessionInvalid
	}

	account, err := p.accounts.GetByID(ctx, rec.UID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	return &domain.Session{
		ID:        rec.ID,
		Principal: account.Principal(),
		Token:     token,
		AuthTime:  rec.AuthTime,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// ListAccounts returns every registered principal.
func (p *LocalProvider) ListAccounts(ctx context.Context) ([]domain.Principal, error) {
	accounts, err := p.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	principals := make([]domain.Principal, 0, len(accounts))
	for i := range accounts {
		principals = append(principals, *accounts[i].Principal())
	}
	return principals, nil
}

// PurgeAccount revokes all sessions of the account and then deletes it. A returned error
// means the account row is still present.
func (p *LocalProvider) PurgeAccount(ctx context.Context, uid string) error {
	if err := p.sessions.DeleteAllForUser(ctx, uid); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return p.accounts.Delete(ctx, uid)
}

func (p *LocalProvider) startSession(ctx context.Context, account *domain.Account) (*domain.Session, error) {
	now := p.now().UTC()
	sessionID := uuid.NewString()

	token, expiresAt, err := p.tokens.GenerateToken(account.UID, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	rec := &SessionRecord{ID: sessionID, UID: account.UID, AuthTime: now, ExpiresAt: expiresAt}
	if err := p.sessions.Save(ctx, rec); err != nil {
		return nil, err
	}

	return &domain.Session{
		ID:        sessionID,
		Principal: account.Principal(),
		Token:     token,
		AuthTime:  now,
		ExpiresAt: expiresAt,
	}, nil
}

func (p *LocalProvider) activeRecord(ctx context.Context, sess *domain.Session) (*SessionRecord, error) {
	if !sess.Active(p.now()) {
		return nil, ErrSessionInvalid
	}
	rec, err := p.sessions.Get(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if rec.UID != sess.Principal.UID {
		return nil, ErrSessionInvalid
	}
	return rec, nil
}

func (p *LocalProvider) recentlyAuthenticated(rec *SessionRecord) bool {
	return p.now().Sub(rec.AuthTime) <= p.recentLogin
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

var (
	_ Provider         = (*LocalProvider)(nil)
	_ AccountDirectory = (*LocalProvider)(nil)
)
