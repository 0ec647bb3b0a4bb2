// Package auth manages the login session and account calls.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pickabook/pkb/internal/api"
	"github.com/pickabook/pkb/internal/model"
	"github.com/pickabook/pkb/internal/session"
	"github.com/pickabook/pkb/internal/validate"
)

var (
	// ErrLoginRequired is returned by operations that need a session.
	ErrLoginRequired = errors.New("login required")
	// ErrNoCredential is returned when login succeeds without a token.
	ErrNoCredential = errors.New("service returned no credential")
	// ErrTermsNotAccepted is returned by Signup without terms consent.
	ErrTermsNotAccepted = errors.New("terms and conditions must be accepted")
)

// Service is the part of the remote API used for accounts.
type Service interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.Session, error)
	Signup(ctx context.Context, req model.SignupRequest) error
	SendCertificationCode(ctx context.Context, req model.EmailRequest) error
	VerifyCertificationCode(ctx context.Context, req model.VerifyCertificationRequest) error
	CheckDuplicateEmail(ctx context.Context, req model.EmailRequest) (bool, error)
	Profile(ctx context.Context) (*model.Profile, error)
	ResetNickname(ctx context.Context, req model.ResetNicknameRequest) error
	ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error
	DeleteAccount(ctx context.Context) error
}

// Params configures an Authenticator.
type Params struct {
	Service   Service // may be set later with SetService
	Store     session.Store
	Logger    *zap.Logger
	Validator *validate.Validator
}

// Authenticator holds the current session. The api client reads the token
// through Token, so the service is usually attached after construction.
type Authenticator struct {
	mu        sync.Mutex
	svc       Service
	store     session.Store
	logger    *zap.Logger
	validator *validate.Validator

	loaded  bool
	current *model.Session
}

// New creates an Authenticator.
func New(params Params) *Authenticator {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := params.Validator
	if v == nil {
		v = validate.New()
	}
	return &Authenticator{
		svc:       params.Service,
		store:     params.Store,
		logger:    logger,
		validator: v,
	}
}

// SetService attaches the remote service.
func (a *Authenticator) SetService(svc Service) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.svc = svc
}

// Login exchanges credentials for a session and saves it. A failure
// envelope or an empty payload leaves any previous session untouched.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*model.Session, error) {
	req := model.LoginRequest{Email: email, Password: password}
	if err := a.validator.Struct(req); err != nil {
		return nil, err
	}

	sess, err := a.service().Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Token == "" {
		return nil, ErrNoCredential
	}

	if err := a.store.Save(sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	a.mu.Lock()
	a.current = sess
	a.loaded = true
	a.mu.Unlock()

	a.logger.Info("logged in", zap.String("email", email))
	return sess, nil
}

// Logout forgets the session locally.
func (a *Authenticator) Logout() error {
	a.mu.Lock()
	a.current = nil
	a.loaded = true
	a.mu.Unlock()

	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.logger.Info("logged out")
	return nil
}

// LoggedIn reports whether a session is held.
func (a *Authenticator) LoggedIn() bool {
	sess, err := a.session()
	return err == nil && sess != nil
}

// Token returns the bearer token, or "" when logged out. Its signature
// matches api.TokenSource.
func (a *Authenticator) Token(context.Context) (string, error) {
	sess, err := a.session()
	if err != nil || sess == nil {
		return "", err
	}
	return sess.Token, nil
}

// RequireLogin returns ErrLoginRequired when no session is held.
func (a *Authenticator) RequireLogin() error {
	if !a.LoggedIn() {
		return ErrLoginRequired
	}
	return nil
}

// IsValidUser reports whether a session is held and the service still
// accepts it. A rejected credential yields false without an error.
func (a *Authenticator) IsValidUser(ctx context.Context) (bool, error) {
	if !a.LoggedIn() {
		return false, nil
	}
	profile, err := a.service().Profile(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile != nil, nil
}

// Profile returns the logged-in account.
func (a *Authenticator) Profile(ctx context.Context) (*model.Profile, error) {
	if err := a.RequireLogin(); err != nil {
		return nil, err
	}
	return a.service().Profile(ctx)
}

// ResetNickname changes the account nickname.
func (a *Authenticator) ResetNickname(ctx context.Context, nickname string) error {
	if err := a.RequireLogin(); err != nil {
		return err
	}
	req := model.ResetNicknameRequest{Nickname: nickname}
	if err := a.validator.Struct(req); err != nil {
		return err
	}
	return a.service().ResetNickname(ctx, req)
}

// ResetPassword changes the account password.
func (a *Authenticator) ResetPassword(ctx context.Context, before, password string) error {
	if err := a.RequireLogin(); err != nil {
		return err
	}
	req := model.ResetPasswordRequest{Password: password, BeforePassword: before}
	if err := a.validator.Struct(req); err != nil {
		return err
	}
	return a.service().ResetPassword(ctx, req)
}

// DeleteAccount removes the account and, once the service confirms, the
// local session.
func (a *Authenticator) DeleteAccount(ctx context.Context) error {
	if err := a.RequireLogin(); err != nil {
		return err
	}
	if err := a.service().DeleteAccount(ctx); err != nil {
		return err
	}
	return a.Logout()
}

func (a *Authenticator) service() Service {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.svc
}

// session returns the cached session, reading the store on first use.
func (a *Authenticator) session() (*model.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		sess, err := a.store.Load()
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		a.current = sess
		a.loaded = true
	}
	return a.current, nil
}
