package auth_test

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
	"gotest.tools/v3/assert"

	"github.com/pickabook/pkb/internal/api"
	"github.com/pickabook/pkb/internal/apitest"
	"github.com/pickabook/pkb/internal/auth"
	"github.com/pickabook/pkb/internal/model"
	"github.com/pickabook/pkb/internal/session"
	"github.com/pickabook/pkb/internal/validate"
)

const (
	email    = "reader@example.com"
	password = "longpassword"
)

type fixture struct {
	srv   *apitest.Server
	store *session.JSONStore
	auth  *auth.Authenticator
}

func setup(t *testing.T) fixture {
	t.Helper()
	srv := apitest.NewServer(t)
	srv.AddAccount(email, password, "reader")
	srv.RequireAuth()

	store := session.NewJSONStore(filepath.Join(t.TempDir(), "session.json"))
	a := auth.New(auth.Params{Store: store, Logger: zaptest.NewLogger(t)})

	client, err := api.NewClient(api.ClientParams{BaseURL: srv.URL, Token: a.Token})
	assert.NilError(t, err)
	a.SetService(client)

	return fixture{srv: srv, store: store, auth: a}
}

func TestLogin_SavesSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.Assert(t, !f.auth.LoggedIn())
	assert.Assert(t, errors.Is(f.auth.RequireLogin(), auth.ErrLoginRequired))

	sess, err := f.auth.Login(ctx, email, password)
	assert.NilError(t, err)
	assert.Equal(t, sess.Token, apitest.Token)
	assert.Assert(t, f.auth.LoggedIn())
	assert.NilError(t, f.auth.RequireLogin())

	saved, err := f.store.Load()
	assert.NilError(t, err)
	assert.Equal(t, saved.Token, apitest.Token)

	token, err := f.auth.Token(ctx)
	assert.NilError(t, err)
	assert.Equal(t, token, apitest.Token)
}

func TestLogin_FailureKeepsPreviousSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, email, password)
	assert.NilError(t, err)

	_, err = f.auth.Login(ctx, email, "wrongpassword")
	assert.Assert(t, errors.Is(err, api.ErrService), "got %v", err)
	assert.Assert(t, f.auth.LoggedIn())
}

func TestLogin_RejectsInvalidInput(t *testing.T) {
	f := setup(t)

	_, err := f.auth.Login(context.Background(), "not-an-email", "")
	assert.Assert(t, errors.Is(err, validate.ErrInvalid), "got %v", err)
	assert.Equal(t, len(f.srv.Requests()), 0)
}

func TestLogin_EmptyPayload(t *testing.T) {
	store := session.NewJSONStore(filepath.Join(t.TempDir(), "session.json"))
	a := auth.New(auth.Params{Store: store, Service: emptyLogin{}})

	_, err := a.Login(context.Background(), email, password)
	assert.Assert(t, errors.Is(err, auth.ErrNoCredential))
	assert.Assert(t, !a.LoggedIn())
}

func TestSessionSurvivesRestart(t *testing.T) {
	f := setup(t)
	_, err := f.auth.Login(context.Background(), email, password)
	assert.NilError(t, err)

	restarted := auth.New(auth.Params{Store: f.store})
	assert.Assert(t, restarted.LoggedIn())
}

func TestLogout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.auth.Login(ctx, email, password)
	assert.NilError(t, err)

	assert.NilError(t, f.auth.Logout())
	assert.Assert(t, !f.auth.LoggedIn())

	saved, err := f.store.Load()
	assert.NilError(t, err)
	assert.Assert(t, saved == nil)

	_, err = f.auth.Profile(ctx)
	assert.Assert(t, errors.Is(err, auth.ErrLoginRequired))
}

func TestIsValidUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	valid, err := f.auth.IsValidUser(ctx)
	assert.NilError(t, err)
	assert.Assert(t, !valid, "no session yet")

	_, err = f.auth.Login(ctx, email, password)
	assert.NilError(t, err)
	valid, err = f.auth.IsValidUser(ctx)
	assert.NilError(t, err)
	assert.Assert(t, valid)

	// A stale token on disk is rejected by the service.
	assert.NilError(t, f.store.Save(&model.Session{Token: "stale"}))
	stale := auth.New(auth.Params{Store: f.store})
	client, err := api.NewClient(api.ClientParams{BaseURL: f.srv.URL, Token: stale.Token})
	assert.NilError(t, err)
	stale.SetService(client)

	valid, err = stale.IsValidUser(ctx)
	assert.NilError(t, err)
	assert.Assert(t, !valid)
}

func TestIsValidUser_TransportError(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.auth.Login(ctx, email, password)
	assert.NilError(t, err)

	f.srv.Fail(http.MethodGet, "/user", apitest.FailTransport)
	_, err = f.auth.IsValidUser(ctx)
	assert.Assert(t, errors.Is(err, api.ErrTransport), "got %v", err)
}

func TestAccountSettings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.auth.Login(ctx, email, password)
	assert.NilError(t, err)

	assert.NilError(t, f.auth.ResetNickname(ctx, "bookworm"))
	profile, err := f.auth.Profile(ctx)
	assert.NilError(t, err)
	assert.Equal(t, profile.Nickname, "bookworm")

	err = f.auth.ResetPassword(ctx, "short", "x")
	assert.Assert(t, errors.Is(err, validate.ErrInvalid))
	assert.NilError(t, f.auth.ResetPassword(ctx, password, "evenlongerpassword"))

	assert.NilError(t, f.auth.DeleteAccount(ctx))
	assert.Assert(t, !f.auth.LoggedIn())
}

func TestSignupFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	newEmail := "new@example.com"

	dup, err := f.auth.CheckDuplicateEmail(ctx, email)
	assert.NilError(t, err)
	assert.Assert(t, dup)

	dup, err = f.auth.CheckDuplicateEmail(ctx, newEmail)
	assert.NilError(t, err)
	assert.Assert(t, !dup)

	assert.NilError(t, f.auth.SendCertificationCode(ctx, newEmail))
	err = f.auth.VerifyCertificationCode(ctx, newEmail, "000000")
	assert.Assert(t, errors.Is(err, api.ErrService))
	code := f.srv.Code(newEmail)
	assert.NilError(t, f.auth.VerifyCertificationCode(ctx, newEmail, code))

	req := model.SignupRequest{
		Email:             newEmail,
		Password:          password,
		Nickname:          "newbie",
		CertificationCode: code,
	}
	assert.Assert(t, errors.Is(f.auth.Signup(ctx, req), auth.ErrTermsNotAccepted))

	req.TermsAndConditions = true
	assert.NilError(t, f.auth.Signup(ctx, req))
	assert.Assert(t, !f.auth.LoggedIn(), "signup does not log in")

	_, err = f.auth.Login(ctx, newEmail, password)
	assert.NilError(t, err)
}

// emptyLogin answers login with a success envelope carrying no data.
type emptyLogin struct {
	auth.Service
}

func (emptyLogin) Login(context.Context, model.LoginRequest) (*model.Session, error) {
	return nil, nil
}
