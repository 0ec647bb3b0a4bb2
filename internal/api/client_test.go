package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"
	"gotest.tools/v3/assert"

	"github.com/pickabook/pkb/internal/api"
	"github.com/pickabook/pkb/internal/apitest"
	"github.com/pickabook/pkb/internal/model"
)

func newClient(t *testing.T, baseURL string, token string) *api.Client {
	t.Helper()
	c, err := api.NewClient(api.ClientParams{
		BaseURL: baseURL,
		Token: func(context.Context) (string, error) {
			return token, nil
		},
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Logger:  zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := api.NewClient(api.ClientParams{})
	if !errors.Is(err, api.ErrNoBaseURL) {
		t.Fatalf("expected ErrNoBaseURL, got %v", err)
	}
}

func TestClient_ListTagsSendsPagingAndCredential(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Seed([]model.Tag{{ID: 1, Name: "go"}, {ID: 2, Name: "web"}}, nil)
	c := newClient(t, srv.URL, apitest.Token)

	tags, err := c.ListTags(context.Background(), 0, 1000)
	assert.NilError(t, err)
	assert.DeepEqual(t, tags, []model.Tag{{ID: 1, Name: "go"}, {ID: 2, Name: "web"}})

	reqs := srv.Requests()
	assert.Equal(t, len(reqs), 1)
	assert.Equal(t, reqs[0].Path, "/bookmark/tags")
	assert.Equal(t, reqs[0].Query, "page=0&size=1000")
	assert.Equal(t, reqs[0].Authorization, "Bearer "+apitest.Token)
	assert.Assert(t, reqs[0].RequestID != "", "expected X-Request-ID header")
}

func TestClient_NoTokenSendsNoAuthorization(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv.URL, "")

	_, err := c.ListBookmarks(context.Background(), 0, 10)
	assert.NilError(t, err)
	assert.Equal(t, srv.Requests()[0].Authorization, "")
}

func TestClient_EmptyListsAreNonNil(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv.URL, apitest.Token)

	tags, err := c.ListTags(context.Background(), 0, 10)
	assert.NilError(t, err)
	assert.Assert(t, tags != nil)

	bookmarks, err := c.ListBookmarks(context.Background(), 0, 10)
	assert.NilError(t, err)
	assert.Assert(t, bookmarks != nil)
}

func TestClient_BookmarkLifecycle(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv.URL, apitest.Token)
	ctx := context.Background()

	created, err := c.CreateBookmark(ctx, model.NewBookmark(model.NewBookmarkParams{
		Title: "Go",
		URL:   "https://go.dev",
		Tags:  []string{"go", " go ", "lang"},
	}))
	assert.NilError(t, err)
	assert.Assert(t, created.ID > 0, "service should assign an id")
	assert.DeepEqual(t, created.Tags, []string{"go", "lang"})
	_, ok := created.CreatedAt()
	assert.Assert(t, ok, "createdDate should parse: %q", created.CreatedDate)

	created.Title = "The Go Programming Language"
	created.Tags = []string{"lang"}
	assert.NilError(t, c.UpdateBookmark(ctx, created))

	byTag, err := c.ListBookmarksByTag(ctx, srv.Tags()[0].ID, 0, 10)
	assert.NilError(t, err)
	assert.Equal(t, len(byTag), 1)
	assert.Equal(t, byTag[0].Title, "The Go Programming Language")

	assert.NilError(t, c.DeleteBookmark(ctx, created.ID))
	assert.Equal(t, len(srv.Bookmarks()), 0)

	reqs := srv.Requests()
	assert.Equal(t, reqs[1].Method, http.MethodPut)
	assert.Equal(t, reqs[1].Path, "/bookmark/1")
	assert.Equal(t, reqs[3].Method, http.MethodDelete)
	assert.Equal(t, reqs[3].Path, "/bookmark/delete/1")
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name        string
		failure     apitest.Failure
		wantService bool
		wantStatus  int
	}{
		{name: "failure envelope", failure: apitest.FailEnvelope, wantService: true, wantStatus: http.StatusOK},
		{name: "server error", failure: apitest.FailStatus, wantService: true, wantStatus: http.StatusInternalServerError},
		{name: "transport", failure: apitest.FailTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apitest.NewServer(t)
			srv.Fail(http.MethodPost, "/bookmark", tt.failure)
			c := newClient(t, srv.URL, apitest.Token)

			_, err := c.CreateBookmark(context.Background(), model.Bookmark{Title: "x", URL: "https://x.dev"})
			assert.Assert(t, err != nil)

			var svcErr *api.ServiceError
			if tt.wantService {
				assert.Assert(t, errors.Is(err, api.ErrService), "got %v", err)
				assert.Assert(t, errors.As(err, &svcErr))
				assert.Equal(t, svcErr.Status, tt.wantStatus)
				assert.Assert(t, svcErr.Code != nil)
				assert.Assert(t, !errors.Is(err, api.ErrTransport))
			} else {
				assert.Assert(t, errors.Is(err, api.ErrTransport), "got %v", err)
				assert.Assert(t, !errors.As(err, &svcErr))
			}
		})
	}
}

func TestClient_UnauthorizedMatchesSentinel(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.RequireAuth()
	c := newClient(t, srv.URL, "stale")

	_, err := c.ListBookmarks(context.Background(), 0, 10)
	assert.Assert(t, errors.Is(err, api.ErrUnauthorized), "got %v", err)
	assert.Assert(t, errors.Is(err, api.ErrService), "got %v", err)
}

func TestClient_InvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()
	c := newClient(t, srv.URL, "")

	_, err := c.ListTags(context.Background(), 0, 10)
	assert.Assert(t, errors.Is(err, api.ErrInvalidResponse), "got %v", err)
}

func TestClient_UnexpectedResultIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"MAYBE","data":[]}`))
	}))
	defer srv.Close()
	c := newClient(t, srv.URL, "")

	_, err := c.ListTags(context.Background(), 0, 10)
	assert.Assert(t, errors.Is(err, api.ErrService), "got %v", err)
}

func TestClient_TokenSourceError(t *testing.T) {
	srv := apitest.NewServer(t)
	boom := errors.New("keychain locked")
	c, err := api.NewClient(api.ClientParams{
		BaseURL: srv.URL,
		Token:   func(context.Context) (string, error) { return "", boom },
	})
	assert.NilError(t, err)

	_, err = c.ListTags(context.Background(), 0, 10)
	assert.Assert(t, errors.Is(err, boom), "got %v", err)
	assert.Equal(t, len(srv.Requests()), 0)
}

func TestClient_CanceledContext(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv.URL, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListTags(ctx, 0, 10)
	assert.Assert(t, errors.Is(err, api.ErrTransport), "got %v", err)
	assert.Assert(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestClient_AccountCalls(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv.URL, apitest.Token)
	ctx := context.Background()
	email := "reader@example.com"

	dup, err := c.CheckDuplicateEmail(ctx, model.EmailRequest{Email: email})
	assert.NilError(t, err)
	assert.Assert(t, !dup)

	assert.NilError(t, c.SendCertificationCode(ctx, model.EmailRequest{Email: email}))
	code := srv.Code(email)
	assert.NilError(t, c.VerifyCertificationCode(ctx, model.VerifyCertificationRequest{Email: email, CertificationCode: code}))
	assert.NilError(t, c.Signup(ctx, model.SignupRequest{
		Email: email, Password: "longpassword", Nickname: "reader", CertificationCode: code,
	}))

	session, err := c.Login(ctx, model.LoginRequest{Email: email, Password: "longpassword"})
	assert.NilError(t, err)
	assert.Equal(t, session.Token, apitest.Token)

	assert.NilError(t, c.ResetNickname(ctx, model.ResetNicknameRequest{Nickname: "bookworm"}))
	profile, err := c.Profile(ctx)
	assert.NilError(t, err)
	assert.Equal(t, profile.Nickname, "bookworm")

	err = c.ResetPassword(ctx, model.ResetPasswordRequest{Password: "newpassword", BeforePassword: "wrong"})
	assert.Assert(t, errors.Is(err, api.ErrService))

	assert.NilError(t, c.DeleteAccount(ctx))
	_, err = c.Profile(ctx)
	assert.Assert(t, errors.Is(err, api.ErrService))
}

func TestClient_Notifications(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SeedNotifications([]model.Notification{
		{ID: 5, NotiType: "BROWSER", Message: "read this", Bookmark: model.Bookmark{ID: 1, URL: "https://go.dev"}},
	})
	c := newClient(t, srv.URL, apitest.Token)
	ctx := context.Background()

	list, err := c.ListNotifications(ctx, 0, 100)
	assert.NilError(t, err)
	assert.Equal(t, len(list), 1)
	assert.Equal(t, list[0].Bookmark.URL, "https://go.dev")

	assert.NilError(t, c.CheckNotification(ctx, 5))
	assert.Assert(t, srv.Notifications()[0].Check)

	err = c.CheckNotification(ctx, 99)
	assert.Assert(t, errors.Is(err, api.ErrService))
}
