// Package apitest runs an in-memory bookmark service for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pickabook/pkb/internal/model"
)

// Token is the credential the server issues on login.
const Token = "test-token"

// Failure makes one route misbehave.
type Failure int

const (
	// FailEnvelope answers 200 with result FAIL.
	FailEnvelope Failure = iota + 1
	// FailStatus answers 500 with a FAIL envelope.
	FailStatus
	// FailTransport drops the connection without a response.
	FailTransport
)

// Request records one call the server received.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

type account struct {
	password string
	profile  model.Profile
}

// Server is a fake bookmark service.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	tags          []model.Tag
	bookmarks     []model.Bookmark
	notifications []model.Notification
	accounts      map[string]*account
	codes         map[string]string
	failures      map[string]Failure
	requests      []Request
	requireAuth   bool
	nextBookmark  int64
	nextTag       int64
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		accounts:     make(map[string]*account),
		codes:        make(map[string]string),
		failures:     make(map[string]Failure),
		nextBookmark: 1,
		nextTag:      1,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.inject)

	r.Post("/user/login", s.login)
	r.Post("/user/signup", s.signup)
	r.Post("/user/email/send", s.sendCode)
	r.Post("/user/email/certification", s.verifyCode)
	r.Post("/user/email/duplicate", s.duplicate)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/bookmark/tags", s.listTags)
		r.Get("/bookmark", s.listBookmarks)
		r.Get("/bookmark/tag/{tagID}", s.listByTag)
		r.Post("/bookmark", s.createBookmark)
		r.Put("/bookmark/{id}", s.updateBookmark)
		r.Delete("/bookmark/delete/{id}", s.deleteBookmark)

		r.Get("/notification", s.listNotifications)
		r.Post("/notification/check/{id}", s.checkNotification)

		r.Get("/user", s.profile)
		r.Delete("/user", s.deleteAccount)
		r.Put("/setting/nickname", s.resetNickname)
		r.Put("/setting/password", s.resetPassword)
	})
	return r
}

// Seed replaces the stored tags and bookmarks.
func (s *Server) Seed(tags []model.Tag, bookmarks []model.Bookmark) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tags = slices.Clone(tags)
	s.bookmarks = make([]model.Bookmark, len(bookmarks))
	for i, b := range bookmarks {
		s.bookmarks[i] = b.Clone()
		s.nextBookmark = max(s.nextBookmark, b.ID+1)
	}
	for _, t := range tags {
		s.nextTag = max(s.nextTag, t.ID+1)
	}
}

// SeedNotifications replaces the stored notifications.
func (s *Server) SeedNotifications(list []model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = slices.Clone(list)
}

// AddAccount registers a user that can log in.
func (s *Server) AddAccount(email, password, nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{
		password: password,
		profile:  model.Profile{Email: email, Nickname: nickname},
	}
}

// RequireAuth makes every data route demand the issued bearer token.
func (s *Server) RequireAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireAuth = true
}

// Fail makes every request to method+path misbehave until Recover.
func (s *Server) Fail(method, path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = f
}

// Recover clears all injected failures.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failures)
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Bookmarks returns the stored bookmarks.
func (s *Server) Bookmarks() []model.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Bookmark, len(s.bookmarks))
	for i, b := range s.bookmarks {
		out[i] = b.Clone()
	}
	return out
}

// Tags returns the stored tags.
func (s *Server) Tags() []model.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tags)
}

// Notifications returns the stored notifications.
func (s *Server) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notifications)
}

// Code returns the certification code sent to email.
func (s *Server) Code(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

// === Middleware ===

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		switch f {
		case FailEnvelope:
			fail(w, http.StatusOK, 1000, "injected failure")
		case FailStatus:
			fail(w, http.StatusInternalServerError, 5000, "injected server error")
		case FailTransport:
			hj, canHijack := w.(http.Hijacker)
			if !canHijack {
				fail(w, http.StatusInternalServerError, 5000, "cannot hijack")
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		required := s.requireAuth
		s.mu.Unlock()

		if required && r.Header.Get("Authorization") != "Bearer "+Token {
			fail(w, http.StatusUnauthorized, 4010, "AUTH_INVALID_TOKEN")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// === Envelope helpers ===

type envelope struct {
	Result    string  `json:"result"`
	Message   *string `json:"message"`
	ErrorCode *int    `json:"errorCode"`
	Timestamp string  `json:"timestamp"`
	Data      any     `json:"data,omitempty"`
}

func ok(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, envelope{Result: "SUCCESS", Data: data})
}

func fail(w http.ResponseWriter, status, code int, msg string) {
	write(w, status, envelope{Result: "FAIL", Message: &msg, ErrorCode: &code})
}

func write(w http.ResponseWriter, status int, env envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, http.StatusBadRequest, 4000, "malformed body")
		return false
	}
	return true
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

func paginate[T any](r *http.Request, list []T) []T {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = 10
	}
	start := min(page*size, len(list))
	end := min(start+size, len(list))
	return slices.Clone(list[start:end])
}

// === Auth handlers ===

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	acct, found := s.accounts[req.Email]
	s.mu.Unlock()

	if !found || acct.password != req.Password {
		fail(w, http.StatusOK, 4001, "invalid email or password")
		return
	}
	ok(w, model.Session{
		Token:        Token,
		RefreshToken: "refresh-" + Token,
		ExpireTime:   time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Email]; exists {
		fail(w, http.StatusOK, 4090, "email already registered")
		return
	}
	if s.codes[req.Email] == "" || s.codes[req.Email] != req.CertificationCode {
		fail(w, http.StatusOK, 4002, "invalid certification code")
		return
	}
	s.accounts[req.Email] = &account{
		password: req.Password,
		profile:  model.Profile{Email: req.Email, Nickname: req.Nickname},
	}
	ok(w, nil)
}

func (s *Server) sendCode(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.codes[req.Email] = "123456"
	s.mu.Unlock()
	ok(w, nil)
}

func (s *Server) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyCertificationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	valid := s.codes[req.Email] != "" && s.codes[req.Email] == req.CertificationCode
	s.mu.Unlock()

	if !valid {
		fail(w, http.StatusOK, 4002, "invalid certification code")
		return
	}
	ok(w, nil)
}

func (s *Server) duplicate(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	_, exists := s.accounts[req.Email]
	s.mu.Unlock()
	ok(w, model.DuplicateEmail{Duplicate: exists})
}

// firstAccount stands in for the account behind the bearer token.
func (s *Server) firstAccount() *account {
	for _, a := range s.accounts {
		return a
	}
	return nil
}

func (s *Server) profile(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	acct := s.firstAccount()
	s.mu.Unlock()

	if acct == nil {
		fail(w, http.StatusNotFound, 4040, "no account")
		return
	}
	ok(w, acct.profile)
}

func (s *Server) deleteAccount(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.accounts)
	ok(w, nil)
}

func (s *Server) resetNickname(w http.ResponseWriter, r *http.Request) {
	var req model.ResetNicknameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.firstAccount()
	if acct == nil {
		fail(w, http.StatusNotFound, 4040, "no account")
		return
	}
	acct.profile.Nickname = req.Nickname
	ok(w, nil)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.firstAccount()
	if acct == nil || acct.password != req.BeforePassword {
		fail(w, http.StatusOK, 4001, "password mismatch")
		return
	}
	acct.password = req.Password
	ok(w, nil)
}

// === Bookmark handlers ===

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, paginate(r, s.tags))
}

func (s *Server) listBookmarks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, paginate(r, s.bookmarks))
}

func (s *Server) listByTag(w http.ResponseWriter, r *http.Request) {
	tagID, valid := idParam(r, "tagID")
	if !valid {
		fail(w, http.StatusBadRequest, 4000, "bad tag id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name := ""
	for _, t := range s.tags {
		if t.ID == tagID {
			name = t.Name
		}
	}
	if name == "" {
		fail(w, http.StatusNotFound, 4040, "tag not found")
		return
	}
	var matched []model.Bookmark
	for _, b := range s.bookmarks {
		if b.HasTag(name) {
			matched = append(matched, b)
		}
	}
	ok(w, paginate(r, matched))
}

func (s *Server) createBookmark(w http.ResponseWriter, r *http.Request) {
	var b model.Bookmark
	if !decodeBody(w, r, &b) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = s.nextBookmark
	s.nextBookmark++
	b.CreatedDate = time.Now().UTC().Format("2006-01-02T15:04:05")
	b.Tags = s.normalizeTags(b.Tags)
	s.bookmarks = append(s.bookmarks, b)
	ok(w, b)
}

func (s *Server) updateBookmark(w http.ResponseWriter, r *http.Request) {
	id, valid := idParam(r, "id")
	if !valid {
		fail(w, http.StatusBadRequest, 4000, "bad bookmark id")
		return
	}
	var b model.Bookmark
	if !decodeBody(w, r, &b) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.bookmarks, func(x model.Bookmark) bool { return x.ID == id })
	if i < 0 {
		fail(w, http.StatusNotFound, 4040, "bookmark not found")
		return
	}
	b.ID = id
	b.CreatedDate = s.bookmarks[i].CreatedDate
	b.Tags = s.normalizeTags(b.Tags)
	s.bookmarks[i] = b
	s.pruneTags()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	id, valid := idParam(r, "id")
	if !valid {
		fail(w, http.StatusBadRequest, 4000, "bad bookmark id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.bookmarks, func(x model.Bookmark) bool { return x.ID == id })
	if i < 0 {
		fail(w, http.StatusNotFound, 4040, "bookmark not found")
		return
	}
	s.bookmarks = slices.Delete(s.bookmarks, i, i+1)
	s.pruneTags()
	w.WriteHeader(http.StatusNoContent)
}

// normalizeTags trims and dedupes names and registers unknown tags.
// Callers hold s.mu.
func (s *Server) normalizeTags(names []string) []string {
	out := []string{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
		if !slices.ContainsFunc(s.tags, func(t model.Tag) bool { return t.Name == n }) {
			s.tags = append(s.tags, model.Tag{ID: s.nextTag, Name: n})
			s.nextTag++
		}
	}
	return out
}

// pruneTags drops tags no bookmark carries any more. Callers hold s.mu.
func (s *Server) pruneTags() {
	s.tags = slices.DeleteFunc(s.tags, func(t model.Tag) bool {
		return !slices.ContainsFunc(s.bookmarks, func(b model.Bookmark) bool { return b.HasTag(t.Name) })
	})
}

// === Notification handlers ===

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, paginate(r, s.notifications))
}

func (s *Server) checkNotification(w http.ResponseWriter, r *http.Request) {
	id, valid := idParam(r, "id")
	if !valid {
		fail(w, http.StatusBadRequest, 4000, "bad notification id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.notifications, func(n model.Notification) bool { return n.ID == id })
	if i < 0 {
		fail(w, http.StatusNotFound, 4040, "notification not found")
		return
	}
	s.notifications[i].Check = true
	ok(w, nil)
}
