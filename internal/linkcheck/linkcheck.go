// Package linkcheck finds bookmarks whose URLs no longer answer.
package linkcheck

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pickabook/pkb/internal/model"
)

// Status represents the health status of a URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx response
	Dead                      // 404 or 410 Gone
	Unreachable               // timeout, DNS failure, connection refused, etc.
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	case Unreachable:
		return "unreachable"
	}
	return "unknown"
}

// PossiblyPrivate is the Result.Error of a 404 on an excluded domain.
const PossiblyPrivate = "Possibly private (auth required)"

// Result holds the check result for a single bookmark.
type Result struct {
	Bookmark   model.Bookmark
	Status     Status
	StatusCode int    // HTTP status code (0 if connection failed)
	Error      string // Error message for unreachable URLs
}

// ProgressFunc is called after each URL is checked.
// completed is the number of URLs checked so far, total is the total count.
type ProgressFunc func(completed, total int)

// Params configures a Checker.
type Params struct {
	Concurrency     int           // default 10
	Timeout         time.Duration // per request; default 10s
	ExcludedDomains []string      // 404s here are "possibly private", not dead
	Limiter         *rate.Limiter // optional; shared by all workers
	HTTPClient      *http.Client  // optional
	Logger          *zap.Logger   // optional
}

// Checker checks bookmark URLs concurrently.
type Checker struct {
	concurrency int
	client      *http.Client
	exclude     map[string]bool
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// New creates a Checker.
func New(params Params) *Checker {
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := params.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Follow redirects but limit to 10
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}

	exclude := make(map[string]bool, len(params.ExcludedDomains))
	for _, domain := range params.ExcludedDomains {
		exclude[strings.ToLower(domain)] = true
	}

	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Checker{
		concurrency: concurrency,
		client:      client,
		exclude:     exclude,
		limiter:     params.Limiter,
		logger:      logger,
	}
}

// Check checks every bookmark URL and returns results in input order. When
// ctx is canceled, bookmarks not yet checked report Unreachable.
func (c *Checker) Check(ctx context.Context, bookmarks []model.Bookmark, onProgress ProgressFunc) []Result {
	if len(bookmarks) == 0 {
		return nil
	}

	results := make([]Result, len(bookmarks))
	jobs := make(chan int, len(bookmarks))
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	completed := 0

	workers := min(c.concurrency, len(bookmarks))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = c.checkURL(ctx, bookmarks[idx])

				if onProgress != nil {
					progressMu.Lock()
					completed++
					onProgress(completed, len(bookmarks))
					progressMu.Unlock()
				}
			}
		}()
	}

	for i := range bookmarks {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	c.logger.Debug("link check done", zap.Int("checked", len(bookmarks)))
	return results
}

// checkURL checks a single URL and returns the result.
func (c *Checker) checkURL(ctx context.Context, bookmark model.Bookmark) Result {
	result := Result{Bookmark: bookmark}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			result.Status = Unreachable
			result.Error = normalizeError(err)
			return result
		}
	}

	// Try HEAD first (faster, less bandwidth)
	resp, err := c.do(ctx, http.MethodHead, bookmark.URL)
	if err != nil || resp.StatusCode == http.StatusMethodNotAllowed {
		if resp != nil {
			_ = resp.Body.Close()
		}
		// Some servers don't support HEAD
		resp, err = c.do(ctx, http.MethodGet, bookmark.URL)
		if err != nil {
			result.Status = Unreachable
			result.Error = normalizeError(err)
			return result
		}
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Status = Healthy
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if c.isExcludedDomain(bookmark.URL) {
			result.Status = Unreachable
			result.Error = PossiblyPrivate
		} else {
			result.Status = Dead
		}
	default:
		// 5xx, 403 and friends may be temporary or need auth
		result.Status = Unreachable
		result.Error = http.StatusText(resp.StatusCode)
	}

	return result
}

func (c *Checker) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

// isExcludedDomain checks the URL's host and its parent domains, so
// "api.github.com" matches "github.com".
func (c *Checker) isExcludedDomain(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for host != "" {
		if c.exclude[host] {
			return true
		}
		_, parent, found := strings.Cut(host, ".")
		if !found {
			break
		}
		host = parent
	}
	return false
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(err error) string {
	if errors.Is(err, context.Canceled) {
		return "Canceled"
	}
	errStr := err.Error()
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "context deadline exceeded"),
		strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	default:
		return errStr
	}
}
