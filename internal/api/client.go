// Package api talks to the remote bookmark service.
//
// Every response is wrapped in an Envelope. A transport failure surfaces as
// ErrTransport, a failure envelope or non-2xx status as *ServiceError. The
// client never retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	resultSuccess = "SUCCESS"
	resultFail    = "FAIL"

	defaultTimeout = 30 * time.Second
)

// Envelope is the uniform wrapper around every service response.
type Envelope struct {
	Result    string          `json:"result"`
	Message   *string         `json:"message"`
	ErrorCode *int            `json:"errorCode"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// TokenSource returns the bearer credential for outgoing calls.
// An empty token sends the request unauthenticated.
type TokenSource func(ctx context.Context) (string, error)

// ClientParams configures a Client.
type ClientParams struct {
	BaseURL    string
	HTTPClient *http.Client  // optional; built from Timeout when nil
	Timeout    time.Duration // default 30s
	Token      TokenSource   // optional
	Limiter    *rate.Limiter // optional
	Logger     *zap.Logger   // optional
}

// Client handles communication with the bookmark service.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      TokenSource
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a client for the service at params.BaseURL.
func NewClient(params ClientParams) (*Client, error) {
	if params.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(params.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		token:      params.Token,
		limiter:    params.Limiter,
		logger:     logger,
	}, nil
}

// pageQuery builds the page/size query used by every list endpoint.
func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

// do sends one request and decodes the envelope payload into out.
// out may be nil when the caller expects no content.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
		}
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	c.logger.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return decode(resp.StatusCode, data, out)
}

// decode interprets a response body according to the envelope contract.
func decode(status int, data []byte, out any) error {
	ok := status >= 200 && status < 300

	if len(bytes.TrimSpace(data)) == 0 {
		if ok {
			return nil
		}
		return &ServiceError{Status: status}
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if !ok {
			return &ServiceError{Status: status, Message: strings.TrimSpace(string(data))}
		}
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	if !ok || env.Result != resultSuccess {
		svcErr := &ServiceError{Status: status, Code: env.ErrorCode}
		if env.Message != nil {
			svcErr.Message = *env.Message
		}
		if env.Result != resultFail && ok {
			svcErr.Message = fmt.Sprintf("unexpected result %q", env.Result)
		}
		return svcErr
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %w", ErrInvalidResponse, err)
	}
	return nil
}
