package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/ripper-jc/tomodachi-hub/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	refreshPath    = "/api/app/auth/refresh-token"
	contentJSON    = "application/json"
)

// Options configures the backend client
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	Retries      int
	RetryWait    time.Duration
	AccessCookie string
}

// Client talks to the Tomodachi REST API with a cookie session.
// Connection errors are retried by the transport, and so are 5xx answers to
// reads; a 401
// triggers one shared token refresh and a single replay of the request.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	jar          *sessionJar
	accessCookie string
	logger       *slog.Logger
	now          func() time.Time

	refreshMu  sync.Mutex
	refreshGen atomic.Uint64
	refreshErr error // result of the last refresh, guarded by refreshMu
}

// request describes one API call. Bodies are kept as bytes so a request can
// be replayed after a refresh.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	noRefresh   bool // auth endpoints where a 401 is the answer
}

// NewClient creates a client for opts.BaseURL. cookies may be nil, in which
// case the session lives only as long as the process.
func NewClient(opts Options, cookies domain.CookieStore, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host are required", opts.BaseURL)
	}

	jar, err := newSessionJar(base, cookies, logger)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	if opts.RetryWait > 0 {
		rc.RetryWaitMin = opts.RetryWait
		rc.RetryWaitMax = 8 * opts.RetryWait
	}
	rc.HTTPClient.Timeout = timeout
	rc.HTTPClient.Jar = jar
	rc.Logger = logger
	rc.CheckRetry = retryPolicy
	// Hand the last response back instead of a "giving up" error so status
	// mapping stays in one place.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	cookieName := opts.AccessCookie
	if cookieName == "" {
		cookieName = "AccessToken"
	}

	return &Client{
		baseURL:      base,
		httpClient:   rc.StandardClient(),
		jar:          jar,
		accessCookie: cookieName,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// retryPolicy keeps the default policy for reads. Writes are only retried
// when no response arrived, so a 5xx from a proxy cannot apply them twice.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil && resp != nil && resp.Request != nil {
		switch resp.Request.Method {
		case http.MethodGet, http.MethodHead:
		default:
			return false, nil
		}
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// BaseURL returns the server root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// HTTPClient exposes the retrying, cookie-aware client for image downloads
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// ResolveURL turns a server-relative image path into an absolute URL
func (c *Client) ResolveURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

// do sends r and returns the body of a 2xx answer
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	gen := c.refreshGen.Load()
	if !r.noRefresh && c.tokenExpired() {
		if err := c.refresh(ctx, gen); err != nil {
			c.logger.Debug("proactive refresh failed", "error", err)
		}
		gen = c.refreshGen.Load()
	}

	status, body, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && !r.noRefresh {
		if err := c.refresh(ctx, gen); err != nil {
			return nil, err
		}
		status, body, err = c.send(ctx, r)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status >= 300 {
		apiErr := statusError(status, body)
		c.logger.Error("api request error", "method", r.method, "path", r.path, "status", status, "error", apiErr)
		return nil, apiErr
	}
	return body, nil
}

// send performs a single HTTP exchange (the transport may retry underneath)
func (c *Client) send(ctx context.Context, r request) (int, []byte, error) {
	reqURL := c.baseURL.String() + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", contentJSON)
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	c.logger.Debug("api request", "method", r.method, "url", reqURL, "requestID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		c.logger.Error("api request failed", "error", err, "path", r.path, "requestID", requestID)
		return 0, nil, fmt.Errorf("%w: %s %s: %v", domain.ErrNetworkFailure, r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrNetworkFailure, err)
	}
	return resp.StatusCode, data, nil
}

// refresh exchanges the refresh cookie for a new access token. Callers that
// observed generation gen share the outcome of a refresh already performed
// after it instead of issuing their own.
func (c *Client) refresh(ctx context.Context, gen uint64) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.refreshGen.Load() != gen {
		return c.refreshErr
	}

	status, body, err := c.send(ctx, request{
		method:      http.MethodPost,
		path:        refreshPath,
		body:        []byte{},
		contentType: contentJSON,
		noRefresh:   true,
	})
	switch {
	case err != nil:
		c.refreshErr = fmt.Errorf("%w: refresh: %v", domain.ErrAuthFailed, err)
	case status < 200 || status >= 300:
		apiErr := statusError(status, body)
		apiErr.Err = domain.ErrAuthFailed
		c.refreshErr = apiErr
	default:
		c.refreshErr = nil
	}
	c.refreshGen.Add(1)

	if c.refreshErr != nil {
		c.logger.Warn("session refresh failed", "error", c.refreshErr)
	} else {
		c.logger.Debug("session refreshed")
	}
	return c.refreshErr
}

// statusError maps a non-2xx status to an APIError carrying server messages
func statusError(status int, body []byte) *domain.APIError {
	var sentinel error
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = domain.ErrAuthFailed
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		sentinel = domain.ErrInvalidInput
	default:
		sentinel = domain.ErrNetworkFailure
	}
	return &domain.APIError{Status: status, Messages: envelopeMessages(body), Err: sentinel}
}
