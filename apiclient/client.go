package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/star-console/internal/metrics"
	"github.com/jrsteele09/star-console/notify"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	// PathRefresh is never decorated with a bearer token and never retried.
	PathRefresh = "/auth/refresh"

	RequestIDHeader = "X-Request-Id"

	networkErrorMessage  = "Network error"
	requestFailedMessage = "Request failed"

	maxResponseBytes = 10 << 20
	defaultTimeout   = 30 * time.Second
)

// Authenticator is the session side of the pipeline.
type Authenticator interface {
	// AccessToken returns the current token, or "" when unauthenticated.
	AccessToken() string
	// RefreshAccessToken renews the token through the coordinated refresh.
	RefreshAccessToken(ctx context.Context) (string, error)
	// HandleAuthFailure invalidates the session.
	HandleAuthFailure(ctx context.Context)
}

// Client sends requests to the REST backend. Outgoing requests get the current bearer token;
// a 401 triggers one coordinated refresh and a single retry of the original request.
// One Client is constructed at startup and shared.
type Client struct {
	baseURL    string
	httpClient *http.Client
	notifier   notify.Notifier

	authMu sync.RWMutex
	auth   Authenticator
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithNotifier sets the global feedback channel used for failure messages.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetupAuth installs the session hooks. Until it is called requests go out unauthenticated.
func (c *Client) SetupAuth(a Authenticator) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	c.auth = a
}

// Do sends req and returns the successful response. Errors are *HTTPError, *NetworkError or the
// refresh error when a 401 could not be recovered; the caller always receives the error after
// notifications and session changes have been applied.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	prepared := c.attach(req)
	resp, err := c.send(ctx, prepared)
	if err == nil {
		return resp, nil
	}
	return c.handleFailure(ctx, prepared, err)
}

// DoJSON sends req and decodes the response body into T.
func DoJSON[T any](ctx context.Context, c *Client, req Request) (T, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](resp)
}

func (c *Client) authenticator() Authenticator {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	return c.auth
}

func (c *Client) attach(req Request) Request {
	if isRefreshPath(req.Path) {
		return req.withBearer("")
	}
	if req.bearer != "" {
		return req
	}
	auth := c.authenticator()
	if auth == nil {
		return req
	}
	if token := auth.AccessToken(); token != "" {
		return req.withBearer(token)
	}
	return req
}

func (c *Client) handleFailure(ctx context.Context, req Request, err error) (*Response, error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		// Quiet only mutes status errors; a missing response is always reported.
		if ctx.Err() == nil {
			c.notifyError(networkErrorMessage)
		}
		return nil, err
	}

	auth := c.authenticator()

	switch httpErr.Status {
	case http.StatusBadRequest:
		if auth != nil {
			auth.HandleAuthFailure(ctx)
		}
		return nil, err

	case http.StatusUnauthorized:
		if auth == nil {
			return nil, err
		}
		if !req.retried && !isRefreshPath(req.Path) {
			token, refreshErr := auth.RefreshAccessToken(ctx)
			if refreshErr != nil {
				if callerGaveUp(ctx, refreshErr) {
					// The shared refresh carries on and settles the session itself
					return nil, refreshErr
				}
				auth.HandleAuthFailure(ctx)
				return nil, refreshErr
			}
			if token != "" {
				metrics.APIRetriesTotal.Inc()
				log.Debug().Str("method", req.Method).Str("path", req.Path).Msg("Retrying request with refreshed token")
				return c.Do(ctx, req.asRetry(token))
			}
		}
		auth.HandleAuthFailure(ctx)
		return nil, err
	}

	if !req.SuppressGlobalMessage {
		msg := httpErr.Message
		if msg == "" {
			msg = requestFailedMessage
		}
		c.notifyError(msg)
	}
	return nil, err
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(req.Method, "network").Inc()
		log.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("Request failed without response")
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}

	metrics.APIRequestsTotal.WithLabelValues(req.Method, strconv.Itoa(httpResp.StatusCode)).Inc()
	log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Str("request_id", httpReq.Header.Get(RequestIDHeader)).
		Msg("API request")

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &HTTPError{
			Method:  req.Method,
			Path:    req.Path,
			Status:  httpResp.StatusCode,
			Message: backendMessage(body),
			Body:    body,
		}
	}

	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	if req.Method == "" || req.Path == "" {
		return nil, fmt.Errorf("incomplete request %q %q", req.Method, req.Path)
	}

	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if req.bearer != "" {
		(&oauth2.Token{AccessToken: req.bearer, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}
	return httpReq, nil
}

func (c *Client) notifyError(msg string) {
	if c.notifier != nil {
		c.notifier.Error(msg)
	}
}

// callerGaveUp reports whether err only says that ctx ended while waiting.
func callerGaveUp(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func isRefreshPath(path string) bool {
	return strings.Contains(path, PathRefresh)
}
