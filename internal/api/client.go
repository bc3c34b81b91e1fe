// Package api provides the client for the remote authentication API.
//
// FILES:
//   - client.go: Client, options and the request pipeline
//   - errors.go: Error and helpers for surfacing server messages
//   - login.go:  POST /login
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/evently/evently-auth/internal/config"
	"github.com/evently/evently-auth/internal/utils"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// TokenStore is the part of the session store the client needs.
type TokenStore interface {
	Token() (string, bool, error)
	ClearToken() error
}

// =============================================================================
// Client
// =============================================================================

// Client talks to the remote authentication API. It attaches the stored
// bearer token to every request and evicts it when the API answers 401.
// It never retries and never navigates.
type Client struct {
	baseURL    string
	tokens     TokenStore
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. The client is never modified;
// WithTimeout applies to a copy.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(client *Client) {
		client.timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(client *Client) {
		client.userAgent = ua
	}
}

// NewClient creates an API client. An empty baseURL falls back to
// EVENTLY_API_URL and then to the built-in default. tokens may be nil, in
// which case every request is sent unauthenticated.
func NewClient(baseURL string, tokens TokenStore, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = os.Getenv(config.EnvAPIURL)
	}
	if baseURL == "" {
		baseURL = config.DefaultAPIBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: config.DefaultRequestTimeout,
		},
		userAgent: config.AppName + "-cli/1.0",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: config.DefaultRequestTimeout}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c
}

// BaseURL returns the configured base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// HTTP Helpers
// =============================================================================

// Post issues a POST with a JSON body and returns the response body of a 2xx answer.
func (c *Client) Post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.bearerToken()
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Str("token", utils.MaskToken(token)).
		Msg("api: request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.evictToken(requestID)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Message:    gjson.GetBytes(respBody, "message").String(),
		}
		log.Debug().
			Int("status", resp.StatusCode).
			Str("request_id", requestID).
			Str("body", utils.Truncate(string(respBody), 200)).
			Msg("api: non-2xx response")
		return nil, apiErr
	}

	return respBody, nil
}

func (c *Client) bearerToken() (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	token, ok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("reading session token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// evictToken drops the stored token after a 401. A failure to evict is
// logged; the caller still gets the 401.
func (c *Client) evictToken(requestID string) {
	if c.tokens == nil {
		return
	}
	if err := c.tokens.ClearToken(); err != nil {
		log.Warn().Err(err).Str("request_id", requestID).Msg("api: failed to evict rejected token")
		return
	}
	log.Info().Str("request_id", requestID).Msg("api: token rejected, evicted from session")
}
