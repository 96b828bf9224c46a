package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jamroom/internal/shared"
	"golang.org/x/time/rate"
)

// SessionCookie is the cookie the backend reads the session token from.
const SessionCookie = "auth_token"

// ClientOpts configures a [Client]. Zero values fall back to defaults.
type ClientOpts struct {
	BaseURL           string
	SessionToken      string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Timeout           time.Duration
	Logger            *log.Logger
}

// Client is the HTTP transport to the rooms backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	mu           sync.RWMutex
	sessionToken string
}

// NewClient creates a backend client.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8000"
	}
	if opts.HTTPClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		httpClient:   opts.HTTPClient,
		limiter:      rate.NewLimiter(limit, 1),
		logger:       opts.Logger,
		sessionToken: opts.SessionToken,
	}
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// SessionToken returns the current session token.
func (c *Client) SessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

// SetSessionToken swaps the session token used by subsequent requests.
func (c *Client) SetSessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = token
}

// Authenticated reports whether a session token is set.
func (c *Client) Authenticated() bool { return c.SessionToken() != "" }

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.SessionToken(); tok != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok})
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	c.logger.Debug("backend request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "took", time.Since(start))
	return resp, nil
}

// doRequest sends body as JSON and decodes the response into result.
//
// result may be nil. A 204 or empty body leaves result untouched.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkStatus maps non-2xx responses onto shared sentinel errors, including the backend's detail message when present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := errorDetail(resp.Body)
	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		sentinel = shared.ErrNotAuthenticated
	case http.StatusForbidden:
		sentinel = shared.ErrForbidden
	case http.StatusNotFound:
		sentinel = shared.ErrNotFound
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		sentinel = shared.ErrServiceUnavailable
	default:
		sentinel = shared.ErrAPIRequest
	}

	if msg == "" {
		return fmt.Errorf("%w: status %d", sentinel, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, msg)
}

func errorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Detail != nil:
			return fmt.Sprint(payload.Detail)
		case payload.Error != nil:
			return fmt.Sprint(payload.Error)
		}
	}
	return strings.TrimSpace(string(data))
}

// APIResponse is a raw backend response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs an authenticated GET to path and returns the raw response without status mapping.
func (c *Client) Get(ctx context.Context, path string) (*APIResponse, error) {
	return c.raw(ctx, http.MethodGet, path, nil)
}

// Post performs an authenticated POST of JSON data to path and returns the raw response without status mapping.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return c.raw(ctx, http.MethodPost, path, data)
}

func (c *Client) raw(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: payload}

	var jsonData any
	if err := json.Unmarshal(payload, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}
