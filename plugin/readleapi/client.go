// Package readleapi is a client for the Readle chat service.
package readleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single request when Options.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables pacing
	HTTPClient *http.Client
}

// Client talks to one Readle chat service instance.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client for baseURL. A trailing slash is removed.
func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateSession starts a new server-side conversation.
func (c *Client) CreateSession(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodPost, "/chat/session/new", "Failed to create session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Send posts one user message. An empty sessionID lets the service start a
// session; the reply carries the id it used.
func (c *Client) Send(ctx context.Context, message, sessionID string) (*ChatResponse, error) {
	var out ChatResponse
	in := &ChatRequest{Message: message, SessionID: sessionID}
	if err := c.do(ctx, http.MethodPost, "/chat", "Chat request failed", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearSession deletes the server-side history of a session.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/chat/session/"+url.PathEscape(sessionID), "Failed to clear session", nil, nil)
}

// History fetches the stored turns of a session.
func (c *Client) History(ctx context.Context, sessionID string) (*HistoryResponse, error) {
	var out HistoryResponse
	path := "/chat/session/" + url.PathEscape(sessionID) + "/history"
	if err := c.do(ctx, http.MethodGet, path, "Failed to fetch history", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports service status.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", "Health check failed", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RAGStatus reports the state of the service's retrieval index.
func (c *Client) RAGStatus(ctx context.Context) (*RAGStatus, error) {
	var out RAGStatus
	if err := c.do(ctx, http.MethodGet, "/rag/status", "RAG status check failed", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, op string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, op)
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal request to %s", path)
		}
		body = bytes.NewReader(b)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.Wrapf(err, "failed to construct request to %s", endpoint)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("readle api request failed", "method", method, "path", path, "error", err)
		return errors.Wrap(err, op)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read response from %s", endpoint)
	}

	slog.Debug("readle api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp, b)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return errors.Wrapf(err, "failed to unmarshal response from %s", endpoint)
	}
	return nil
}
