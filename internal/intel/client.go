package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Result is the outcome of a request/response cycle against the service.
// A non-2xx Status is not an error at this layer; callers decide what a
// given status means for their state machine.
type Result struct {
	Status int
	Body   []byte
}

// Transport issues request/response cycles against the local service.
type Transport interface {
	Post(ctx context.Context, path string, payload any) (Result, error)
	Get(ctx context.Context, path string) (Result, error)
}

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	// BaseURL is the root of the local service.
	BaseURL string

	// Timeout bounds a single request/response cycle.
	Timeout time.Duration
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL: "http://127.0.0.1:46624",
		Timeout: 5 * time.Second,
	}
}

// Client is the HTTP transport to the local code-intelligence service.
// Connectivity failures are reported as *ConnectError; requests after
// Close return ErrClientClosed. No request is ever retried.
type Client struct {
	base   string
	http   *http.Client
	closed atomic.Bool
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultClientConfig().BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClientConfig().Timeout
	}
	return &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Post sends a JSON payload to the given service path.
func (c *Client) Post(ctx context.Context, path string, payload any) (Result, error) {
	if c.closed.Load() {
		return Result{}, ErrClientClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Get issues a GET against the given service path (including any query).
func (c *Client) Get(ctx context.Context, path string) (Result, error) {
	if c.closed.Load() {
		return Result{}, ErrClientClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}

	return c.do(req)
}

// Close marks the client as shut down. In-flight requests are allowed to
// finish; new requests fail with ErrClientClosed.
func (c *Client) Close() {
	c.closed.Store(true)
	c.http.CloseIdleConnections()
}

// IsClosed returns true if the client has been closed.
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}

func (c *Client) do(req *http.Request) (Result, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if c.closed.Load() {
			return Result{}, ErrClientClosed
		}
		return Result{}, &ConnectError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &ConnectError{Err: err}
	}

	return Result{Status: resp.StatusCode, Body: body}, nil
}
