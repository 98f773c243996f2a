// Package client is the HTTP client the CLI uses to talk to a running
// daemon.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sprout/internal/api"
)

// HTTPDoer abstracts the HTTP client for tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the daemon's HTTP API.
type Client struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sets the bearer token for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// New builds a client for the daemon at baseURL, e.g.
// "http://127.0.0.1:7486".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the currently configured bearer token.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call daemon: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var failure struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, failure.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// LoginResult is the response to a login request.
type LoginResult struct {
	Token string `json:"token"`
	User  struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var result LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// Logout invalidates the current token on the daemon and clears it from the
// client.
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/register", body, nil)
}

// Health checks whether the daemon is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// Status fetches the daemon status payload.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	var status map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// ListSessions fetches the caller's import sessions, optionally filtered by
// status.
func (c *Client) ListSessions(ctx context.Context, status string) ([]*api.SessionView, error) {
	path := "/api/import-sessions"
	if status != "" {
		path += "?status=" + status
	}
	var resp struct {
		Sessions []*api.SessionView `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// GetSession fetches one import session.
func (c *Client) GetSession(ctx context.Context, id string) (*api.SessionView, error) {
	var session api.SessionView
	if err := c.do(ctx, http.MethodGet, "/api/import-sessions/"+id, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Select submits a species choice for a session awaiting selection.
func (c *Client) Select(ctx context.Context, id, species, scientificName string) (*api.SelectResponse, error) {
	var resp api.SelectResponse
	body := api.SelectRequest{Species: species, ScientificName: scientificName}
	if err := c.do(ctx, http.MethodPost, "/api/import-sessions/"+id+"/select", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListPlants fetches the caller's plant catalog.
func (c *Client) ListPlants(ctx context.Context) ([]*api.PlantView, error) {
	var resp struct {
		Plants []*api.PlantView `json:"plants"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/plants", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Plants, nil
}
