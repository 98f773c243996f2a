package identify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sprout/internal/store"
)

// HTTPDoer abstracts the HTTP client so tests can stub transport behavior.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteEngine delegates identification to an external HTTP service.
type RemoteEngine struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// RemoteOption customizes a RemoteEngine.
type RemoteOption func(*RemoteEngine)

// WithRemoteToken sets the bearer token used when no caller token is
// forwarded.
func WithRemoteToken(token string) RemoteOption {
	return func(e *RemoteEngine) {
		e.token = token
	}
}

// WithRemoteTimeout sets the HTTP client timeout.
func WithRemoteTimeout(timeout time.Duration) RemoteOption {
	return func(e *RemoteEngine) {
		if timeout > 0 {
			e.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(client HTTPDoer) RemoteOption {
	return func(e *RemoteEngine) {
		if client != nil {
			e.client = client
		}
	}
}

func NewRemoteEngine(baseURL string, opts ...RemoteOption) *RemoteEngine {
	engine := &RemoteEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

func (e *RemoteEngine) Close() error { return nil }

func (e *RemoteEngine) post(ctx context.Context, path string, body any, token string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token == "" {
		token = e.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("call engine: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read engine response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("engine returned %d: %s", resp.StatusCode, failure.Error)
		}
		return fmt.Errorf("engine returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode engine response: %w", err)
	}
	return nil
}

// Identify uploads the photo to the remote engine.
func (e *RemoteEngine) Identify(ctx context.Context, photo []byte, contentType string) (*Identification, error) {
	if len(photo) == 0 {
		return nil, errors.New("photo is empty")
	}
	request := map[string]string{
		"photo":       base64.StdEncoding.EncodeToString(photo),
		"contentType": contentType,
	}
	var payload identifyPayload
	if err := e.post(ctx, "/identify", request, "", &payload); err != nil {
		return nil, err
	}
	return &Identification{
		Species:        payload.Species,
		ScientificName: payload.ScientificName,
		Confidence:     payload.Confidence,
		Suggestions:    payload.Suggestions,
	}, nil
}

// Research asks the remote engine for care details.
func (e *RemoteEngine) Research(ctx context.Context, species, scientificName string) (*store.CareDetails, error) {
	if species == "" {
		return nil, errors.New("species is required")
	}
	request := map[string]string{
		"species":        species,
		"scientificName": scientificName,
	}
	var care store.CareDetails
	if err := e.post(ctx, "/research", request, "", &care); err != nil {
		return nil, err
	}
	return &care, nil
}

// Resume notifies the remote engine that a selection was committed, forwarding
// the caller's token so the engine can read and update the session.
func (e *RemoteEngine) Resume(ctx context.Context, sessionID, species, scientificName, authToken string) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	request := map[string]string{
		"species":        species,
		"scientificName": scientificName,
	}
	return e.post(ctx, "/import-sessions/"+sessionID+"/resume", request, authToken, nil)
}
