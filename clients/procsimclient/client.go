// Package procsimclient provides a client for the procsim HTTP API.
//
// Example usage:
//
//	client := procsimclient.New("http://localhost:8000")
//	p, err := client.Process(ctx)
//	events, err := client.Logs(ctx, "review", "")
package procsimclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nomis52/procsim/activity"
	"github.com/nomis52/procsim/process"
	"github.com/nomis52/procsim/seed"
	"github.com/nomis52/procsim/server/handlers"
)

// Client talks to a procsim server.
// Use New() to create a client for a given base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the server at baseURL, e.g. "http://localhost:8000"
// or "http://localhost:8000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("procsim: %d %s", e.StatusCode, e.Message)
}

// Process returns the default process definition.
func (c *Client) Process(ctx context.Context) (*process.Process, error) {
	var p process.Process
	if err := c.get(ctx, "/process", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Logs returns activity for the default process, newest first. Empty keys
// are not used as filters.
func (c *Client) Logs(ctx context.Context, stageKey, itemKey string) ([]activity.Event, error) {
	q := url.Values{}
	if stageKey != "" {
		q.Set("stage_key", stageKey)
	}
	if itemKey != "" {
		q.Set("item_key", itemKey)
	}
	var resp handlers.LogsResponse
	if err := c.get(ctx, "/logs", q, &resp); err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

// Assign records an assignment.
func (c *Client) Assign(ctx context.Context, req handlers.AssignRequest) error {
	return c.postJSON(ctx, "/assign", req)
}

// Action records a download, review, decision or note.
func (c *Client) Action(ctx context.Context, req handlers.ActionRequest) error {
	return c.postJSON(ctx, "/action", req)
}

// Upload sends the content of r as filename and records an upload event.
// A nil actor lets the server pick its default.
func (c *Client) Upload(ctx context.Context, stageKey, itemKey string, actor *string, filename string, r io.Reader) (*handlers.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{"stage_key": stageKey, "item_key": itemKey}
	if actor != nil {
		fields["actor"] = *actor
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp handlers.UploadResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Seed seeds the default process and illustrative activity.
func (c *Client) Seed(ctx context.Context) (seed.Result, error) {
	var res seed.Result
	err := c.get(ctx, "/seed", nil, &res)
	return res, err
}

// Health returns the server's store diagnostics.
func (c *Client) Health(ctx context.Context) (*handlers.HealthResponse, error) {
	var resp handlers.HealthResponse
	if err := c.get(ctx, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns the per-stage event counts last computed by the server.
func (c *Client) Stats(ctx context.Context) (*handlers.StatsResponse, error) {
	var resp handlers.StatsResponse
	if err := c.get(ctx, "/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, v)
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	var ok handlers.OKResponse
	return c.do(req, &ok)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp handlers.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}
