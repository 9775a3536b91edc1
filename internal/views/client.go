package views

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gridDashboard/internal/models"
)

// CSRFHeader carries the session CSRF token on mutating requests
const CSRFHeader = "X-CSRF-Token"

// Client implements Store against the dashboard's /api/views endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	csrfToken  string
	header     http.Header
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client, e.g. one with a cookie jar
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCSRFToken sets the token sent on create, update and delete
func WithCSRFToken(token string) ClientOption {
	return func(c *Client) {
		c.csrfToken = token
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// NewClient creates a views client for the dashboard at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		header:     make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context, gridKey string) ([]models.ViewRecord, error) {
	endpoint := c.baseURL + "/api/views?grid_key=" + url.QueryEscape(gridKey)

	views := []models.ViewRecord{}
	if err := c.do(ctx, "list", http.MethodGet, endpoint, nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (c *Client) Create(ctx context.Context, view models.NewView) (models.ViewRecord, error) {
	var record models.ViewRecord
	if err := c.do(ctx, "create", http.MethodPost, c.baseURL+"/api/views", view, &record); err != nil {
		return models.ViewRecord{}, err
	}
	return record, nil
}

func (c *Client) Update(ctx context.Context, id string, patch models.ViewPatch) error {
	return c.do(ctx, "update", http.MethodPatch, c.viewURL(id), patch, nil)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.viewURL(id), nil, nil)
}

func (c *Client) viewURL(id string) string {
	return c.baseURL + "/api/views/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return newError(op, KindInvalid, "failed to encode request", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return newError(op, KindRemote, "failed to build request", err)
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.csrfToken != "" {
		req.Header.Set(CSRFHeader, c.csrfToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(op, KindRemote, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return newError(op, KindRemote, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newError(op, KindRemote, "failed to decode response", err)
	}
	return nil
}

func statusError(op string, status int, body []byte) *PersistenceError {
	var payload struct {
		Error string `json:"error"`
	}
	message := http.StatusText(status)
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}

	kind := KindRemote
	switch status {
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusBadRequest:
		kind = KindInvalid
	}
	return newError(op, kind, message, fmt.Errorf("status %d", status))
}
