// Package panelapi implements ports.Backend against the dashboard
// REST API. The backend answers in several historical shapes (klines
// as arrays or objects, PnL under different field names, unrealized
// legs in three layouts); all of that is normalized here so the rest
// of the panel only sees canonical domain types.
package panelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signalpanel/internal/ports"
)

const defaultTimeout = 10 * time.Second

// Client is the HTTP client for the dashboard backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
	// sessionCookie carries the dashboard's auth cookie, when set.
	sessionCookie string
}

// Config holds configuration for the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  ports.Logger
	// SessionCookie is sent verbatim in the Cookie header.
	SessionCookie string
}

// NewClient builds a backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: backend base URL is required", ports.ErrInvalidRequest)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		logger:        cfg.Logger,
		sessionCookie: cfg.SessionCookie,
	}, nil
}

// get performs a GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, _, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ports.ErrDecodeFailed, path, err)
	}
	return nil
}

// post performs a POST with a JSON body and returns the raw response.
func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ports.ErrInvalidRequest, err)
		}
		reader = bytes.NewReader(buf)
	}
	return c.do(ctx, http.MethodPost, path, nil, reader)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ports.ErrInvalidRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionCookie != "" {
		req.Header.Set("Cookie", c.sessionCookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, c.mapTransportError(ctx, err, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading %s: %v", ports.ErrBackendUnavailable, path, err)
	}
	if err := statusError(resp.StatusCode); err != nil {
		return data, resp.StatusCode, fmt.Errorf("%w: %s returned %d", err, path, resp.StatusCode)
	}
	return data, resp.StatusCode, nil
}

func (c *Client) mapTransportError(ctx context.Context, err error, path string) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s", ports.ErrContextCanceled, path)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s", ports.ErrTimeout, path)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %s", ports.ErrTimeout, path)
	}
	if c.logger != nil {
		c.logger.Debug(ctx, "backend request failed", map[string]interface{}{
			"path": path, "error": err.Error(),
		})
	}
	return fmt.Errorf("%w: %s: %v", ports.ErrBackendUnavailable, path, err)
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return ports.ErrAuthRequired
	case code == http.StatusForbidden:
		return ports.ErrAccessDenied
	case code == http.StatusNotFound:
		return ports.ErrNotFound
	case code >= 500:
		return ports.ErrBackendUnavailable
	default:
		return ports.ErrUnknown
	}
}
