// Package mcmirror provides a client for the public Message Center mirror
// at mc.merill.net, used when no Graph app registration is configured.
package mcmirror

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client fetches Message Center posts from the public mirror.
type Client interface {
	// ListMessages returns the mirror's full message dump as JSON.
	ListMessages(ctx context.Context) ([]byte, error)
}

// Option configures the mirror client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a mirror client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://mc.merill.net",
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ListMessages(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/messages.json", nil)
	if err != nil {
		return nil, eris.Wrap(err, "mcmirror: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "mcmirror: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "mcmirror: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("mcmirror: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
