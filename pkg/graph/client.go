// Package graph provides a client for the Microsoft Graph service
// communications API (Message Center posts).
package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Graph operations used by the pipeline.
type Client interface {
	// ListMessages fetches all serviceAnnouncement message pages, following
	// @odata.nextLink until exhausted. Each returned element is one page
	// payload ({"value": [...]}).
	ListMessages(ctx context.Context) ([][]byte, error)
	// ListPages fetches an arbitrary paged collection endpoint, following
	// @odata.nextLink until exhausted.
	ListPages(ctx context.Context, url string) ([][]byte, error)
}

// TokenProvider supplies a bearer token for Graph requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Option configures the Graph client.
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

// WithPageSize sets the $top page size for message listing.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		c.pageSize = n
	}
}

type httpClient struct {
	tokens   TokenProvider
	baseURL  string
	pageSize int
	http     *http.Client
}

// NewClient creates a Graph client backed by the given token provider.
func NewClient(tokens TokenProvider, opts ...Option) Client {
	c := &httpClient{
		tokens:   tokens,
		baseURL:  "https://graph.microsoft.com/v1.0",
		pageSize: 100,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ListMessages(ctx context.Context) ([][]byte, error) {
	params := url.Values{
		"$top":     {strconv.Itoa(c.pageSize)},
		"$orderby": {"lastModifiedDateTime desc"},
	}
	return c.ListPages(ctx, c.baseURL+"/admin/serviceAnnouncement/messages?"+params.Encode())
}

func (c *httpClient) ListPages(ctx context.Context, startURL string) ([][]byte, error) {
	next := startURL
	var pages [][]byte
	for next != "" {
		body, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}
		pages = append(pages, body)

		var envelope struct {
			NextLink string `json:"@odata.nextLink"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, eris.Wrap(err, "graph: decode page envelope")
		}
		next = envelope.NextLink
	}
	return pages, nil
}

func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "graph: acquire token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "graph: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "graph: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "graph: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("graph: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// ClientCredentials acquires app-only tokens via the OAuth2 client
// credentials flow and caches them until shortly before expiry.
type ClientCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	LoginURL     string

	http *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClientCredentials creates a token provider for an app registration.
func NewClientCredentials(tenantID, clientID, clientSecret string) *ClientCredentials {
	return &ClientCredentials{
		TenantID:     tenantID,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		LoginURL:     "https://login.microsoftonline.com",
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *ClientCredentials) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expires) {
		return p.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.ClientID},
		"client_secret": {p.ClientSecret},
		"scope":         {"https://graph.microsoft.com/.default"},
	}

	tokenURL := p.LoginURL + "/" + p.TenantID + "/oauth2/v2.0/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "graph: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "graph: token request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "graph: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("graph: token status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", eris.Wrap(err, "graph: decode token response")
	}
	if payload.AccessToken == "" {
		return "", eris.New("graph: empty access token")
	}

	p.token = payload.AccessToken
	// Renew a minute early to avoid using a token that expires mid-request.
	p.expires = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - time.Minute)
	return p.token, nil
}
