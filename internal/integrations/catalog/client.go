// Package catalog is the read-only gateway to the catalog service. The
// catalog is eventually consistent; the engine treats every response as a
// per-turn snapshot and never caches it across turns.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"commerce-agent/internal/domain"
)

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("catalog: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client queries the catalog service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog: base url must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListActiveVendors returns vendors currently taking orders.
func (c *Client) ListActiveVendors(ctx context.Context) ([]domain.Vendor, error) {
	var vendors []domain.Vendor
	if err := c.getJSON(ctx, c.baseURL+"/vendors?active=true", &vendors); err != nil {
		return nil, fmt.Errorf("catalog: list vendors: %w", err)
	}
	return vendors, nil
}

// ListMenuItems returns the full menu for one vendor, available or not;
// filtering is the caller's concern.
func (c *Client) ListMenuItems(ctx context.Context, vendorID string) ([]domain.MenuItem, error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return nil, errors.New("catalog: vendor id must not be empty")
	}
	var items []domain.MenuItem
	endpoint := c.baseURL + "/vendors/" + url.PathEscape(vendorID) + "/items"
	if err := c.getJSON(ctx, endpoint, &items); err != nil {
		return nil, fmt.Errorf("catalog: list menu items: %w", err)
	}
	return items, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
