// Package orders is the client for the order-persistence service. Order
// creation either fully succeeds with an order id or fails loudly; the
// service guarantees no partially visible order.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
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
	return fmt.Sprintf("orders: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client submits finalized orders over HTTP.
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
		return nil, errors.New("orders: base url must not be empty")
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

// CreateOrder persists one order and returns its id.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReceipt, error) {
	if len(req.Lines) == 0 {
		return domain.OrderReceipt{}, errors.New("orders: order must have at least one line")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("orders: marshal request: %w", err)
	}

	endpoint := c.baseURL + "/orders"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("orders: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("orders: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return domain.OrderReceipt{}, &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("orders: read response body: %w", err)
	}
	var receipt domain.OrderReceipt
	if err := json.Unmarshal(buf, &receipt); err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("orders: decode response: %w", err)
	}
	if receipt.OrderID == "" {
		return domain.OrderReceipt{}, errors.New("orders: response missing order id")
	}
	return receipt, nil
}
