// Package payments initiates payment sessions for non-cash methods. Cash
// settles at pickup and never reaches this client.
package payments

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
	return fmt.Sprintf("payments: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

type initiateRequest struct {
	Method string `json:"method"`
	Amount int64  `json:"amount"`
}

// Client initiates payments over HTTP.
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
		return nil, errors.New("payments: base url must not be empty")
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

// Initiate requests a payment reference or link for the given method and
// minor-unit amount.
func (c *Client) Initiate(ctx context.Context, method domain.PaymentMethod, amount int64) (domain.PaymentSession, error) {
	if !method.RequiresInitiation() {
		return domain.PaymentSession{}, errors.New("payments: method requires no initiation")
	}
	if amount <= 0 {
		return domain.PaymentSession{}, errors.New("payments: amount must be positive")
	}

	body, err := json.Marshal(initiateRequest{Method: string(method), Amount: amount})
	if err != nil {
		return domain.PaymentSession{}, fmt.Errorf("payments: marshal request: %w", err)
	}

	endpoint := c.baseURL + "/payments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.PaymentSession{}, fmt.Errorf("payments: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PaymentSession{}, fmt.Errorf("payments: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return domain.PaymentSession{}, &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return domain.PaymentSession{}, fmt.Errorf("payments: read response body: %w", err)
	}
	var session domain.PaymentSession
	if err := json.Unmarshal(buf, &session); err != nil {
		return domain.PaymentSession{}, fmt.Errorf("payments: decode response: %w", err)
	}
	return session, nil
}
