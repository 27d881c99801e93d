// Package transport sends outbound messages through the messaging channel's
// HTTP API. It owns the rendering of the engine's abstract Text/Choice shapes
// into the channel's wire format; nothing above this package knows the wire
// format exists.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"commerce-agent/internal/domain"
)

// wireMessage is the channel's outbound payload shape.
type wireMessage struct {
	To          string           `json:"to"`
	Type        string           `json:"type"`
	Text        *wireText        `json:"text,omitempty"`
	Interactive *wireInteractive `json:"interactive,omitempty"`
}

type wireText struct {
	Body string `json:"body"`
}

type wireInteractive struct {
	Body    string       `json:"body"`
	Buttons []wireButton `json:"buttons"`
}

type wireButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// sendResponse is the delivery ack returned by the channel.
type sendResponse struct {
	MessageID string `json:"messageId"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("transport: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Getter resolves secrets from the parameter store.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client sends messages through the channel API. The bearer token is fetched
// from the parameter store on first send and reused for the process lifetime.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	tokenOnce sync.Once
	token     string
	tokenErr  error
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL string, ps Getter, paramPrefix string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("transport: base url must not be empty")
	}
	if ps == nil {
		return nil, errors.New("transport: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("transport: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send renders and delivers one message, returning the channel's delivery
// ack id.
func (c *Client) Send(ctx context.Context, customerID string, msg domain.OutboundMessage) (string, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return "", errors.New("transport: customer id must not be empty")
	}

	token, err := c.resolveToken(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(render(customerID, msg))
	if err != nil {
		return "", fmt.Errorf("transport: marshal message: %w", err)
	}

	endpoint := c.baseURL + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("transport: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transport: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("transport: read response body: %w", err)
	}
	var ack sendResponse
	if err := json.Unmarshal(buf, &ack); err != nil {
		return "", fmt.Errorf("transport: decode response: %w", err)
	}
	return ack.MessageID, nil
}

// render maps the abstract message onto the wire shape. A Choice with no
// options degrades to plain text rather than an invalid interactive payload.
func render(customerID string, msg domain.OutboundMessage) wireMessage {
	if msg.Kind == domain.MessageChoice && len(msg.Options) > 0 {
		buttons := make([]wireButton, 0, len(msg.Options))
		for _, opt := range msg.Options {
			buttons = append(buttons, wireButton{ID: opt.ID, Title: opt.Label})
		}
		return wireMessage{
			To:          customerID,
			Type:        "interactive",
			Interactive: &wireInteractive{Body: msg.Prompt, Buttons: buttons},
		}
	}
	body := msg.Body
	if body == "" {
		body = msg.Prompt
	}
	return wireMessage{To: customerID, Type: "text", Text: &wireText{Body: body}}
}

func (c *Client) resolveToken(ctx context.Context) (string, error) {
	c.tokenOnce.Do(func() {
		c.token, c.tokenErr = fetchToken(ctx, c.getter, c.paramPrefix+"/channel-token")
	})
	return c.token, c.tokenErr
}

func fetchToken(ctx context.Context, getter Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("transport: fetch token from paramstore: %w", err)
	}
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", errors.New("transport: channel token is empty")
	}
	return token, nil
}
