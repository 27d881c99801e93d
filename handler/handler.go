// Package handler adapts API Gateway webhook invocations to the conversation
// engine. The transport's auth handshake is terminated upstream; events
// arriving here are already verified.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"commerce-agent/internal/domain"
	"commerce-agent/internal/usecase"
)

// EventHandler is the engine surface the webhook depends on.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev domain.InboundEvent) (usecase.HandleOutput, error)
}

// webhookRequest is the inbound event shape posted by the message transport.
type webhookRequest struct {
	CustomerID  string `json:"customerId"`
	Text        string `json:"text"`
	SelectionID string `json:"selectionId,omitempty"`
	DeliveryID  string `json:"deliveryId"`
	Timestamp   string `json:"timestamp"`
}

type webhookResponse struct {
	Status  string `json:"status"`
	Replies int    `json:"replies"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handler turns API Gateway events into engine calls.
type Handler struct {
	engine EventHandler
	logger *slog.Logger
}

func NewHandler(engine EventHandler, logger *slog.Logger) (*Handler, error) {
	if engine == nil {
		return nil, errors.New("handler: engine must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger}, nil
}

// Handle processes one webhook delivery to completion and reports the
// outcome. The customer-facing replies have already been dispatched through
// the transport by the time this returns; the HTTP response only tells the
// transport whether to redeliver.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := correlationIDFrom(req.Headers)
	logger := h.logger.With("correlation_id", correlationID)

	var body webhookRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		logger.Warn("malformed webhook body", "err", err)
		return respond(http.StatusBadRequest, correlationID, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "malformed_body"}), nil
	}

	ev := domain.InboundEvent{
		CustomerID:  strings.TrimSpace(body.CustomerID),
		Text:        body.Text,
		SelectionID: body.SelectionID,
		DeliveryID:  strings.TrimSpace(body.DeliveryID),
		Timestamp:   parseTimestamp(body.Timestamp),
	}

	out, err := h.engine.HandleEvent(ctx, ev)
	if err != nil {
		code, status := classify(err)
		logger.Error("event handling failed", "customer_id", ev.CustomerID, "code", string(code), "err", err)
		return respond(status, correlationID, errorResponse{Error: string(code)}), nil
	}

	status := "ok"
	if out.Duplicate {
		status = "duplicate"
	}
	logger.Info("event handled", "customer_id", ev.CustomerID, "status", status, "replies", len(out.Replies))
	return respond(http.StatusOK, correlationID, webhookResponse{Status: status, Replies: len(out.Replies)}), nil
}

// classify maps the engine's error taxonomy onto HTTP statuses. A 5xx invites
// the transport to redeliver; the dedup record then swallows the retry, so
// INVALID_INPUT stays a 4xx to stop pointless redelivery loops.
func classify(err error) (usecase.ErrorCode, int) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return usecase.ErrorInternal, http.StatusInternalServerError
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return ucErr.Code, http.StatusBadRequest
	case usecase.ErrorUpstream:
		return ucErr.Code, http.StatusBadGateway
	case usecase.ErrorConcurrencyConflict:
		return ucErr.Code, http.StatusConflict
	default:
		return ucErr.Code, http.StatusInternalServerError
	}
}

func respond(status int, correlationID string, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": correlationID,
		},
		Body: string(body),
	}
}

func correlationIDFrom(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "x-correlation-id") && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func parseTimestamp(s string) time.Time {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Now().UTC()
	}
	return ts
}
