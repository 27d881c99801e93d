package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"commerce-agent/internal/domain"
	"commerce-agent/internal/usecase"
)

type stubEngine struct {
	out usecase.HandleOutput
	err error
	in  domain.InboundEvent
}

func (s *stubEngine) HandleEvent(_ context.Context, ev domain.InboundEvent) (usecase.HandleOutput, error) {
	s.in = ev
	return s.out, s.err
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/webhook",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil, nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	eng := &stubEngine{out: usecase.HandleOutput{Replies: []domain.OutboundMessage{domain.Text("Welcome!")}}}
	h, err := NewHandler(eng, nil)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(
		`{"customerId":"+15550001111","text":"hi","deliveryId":"wamid.1","timestamp":"2025-06-01T12:00:00Z"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, "+15550001111", eng.in.CustomerID)
	require.Equal(t, "hi", eng.in.Text)
	require.Equal(t, "wamid.1", eng.in.DeliveryID)
	require.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), eng.in.Timestamp.UTC())

	out := parseBody[webhookResponse](t, resp.Body)
	require.Equal(t, "ok", out.Status)
	require.Equal(t, 1, out.Replies)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
}

func TestHandle_DuplicateDelivery(t *testing.T) {
	eng := &stubEngine{out: usecase.HandleOutput{Duplicate: true}}
	h, err := NewHandler(eng, nil)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(
		`{"customerId":"c1","text":"hi","deliveryId":"wamid.1"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "duplicate", parseBody[webhookResponse](t, resp.Body).Status)
}

func TestHandle_InvalidBody(t *testing.T) {
	eng := &stubEngine{}
	h, err := NewHandler(eng, nil)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, string(usecase.ErrorInvalidInput), parseBody[errorResponse](t, resp.Body).Error)
}

func TestHandle_MapsEngineErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   usecase.ErrorCode
	}{
		{
			name:       "invalid input",
			err:        &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_customer_id"},
			wantStatus: http.StatusBadRequest,
			wantCode:   usecase.ErrorInvalidInput,
		},
		{
			name:       "upstream unavailable",
			err:        &usecase.Error{Code: usecase.ErrorUpstream, Reason: "catalog_error"},
			wantStatus: http.StatusBadGateway,
			wantCode:   usecase.ErrorUpstream,
		},
		{
			name:       "concurrency conflict",
			err:        &usecase.Error{Code: usecase.ErrorConcurrencyConflict, Reason: "save_retries_exhausted"},
			wantStatus: http.StatusConflict,
			wantCode:   usecase.ErrorConcurrencyConflict,
		},
		{
			name:       "internal",
			err:        &usecase.Error{Code: usecase.ErrorInternal, Reason: "session_save_error"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   usecase.ErrorInternal,
		},
		{
			name:       "unclassified",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   usecase.ErrorInternal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := &stubEngine{err: tc.err}
			h, err := NewHandler(eng, nil)
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeEvent(
				`{"customerId":"c1","text":"hi","deliveryId":"wamid.1"}`))
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, resp.StatusCode)
			require.Equal(t, string(tc.wantCode), parseBody[errorResponse](t, resp.Body).Error)
		})
	}
}

func TestHandle_PropagatesCorrelationID(t *testing.T) {
	eng := &stubEngine{}
	h, err := NewHandler(eng, nil)
	require.NoError(t, err)

	req := makeEvent(`{"customerId":"c1","text":"hi","deliveryId":"wamid.1"}`)
	req.Headers["x-correlation-id"] = "corr-123"

	resp, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}

func TestHandle_BadTimestampFallsBackToNow(t *testing.T) {
	eng := &stubEngine{}
	h, err := NewHandler(eng, nil)
	require.NoError(t, err)

	before := time.Now().UTC()
	_, err = h.Handle(context.Background(), makeEvent(
		`{"customerId":"c1","text":"hi","deliveryId":"wamid.1","timestamp":"yesterday"}`))
	require.NoError(t, err)
	require.False(t, eng.in.Timestamp.Before(before))
}
