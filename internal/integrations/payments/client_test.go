package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"commerce-agent/internal/domain"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

func TestInitiate_HappyPath(t *testing.T) {
	var got initiateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"reference":"PAY-9","payUrl":"https://pay.example/abc"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	session, err := c.Initiate(context.Background(), domain.PayCard, 2400)
	require.NoError(t, err)
	require.Equal(t, "PAY-9", session.Reference)
	require.Equal(t, "https://pay.example/abc", session.PayURL)
	require.Equal(t, initiateRequest{Method: "card", Amount: 2400}, got)
}

func TestInitiate_RejectsCash(t *testing.T) {
	c, err := NewClient("http://payments.local")
	require.NoError(t, err)

	_, err = c.Initiate(context.Background(), domain.PayCash, 2400)
	require.Error(t, err)
}

func TestInitiate_RejectsNonPositiveAmount(t *testing.T) {
	c, err := NewClient("http://payments.local")
	require.NoError(t, err)

	_, err = c.Initiate(context.Background(), domain.PayTransfer, 0)
	require.Error(t, err)
}

func TestInitiate_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "provider unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Initiate(context.Background(), domain.PayTransfer, 500)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.HTTPStatusCode())
}
