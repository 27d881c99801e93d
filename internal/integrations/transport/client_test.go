package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"commerce-agent/internal/domain"
)

// fakeGetter is a minimal paramstore stub.
type fakeGetter struct {
	val    string
	err    error
	calls  int
	wanted string
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.calls++
	f.wanted = name
	return f.val, f.err
}

func TestNewClient_Validation(t *testing.T) {
	g := &fakeGetter{val: "tok"}
	_, err := NewClient("", g, "/commerce-agent")
	require.Error(t, err)
	_, err = NewClient("http://channel.local", nil, "/commerce-agent")
	require.Error(t, err)
	_, err = NewClient("http://channel.local", g, "  ")
	require.Error(t, err)
}

func TestRender_Shapes(t *testing.T) {
	cases := []struct {
		name string
		msg  domain.OutboundMessage
		want wireMessage
	}{
		{
			name: "plain text",
			msg:  domain.Text("Welcome!"),
			want: wireMessage{To: "c1", Type: "text", Text: &wireText{Body: "Welcome!"}},
		},
		{
			name: "choice with options",
			msg:  domain.Choice("Pick one", domain.ChoiceOption{ID: "vendor_7", Label: "Mama's Kitchen"}),
			want: wireMessage{To: "c1", Type: "interactive", Interactive: &wireInteractive{
				Body:    "Pick one",
				Buttons: []wireButton{{ID: "vendor_7", Title: "Mama's Kitchen"}},
			}},
		},
		{
			name: "choice without options degrades to text",
			msg:  domain.Choice("Pick one"),
			want: wireMessage{To: "c1", Type: "text", Text: &wireText{Body: "Pick one"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, render("c1", tc.msg))
		})
	}
}

func TestSend_HappyPath(t *testing.T) {
	var gotAuth string
	var gotWire wireMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotWire))
		_, _ = w.Write([]byte(`{"messageId":"wamid.999"}`))
	}))
	defer srv.Close()

	g := &fakeGetter{val: "secret-token"}
	c, err := NewClient(srv.URL, g, "/commerce-agent", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	id, err := c.Send(context.Background(), "+15550001111", domain.Text("Welcome!"))
	require.NoError(t, err)
	require.Equal(t, "wamid.999", id)
	require.Equal(t, "Bearer secret-token", gotAuth)
	require.Equal(t, "+15550001111", gotWire.To)
	require.Equal(t, "/commerce-agent/channel-token", g.wanted)
}

func TestSend_TokenFetchedOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"messageId":"m1"}`))
	}))
	defer srv.Close()

	g := &fakeGetter{val: "secret-token"}
	c, err := NewClient(srv.URL, g, "/commerce-agent", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Send(context.Background(), "c1", domain.Text("hi"))
		require.NoError(t, err)
	}
	require.Equal(t, 1, g.calls, "token must be fetched once per process lifetime")
}

func TestSend_TokenErrorSticks(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm down")}
	c, err := NewClient("http://channel.local", g, "/commerce-agent")
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "c1", domain.Text("hi"))
	require.Error(t, err)
	_, err = c.Send(context.Background(), "c1", domain.Text("hi"))
	require.Error(t, err)
	require.Equal(t, 1, g.calls)
}

func TestSend_EmptyToken(t *testing.T) {
	g := &fakeGetter{val: "  "}
	c, err := NewClient("http://channel.local", g, "/commerce-agent")
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "c1", domain.Text("hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}

func TestSend_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := &fakeGetter{val: "tok"}
	c, err := NewClient(srv.URL, g, "/commerce-agent", WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "c1", domain.Text("hi"))
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.HTTPStatusCode())
}

func TestSend_EmptyCustomerID(t *testing.T) {
	g := &fakeGetter{val: "tok"}
	c, err := NewClient("http://channel.local", g, "/commerce-agent")
	require.NoError(t, err)

	_, err = c.Send(context.Background(), " ", domain.Text("hi"))
	require.Error(t, err)
}
