package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"commerce-agent/internal/domain"
)

type flakyTransport struct {
	failFirst bool
	sent      []domain.OutboundMessage
}

func (f *flakyTransport) Send(_ context.Context, _ string, msg domain.OutboundMessage) (string, error) {
	if f.failFirst && len(f.sent) == 0 {
		f.sent = append(f.sent, msg)
		return "", errors.New("channel timeout")
	}
	f.sent = append(f.sent, msg)
	return "ack", nil
}

func TestNewDispatcher_Validation(t *testing.T) {
	_, err := NewDispatcher(nil, &fakeAudit{}, nil)
	require.Error(t, err)
	_, err = NewDispatcher(&flakyTransport{}, nil, nil)
	require.Error(t, err)
}

func TestDispatch_SendFailureDoesNotStopTheRest(t *testing.T) {
	tr := &flakyTransport{failFirst: true}
	sink := &fakeAudit{}
	d, err := NewDispatcher(tr, sink, nil)
	require.NoError(t, err)

	d.Dispatch(context.Background(), "c1", "7", []domain.OutboundMessage{
		domain.Text("first"),
		domain.Text("second"),
	})

	require.Len(t, tr.sent, 2)
	require.Len(t, sink.entries, 2, "failed sends are still audited")
}

func TestAuditInbound_PrefersSelectionID(t *testing.T) {
	sink := &fakeAudit{}
	d, err := NewDispatcher(&flakyTransport{}, sink, nil)
	require.NoError(t, err)

	d.AuditInbound(context.Background(), domain.InboundEvent{
		CustomerID: "c1", Text: "tapped a button", SelectionID: "vendor_7", Timestamp: testNow(),
	}, "")

	require.Len(t, sink.entries, 1)
	require.Equal(t, domain.DirectionIn, sink.entries[0].Direction)
	require.Equal(t, "vendor_7", sink.entries[0].Body)
}

func TestAuditBody_ChoiceIncludesOptions(t *testing.T) {
	msg := domain.Choice("Where from?",
		domain.ChoiceOption{ID: "vendor_7", Label: "Mama's Kitchen"},
		domain.ChoiceOption{ID: "vendor_8", Label: "Green Bowl"},
	)
	require.Equal(t, "Where from? [Mama's Kitchen | Green Bowl]", auditBody(msg))
}
