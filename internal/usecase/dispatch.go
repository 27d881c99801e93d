package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"commerce-agent/internal/domain"
)

// MessageTransport delivers one rendered message to the customer and returns
// the transport's delivery ack id.
type MessageTransport interface {
	Send(ctx context.Context, customerID string, msg domain.OutboundMessage) (string, error)
}

// AuditSink records message content crossing the transport boundary.
type AuditSink interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
}

// Dispatcher is the boundary adapter between the state machine's abstract
// messages and the transport. Delivery failures are logged, never propagated:
// by the time a send happens the session has already advanced, and redelivery
// is the transport layer's retry concern.
type Dispatcher struct {
	transport MessageTransport
	audit     AuditSink
	logger    *slog.Logger
}

func NewDispatcher(transport MessageTransport, audit AuditSink, logger *slog.Logger) (*Dispatcher, error) {
	if transport == nil {
		return nil, fmt.Errorf("usecase: transport must not be nil")
	}
	if audit == nil {
		return nil, fmt.Errorf("usecase: audit sink must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{transport: transport, audit: audit, logger: logger}, nil
}

// Dispatch sends each outbound message in order and audits it.
func (d *Dispatcher) Dispatch(ctx context.Context, customerID, vendorID string, msgs []domain.OutboundMessage) {
	for _, msg := range msgs {
		ack, err := d.transport.Send(ctx, customerID, msg)
		if err != nil {
			d.logger.Error("send failed", "customer_id", customerID, "err", err)
		} else {
			d.logger.Info("message sent", "customer_id", customerID, "delivery_ack", ack)
		}
		d.AuditOutbound(ctx, customerID, vendorID, msg)
	}
}

// AuditInbound records one received event.
func (d *Dispatcher) AuditInbound(ctx context.Context, ev domain.InboundEvent, vendorID string) {
	body := ev.Text
	if ev.SelectionID != "" {
		body = ev.SelectionID
	}
	d.append(ctx, domain.AuditEntry{
		CustomerID: ev.CustomerID,
		Direction:  domain.DirectionIn,
		Body:       body,
		VendorID:   vendorID,
		Timestamp:  ev.Timestamp,
	})
}

// AuditOutbound records one sent message.
func (d *Dispatcher) AuditOutbound(ctx context.Context, customerID, vendorID string, msg domain.OutboundMessage) {
	d.append(ctx, domain.AuditEntry{
		CustomerID: customerID,
		Direction:  domain.DirectionOut,
		Body:       auditBody(msg),
		VendorID:   vendorID,
		Timestamp:  time.Now().UTC(),
	})
}

func (d *Dispatcher) append(ctx context.Context, entry domain.AuditEntry) {
	if err := d.audit.Append(ctx, entry); err != nil {
		d.logger.Error("audit append failed", "customer_id", entry.CustomerID, "err", err)
	}
}

func auditBody(msg domain.OutboundMessage) string {
	if msg.Kind == domain.MessageText {
		return msg.Body
	}
	labels := make([]string, 0, len(msg.Options))
	for _, o := range msg.Options {
		labels = append(labels, o.Label)
	}
	return msg.Prompt + " [" + strings.Join(labels, " | ") + "]"
}
