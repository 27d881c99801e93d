package domain

import "time"

// InboundEvent is one webhook delivery from the message transport. DeliveryID
// is transport-assigned and is the dedup key for redeliveries.
type InboundEvent struct {
	CustomerID  string    `json:"customerId"`
	Text        string    `json:"text"`
	SelectionID string    `json:"selectionId,omitempty"`
	DeliveryID  string    `json:"deliveryId"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageKind tags the OutboundMessage variant.
type MessageKind string

const (
	MessageText   MessageKind = "text"
	MessageChoice MessageKind = "choice"
)

// ChoiceOption is one tappable option in an interactive message.
type ChoiceOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// OutboundMessage is the abstract shape the state machine emits. Rendering to
// the transport's wire format is the dispatcher's job, never the machine's.
type OutboundMessage struct {
	Kind    MessageKind    `json:"kind"`
	Body    string         `json:"body,omitempty"`
	Prompt  string         `json:"prompt,omitempty"`
	Options []ChoiceOption `json:"options,omitempty"`
}

// Text builds a plain-text outbound message.
func Text(body string) OutboundMessage {
	return OutboundMessage{Kind: MessageText, Body: body}
}

// Choice builds an interactive outbound message.
func Choice(prompt string, options ...ChoiceOption) OutboundMessage {
	return OutboundMessage{Kind: MessageChoice, Prompt: prompt, Options: options}
}

// AuditDirection tags an audit entry as inbound or outbound.
type AuditDirection string

const (
	DirectionIn  AuditDirection = "in"
	DirectionOut AuditDirection = "out"
)

// AuditEntry is one append-only record of message content crossing the
// transport boundary.
type AuditEntry struct {
	CustomerID string
	Direction  AuditDirection
	Body       string
	VendorID   string
	Timestamp  time.Time
}
