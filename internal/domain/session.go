package domain

import "time"

// ConversationStep is a position in the ordering dialogue.
type ConversationStep string

const (
	StepGreeting        ConversationStep = "greeting"
	StepVendorSelection ConversationStep = "vendor_selection"
	StepMenuBrowsing    ConversationStep = "menu_browsing"
	StepOrdering        ConversationStep = "ordering"
	StepCartReview      ConversationStep = "cart_review"
	StepCustomerInfo    ConversationStep = "customer_info"
	StepPayment         ConversationStep = "payment"
	StepConfirmation    ConversationStep = "confirmation"
	StepSupport         ConversationStep = "support"
)

// Valid reports whether s is a member of the closed step set.
func (s ConversationStep) Valid() bool {
	switch s {
	case StepGreeting, StepVendorSelection, StepMenuBrowsing, StepOrdering,
		StepCartReview, StepCustomerInfo, StepPayment, StepConfirmation, StepSupport:
		return true
	}
	return false
}

// CartLine is one menu item and its accumulated quantity within a session.
// UnitPrice is captured in currency minor units at first add and never
// re-fetched, so a mid-conversation catalog price change cannot drift the
// total under the customer.
type CartLine struct {
	MenuItemID     string `json:"menuItemId"`
	Name           string `json:"name"`
	UnitPrice      int64  `json:"unitPrice"`
	Quantity       int    `json:"quantity"`
	SpecialRequest string `json:"specialRequest,omitempty"`
}

// Preferences accumulates customer-supplied facts across turns.
type Preferences struct {
	Name              string   `json:"name,omitempty"`
	Dietary           []string `json:"dietary,omitempty"`
	PreferredVendorID string   `json:"preferredVendorId,omitempty"`
}

// ConversationSession is the persisted per-customer conversation state and
// the unit of concurrency control. Version is the optimistic-concurrency
// counter: a save is conditioned on the version read at load time.
type ConversationSession struct {
	CustomerID     string           `json:"customerId"`
	VendorID       string           `json:"vendorId,omitempty"`
	Cart           []CartLine       `json:"cart,omitempty"`
	Step           ConversationStep `json:"step"`
	Preferences    Preferences      `json:"preferences"`
	OrderHistory   []string         `json:"orderHistory,omitempty"`
	LastActivityAt time.Time        `json:"lastActivityAt"`
	Version        int64            `json:"-"`
}

// NewSession returns the lazily-created state for a customer's first event.
func NewSession(customerID string, now time.Time) *ConversationSession {
	return &ConversationSession{
		CustomerID:     customerID,
		Step:           StepGreeting,
		LastActivityAt: now.UTC(),
	}
}

// Clone returns a deep copy so a transition can mutate freely while the
// caller keeps the loaded snapshot for rollback comparison.
func (s *ConversationSession) Clone() *ConversationSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Cart = append([]CartLine(nil), s.Cart...)
	out.OrderHistory = append([]string(nil), s.OrderHistory...)
	out.Preferences.Dietary = append([]string(nil), s.Preferences.Dietary...)
	return &out
}
