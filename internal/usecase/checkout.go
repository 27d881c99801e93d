package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"commerce-agent/internal/domain"
)

// OrderCreator persists a finalized order. It must fail loudly, never
// partially.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReceipt, error)
}

// PaymentInitiator returns a payment reference or link for non-cash methods.
type PaymentInitiator interface {
	Initiate(ctx context.Context, method domain.PaymentMethod, amount int64) (domain.PaymentSession, error)
}

// CheckoutStatus classifies the outcome of a checkout attempt.
type CheckoutStatus string

const (
	CheckoutOK        CheckoutStatus = "ok"
	CheckoutNoName    CheckoutStatus = "no_name"
	CheckoutEmptyCart CheckoutStatus = "empty_cart"
	CheckoutFailed    CheckoutStatus = "failed"
)

// CheckoutOutcome is the recorded result of the single checkout execution for
// an invocation. ApplyCheckout re-applies it onto a freshly loaded session
// after an optimistic-save conflict, so the order service is never called
// twice for one inbound event.
type CheckoutOutcome struct {
	Status  CheckoutStatus
	Method  domain.PaymentMethod
	OrderID string
	Payment *domain.PaymentSession
}

// CheckoutOrchestrator turns a reviewed cart into a durable order exactly
// once. The cart is never cleared before order creation succeeds; clearing
// first would lose the order on failure with no recovery path.
type CheckoutOrchestrator struct {
	orders   OrderCreator
	payments PaymentInitiator
	logger   *slog.Logger
}

func NewCheckoutOrchestrator(orders OrderCreator, payments PaymentInitiator, logger *slog.Logger) (*CheckoutOrchestrator, error) {
	if orders == nil {
		return nil, fmt.Errorf("usecase: order creator must not be nil")
	}
	if payments == nil {
		return nil, fmt.Errorf("usecase: payment initiator must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutOrchestrator{orders: orders, payments: payments, logger: logger}, nil
}

// Execute performs the side-effecting part of checkout against a session
// snapshot. It does not mutate the session; ApplyCheckout does that, so the
// engine can re-apply the same outcome after a conflict reload.
func (o *CheckoutOrchestrator) Execute(ctx context.Context, session *domain.ConversationSession, method domain.PaymentMethod) *CheckoutOutcome {
	if session.Preferences.Name == "" {
		return &CheckoutOutcome{Status: CheckoutNoName, Method: method}
	}
	if len(session.Cart) == 0 {
		return &CheckoutOutcome{Status: CheckoutEmptyCart, Method: method}
	}

	receipt, err := o.orders.CreateOrder(ctx, domain.OrderRequest{
		CustomerID:    session.CustomerID,
		VendorID:      session.VendorID,
		Lines:         session.Cart,
		CustomerName:  session.Preferences.Name,
		PaymentMethod: method,
		TotalAmount:   Total(session.Cart),
	})
	if err != nil {
		o.logger.Error("order creation failed", "customer_id", session.CustomerID, "err", err)
		return &CheckoutOutcome{Status: CheckoutFailed, Method: method}
	}

	outcome := &CheckoutOutcome{Status: CheckoutOK, Method: method, OrderID: receipt.OrderID}
	if method.RequiresInitiation() {
		pay, err := o.payments.Initiate(ctx, method, Total(session.Cart))
		if err != nil {
			// The order exists; a failed payment link must not undo it. The
			// confirmation falls back to pay-on-pickup wording.
			o.logger.Error("payment initiation failed", "customer_id", session.CustomerID, "order_id", receipt.OrderID, "err", err)
		} else {
			outcome.Payment = &pay
		}
	}
	return outcome
}

// ApplyCheckout mutates the session per the recorded outcome and returns the
// customer-facing messages. It is pure over its inputs and safe to re-apply
// onto a reloaded session. On CheckoutOK the cart is cleared only here, after
// the order is durably created, so a failed attempt leaves the session
// byte-for-byte as it was.
func ApplyCheckout(session *domain.ConversationSession, outcome *CheckoutOutcome) []domain.OutboundMessage {
	switch outcome.Status {
	case CheckoutNoName:
		session.Step = domain.StepCustomerInfo
		return []domain.OutboundMessage{domain.Text("What name should we put on the order?")}

	case CheckoutEmptyCart:
		session.Step = domain.StepCartReview
		return []domain.OutboundMessage{domain.Text("Your cart is empty. Send \"menu\" to browse first.")}

	case CheckoutFailed:
		// Cart intact, step stays Payment, retry is safe.
		session.Step = domain.StepPayment
		return []domain.OutboundMessage{domain.Text("We couldn't place your order just now. Please pick a payment option again in a moment.")}
	}

	session.OrderHistory = append(session.OrderHistory, outcome.OrderID)
	session.Cart = nil
	if session.VendorID != "" {
		session.Preferences.PreferredVendorID = session.VendorID
	}
	session.Step = domain.StepConfirmation

	body := fmt.Sprintf("Order %s confirmed! We'll let you know when it's ready.", outcome.OrderID)
	switch {
	case outcome.Payment != nil && outcome.Payment.PayURL != "":
		body += " Pay here: " + outcome.Payment.PayURL
	case outcome.Payment != nil && outcome.Payment.Reference != "":
		body += " Payment reference: " + outcome.Payment.Reference
	case outcome.Method.RequiresInitiation():
		body += " You can pay at pickup."
	}
	return []domain.OutboundMessage{domain.Text(body)}
}
