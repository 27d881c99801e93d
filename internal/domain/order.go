package domain

// PaymentMethod identifies how the customer chose to pay.
type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayCard     PaymentMethod = "card"
	PayTransfer PaymentMethod = "transfer"
)

// KnownPaymentMethod reports whether m is an offered method.
func KnownPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PayCash, PayCard, PayTransfer:
		return true
	}
	return false
}

// RequiresInitiation reports whether the method needs an external payment
// reference before the customer can pay. Cash settles at pickup.
func (m PaymentMethod) RequiresInitiation() bool {
	return m != PayCash
}

// OrderRequest is the snapshot handed to the order service at checkout.
type OrderRequest struct {
	CustomerID    string        `json:"customerId"`
	VendorID      string        `json:"vendorId"`
	Lines         []CartLine    `json:"lines"`
	CustomerName  string        `json:"customerName"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	TotalAmount   int64         `json:"totalAmount"`
}

// OrderReceipt is the durable result of a created order.
type OrderReceipt struct {
	OrderID string `json:"orderId"`
}

// PaymentSession is what payment initiation returns for non-cash methods.
type PaymentSession struct {
	Reference string `json:"reference,omitempty"`
	PayURL    string `json:"payUrl,omitempty"`
}
