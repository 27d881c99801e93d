package usecase

import (
	"fmt"
	"strings"

	"commerce-agent/internal/domain"
)

// Cart mutation helpers. All functions are pure over the slice they receive;
// callers own the session the slice came from.

// AddItem merges item into cart by menu-item id, summing quantity. The unit
// price is captured from the catalog at first add and left untouched on
// later adds, so the checkout total matches what the customer was shown.
func AddItem(cart []domain.CartLine, item domain.MenuItem, qty int) []domain.CartLine {
	if qty < 1 {
		qty = 1
	}
	for i := range cart {
		if cart[i].MenuItemID == item.ID {
			out := append([]domain.CartLine(nil), cart...)
			out[i].Quantity += qty
			return out
		}
	}
	return append(append([]domain.CartLine(nil), cart...), domain.CartLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		UnitPrice:  item.Price,
		Quantity:   qty,
	})
}

// RemoveAt decrements the quantity of the 1-based line index, dropping the
// line entirely at zero. An out-of-range index returns the cart unchanged
// with ok=false so the caller can re-prompt instead of failing the turn.
func RemoveAt(cart []domain.CartLine, index int) (out []domain.CartLine, ok bool) {
	if index < 1 || index > len(cart) {
		return cart, false
	}
	out = append([]domain.CartLine(nil), cart...)
	i := index - 1
	out[i].Quantity--
	if out[i].Quantity <= 0 {
		out = append(out[:i], out[i+1:]...)
	}
	return out, true
}

// Annotate attaches a special request to the 1-based line index.
func Annotate(cart []domain.CartLine, index int, note string) (out []domain.CartLine, ok bool) {
	if index < 1 || index > len(cart) {
		return cart, false
	}
	out = append([]domain.CartLine(nil), cart...)
	out[index-1].SpecialRequest = note
	return out, true
}

// Total sums unit price times quantity across the cart, in minor units.
func Total(cart []domain.CartLine) int64 {
	var sum int64
	for _, line := range cart {
		sum += line.UnitPrice * int64(line.Quantity)
	}
	return sum
}

// FormatAmount renders a minor-unit amount as a decimal string.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// RenderCart builds the customer-facing cart summary.
func RenderCart(session *domain.ConversationSession) string {
	if len(session.Cart) == 0 {
		return "Your cart is empty. Send \"menu\" to browse."
	}
	var b strings.Builder
	b.WriteString("Your cart:\n")
	for i, line := range session.Cart {
		fmt.Fprintf(&b, "%d. %s x%d = %s\n", i+1, line.Name, line.Quantity, FormatAmount(line.UnitPrice*int64(line.Quantity)))
		if line.SpecialRequest != "" {
			fmt.Fprintf(&b, "   note: %s\n", line.SpecialRequest)
		}
	}
	fmt.Fprintf(&b, "Total: %s\n", FormatAmount(Total(session.Cart)))
	if n := len(session.OrderHistory); n > 0 {
		fmt.Fprintf(&b, "You have %d past order(s) with us.\n", n)
	}
	b.WriteString("Send \"checkout\" to order, \"add\" for more items, or \"remove N\" to remove a line.")
	return b.String()
}
