package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"commerce-agent/internal/domain"
)

// CheckoutRequest is the effect the Payment step emits instead of calling the
// order service itself. The engine executes it exactly once per invocation,
// which keeps Transition pure and makes the optimistic-save retry path safe.
type CheckoutRequest struct {
	Method domain.PaymentMethod
}

// TransitionResult is the output of one state-machine step.
type TransitionResult struct {
	Messages []domain.OutboundMessage
	Checkout *CheckoutRequest
}

// Transition advances session by one inbound intent against the catalog
// snapshot fetched for this turn. It mutates session in place (the engine
// passes a clone) and performs no I/O.
func Transition(session *domain.ConversationSession, intent Intent, snapshot domain.CatalogSnapshot) TransitionResult {
	if intent.Kind == IntentText {
		captureDietary(session, intent.Text)
	}
	// A session persisted by an older build, or a step the dialogue never
	// sets, falls back to the greeting rather than crashing the turn.
	if !session.Step.Valid() || session.Step == domain.StepSupport {
		session.Step = domain.StepGreeting
	}

	switch session.Step {
	case domain.StepGreeting:
		return greet(session, snapshot)
	case domain.StepVendorSelection:
		return selectVendor(session, intent, snapshot)
	case domain.StepMenuBrowsing:
		return browseMenu(session, intent, snapshot)
	case domain.StepOrdering:
		return order(session, intent, snapshot)
	case domain.StepCartReview:
		return reviewCart(session, intent, snapshot)
	case domain.StepCustomerInfo:
		return captureName(session, intent)
	case domain.StepPayment:
		return choosePayment(session, intent)
	case domain.StepConfirmation:
		return confirm(session, intent)
	}
	// Unreachable given the Valid() guard above.
	return greet(session, snapshot)
}

// greet answers any message with up to three active vendors.
func greet(session *domain.ConversationSession, snapshot domain.CatalogSnapshot) TransitionResult {
	hello := "Welcome! Let's get you some food."
	if session.Preferences.Name != "" {
		hello = fmt.Sprintf("Welcome back, %s!", session.Preferences.Name)
	}
	session.Step = domain.StepVendorSelection
	return TransitionResult{Messages: []domain.OutboundMessage{
		domain.Text(hello),
		vendorChoices(snapshot, session.Preferences.PreferredVendorID),
	}}
}

func selectVendor(session *domain.ConversationSession, intent Intent, snapshot domain.CatalogSnapshot) TransitionResult {
	var vendor domain.Vendor
	var found bool

	if intent.Kind == IntentSelection {
		if id, ok := strings.CutPrefix(intent.SelectionID, "vendor_"); ok {
			vendor, found = snapshot.FindVendor(id)
		}
	} else {
		vendor, found = fuzzyVendor(snapshot.Vendors, intent.Text)
	}
	if !found {
		return TransitionResult{Messages: []domain.OutboundMessage{
			domain.Text("I didn't catch that vendor. Tap an option or send part of its name."),
			vendorChoices(snapshot, session.Preferences.PreferredVendorID),
		}}
	}

	session.VendorID = vendor.ID
	session.Step = domain.StepMenuBrowsing
	return TransitionResult{Messages: []domain.OutboundMessage{
		domain.Text(fmt.Sprintf("Ordering from %s.", vendor.Name)),
		renderCategories(snapshot.AvailableItems()),
	}}
}

func browseMenu(session *domain.ConversationSession, intent Intent, snapshot domain.CatalogSnapshot) TransitionResult {
	avail := snapshot.AvailableItems()

	// Customers pick a number straight off the category list; treat it as an
	// item selection rather than search text.
	if intent.Kind == IntentNumber {
		session.Step = domain.StepOrdering
		return order(session, intent, snapshot)
	}

	matched := matchItems(avail, intent.Text)
	if len(matched) == 0 {
		return TransitionResult{Messages: []domain.OutboundMessage{
			domain.Text("No items found. Send a category name or a dish keyword to search."),
		}}
	}
	session.Step = domain.StepOrdering
	return TransitionResult{Messages: []domain.OutboundMessage{renderItems(avail, matched)}}
}

func order(session *domain.ConversationSession, intent Intent, snapshot domain.CatalogSnapshot) TransitionResult {
	avail := snapshot.AvailableItems()

	switch {
	case intent.Kind == IntentNumber:
		// Resolved against this turn's snapshot only. A stale number from a
		// menu rendered before the catalog changed lands out of range and
		// falls through to the guidance below.
		if intent.Number >= 1 && intent.Number <= len(avail) {
			item := avail[intent.Number-1]
			session.Cart = AddItem(session.Cart, item, 1)
			qty := quantityOf(session.Cart, item.ID)
			return TransitionResult{Messages: []domain.OutboundMessage{
				domain.Text(fmt.Sprintf("Added %s (x%d in cart). Send another number, \"cart\" to review, or \"recommend\" for ideas.", item.Name, qty)),
			}}
		}

	case intent.Text == "recommend":
		popular := recommendItems(avail, session.Preferences.Dietary)
		if len(popular) > 0 {
			return TransitionResult{Messages: []domain.OutboundMessage{renderItems(avail, popular)}}
		}
	}

	return TransitionResult{Messages: []domain.OutboundMessage{
		domain.Text("Send an item number to add it, \"recommend\" for popular picks, or \"cart\" to review your order."),
	}}
}

func reviewCart(session *domain.ConversationSession, intent Intent, snapshot domain.CatalogSnapshot) TransitionResult {
	text := intent.Text

	switch {
	case text == "checkout":
		if len(session.Cart) == 0 {
			return TransitionResult{Messages: []domain.OutboundMessage{
				domain.Text("Your cart is empty. Send \"menu\" to browse first."),
			}}
		}
		if session.Preferences.Name == "" {
			session.Step = domain.StepCustomerInfo
			return TransitionResult{Messages: []domain.OutboundMessage{
				domain.Text("Almost there. What name should we put on the order?"),
			}}
		}
		session.Step = domain.StepPayment
		return TransitionResult{Messages: []domain.OutboundMessage{paymentChoices(Total(session.Cart))}}

	case text == "add":
		session.Step = domain.StepMenuBrowsing
		return TransitionResult{Messages: []domain.OutboundMessage{renderCategories(snapshot.AvailableItems())}}

	case strings.HasPrefix(text, "remove "):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(text, "remove ")))
		if err != nil {
			break
		}
		cart, ok := RemoveAt(session.Cart, n)
		if !ok {
			return TransitionResult{Messages: []domain.OutboundMessage{
				domain.Text(fmt.Sprintf("There is no line %d in your cart.", n)),
				domain.Text(RenderCart(session)),
			}}
		}
		session.Cart = cart
		return TransitionResult{Messages: []domain.OutboundMessage{domain.Text(RenderCart(session))}}

	case strings.HasPrefix(text, "note "):
		rest := strings.TrimSpace(strings.TrimPrefix(intent.Raw, "note "))
		numStr, note, ok := strings.Cut(rest, " ")
		if !ok {
			break
		}
		n, err := strconv.Atoi(numStr)
		if err != nil {
			break
		}
		cart, applied := Annotate(session.Cart, n, strings.TrimSpace(note))
		if !applied {
			return TransitionResult{Messages: []domain.OutboundMessage{
				domain.Text(fmt.Sprintf("There is no line %d in your cart.", n)),
			}}
		}
		session.Cart = cart
		return TransitionResult{Messages: []domain.OutboundMessage{domain.Text(RenderCart(session))}}
	}

	return TransitionResult{Messages: []domain.OutboundMessage{domain.Text(RenderCart(session))}}
}

func captureName(session *domain.ConversationSession, intent Intent) TransitionResult {
	name := strings.TrimSpace(intent.Raw)
	if name == "" {
		return TransitionResult{Messages: []domain.OutboundMessage{
			domain.Text("What name should we put on the order?"),
		}}
	}
	session.Preferences.Name = name
	session.Step = domain.StepPayment
	return TransitionResult{Messages: []domain.OutboundMessage{
		domain.Text(fmt.Sprintf("Thanks, %s!", name)),
		paymentChoices(Total(session.Cart)),
	}}
}

func choosePayment(session *domain.ConversationSession, intent Intent) TransitionResult {
	id := intent.SelectionID
	if id == "" {
		id = intent.Text
	}
	if method, ok := strings.CutPrefix(id, "pay_"); ok {
		m := domain.PaymentMethod(method)
		if domain.KnownPaymentMethod(m) {
			return TransitionResult{Checkout: &CheckoutRequest{Method: m}}
		}
	}
	return TransitionResult{Messages: []domain.OutboundMessage{
		domain.Text("Please pick one of the payment options."),
		paymentChoices(Total(session.Cart)),
	}}
}

func confirm(session *domain.ConversationSession, intent Intent) TransitionResult {
	if intent.Text == "new" || intent.Text == "another" {
		session.Cart = nil
		session.VendorID = ""
		session.Step = domain.StepGreeting
		return TransitionResult{Messages: []domain.OutboundMessage{
			domain.Text("Starting fresh. Send any message to see today's vendors."),
		}}
	}
	return TransitionResult{Messages: []domain.OutboundMessage{
		domain.Text("Your order is confirmed. Send \"new\" to start another one."),
	}}
}

func quantityOf(cart []domain.CartLine, menuItemID string) int {
	for _, line := range cart {
		if line.MenuItemID == menuItemID {
			return line.Quantity
		}
	}
	return 0
}

// recommendItems picks up to three popular items, preferring ones whose text
// mentions a stated dietary restriction when the customer has any.
func recommendItems(avail []domain.MenuItem, dietary []string) []domain.MenuItem {
	var popular []domain.MenuItem
	for _, it := range avail {
		if it.Popular {
			popular = append(popular, it)
		}
	}
	if len(dietary) > 0 {
		var matching []domain.MenuItem
		for _, it := range popular {
			text := strings.ToLower(it.Name + " " + it.Description)
			for _, d := range dietary {
				if strings.Contains(text, d) {
					matching = append(matching, it)
					break
				}
			}
		}
		if len(matching) > 0 {
			popular = matching
		}
	}
	if len(popular) > maxRecommended {
		popular = popular[:maxRecommended]
	}
	return popular
}

var dietaryKeywords = []string{"vegetarian", "vegan", "halal", "gluten-free", "gluten free"}

// captureDietary records dietary keywords mentioned anywhere in free text.
func captureDietary(session *domain.ConversationSession, text string) {
	for _, kw := range dietaryKeywords {
		if !strings.Contains(text, kw) {
			continue
		}
		tag := strings.ReplaceAll(kw, " ", "-")
		already := false
		for _, d := range session.Preferences.Dietary {
			if d == tag {
				already = true
				break
			}
		}
		if !already {
			session.Preferences.Dietary = append(session.Preferences.Dietary, tag)
		}
	}
}
