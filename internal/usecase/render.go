package usecase

import (
	"fmt"
	"strings"

	"commerce-agent/internal/domain"
)

const (
	maxVendorChoices = 3
	maxMenuItems     = 10
	maxRecommended   = 3
)

const helpText = "I can take your order. Send \"menu\" to browse, \"cart\" to review your order, " +
	"or \"start\" to begin again. A number picks an item from the menu."

// vendorChoices lists up to three active vendors, preferred vendor first.
func vendorChoices(snapshot domain.CatalogSnapshot, preferredID string) domain.OutboundMessage {
	vendors := snapshot.Vendors
	if preferredID != "" {
		ordered := make([]domain.Vendor, 0, len(vendors))
		for _, v := range vendors {
			if v.ID == preferredID {
				ordered = append([]domain.Vendor{v}, ordered...)
			} else {
				ordered = append(ordered, v)
			}
		}
		vendors = ordered
	}
	opts := make([]domain.ChoiceOption, 0, maxVendorChoices)
	for _, v := range vendors {
		if len(opts) == maxVendorChoices {
			break
		}
		opts = append(opts, domain.ChoiceOption{ID: "vendor_" + v.ID, Label: v.Name})
	}
	if len(opts) == 0 {
		return domain.Text("No vendors are taking orders right now. Please try again later.")
	}
	return domain.Choice("Where would you like to order from?", opts...)
}

// renderCategories lists the vendor's menu categories for browsing.
func renderCategories(items []domain.MenuItem) domain.OutboundMessage {
	seen := map[string]bool{}
	var cats []string
	for _, it := range items {
		if it.Category != "" && !seen[it.Category] {
			seen[it.Category] = true
			cats = append(cats, it.Category)
		}
	}
	if len(cats) == 0 {
		return domain.Text("Send a dish name to search the menu.")
	}
	return domain.Text("Pick a category or search by name: " + strings.Join(cats, ", "))
}

// renderItems shows matched items, numbered by their position in the full
// available list so the same number resolves on the next turn's snapshot.
func renderItems(all, matched []domain.MenuItem) domain.OutboundMessage {
	pos := make(map[string]int, len(all))
	for i, it := range all {
		pos[it.ID] = i + 1
	}
	var b strings.Builder
	shown := 0
	for _, it := range matched {
		if shown == maxMenuItems {
			break
		}
		n, ok := pos[it.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%d. %s - %s\n", n, it.Name, FormatAmount(it.Price))
		shown++
	}
	if shown == 0 {
		return domain.Text("No items found. Try a category name or a dish keyword.")
	}
	b.WriteString("Reply with an item number to add it, or \"cart\" to review.")
	return domain.Text(b.String())
}

// matchItems filters available items by category (exact, case-insensitive)
// or by substring against name and description.
func matchItems(items []domain.MenuItem, query string) []domain.MenuItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var byCategory, bySearch []domain.MenuItem
	for _, it := range items {
		if strings.ToLower(it.Category) == query {
			byCategory = append(byCategory, it)
			continue
		}
		if strings.Contains(strings.ToLower(it.Name), query) ||
			strings.Contains(strings.ToLower(it.Description), query) {
			bySearch = append(bySearch, it)
		}
	}
	if len(byCategory) > 0 {
		return byCategory
	}
	return bySearch
}

// fuzzyVendor matches free text against vendor names, case-insensitive, by
// exact name first and substring second.
func fuzzyVendor(vendors []domain.Vendor, text string) (domain.Vendor, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return domain.Vendor{}, false
	}
	for _, v := range vendors {
		if strings.ToLower(v.Name) == text {
			return v, true
		}
	}
	for _, v := range vendors {
		if strings.Contains(strings.ToLower(v.Name), text) {
			return v, true
		}
	}
	return domain.Vendor{}, false
}

// paymentChoices offers the supported payment methods.
func paymentChoices(total int64) domain.OutboundMessage {
	return domain.Choice(
		fmt.Sprintf("Your total is %s. How would you like to pay?", FormatAmount(total)),
		domain.ChoiceOption{ID: "pay_cash", Label: "Cash on pickup"},
		domain.ChoiceOption{ID: "pay_card", Label: "Card"},
		domain.ChoiceOption{ID: "pay_transfer", Label: "Bank transfer"},
	)
}
