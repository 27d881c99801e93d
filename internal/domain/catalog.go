package domain

// Vendor is a catalog vendor as returned by the catalog service.
type Vendor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MenuItem is one orderable item. Price is in currency minor units.
type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	Category    string `json:"category,omitempty"`
	Popular     bool   `json:"popular,omitempty"`
	Available   bool   `json:"available"`
}

// CatalogSnapshot is the catalog data fetched for a single turn. Numeric item
// selection is always resolved against the snapshot of the turn it arrives
// in, never a list cached from an earlier turn.
type CatalogSnapshot struct {
	Vendors []Vendor
	Items   []MenuItem
}

// AvailableItems returns the vendor's orderable items in snapshot order. The
// 1-based position in this slice is the number shown to the customer, so
// numbering stays stable across category re-renders within a vendor.
func (c CatalogSnapshot) AvailableItems() []MenuItem {
	out := make([]MenuItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Available {
			out = append(out, it)
		}
	}
	return out
}

// FindVendor looks a vendor up by id.
func (c CatalogSnapshot) FindVendor(id string) (Vendor, bool) {
	for _, v := range c.Vendors {
		if v.ID == id {
			return v, true
		}
	}
	return Vendor{}, false
}
