package domain

// LineItem is one product+condition-grade combination in a cart. Prices are
// MXN centavos.
type LineItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug,omitempty"`
	Price         int64  `json:"price"`
	OriginalPrice *int64 `json:"original_price,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Grade         string `json:"grade,omitempty"`
	Category      string `json:"category,omitempty"`
	Stock         *int   `json:"stock,omitempty"`
	Quantity      int    `json:"quantity"`
}

// Sanitize coerces a raw line item into a valid one. The ID is the only hard
// requirement; everything else gets a safe default: negative price becomes 0,
// quantity is floored at 1. Returns false when the item must be rejected.
func Sanitize(item LineItem) (LineItem, bool) {
	if item.ID == "" {
		return LineItem{}, false
	}
	if item.Price < 0 {
		item.Price = 0
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.OriginalPrice != nil && *item.OriginalPrice < 0 {
		item.OriginalPrice = nil
	}
	if item.Stock != nil && *item.Stock < 0 {
		item.Stock = nil
	}
	return item, true
}

// Cart is an ordered collection of line items keyed by item ID.
type Cart struct {
	Items []LineItem `json:"items"`
}

// ItemCount returns the total quantity across all line items.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the sum of price * quantity over all line items, in centavos.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// FindIndex returns the index of the line item with the given ID, or -1.
func (c *Cart) FindIndex(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Normalize sanitizes and deduplicates a raw item list. The first occurrence
// of each ID wins; later duplicates are dropped, not merged. Used when
// hydrating from a persisted snapshot, never for incremental updates.
func Normalize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, raw := range items {
		item, ok := Sanitize(raw)
		if !ok {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Merge combines the account-held cart with the device-held cart. For IDs
// present in both, quantities are summed (items added while logged out get
// combined with items already saved to the account). Account items keep their
// position; device-only items append in order. Quantities are not capped at
// stock here; that check belongs to order submission.
func Merge(account, device []LineItem) []LineItem {
	merged := make([]LineItem, len(account))
	copy(merged, account)

	index := make(map[string]int, len(merged))
	for i := range merged {
		index[merged[i].ID] = i
	}

	for _, item := range device {
		if i, ok := index[item.ID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(merged)
		merged = append(merged, item)
	}

	return merged
}
