package cart

import (
	"sync"

	"github.com/renovamx/storefront/internal/domain"
)

// Store holds the in-memory cart for one device session. It is the single
// source of truth while the session lives; the snapshot and account stores
// are replicas. All mutations go through the reducer-style methods below and
// never fail: a bad item is rejected, an unknown id is a no-op.
type Store struct {
	mu       sync.Mutex
	deviceID string
	items    []domain.LineItem

	// hydrated is set once the snapshot replica has been read. No mutation
	// is accepted before hydration, which guarantees the first write-through
	// never clobbers a snapshot that was not looked at.
	hydrated bool

	// syncedUser is the user ID the account merge already ran for this
	// session. Cleared on logout so a later login re-merges instead of
	// blindly re-pushing stale data.
	syncedUser string
}

func newStore(deviceID string) *Store {
	return &Store{deviceID: deviceID}
}

// snapshot returns a copy of the current items.
func (s *Store) snapshot() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// add sanitizes the item and either increments the quantity of an existing
// line with the same id or appends. Quantities are capped at maxQuantity when
// it is positive. Returns false when the item was rejected.
func (s *Store) add(raw domain.LineItem, quantity, maxQuantity int) bool {
	raw.Quantity = quantity // Sanitize floors this at 1
	item, ok := domain.Sanitize(raw)
	if !ok {
		return false
	}

	c := domain.Cart{Items: s.items}
	if i := c.FindIndex(item.ID); i >= 0 {
		s.items[i].Quantity = capQuantity(s.items[i].Quantity+item.Quantity, maxQuantity)
		return true
	}
	item.Quantity = capQuantity(item.Quantity, maxQuantity)
	s.items = append(s.items, item)
	return true
}

func capQuantity(q, max int) int {
	if max > 0 && q > max {
		return max
	}
	return q
}

// decrease lowers the quantity of the matching item by 1, floored at 1.
// Decrement never removes; only remove and clear do.
func (s *Store) decrease(id string) bool {
	c := domain.Cart{Items: s.items}
	i := c.FindIndex(id)
	if i < 0 {
		return false
	}
	if s.items[i].Quantity > 1 {
		s.items[i].Quantity--
	}
	return true
}

// remove deletes the matching item regardless of quantity.
func (s *Store) remove(id string) bool {
	c := domain.Cart{Items: s.items}
	i := c.FindIndex(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// clear empties the cart.
func (s *Store) clear() {
	s.items = nil
}

// replaceAll swaps the whole item list for a normalized, deduplicated copy of
// the incoming one. Used for hydration and merge results only.
func (s *Store) replaceAll(items []domain.LineItem) {
	s.items = domain.Normalize(items)
}
