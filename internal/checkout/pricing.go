package checkout

import (
	"time"

	"github.com/renovamx/storefront/internal/domain"
)

// Promotion is a seasonal campaign: a flat discount in centavos active inside
// a fixed time window.
type Promotion struct {
	Start    time.Time
	End      time.Time
	Discount int64
}

// ActiveAt reports whether the promotion window contains t. The window is
// inclusive at both ends.
func (p Promotion) ActiveAt(t time.Time) bool {
	if p.Discount <= 0 {
		return false
	}
	return !t.Before(p.Start) && !t.After(p.End)
}

// Rates holds the shipping pricing knobs, in centavos.
type Rates struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
}

// Quote is the full price breakdown for a cart at a point in time.
type Quote struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// ComputeQuote prices a cart. The promotional discount applies only while the
// window is active and the cart is non-empty. The free-shipping threshold is
// compared against the post-discount subtotal: the discount reduces what the
// customer pays, so it also decides whether they earned free shipping. An
// empty cart always ships for free.
func ComputeQuote(items []domain.LineItem, promo Promotion, rates Rates, now time.Time) Quote {
	c := domain.Cart{Items: items}
	q := Quote{Subtotal: c.Subtotal()}

	if q.Subtotal > 0 && promo.ActiveAt(now) {
		q.Discount = promo.Discount
		if q.Discount > q.Subtotal {
			q.Discount = q.Subtotal
		}
	}

	discounted := q.Subtotal - q.Discount
	if len(items) > 0 && discounted < rates.FreeShippingThreshold {
		q.Shipping = rates.FlatShippingFee
	}

	q.Total = discounted + q.Shipping
	return q
}
