package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/renovamx/storefront/internal/domain"
)

var (
	promoStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	promoEnd   = time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
)

func testPromo(discount int64) Promotion {
	return Promotion{Start: promoStart, End: promoEnd, Discount: discount}
}

func testRates() Rates {
	return Rates{FreeShippingThreshold: 200000, FlatShippingFee: 9900}
}

func priced(id string, price int64, qty int) domain.LineItem {
	return domain.LineItem{ID: id, Name: "Producto " + id, Price: price, Quantity: qty}
}

func TestComputeQuote_DiscountCanCostFreeShipping(t *testing.T) {
	// Subtotal 3000.00 clears the 2000.00 threshold on its own, but the
	// 1500.00 discount drops the discounted subtotal to 1500.00, so the
	// flat fee applies.
	items := []domain.LineItem{priced("p1", 150000, 2)}
	now := promoStart.Add(24 * time.Hour)

	q := ComputeQuote(items, testPromo(150000), testRates(), now)

	assert.Equal(t, int64(300000), q.Subtotal)
	assert.Equal(t, int64(150000), q.Discount)
	assert.Equal(t, int64(9900), q.Shipping)
	assert.Equal(t, int64(159900), q.Total)
}

func TestComputeQuote_FreeShippingAboveThreshold(t *testing.T) {
	items := []domain.LineItem{priced("p1", 250000, 1)}

	q := ComputeQuote(items, Promotion{}, testRates(), time.Now())

	assert.Equal(t, int64(250000), q.Subtotal)
	assert.Zero(t, q.Discount)
	assert.Zero(t, q.Shipping)
	assert.Equal(t, int64(250000), q.Total)
}

func TestComputeQuote_DiscountCappedAtSubtotal(t *testing.T) {
	items := []domain.LineItem{priced("p1", 50000, 1)}
	now := promoStart.Add(time.Hour)

	q := ComputeQuote(items, testPromo(150000), testRates(), now)

	assert.Equal(t, int64(50000), q.Discount)
	assert.Equal(t, int64(9900), q.Total, "a fully discounted cart still pays shipping")
}

func TestComputeQuote_EmptyCartShipsFree(t *testing.T) {
	q := ComputeQuote(nil, testPromo(150000), testRates(), promoStart)

	assert.Zero(t, q.Subtotal)
	assert.Zero(t, q.Discount)
	assert.Zero(t, q.Shipping)
	assert.Zero(t, q.Total)
}

func TestComputeQuote_PromotionWindowInclusive(t *testing.T) {
	items := []domain.LineItem{priced("p1", 300000, 1)}

	tests := []struct {
		name     string
		now      time.Time
		discount int64
	}{
		{"before window", promoStart.Add(-time.Second), 0},
		{"window opens", promoStart, 150000},
		{"window closes", promoEnd, 150000},
		{"after window", promoEnd.Add(time.Second), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ComputeQuote(items, testPromo(150000), testRates(), tt.now)
			assert.Equal(t, tt.discount, q.Discount)
		})
	}
}

func TestComputeQuote_ZeroDiscountPromotionIsInactive(t *testing.T) {
	items := []domain.LineItem{priced("p1", 100000, 1)}

	q := ComputeQuote(items, testPromo(0), testRates(), promoStart)

	assert.Zero(t, q.Discount)
}
