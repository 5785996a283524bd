package order

import "github.com/shopspring/decimal"

var (
	FreeShippingThreshold = decimal.NewFromInt(500)
	FlatShippingRate      = decimal.NewFromInt(50)
)

// ComputePricing sums the lines and applies free shipping from
// FreeShippingThreshold. Prices include VAT so tax is always zero.
func ComputePricing(lines []Line) Pricing {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}

	shipping := FlatShippingRate
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := decimal.Zero

	return Pricing{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
