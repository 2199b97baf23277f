// Package pricing holds the cart pricing calculator, the coupon evaluator
// and the Buy-X-Get-Y selection gate. Everything in here is a pure function
// of its inputs; persistence and usage counters live in the service layer.
package pricing

import (
	"github.com/pawmart/pawmart-api/internal/models"
)

// Totals is the derived order summary rendered on the cart page and
// snapshotted onto orders at checkout.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	Savings     float64 `json:"savings"`
	DeliveryFee float64 `json:"delivery_fee"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
}

// Calculator computes order totals. Delivery has exactly two tiers: free
// at/above FreeDeliveryThreshold, flat DeliveryFee below it.
type Calculator struct {
	FreeDeliveryThreshold float64
	DeliveryFee           float64
}

func NewCalculator(freeDeliveryThreshold, deliveryFee float64) Calculator {
	return Calculator{
		FreeDeliveryThreshold: freeDeliveryThreshold,
		DeliveryFee:           deliveryFee,
	}
}

// Compute derives totals from the cart lines and an already-evaluated
// discount amount. It is idempotent and must be re-run on every cart
// mutation and on successful coupon application. The total never goes
// negative: an oversized discount clamps it to 0.
func (c Calculator) Compute(lines []models.CartItem, discount float64) Totals {
	t := Totals{Discount: discount}

	for _, line := range lines {
		t.Subtotal += line.UnitPrice * float64(line.Quantity)

		if line.OriginalPrice != nil && *line.OriginalPrice > line.UnitPrice {
			t.Savings += (*line.OriginalPrice - line.UnitPrice) * float64(line.Quantity)
		}
	}

	if len(lines) > 0 && t.Subtotal < c.FreeDeliveryThreshold {
		t.DeliveryFee = c.DeliveryFee
	}

	t.Total = t.Subtotal + t.DeliveryFee - t.Discount
	if t.Total < 0 {
		t.Total = 0
	}

	return t
}
