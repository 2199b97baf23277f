package pricing_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/internal/pricing"
)

func line(unitPrice float64, quantity int) models.CartItem {
	return models.CartItem{
		ProductID: uuid.New(),
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
}

func discountedLine(unitPrice, originalPrice float64, quantity int) models.CartItem {
	l := line(unitPrice, quantity)
	l.OriginalPrice = &originalPrice

	return l
}

func TestComputeTotals(t *testing.T) {
	calc := pricing.NewCalculator(499, 99)

	t.Run("Empty cart", func(t *testing.T) {
		totals := calc.Compute(nil, 0)

		assert.Zero(t, totals.Subtotal)
		assert.Zero(t, totals.DeliveryFee, "an empty cart ships nothing, so no fee")
		assert.Zero(t, totals.Total)
	})

	t.Run("Below free delivery threshold", func(t *testing.T) {
		totals := calc.Compute([]models.CartItem{line(150, 3)}, 0)

		assert.InEpsilon(t, 450.0, totals.Subtotal, 1e-9)
		assert.InEpsilon(t, 99.0, totals.DeliveryFee, 1e-9)
		assert.InEpsilon(t, 549.0, totals.Total, 1e-9)
	})

	t.Run("Crossing the threshold drops the fee", func(t *testing.T) {
		totals := calc.Compute([]models.CartItem{line(150, 3), line(50, 1)}, 0)

		assert.InEpsilon(t, 500.0, totals.Subtotal, 1e-9)
		assert.Zero(t, totals.DeliveryFee)
		assert.InEpsilon(t, 500.0, totals.Total, 1e-9)
	})

	t.Run("Exactly at threshold is free", func(t *testing.T) {
		totals := calc.Compute([]models.CartItem{line(499, 1)}, 0)

		assert.Zero(t, totals.DeliveryFee)
	})

	t.Run("One below threshold pays the fee", func(t *testing.T) {
		totals := calc.Compute([]models.CartItem{line(498, 1)}, 0)

		assert.InEpsilon(t, 99.0, totals.DeliveryFee, 1e-9)
	})

	t.Run("Savings from marked-down lines", func(t *testing.T) {
		totals := calc.Compute([]models.CartItem{discountedLine(400, 500, 2)}, 0)

		assert.InEpsilon(t, 800.0, totals.Subtotal, 1e-9)
		assert.InEpsilon(t, 200.0, totals.Savings, 1e-9)
	})

	t.Run("Original price below unit price yields no savings", func(t *testing.T) {
		totals := calc.Compute([]models.CartItem{discountedLine(500, 400, 1)}, 0)

		assert.Zero(t, totals.Savings)
	})

	t.Run("Discount reduces total", func(t *testing.T) {
		totals := calc.Compute([]models.CartItem{line(1000, 1)}, 100)

		assert.Zero(t, totals.DeliveryFee)
		assert.InEpsilon(t, 900.0, totals.Total, 1e-9)
	})

	t.Run("Oversized discount clamps total to zero", func(t *testing.T) {
		totals := calc.Compute([]models.CartItem{line(100, 1)}, 5000)

		assert.Zero(t, totals.Total, "total must never go negative")
	})

	t.Run("Free items contribute savings but no subtotal", func(t *testing.T) {
		catalogPrice := 250.0
		free := models.CartItem{
			ProductID:     uuid.New(),
			Quantity:      1,
			UnitPrice:     0,
			OriginalPrice: &catalogPrice,
			FreeItem:      true,
		}

		totals := calc.Compute([]models.CartItem{line(600, 1), free}, 0)

		assert.InEpsilon(t, 600.0, totals.Subtotal, 1e-9)
		assert.InEpsilon(t, 250.0, totals.Savings, 1e-9)
	})

	t.Run("Idempotent", func(t *testing.T) {
		lines := []models.CartItem{line(150, 3), discountedLine(80, 100, 2)}

		first := calc.Compute(lines, 40)
		second := calc.Compute(lines, 40)

		assert.Equal(t, first, second)
	})
}
