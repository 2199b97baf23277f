package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a single cart line. FreeItem marks lines granted by a
// Buy-X-Get-Y offer: their UnitPrice is forced to 0 and OriginalPrice holds
// the catalog price for display.
type CartItem struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	OriginalPrice *float64  `json:"original_price,omitempty"`
	Variant       string    `json:"variant,omitempty"`
	FoodType      string    `json:"food_type,omitempty"`
	FreeItem      bool      `json:"free_item,omitempty"`
	TotalPrice    float64   `json:"total_price"`
}

type Cart struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	Items         map[string]CartItem `json:"items"`
	AppliedCoupon string              `json:"applied_coupon,omitempty"`
	Subtotal      float64             `json:"subtotal"`
	Savings       float64             `json:"savings"`
	DeliveryFee   float64             `json:"delivery_fee"`
	Discount      float64             `json:"discount"`
	Total         float64             `json:"total"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Lines returns the cart items as a slice, for the pricing calculator.
func (c *Cart) Lines() []CartItem {
	lines := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, item)
	}

	return lines
}

// ProductIDs returns the distinct product IDs currently in the cart.
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}

	return ids
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type UpdateQuantityRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=0"`
}

type ApplyCouponRequest struct {
	CouponCode string `json:"coupon_code" validate:"required,min=2,max=50"`
}

// AddFreeItemsRequest commits the Buy-X-Get-Y selection. The product list
// must match the offer's GetQuantity exactly; the commit is all-or-nothing.
type AddFreeItemsRequest struct {
	CouponCode string      `json:"coupon_code" validate:"required"`
	ProductIDs []uuid.UUID `json:"product_ids" validate:"required,min=1,dive,required"`
}
