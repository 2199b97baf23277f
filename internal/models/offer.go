package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"

	OfferStatusActive    = "active"
	OfferStatusScheduled = "scheduled"
	OfferStatusExpired   = "expired"
)

// BuyXGetY grants free units of selected products once the buy-side
// qualifies. Empty allow-lists mean "any product".
type BuyXGetY struct {
	Enabled      bool        `json:"enabled"`
	BuyQuantity  int         `json:"buy_quantity" validate:"omitempty,min=1"`
	GetQuantity  int         `json:"get_quantity" validate:"omitempty,min=1"`
	BuyProducts  []uuid.UUID `json:"buy_products,omitempty"`
	GetProducts  []uuid.UUID `json:"get_products,omitempty"`
}

// Offer is a discount rule identified by a coupon code. Codes match
// case-insensitively. When both ApplicableProducts and ExcludedProducts list
// a product, exclusion wins.
type Offer struct {
	ID                 uuid.UUID   `json:"id"`
	CouponCode         string      `json:"coupon_code"`
	Description        string      `json:"description,omitempty"`
	DiscountType       string      `json:"discount_type"`
	Value              float64     `json:"value"`
	Status             string      `json:"status"`
	MinCartValue       float64     `json:"min_cart_value,omitempty"`
	MaxDiscount        float64     `json:"max_discount,omitempty"`
	StartDate          *time.Time  `json:"start_date,omitempty"`
	ExpiryDate         *time.Time  `json:"expiry_date,omitempty"`
	ApplicableProducts []uuid.UUID `json:"applicable_products,omitempty"`
	ExcludedProducts   []uuid.UUID `json:"excluded_products,omitempty"`
	UsageLimit         int         `json:"usage_limit,omitempty"`
	PerUserLimit       int         `json:"per_user_limit,omitempty"`
	BuyXGetY           *BuyXGetY   `json:"buy_x_get_y,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type CreateOfferRequest struct {
	CouponCode         string      `json:"coupon_code" validate:"required,min=2,max=50,alphanum"`
	Description        string      `json:"description,omitempty"`
	DiscountType       string      `json:"discount_type" validate:"required,oneof=percentage fixed"`
	Value              float64     `json:"value" validate:"gte=0"`
	Status             string      `json:"status" validate:"required,oneof=active scheduled expired"`
	MinCartValue       float64     `json:"min_cart_value,omitempty" validate:"gte=0"`
	MaxDiscount        float64     `json:"max_discount,omitempty" validate:"gte=0"`
	StartDate          *time.Time  `json:"start_date,omitempty"`
	ExpiryDate         *time.Time  `json:"expiry_date,omitempty"`
	ApplicableProducts []uuid.UUID `json:"applicable_products,omitempty"`
	ExcludedProducts   []uuid.UUID `json:"excluded_products,omitempty"`
	UsageLimit         int         `json:"usage_limit,omitempty" validate:"gte=0"`
	PerUserLimit       int         `json:"per_user_limit,omitempty" validate:"gte=0"`
	BuyXGetY           *BuyXGetY   `json:"buy_x_get_y,omitempty"`
}

type UpdateOfferRequest struct {
	Description        *string     `json:"description,omitempty"`
	DiscountType       *string     `json:"discount_type,omitempty" validate:"omitempty,oneof=percentage fixed"`
	Value              *float64    `json:"value,omitempty" validate:"omitempty,gte=0"`
	Status             *string     `json:"status,omitempty" validate:"omitempty,oneof=active scheduled expired"`
	MinCartValue       *float64    `json:"min_cart_value,omitempty" validate:"omitempty,gte=0"`
	MaxDiscount        *float64    `json:"max_discount,omitempty" validate:"omitempty,gte=0"`
	StartDate          *time.Time  `json:"start_date,omitempty"`
	ExpiryDate         *time.Time  `json:"expiry_date,omitempty"`
	ApplicableProducts []uuid.UUID `json:"applicable_products,omitempty"`
	ExcludedProducts   []uuid.UUID `json:"excluded_products,omitempty"`
	UsageLimit         *int        `json:"usage_limit,omitempty" validate:"omitempty,gte=0"`
	PerUserLimit       *int        `json:"per_user_limit,omitempty" validate:"omitempty,gte=0"`
	BuyXGetY           *BuyXGetY   `json:"buy_x_get_y,omitempty"`
}

type EvaluateCouponRequest struct {
	CouponCode string `json:"coupon_code" validate:"required,min=2,max=50"`
}

// CouponEvaluationResponse is the storefront-facing evaluation result. A
// rejection is a 200 with Accepted=false and the specific reason so the UI
// can message each case distinctly.
type CouponEvaluationResponse struct {
	Accepted       bool      `json:"accepted"`
	DiscountAmount float64   `json:"discount_amount"`
	Reason         string    `json:"reason,omitempty"`
	Offer          *Offer    `json:"offer,omitempty"`
	BuyXGetY       *BuyXGetY `json:"buy_x_get_y,omitempty"`
}
