package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProductStatusActive       = "active"
	ProductStatusInactive     = "inactive"
	ProductStatusDiscontinued = "discontinued"
)

// Product is a catalog entry. OriginalPrice, when present, is the
// pre-markdown price used for the savings line on the cart summary.
type Product struct {
	ID            uuid.UUID `json:"id"`
	Category      string    `json:"category"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty"`
	FoodType      string    `json:"food_type,omitempty"`
	Variant       string    `json:"variant,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	StockQuantity int       `json:"stock_quantity"`
	SKU           string    `json:"sku"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	Category      string   `json:"category" validate:"required"`
	Name          string   `json:"name" validate:"required,min=3,max=200"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	OriginalPrice *float64 `json:"original_price,omitempty" validate:"omitempty,gt=0"`
	FoodType      string   `json:"food_type,omitempty" validate:"omitempty,oneof=veg non-veg"`
	Variant       string   `json:"variant,omitempty"`
	ImageURL      string   `json:"image_url,omitempty" validate:"omitempty,url"`
	StockQuantity int      `json:"stock_quantity" validate:"gte=0"`
	SKU           string   `json:"sku" validate:"required,min=3,max=50"`
}

type UpdateProductRequest struct {
	Category      *string  `json:"category,omitempty"`
	Name          *string  `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description   *string  `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	OriginalPrice *float64 `json:"original_price,omitempty" validate:"omitempty,gt=0"`
	FoodType      *string  `json:"food_type,omitempty" validate:"omitempty,oneof=veg non-veg"`
	Variant       *string  `json:"variant,omitempty"`
	ImageURL      *string  `json:"image_url,omitempty" validate:"omitempty,url"`
	StockQuantity *int     `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Status        *string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive discontinued"`
}

type UpdateStockRequest struct {
	StockQuantity int `json:"stock_quantity" validate:"gte=0"`
}

// ListProductsFilter narrows catalog listings; zero values mean "no filter".
type ListProductsFilter struct {
	Category string
	FoodType string
	IDs      []uuid.UUID
}
