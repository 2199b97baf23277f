package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/internal/utils"
)

type CartRepository interface {
	CreateCart(ctx context.Context, cart *models.Cart) error
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpdateCart(ctx context.Context, cart *models.Cart) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) CreateCart(ctx context.Context, cart *models.Cart) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	items, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("marshalling cart items: %w", err)
	}

	query := `
		INSERT INTO carts (user_id, items, applied_coupon, subtotal, savings, delivery_fee, discount, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		cart.UserID, items, cart.AppliedCoupon,
		cart.Subtotal, cart.Savings, cart.DeliveryFee, cart.Discount, cart.Total).
		Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, items, applied_coupon, subtotal, savings, delivery_fee, discount, total, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	cart := &models.Cart{}

	var items []byte

	err := r.DB.QueryRowContext(dbCtx, query, userID).
		Scan(&cart.ID, &cart.UserID, &items, &cart.AppliedCoupon,
			&cart.Subtotal, &cart.Savings, &cart.DeliveryFee, &cart.Discount, &cart.Total,
			&cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	if err := json.Unmarshal(items, &cart.Items); err != nil {
		return nil, fmt.Errorf("unmarshalling cart items: %w", err)
	}

	if cart.Items == nil {
		cart.Items = make(map[string]models.CartItem)
	}

	return cart, nil
}

func (r *cartRepository) UpdateCart(ctx context.Context, cart *models.Cart) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	items, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("marshalling cart items: %w", err)
	}

	query := `
		UPDATE carts
		SET items = $1, applied_coupon = $2, subtotal = $3, savings = $4,
		    delivery_fee = $5, discount = $6, total = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		items, cart.AppliedCoupon, cart.Subtotal, cart.Savings,
		cart.DeliveryFee, cart.Discount, cart.Total, cart.ID).
		Scan(&cart.UpdatedAt)
}
