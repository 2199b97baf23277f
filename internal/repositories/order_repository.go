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

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	UpdatePaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

const orderColumns = `id, customer_id, status, subtotal, savings, delivery_fee, discount, total, coupon_code, payment_status, payment_intent_id, shipping_address, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	order := &models.Order{}

	var address []byte

	err := row.Scan(&order.ID, &order.CustomerID, &order.Status,
		&order.Subtotal, &order.Savings, &order.DeliveryFee, &order.Discount, &order.Total,
		&order.CouponCode, &order.PaymentStatus, &order.PaymentIntentID, &address,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(address) > 0 {
		if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("unmarshalling shipping address: %w", err)
		}
	}

	return order, nil
}

// CreateOrder persists the order header and its item lines in one
// transaction. The totals on the order are a snapshot taken at checkout and
// never recomputed.
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshalling shipping address: %w", err)
	}

	orderQuery := `
		INSERT INTO orders (customer_id, status, subtotal, savings, delivery_fee, discount, total, coupon_code, payment_status, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRowContext(dbCtx, orderQuery,
		order.CustomerID, order.Status,
		order.Subtotal, order.Savings, order.DeliveryFee, order.Discount, order.Total,
		order.CouponCode, order.PaymentStatus, address).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, quantity, unit_price, original_price, free_item)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		err = tx.QueryRowContext(dbCtx, itemQuery,
			order.ID, item.ProductID, item.Name, item.Quantity,
			item.UnitPrice, item.OriginalPrice, item.FreeItem).
			Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	if order.Items, err = r.loadItems(dbCtx, order.ID); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetOrderByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE payment_intent_id = $1`, orderColumns)

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, intentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	if order.Items, err = r.loadItems(dbCtx, order.ID); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, quantity, unit_price, original_price, free_item, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}

	for rows.Next() {
		var item models.OrderItem

		var originalPrice sql.NullFloat64

		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&item.Quantity, &item.UnitPrice, &originalPrice, &item.FreeItem, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}

		if originalPrice.Valid {
			item.OriginalPrice = &originalPrice.Float64
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *orderRepository) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]models.Order, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int
	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, orderColumns)

	rows, err := r.DB.QueryContext(dbCtx, query, customerID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("querying database: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0, size)

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning row: %w", err)
		}

		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if orders[i].Items, err = r.loadItems(dbCtx, orders[i].ID); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	return r.execUpdate(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
}

func (r *orderRepository) UpdatePaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	return r.execUpdate(ctx, `UPDATE orders SET payment_intent_id = $1, updated_at = NOW() WHERE id = $2`, intentID, id)
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	return r.execUpdate(ctx, `UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2`, status, id)
}

func (r *orderRepository) execUpdate(ctx context.Context, query string, args ...any) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, query, args...)
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}

	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
