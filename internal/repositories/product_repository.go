package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/internal/utils"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, page, size int, filter models.ListProductsFilter) ([]models.Product, int, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

const productColumns = `id, category, name, description, price, original_price, food_type, variant, image_url, stock_quantity, sku, status, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}

	var originalPrice sql.NullFloat64

	err := row.Scan(&p.ID, &p.Category, &p.Name, &p.Description, &p.Price, &originalPrice,
		&p.FoodType, &p.Variant, &p.ImageURL, &p.StockQuantity, &p.SKU, &p.Status,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if originalPrice.Valid {
		p.OriginalPrice = &originalPrice.Float64
	}

	return p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO products (category, name, description, price, original_price, food_type, variant, image_url, stock_quantity, sku, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		product.Category, product.Name, product.Description, product.Price, product.OriginalPrice,
		product.FoodType, product.Variant, product.ImageURL, product.StockQuantity, product.SKU, product.Status).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return product, nil
}

func (r *productRepository) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1)`, productColumns)

	rows, err := r.DB.QueryContext(dbCtx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("querying database: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0, len(ids))

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		products = append(products, *product)
	}

	return products, rows.Err()
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET category = $1, name = $2, description = $3, price = $4, original_price = $5,
		    food_type = $6, variant = $7, image_url = $8, stock_quantity = $9, sku = $10,
		    status = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		product.Category, product.Name, product.Description, product.Price, product.OriginalPrice,
		product.FoodType, product.Variant, product.ImageURL, product.StockQuantity, product.SKU,
		product.Status, product.ID).
		Scan(&product.UpdatedAt)
}

func (r *productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
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

func (r *productRepository) ListProducts(ctx context.Context, page, size int, filter models.ListProductsFilter) ([]models.Product, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	conditions := []string{"status = 'active'"}
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	if filter.FoodType != "" {
		args = append(args, filter.FoodType)
		conditions = append(conditions, fmt.Sprintf("food_type = $%d", len(args)))
	}

	if len(filter.IDs) > 0 {
		args = append(args, pq.Array(uuidStrings(filter.IDs)))
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM products WHERE %s`, where)

	if err := r.DB.QueryRowContext(dbCtx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	args = append(args, size, (page-1)*size)
	listQuery := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(dbCtx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying database: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0, size)

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning row: %w", err)
		}

		products = append(products, *product)
	}

	return products, total, rows.Err()
}

// DecrementStock refuses to oversell: the update only matches when enough
// stock remains, so a zero-row result means insufficient inventory.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity >= $1
	`

	result, err := r.DB.ExecContext(dbCtx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("updating stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("insufficient stock for product %s", id)
	}

	return nil
}

// RestoreStock gives reserved units back, undoing an earlier decrement when
// a later step of the same checkout fails.
func (r *productRepository) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2
	`

	if _, err := r.DB.ExecContext(dbCtx, query, quantity, id); err != nil {
		return fmt.Errorf("restoring stock: %w", err)
	}

	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}
