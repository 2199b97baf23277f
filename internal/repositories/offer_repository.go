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

type OfferRepository interface {
	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	GetOfferByCode(ctx context.Context, code string) (*models.Offer, error)
	UpdateOffer(ctx context.Context, offer *models.Offer) error
	DeleteOffer(ctx context.Context, id uuid.UUID) error
	ListOffers(ctx context.Context, page, size int) ([]models.Offer, int, error)
}

type offerRepository struct {
	DB *sql.DB
}

func NewOfferRepo(db *sql.DB) OfferRepository {
	return &offerRepository{DB: db}
}

const offerColumns = `id, coupon_code, description, discount_type, value, status, min_cart_value, max_discount, start_date, expiry_date, applicable_products, excluded_products, usage_limit, per_user_limit, buy_x_get_y, created_at, updated_at`

// Product lists and the Buy-X-Get-Y rule are stored as JSONB; the rest of the
// offer is flat columns so the admin list view can filter without decoding.
func scanOffer(row interface{ Scan(...any) error }) (*models.Offer, error) {
	offer := &models.Offer{}

	var applicable, excluded, buyXGetY []byte

	err := row.Scan(&offer.ID, &offer.CouponCode, &offer.Description, &offer.DiscountType,
		&offer.Value, &offer.Status, &offer.MinCartValue, &offer.MaxDiscount,
		&offer.StartDate, &offer.ExpiryDate, &applicable, &excluded,
		&offer.UsageLimit, &offer.PerUserLimit, &buyXGetY,
		&offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(applicable) > 0 {
		if err := json.Unmarshal(applicable, &offer.ApplicableProducts); err != nil {
			return nil, fmt.Errorf("unmarshalling applicable products: %w", err)
		}
	}

	if len(excluded) > 0 {
		if err := json.Unmarshal(excluded, &offer.ExcludedProducts); err != nil {
			return nil, fmt.Errorf("unmarshalling excluded products: %w", err)
		}
	}

	if len(buyXGetY) > 0 {
		if err := json.Unmarshal(buyXGetY, &offer.BuyXGetY); err != nil {
			return nil, fmt.Errorf("unmarshalling buy-x-get-y rule: %w", err)
		}
	}

	return offer, nil
}

func marshalOfferJSON(offer *models.Offer) (applicable, excluded, buyXGetY []byte, err error) {
	if applicable, err = json.Marshal(offer.ApplicableProducts); err != nil {
		return nil, nil, nil, fmt.Errorf("marshalling applicable products: %w", err)
	}

	if excluded, err = json.Marshal(offer.ExcludedProducts); err != nil {
		return nil, nil, nil, fmt.Errorf("marshalling excluded products: %w", err)
	}

	if offer.BuyXGetY != nil {
		if buyXGetY, err = json.Marshal(offer.BuyXGetY); err != nil {
			return nil, nil, nil, fmt.Errorf("marshalling buy-x-get-y rule: %w", err)
		}
	}

	return applicable, excluded, buyXGetY, nil
}

func (r *offerRepository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	applicable, excluded, buyXGetY, err := marshalOfferJSON(offer)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO offers (coupon_code, description, discount_type, value, status, min_cart_value, max_discount, start_date, expiry_date, applicable_products, excluded_products, usage_limit, per_user_limit, buy_x_get_y)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		offer.CouponCode, offer.Description, offer.DiscountType, offer.Value, offer.Status,
		offer.MinCartValue, offer.MaxDiscount, offer.StartDate, offer.ExpiryDate,
		applicable, excluded, offer.UsageLimit, offer.PerUserLimit, buyXGetY).
		Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
}

func (r *offerRepository) GetOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)

	offer, err := scanOffer(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return offer, nil
}

// GetOfferByCode matches coupon codes case-insensitively, so SAVE20 and
// save20 resolve to the same offer.
func (r *offerRepository) GetOfferByCode(ctx context.Context, code string) (*models.Offer, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM offers WHERE LOWER(coupon_code) = LOWER($1)`, offerColumns)

	offer, err := scanOffer(r.DB.QueryRowContext(dbCtx, query, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return offer, nil
}

func (r *offerRepository) UpdateOffer(ctx context.Context, offer *models.Offer) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	applicable, excluded, buyXGetY, err := marshalOfferJSON(offer)
	if err != nil {
		return err
	}

	query := `
		UPDATE offers
		SET description = $1, discount_type = $2, value = $3, status = $4,
		    min_cart_value = $5, max_discount = $6, start_date = $7, expiry_date = $8,
		    applicable_products = $9, excluded_products = $10, usage_limit = $11,
		    per_user_limit = $12, buy_x_get_y = $13, updated_at = NOW()
		WHERE id = $14
		RETURNING updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		offer.Description, offer.DiscountType, offer.Value, offer.Status,
		offer.MinCartValue, offer.MaxDiscount, offer.StartDate, offer.ExpiryDate,
		applicable, excluded, offer.UsageLimit, offer.PerUserLimit, buyXGetY, offer.ID).
		Scan(&offer.UpdatedAt)
}

func (r *offerRepository) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting offer: %w", err)
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

func (r *offerRepository) ListOffers(ctx context.Context, page, size int) ([]models.Offer, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int
	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM offers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting offers: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM offers ORDER BY created_at DESC LIMIT $1 OFFSET $2`, offerColumns)

	rows, err := r.DB.QueryContext(dbCtx, query, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("querying database: %w", err)
	}
	defer rows.Close()

	offers := make([]models.Offer, 0, size)

	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning row: %w", err)
		}

		offers = append(offers, *offer)
	}

	return offers, total, rows.Err()
}
