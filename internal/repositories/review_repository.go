package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/internal/utils"
)

type ReviewRepository interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListReviewsByProduct(ctx context.Context, productID uuid.UUID, page, size int) ([]models.Review, int, float64, error)
	DeleteReview(ctx context.Context, id uuid.UUID) error
}

type reviewRepository struct {
	DB *sql.DB
}

func NewReviewRepo(db *sql.DB) ReviewRepository {
	return &reviewRepository{DB: db}
}

func (r *reviewRepository) CreateReview(ctx context.Context, review *models.Review) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO reviews (product_id, user_id, rating, title, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query,
		review.ProductID, review.UserID, review.Rating, review.Title, review.Comment).
		Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

func (r *reviewRepository) GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, product_id, user_id, rating, title, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	review := &models.Review{}

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&review.ID, &review.ProductID, &review.UserID, &review.Rating,
			&review.Title, &review.Comment, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("querying database: %w", err)
	}

	return review, nil
}

func (r *reviewRepository) ListReviewsByProduct(ctx context.Context, productID uuid.UUID, page, size int) ([]models.Review, int, float64, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var (
		total   int
		average sql.NullFloat64
	)

	summaryQuery := `SELECT COUNT(*), AVG(rating) FROM reviews WHERE product_id = $1`

	if err := r.DB.QueryRowContext(dbCtx, summaryQuery, productID).Scan(&total, &average); err != nil {
		return nil, 0, 0, fmt.Errorf("summarising reviews: %w", err)
	}

	query := `
		SELECT id, product_id, user_id, rating, title, comment, created_at, updated_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, productID, size, (page-1)*size)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("querying database: %w", err)
	}
	defer rows.Close()

	reviews := make([]models.Review, 0, size)

	for rows.Next() {
		var review models.Review

		err := rows.Scan(&review.ID, &review.ProductID, &review.UserID, &review.Rating,
			&review.Title, &review.Comment, &review.CreatedAt, &review.UpdatedAt)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("scanning row: %w", err)
		}

		reviews = append(reviews, review)
	}

	return reviews, total, average.Float64, rows.Err()
}

func (r *reviewRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
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
