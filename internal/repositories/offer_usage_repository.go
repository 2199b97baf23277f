package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/utils"
)

type OfferUsageRepository interface {
	GetUsage(ctx context.Context, offerID, userID uuid.UUID) (total, byUser int, err error)
	RecordUsage(ctx context.Context, offerID, userID, orderID uuid.UUID) error
}

type offerUsageRepository struct {
	DB *sql.DB
}

func NewOfferUsageRepo(db *sql.DB) OfferUsageRepository {
	return &offerUsageRepository{DB: db}
}

// GetUsage returns the global redemption count for the offer and the count
// for this user in one round trip.
func (r *offerUsageRepository) GetUsage(ctx context.Context, offerID, userID uuid.UUID) (int, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE user_id = $2)
		FROM offer_usages
		WHERE offer_id = $1
	`

	var total, byUser int

	err := r.DB.QueryRowContext(dbCtx, query, offerID, userID).Scan(&total, &byUser)
	if err != nil {
		return 0, 0, fmt.Errorf("querying database: %w", err)
	}

	return total, byUser, nil
}

func (r *offerUsageRepository) RecordUsage(ctx context.Context, offerID, userID, orderID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO offer_usages (offer_id, user_id, order_id)
		VALUES ($1, $2, $3)
	`

	if _, err := r.DB.ExecContext(dbCtx, query, offerID, userID, orderID); err != nil {
		return fmt.Errorf("recording offer usage: %w", err)
	}

	return nil
}
