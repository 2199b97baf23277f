package repository_test

import (
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/models"
	repository "github.com/pawmart/pawmart-api/internal/repositories"
)

func setupOfferRepoTest(t *testing.T) (repository.OfferRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	repo := repository.NewOfferRepo(db)
	require.NotNil(t, repo, "NewOfferRepo should return a non-nil repository")

	return repo, mock
}

var offerColumns = []string{
	"id", "coupon_code", "description", "discount_type", "value", "status",
	"min_cart_value", "max_discount", "start_date", "expiry_date",
	"applicable_products", "excluded_products", "usage_limit", "per_user_limit",
	"buy_x_get_y", "created_at", "updated_at",
}

func offerRow(t *testing.T, offer *models.Offer, now time.Time) *sqlmock.Rows {
	t.Helper()

	applicable, err := json.Marshal(offer.ApplicableProducts)
	require.NoError(t, err)

	excluded, err := json.Marshal(offer.ExcludedProducts)
	require.NoError(t, err)

	var buyXGetY []byte
	if offer.BuyXGetY != nil {
		buyXGetY, err = json.Marshal(offer.BuyXGetY)
		require.NoError(t, err)
	}

	return sqlmock.NewRows(offerColumns).
		AddRow(offer.ID, offer.CouponCode, offer.Description, offer.DiscountType,
			offer.Value, offer.Status, offer.MinCartValue, offer.MaxDiscount,
			offer.StartDate, offer.ExpiryDate, applicable, excluded,
			offer.UsageLimit, offer.PerUserLimit, buyXGetY, now, now)
}

func TestOfferRepositoryGetOfferByCode(t *testing.T) {
	repo, mock := setupOfferRepoTest(t)
	ctx := t.Context()

	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		excluded := uuid.New()
		offer := &models.Offer{
			ID:               uuid.New(),
			CouponCode:       "SAVE20",
			DiscountType:     models.DiscountTypePercentage,
			Value:            20,
			Status:           models.OfferStatusActive,
			MaxDiscount:      100,
			ExcludedProducts: []uuid.UUID{excluded},
		}

		mock.ExpectQuery(`SELECT (.+) FROM offers WHERE LOWER\(coupon_code\) = LOWER\(\$1\)`).
			WithArgs("save20").
			WillReturnRows(offerRow(t, offer, now))

		got, err := repo.GetOfferByCode(ctx, "save20")

		require.NoError(t, err, "lookup is case-insensitive so the lowered code must resolve")
		assert.Equal(t, offer.ID, got.ID)
		assert.Equal(t, "SAVE20", got.CouponCode)
		assert.Equal(t, []uuid.UUID{excluded}, got.ExcludedProducts)
		assert.Nil(t, got.BuyXGetY)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Buy-X-Get-Y payload round-trips", func(t *testing.T) {
		buyProduct := uuid.New()
		getProduct := uuid.New()
		offer := &models.Offer{
			ID:           uuid.New(),
			CouponCode:   "TREATDAY",
			DiscountType: models.DiscountTypeFixed,
			Status:       models.OfferStatusActive,
			BuyXGetY: &models.BuyXGetY{
				Enabled:     true,
				BuyQuantity: 2,
				GetQuantity: 1,
				BuyProducts: []uuid.UUID{buyProduct},
				GetProducts: []uuid.UUID{getProduct},
			},
		}

		mock.ExpectQuery(`SELECT (.+) FROM offers WHERE LOWER\(coupon_code\) = LOWER\(\$1\)`).
			WithArgs("TREATDAY").
			WillReturnRows(offerRow(t, offer, now))

		got, err := repo.GetOfferByCode(ctx, "TREATDAY")

		require.NoError(t, err)
		require.NotNil(t, got.BuyXGetY)
		assert.True(t, got.BuyXGetY.Enabled)
		assert.Equal(t, 1, got.BuyXGetY.GetQuantity)
		assert.Equal(t, []uuid.UUID{getProduct}, got.BuyXGetY.GetProducts)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM offers WHERE LOWER\(coupon_code\) = LOWER\(\$1\)`).
			WithArgs("NOPE").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.GetOfferByCode(ctx, "NOPE")

		require.Error(t, err)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOfferRepositoryCreateOffer(t *testing.T) {
	repo, mock := setupOfferRepoTest(t)
	ctx := t.Context()

	now := time.Now()
	offerID := uuid.New()
	offer := &models.Offer{
		CouponCode:   "WELCOME10",
		DiscountType: models.DiscountTypeFixed,
		Value:        10,
		Status:       models.OfferStatusActive,
		MinCartValue: 200,
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO offers`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(offerID, now, now))

		err := repo.CreateOffer(ctx, offer)

		require.NoError(t, err)
		assert.Equal(t, offerID, offer.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO offers`).
			WillReturnError(errors.New("duplicate key value violates unique constraint"))

		err := repo.CreateOffer(ctx, offer)

		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOfferRepositoryDeleteOffer(t *testing.T) {
	repo, mock := setupOfferRepoTest(t)
	ctx := t.Context()

	offerID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM offers WHERE id`).
			WithArgs(offerID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteOffer(ctx, offerID))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM offers WHERE id`).
			WithArgs(offerID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteOffer(ctx, offerID)

		require.Error(t, err)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOfferRepositoryListOffers(t *testing.T) {
	repo, mock := setupOfferRepoTest(t)
	ctx := t.Context()

	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		offer := &models.Offer{
			ID:           uuid.New(),
			CouponCode:   "SAVE20",
			DiscountType: models.DiscountTypePercentage,
			Value:        20,
			Status:       models.OfferStatusActive,
		}

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM offers`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT (.+) FROM offers ORDER BY created_at DESC`).
			WithArgs(10, 0).
			WillReturnRows(offerRow(t, offer, now))

		offers, total, err := repo.ListOffers(ctx, 1, 10)

		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, offers, 1)
		assert.Equal(t, "SAVE20", offers[0].CouponCode)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
