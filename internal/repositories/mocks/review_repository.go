package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pawmart/pawmart-api/internal/models"
)

type ReviewRepository struct {
	mock.Mock
}

func (m *ReviewRepository) CreateReview(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)

	return args.Error(0)
}

func (m *ReviewRepository) GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *ReviewRepository) ListReviewsByProduct(ctx context.Context, productID uuid.UUID, page, size int) ([]models.Review, int, float64, error) {
	args := m.Called(ctx, productID, page, size)
	if args.Get(0) == nil {
		return nil, args.Int(1), 0, args.Error(3)
	}

	return args.Get(0).([]models.Review), args.Int(1), args.Get(2).(float64), args.Error(3)
}

func (m *ReviewRepository) DeleteReview(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}
