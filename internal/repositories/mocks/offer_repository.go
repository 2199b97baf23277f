package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pawmart/pawmart-api/internal/models"
)

type OfferRepository struct {
	mock.Mock
}

func (m *OfferRepository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	args := m.Called(ctx, offer)

	return args.Error(0)
}

func (m *OfferRepository) GetOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *OfferRepository) GetOfferByCode(ctx context.Context, code string) (*models.Offer, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *OfferRepository) UpdateOffer(ctx context.Context, offer *models.Offer) error {
	args := m.Called(ctx, offer)

	return args.Error(0)
}

func (m *OfferRepository) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *OfferRepository) ListOffers(ctx context.Context, page, size int) ([]models.Offer, int, error) {
	args := m.Called(ctx, page, size)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}

	return args.Get(0).([]models.Offer), args.Int(1), args.Error(2)
}

type OfferUsageRepository struct {
	mock.Mock
}

func (m *OfferUsageRepository) GetUsage(ctx context.Context, offerID, userID uuid.UUID) (int, int, error) {
	args := m.Called(ctx, offerID, userID)

	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *OfferUsageRepository) RecordUsage(ctx context.Context, offerID, userID, orderID uuid.UUID) error {
	args := m.Called(ctx, offerID, userID, orderID)

	return args.Error(0)
}
