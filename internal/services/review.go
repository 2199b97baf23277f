package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pawmart/pawmart-api/internal/errors"
	"github.com/pawmart/pawmart-api/internal/models"
	repository "github.com/pawmart/pawmart-api/internal/repositories"
)

type ReviewService interface {
	CreateReview(ctx context.Context, userID, productID uuid.UUID, req *models.CreateReviewRequest) (*models.Review, error)
	ListReviews(ctx context.Context, productID uuid.UUID, page, pageSize int) (*models.ReviewListResponse, error)
	DeleteReview(ctx context.Context, userID, reviewID uuid.UUID, isAdmin bool) error
}

type reviewService struct {
	repo        repository.ReviewRepository
	productRepo repository.ProductRepository
	sanitizer   *bluemonday.Policy
}

func NewReviewService(repo repository.ReviewRepository, productRepo repository.ProductRepository) ReviewService {
	// Reviews are rendered as text; strip every tag on the way in.
	return &reviewService{
		repo:        repo,
		productRepo: productRepo,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, userID, productID uuid.UUID, req *models.CreateReviewRequest) (*models.Review, error) {
	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Title:     s.sanitizer.Sanitize(req.Title),
		Comment:   s.sanitizer.Sanitize(req.Comment),
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, errors.DatabaseError("Failed to create review").WithError(err)
	}

	return review, nil
}

func (s *reviewService) ListReviews(ctx context.Context, productID uuid.UUID, page, pageSize int) (*models.ReviewListResponse, error) {
	reviews, total, average, err := s.repo.ListReviewsByProduct(ctx, productID, page, pageSize)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch reviews").WithError(err)
	}

	return &models.ReviewListResponse{
		Reviews:       reviews,
		Total:         total,
		AverageRating: average,
		Page:          page,
		Size:          pageSize,
	}, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, userID, reviewID uuid.UUID, isAdmin bool) error {
	review, err := s.repo.GetReviewByID(ctx, reviewID)
	if err != nil {
		return errors.NotFoundError("Review not found").WithError(err)
	}

	if !isAdmin && review.UserID != userID {
		return errors.ForbiddenError("You can only delete your own reviews")
	}

	if err := s.repo.DeleteReview(ctx, reviewID); err != nil {
		return errors.DatabaseError("Failed to delete review").WithError(err)
	}

	return nil
}
