package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pawmart/pawmart-api/internal/api/middleware"
	"github.com/pawmart/pawmart-api/internal/errors"
	"github.com/pawmart/pawmart-api/internal/models"
	service "github.com/pawmart/pawmart-api/internal/services"
	"github.com/pawmart/pawmart-api/internal/utils"
	"github.com/pawmart/pawmart-api/internal/utils/response"
)

type ReviewHandler struct {
	reviewService service.ReviewService
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, validator: validator.New()}
}

// ListReviews godoc
//
//	@Summary		List reviews for a product
//	@Description	Returns a page of reviews along with the product's review count and average rating.
//	@Tags			Reviews
//	@Produce		json
//	@Param			id			path		string	true	"Product ID (UUID)"	Format(uuid)
//	@Param			page		query		int		false	"Page number"		default(1)
//	@Param			pageSize	query		int		false	"Items per page"	default(10)
//	@Success		200			{object}	models.ReviewListResponse	"Review page with summary"
//	@Failure		400			{object}	response.ErrorResponse		"Invalid ID"
//	@Router			/products/{id}/reviews [get]
func (h *ReviewHandler) ListReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		productID, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)

			return
		}

		page, pageSize := utils.ParsePagination(r)

		reviews, err := h.reviewService.ListReviews(r.Context(), productID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list reviews",
				slog.String("productId", productID.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, reviews)
	}
}

// CreateReview godoc
//
//	@Summary		Review a product
//	@Description	Title and comment are sanitized of any HTML before storage.
//	@Tags			Reviews
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Product ID (UUID)"	Format(uuid)
//	@Param			review	body		models.CreateReviewRequest	true	"Rating, title and comment"
//	@Success		201		{object}	models.Review				"Created review"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse		"Product not found"
//	@Security		BearerAuth
//	@Router			/products/{id}/reviews [post]
func (h *ReviewHandler) CreateReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		productID, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)

			return
		}

		var req models.CreateReviewRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		review, err := h.reviewService.CreateReview(r.Context(), claims.UserID, productID, &req)
		if err != nil {
			logger.Error("Failed to create review",
				slog.String("productId", productID.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Review created", slog.String("reviewId", review.ID.String()))
		response.Success(w, http.StatusCreated, review)
	}
}

// DeleteReview godoc
//
//	@Summary		Delete a review
//	@Description	Reviews can be deleted by their author or by an admin.
//	@Tags			Reviews
//	@Produce		json
//	@Param			id	path	string	true	"Review ID (UUID)"	Format(uuid)
//	@Success		204	"Deleted"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Not the review's author"
//	@Failure		404	{object}	response.ErrorResponse	"Review not found"
//	@Security		BearerAuth
//	@Router			/reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		reviewID, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)

			return
		}

		if err := h.reviewService.DeleteReview(r.Context(), claims.UserID, reviewID, claims.Role == models.RoleAdmin); err != nil {
			logger.Error("Failed to delete review",
				slog.String("reviewId", reviewID.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
