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

type OfferHandler struct {
	offerService service.OfferService
	cartService  service.CartService
	validator    *validator.Validate
}

func NewOfferHandler(offerService service.OfferService, cartService service.CartService) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
		cartService:  cartService,
		validator:    validator.New(),
	}
}

// EvaluateCoupon godoc
//
//	@Summary		Evaluate a coupon against the current cart
//	@Description	Dry run: reports whether the code would be accepted and the discount it would produce, without touching the cart. A rejection is a 200 with accepted=false and a reason.
//	@Tags			Offers
//	@Accept			json
//	@Produce		json
//	@Param			coupon	body		models.EvaluateCouponRequest	true	"Coupon code"
//	@Success		200		{object}	models.CouponEvaluationResponse	"Evaluation outcome"
//	@Failure		400		{object}	response.ErrorResponse			"Validation error"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Security		BearerAuth
//	@Router			/offers/evaluate [post]
func (h *OfferHandler) EvaluateCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.EvaluateCouponRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to fetch cart for evaluation", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		eval, err := h.offerService.Evaluate(r.Context(), claims.UserID, req.CouponCode, cart.Lines())
		if err != nil {
			logger.Error("Coupon evaluation failed",
				slog.String("couponCode", req.CouponCode), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, eval)
	}
}

// ListOffers godoc
//
//	@Summary		List offers
//	@Tags			Admin
//	@Produce		json
//	@Param			page		query		int	false	"Page number"		default(1)
//	@Param			pageSize	query		int	false	"Items per page"	default(10)
//	@Success		200			{object}	models.PaginatedResponse	"Offer page"
//	@Failure		403			{object}	response.ErrorResponse		"Admin role required"
//	@Security		BearerAuth
//	@Router			/admin/offers [get]
func (h *OfferHandler) ListOffers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		page, pageSize := utils.ParsePagination(r)

		offers, total, err := h.offerService.ListOffers(r.Context(), page, pageSize)
		if err != nil {
			logger.Error("Failed to list offers", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     offers,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// GetOffer godoc
//
//	@Summary		Get an offer by ID
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path		string					true	"Offer ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Offer			"Offer"
//	@Failure		404	{object}	response.ErrorResponse	"Offer not found"
//	@Security		BearerAuth
//	@Router			/admin/offers/{id} [get]
func (h *OfferHandler) GetOffer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)

			return
		}

		offer, err := h.offerService.GetOfferByID(r.Context(), id)
		if err != nil {
			logger.Error("Failed to fetch offer", slog.String("offerId", id.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, offer)
	}
}

// CreateOffer godoc
//
//	@Summary		Create an offer
//	@Description	Coupon codes are unique case-insensitively. Percentage values must be within 0-100 and the expiry cannot precede the start date.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			offer	body		models.CreateOfferRequest	true	"Offer details"
//	@Success		201		{object}	models.Offer				"Created offer"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		409		{object}	response.ErrorResponse		"Coupon code already exists"
//	@Security		BearerAuth
//	@Router			/admin/offers [post]
func (h *OfferHandler) CreateOffer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		var req models.CreateOfferRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		offer, err := h.offerService.CreateOffer(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create offer", slog.String("couponCode", req.CouponCode), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Offer created",
			slog.String("offerId", offer.ID.String()), slog.String("couponCode", offer.CouponCode))
		response.Success(w, http.StatusCreated, offer)
	}
}

// UpdateOffer godoc
//
//	@Summary		Update an offer
//	@Description	Partial update; the coupon code itself is immutable. The merged offer is re-validated before saving.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Offer ID (UUID)"	Format(uuid)
//	@Param			offer	body		models.UpdateOfferRequest	true	"Fields to update"
//	@Success		200		{object}	models.Offer				"Updated offer"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		404		{object}	response.ErrorResponse		"Offer not found"
//	@Security		BearerAuth
//	@Router			/admin/offers/{id} [put]
func (h *OfferHandler) UpdateOffer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)

			return
		}

		var req models.UpdateOfferRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		offer, err := h.offerService.UpdateOffer(r.Context(), id, &req)
		if err != nil {
			logger.Error("Failed to update offer", slog.String("offerId", id.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, offer)
	}
}

// DeleteOffer godoc
//
//	@Summary		Delete an offer
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path	string	true	"Offer ID (UUID)"	Format(uuid)
//	@Success		204	"Deleted"
//	@Failure		404	{object}	response.ErrorResponse	"Offer not found"
//	@Security		BearerAuth
//	@Router			/admin/offers/{id} [delete]
func (h *OfferHandler) DeleteOffer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)

			return
		}

		if err := h.offerService.DeleteOffer(r.Context(), id); err != nil {
			logger.Error("Failed to delete offer", slog.String("offerId", id.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Offer deleted", slog.String("offerId", id.String()))
		w.WriteHeader(http.StatusNoContent)
	}
}
