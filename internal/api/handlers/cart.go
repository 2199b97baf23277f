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

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// GetCart godoc
//
//	@Summary		Get the current cart
//	@Description	Returns the authenticated user's cart with computed totals. An empty cart is created on first access.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.Cart				"Current cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to fetch cart", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// AddItem godoc
//
//	@Summary		Add a product to the cart
//	@Description	Adds the requested quantity of a product, then reprices the cart (subtotal, savings, delivery fee, total).
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product and quantity"
//	@Success		200		{object}	models.Cart				"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error or insufficient stock"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Security		BearerAuth
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to add cart item", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Cart item added",
			slog.String("productId", req.ProductID.String()), slog.Int("quantity", req.Quantity))
		response.Success(w, http.StatusOK, cart)
	}
}

// UpdateQuantity godoc
//
//	@Summary		Update a cart line's quantity
//	@Description	Sets the quantity for a product already in the cart. Quantity 0 removes the line. The cart is repriced.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.UpdateQuantityRequest	true	"Product and new quantity"
//	@Success		200		{object}	models.Cart						"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse			"Validation error or insufficient stock"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse			"Product is not in the cart"
//	@Security		BearerAuth
//	@Router			/cart/items [put]
func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.UpdateQuantity(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to update cart quantity", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// RemoveItem godoc
//
//	@Summary		Remove a product from the cart
//	@Tags			Cart
//	@Produce		json
//	@Param			productId	path		string					true	"Product ID (UUID)"	Format(uuid)
//	@Success		200			{object}	models.Cart				"Updated cart"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404			{object}	response.ErrorResponse	"Product is not in the cart"
//	@Security		BearerAuth
//	@Router			/cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			response.Error(w, err)

			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), claims.UserID, productID)
		if err != nil {
			logger.Error("Failed to remove cart item", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// ApplyCoupon godoc
//
//	@Summary		Apply a coupon to the cart
//	@Description	Evaluates the code against the cart. A rejection is a 200 with accepted=false and a reason; the cart is only repriced on acceptance. Only one application may be in flight per user.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			coupon	body		models.ApplyCouponRequest	true	"Coupon code"
//	@Success		200		{object}	models.CouponEvaluationResponse	"Evaluation outcome with the updated cart on acceptance"
//	@Failure		400		{object}	response.ErrorResponse			"Validation error or empty cart"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Failure		429		{object}	response.ErrorResponse			"Another application is in progress"
//	@Security		BearerAuth
//	@Router			/cart/coupon [post]
func (h *CartHandler) ApplyCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.ApplyCouponRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		eval, cart, err := h.cartService.ApplyCoupon(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to apply coupon",
				slog.String("couponCode", req.CouponCode), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Coupon evaluated",
			slog.String("couponCode", req.CouponCode), slog.Bool("accepted", eval.Accepted))
		response.Success(w, http.StatusOK, map[string]any{
			"evaluation": eval,
			"cart":       cart,
		})
	}
}

// RemoveCoupon godoc
//
//	@Summary		Remove the applied coupon
//	@Description	Clears the coupon, strips any granted free items and reprices the cart.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.Cart				"Updated cart"
//	@Failure		400	{object}	response.ErrorResponse	"No coupon applied"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Security		BearerAuth
//	@Router			/cart/coupon [delete]
func (h *CartHandler) RemoveCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		cart, err := h.cartService.RemoveCoupon(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to remove coupon", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// AddFreeItems godoc
//
//	@Summary		Commit the Buy-X-Get-Y free item selection
//	@Description	Adds the chosen free products as zero-price lines. The selection must match the offer's grant count exactly; the commit is all-or-nothing.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			selection	body		models.AddFreeItemsRequest	true	"Coupon code and chosen product IDs"
//	@Success		200			{object}	models.Cart					"Updated cart including free lines"
//	@Failure		400			{object}	response.ErrorResponse		"Incomplete or ineligible selection"
//	@Failure		401			{object}	response.ErrorResponse		"Authentication required"
//	@Security		BearerAuth
//	@Router			/cart/free-items [post]
func (h *CartHandler) AddFreeItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.AddFreeItemsRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.AddFreeItems(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to add free items",
				slog.String("couponCode", req.CouponCode), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Free items added",
			slog.String("couponCode", req.CouponCode), slog.Int("count", len(req.ProductIDs)))
		response.Success(w, http.StatusOK, cart)
	}
}
