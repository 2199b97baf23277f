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

type OrderHandler struct {
	orderService service.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService, validator: validator.New()}
}

// CreateOrder godoc
//
//	@Summary		Place an order from the current cart
//	@Description	Snapshots the cart's lines and totals into an order, reserves stock, records coupon redemption and empties the cart.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			order	body		models.CreateOrderRequest	true	"Shipping address"
//	@Success		201		{object}	models.Order				"Created order"
//	@Failure		400		{object}	response.ErrorResponse		"Empty cart or insufficient stock"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Security		BearerAuth
//	@Router			/orders [post]
func (h *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.CreateOrderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		order, err := h.orderService.CreateOrder(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to create order", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Order placed",
			slog.String("orderId", order.ID.String()), slog.Float64("total", order.Total))
		response.Success(w, http.StatusCreated, order)
	}
}

// GetOrder godoc
//
//	@Summary		Get an order by ID
//	@Description	Customers can only read their own orders; admins can read any.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Order"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Not the order's owner"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		orderID, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)

			return
		}

		order, err := h.orderService.GetOrderByID(r.Context(), claims.UserID, orderID, claims.Role == models.RoleAdmin)
		if err != nil {
			logger.Error("Failed to fetch order", slog.String("orderId", orderID.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//
//	@Summary		List the authenticated user's orders
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int	false	"Page number"		default(1)
//	@Param			pageSize	query		int	false	"Items per page"	default(10)
//	@Success		200			{object}	models.PaginatedResponse	"Order page"
//	@Failure		401			{object}	response.ErrorResponse		"Authentication required"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		page, pageSize := utils.ParsePagination(r)

		orders, total, err := h.orderService.ListOrders(r.Context(), claims.UserID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     orders,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// UpdateOrderStatus godoc
//
//	@Summary		Update an order's fulfilment status
//	@Description	Cancelled and delivered orders are terminal and cannot transition further.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Order ID (UUID)"	Format(uuid)
//	@Param			status	body		models.UpdateOrderStatusRequest	true	"New status"
//	@Success		200		{object}	models.Order					"Updated order"
//	@Failure		400		{object}	response.ErrorResponse			"Invalid transition"
//	@Failure		404		{object}	response.ErrorResponse			"Order not found"
//	@Security		BearerAuth
//	@Router			/admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		orderID, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)

			return
		}

		var req models.UpdateOrderStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		order, err := h.orderService.UpdateOrderStatus(r.Context(), orderID, &req)
		if err != nil {
			logger.Error("Failed to update order status",
				slog.String("orderId", orderID.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Order status updated",
			slog.String("orderId", orderID.String()), slog.String("status", string(order.Status)))
		response.Success(w, http.StatusOK, order)
	}
}
