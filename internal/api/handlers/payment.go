package handlers

import (
	"io"
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

// Stripe documents webhook payloads up to 64KB; anything larger is not ours.
const maxWebhookBodyBytes = 65536

type PaymentHandler struct {
	paymentService service.PaymentService
	validator      *validator.Validate
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, validator: validator.New()}
}

// CreatePayment godoc
//
//	@Summary		Start payment for an order
//	@Description	Creates a payment intent for a pending order and returns the client secret the storefront needs to confirm it.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			payment	body		models.CreatePaymentRequest	true	"Order to pay for"
//	@Success		200		{object}	models.PaymentResponse		"Payment intent details"
//	@Failure		400		{object}	response.ErrorResponse		"Order is not payable"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse		"Order not found"
//	@Security		BearerAuth
//	@Router			/payments [post]
func (h *PaymentHandler) CreatePayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.CreatePaymentRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		payment, err := h.paymentService.CreatePayment(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to create payment",
				slog.String("orderId", req.OrderID.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Payment intent created", slog.String("orderId", req.OrderID.String()))
		response.Success(w, http.StatusOK, payment)
	}
}

// HandleWebhook godoc
//
//	@Summary		Stripe webhook receiver
//	@Description	Verifies the Stripe-Signature header against the raw body and settles the matching order's payment status.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]bool			"Acknowledged"
//	@Failure		400	{object}	response.ErrorResponse	"Unreadable payload"
//	@Failure		401	{object}	response.ErrorResponse	"Signature verification failed"
//	@Router			/payments/webhook [post]
func (h *PaymentHandler) HandleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.LoggerFromContext(r.Context())

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
		if err != nil {
			logger.Error("Failed to read webhook payload", slog.Any("error", err))
			response.Error(w, errors.BadRequestError("Unreadable webhook payload"))

			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if err := h.paymentService.HandleWebhookEvent(r.Context(), payload, signature); err != nil {
			logger.Error("Webhook handling failed", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]bool{"received": true})
	}
}
