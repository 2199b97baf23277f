package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/errors"
	"github.com/pawmart/pawmart-api/internal/models"
	repository "github.com/pawmart/pawmart-api/internal/repositories"
	"github.com/pawmart/pawmart-api/pkg/stripe"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, userID uuid.UUID, req *models.CreatePaymentRequest) (*models.PaymentResponse, error)
	HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	client    stripe.Client
	orderRepo repository.OrderRepository
	currency  string
}

func NewPaymentService(client stripe.Client, orderRepo repository.OrderRepository, currency string) PaymentService {
	return &paymentService{
		client:    client,
		orderRepo: orderRepo,
		currency:  currency,
	}
}

// CreatePayment opens a payment intent for a pending order. Amounts are
// charged in the currency's minor unit.
func (s *paymentService) CreatePayment(ctx context.Context, userID uuid.UUID, req *models.CreatePaymentRequest) (*models.PaymentResponse, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, errors.NotFoundError("Order not found").WithError(err)
	}

	if order.CustomerID != userID {
		return nil, errors.ForbiddenError("You do not have access to this order")
	}

	if order.PaymentStatus != models.PaymentStatusPending {
		return nil, errors.BadRequestError("Order is already paid or refunded")
	}

	amount := int64(math.Round(order.Total * 100))

	intent, err := s.client.CreatePaymentIntent(amount, s.currency,
		fmt.Sprintf("PawMart order %s", order.ID))
	if err != nil {
		return nil, errors.ThirdPartyError("Failed to create payment").WithError(err)
	}

	if err := s.orderRepo.UpdatePaymentIntent(ctx, order.ID, intent.ID); err != nil {
		return nil, errors.DatabaseError("Failed to attach payment to order").WithError(err)
	}

	return &models.PaymentResponse{
		PaymentIntent: &models.PaymentIntent{
			ID:     intent.ID,
			Amount: float64(intent.Amount) / 100,
			Status: string(intent.Status),
		},
		ClientSecret: intent.ClientSecret,
	}, nil
}

// HandleWebhookEvent verifies and applies Stripe payment events. Unknown
// event types are acknowledged and ignored so Stripe stops retrying them.
func (s *paymentService) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.client.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return errors.UnauthorizedError("Invalid webhook signature").WithError(err)
	}

	intentID, ok := event.Data.Object["id"].(string)
	if !ok {
		return errors.BadRequestError("Webhook payload has no payment intent id")
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return s.settle(ctx, intentID, models.PaymentStatusPaid, models.OrderStatusConfirmed)
	case "payment_intent.payment_failed":
		return s.settle(ctx, intentID, models.PaymentStatusFailed, "")
	default:
		slog.InfoContext(ctx, "ignoring webhook event", slog.String("type", string(event.Type)))

		return nil
	}
}

func (s *paymentService) settle(ctx context.Context, intentID string, payment models.PaymentStatus, status models.OrderStatus) error {
	order, err := s.orderRepo.GetOrderByPaymentIntent(ctx, intentID)
	if err != nil {
		return errors.NotFoundError("No order for this payment").WithError(err)
	}

	if err := s.orderRepo.UpdatePaymentStatus(ctx, order.ID, payment); err != nil {
		return errors.DatabaseError("Failed to update payment status").WithError(err)
	}

	if status != "" {
		if err := s.orderRepo.UpdateOrderStatus(ctx, order.ID, status); err != nil {
			return errors.DatabaseError("Failed to update order status").WithError(err)
		}
	}

	return nil
}
