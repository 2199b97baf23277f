package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/errors"
	"github.com/pawmart/pawmart-api/internal/metrics"
	"github.com/pawmart/pawmart-api/internal/models"
	repository "github.com/pawmart/pawmart-api/internal/repositories"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, req *models.UpdateOrderStatusRequest) (*models.Order, error)
}

type orderService struct {
	repo          repository.OrderRepository
	cartRepo      repository.CartRepository
	productRepo   repository.ProductRepository
	offerRepo     repository.OfferRepository
	usageRepo     repository.OfferUsageRepository
	userRepo      repository.UserRepository
	notifications NotificationService
}

func NewOrderService(
	repo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	offerRepo repository.OfferRepository,
	usageRepo repository.OfferUsageRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
) OrderService {
	return &orderService{
		repo:          repo,
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		offerRepo:     offerRepo,
		usageRepo:     usageRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// CreateOrder turns the cart into an order: stock is checked and decremented
// per line, the cart totals are copied onto the order as an immutable
// snapshot, the coupon redemption is recorded, and the cart is reset.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {
	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, errors.BadRequestError("Cart is empty").WithError(err)
	}

	if len(cart.Items) == 0 {
		return nil, errors.BadRequestError("Cart is empty")
	}

	// Stock is reserved line by line; a failure part-way undoes every
	// earlier reservation so a refused checkout leaves inventory untouched.
	reserved := make([]models.CartItem, 0, len(cart.Items))

	for _, line := range cart.Lines() {
		if err := s.productRepo.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.releaseStock(ctx, reserved)

			return nil, errors.BadRequestError("Some items in your cart are out of stock").WithError(err)
		}

		reserved = append(reserved, line)
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Lines() {
		items = append(items, models.OrderItem{
			ProductID:     line.ProductID,
			Name:          line.Name,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			OriginalPrice: line.OriginalPrice,
			FreeItem:      line.FreeItem,
		})
	}

	order := &models.Order{
		CustomerID:      userID,
		Status:          models.OrderStatusPending,
		Items:           items,
		Subtotal:        cart.Subtotal,
		Savings:         cart.Savings,
		DeliveryFee:     cart.DeliveryFee,
		Discount:        cart.Discount,
		Total:           cart.Total,
		CouponCode:      cart.AppliedCoupon,
		PaymentStatus:   models.PaymentStatusPending,
		ShippingAddress: &req.ShippingAddress,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		s.releaseStock(ctx, reserved)

		return nil, errors.DatabaseError("Failed to create order").WithError(err)
	}

	if cart.AppliedCoupon != "" {
		s.recordRedemption(ctx, cart.AppliedCoupon, userID, order.ID)
	}

	cart.Items = make(map[string]models.CartItem)
	cart.AppliedCoupon = ""
	cart.Subtotal, cart.Savings, cart.DeliveryFee, cart.Discount, cart.Total = 0, 0, 0, 0, 0

	if err := s.cartRepo.UpdateCart(ctx, cart); err != nil {
		slog.ErrorContext(ctx, "failed to reset cart after checkout",
			slog.String("orderId", order.ID.String()), slog.String("error", err.Error()))
	}

	metrics.ObserveOrderPlaced()

	s.sendConfirmation(ctx, userID, order)

	return order, nil
}

// releaseStock returns reserved units after a failed checkout. A restore
// failure only logs; the checkout error it follows is already on its way to
// the caller.
func (s *orderService) releaseStock(ctx context.Context, reserved []models.CartItem) {
	for _, line := range reserved {
		if err := s.productRepo.RestoreStock(ctx, line.ProductID, line.Quantity); err != nil {
			slog.ErrorContext(ctx, "failed to restore stock after aborted checkout",
				slog.String("productId", line.ProductID.String()), slog.String("error", err.Error()))
		}
	}
}

// recordRedemption bumps the usage counters. The order is already placed, so
// a failure here only logs; it must not fail the checkout.
func (s *orderService) recordRedemption(ctx context.Context, code string, userID, orderID uuid.UUID) {
	offer, err := s.offerRepo.GetOfferByCode(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve coupon for usage recording",
			slog.String("couponCode", code), slog.String("error", err.Error()))

		return
	}

	if err := s.usageRepo.RecordUsage(ctx, offer.ID, userID, orderID); err != nil {
		slog.ErrorContext(ctx, "failed to record coupon usage",
			slog.String("couponCode", code), slog.String("error", err.Error()))
	}
}

func (s *orderService) sendConfirmation(ctx context.Context, userID uuid.UUID, order *models.Order) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load user for order confirmation",
			slog.String("error", err.Error()))

		return
	}

	if err := s.notifications.SendOrderConfirmation(ctx, user, order); err != nil {
		slog.ErrorContext(ctx, "failed to send order confirmation",
			slog.String("orderId", order.ID.String()), slog.String("error", err.Error()))
	}
}

func (s *orderService) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, errors.NotFoundError("Order not found").WithError(err)
	}

	if !isAdmin && order.CustomerID != userID {
		return nil, errors.ForbiddenError("You do not have access to this order")
	}

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]models.Order, int, error) {
	orders, total, err := s.repo.ListOrdersByCustomer(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, errors.NotFoundError("Order not found").WithError(err)
	}

	if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusDelivered {
		return nil, errors.BadRequestError("Order is already finalised")
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, req.Status); err != nil {
		return nil, errors.DatabaseError("Failed to update order status").WithError(err)
	}

	order.Status = req.Status

	return order, nil
}
