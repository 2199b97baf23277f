package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pawmart/pawmart-api/internal/errors"
	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/pkg/sendgrid"
)

type NotificationService interface {
	SendEmail(ctx context.Context, req *models.EmailNotificationRequest) error
	SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error
}

type notificationService struct {
	email sendgrid.EmailClient
}

func NewNotificationService(email sendgrid.EmailClient) NotificationService {
	return &notificationService{email: email}
}

func (s *notificationService) SendEmail(ctx context.Context, req *models.EmailNotificationRequest) error {
	if err := s.email.Send(ctx, req); err != nil {
		return errors.ThirdPartyError("Failed to send email").WithError(err)
	}

	return nil
}

func (s *notificationService) SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order! Here is what you bought:\n\n", user.Name)

	for _, item := range order.Items {
		if item.FreeItem {
			fmt.Fprintf(&b, "  %s x%d (free)\n", item.Name, item.Quantity)

			continue
		}

		fmt.Fprintf(&b, "  %s x%d @ %.2f\n", item.Name, item.Quantity, item.UnitPrice)
	}

	fmt.Fprintf(&b, "\nSubtotal: %.2f\n", order.Subtotal)

	if order.Savings > 0 {
		fmt.Fprintf(&b, "Savings: %.2f\n", order.Savings)
	}

	if order.Discount > 0 {
		fmt.Fprintf(&b, "Coupon (%s): -%.2f\n", order.CouponCode, order.Discount)
	}

	if order.DeliveryFee > 0 {
		fmt.Fprintf(&b, "Delivery: %.2f\n", order.DeliveryFee)
	} else {
		b.WriteString("Delivery: free\n")
	}

	fmt.Fprintf(&b, "Total: %.2f\n\nYour furry friend says thanks!\nThe PawMart team\n", order.Total)

	return s.SendEmail(ctx, &models.EmailNotificationRequest{
		To:      user.Email,
		Subject: fmt.Sprintf("Your PawMart order %s is confirmed", order.ID),
		Content: b.String(),
	})
}
