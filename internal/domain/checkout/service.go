// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/justeunpeu/storefront-backend/internal/config"
	"github.com/justeunpeu/storefront-backend/internal/domain/cart"
	"github.com/justeunpeu/storefront-backend/internal/domain/order"
	"github.com/justeunpeu/storefront-backend/internal/domain/payment"
	"github.com/justeunpeu/storefront-backend/internal/domain/user"
	"github.com/justeunpeu/storefront-backend/internal/pkg/email"
)

// Flat rate shipping, free above the threshold. Amounts in cents.
const (
	shippingFlatRate      = 490
	freeShippingThreshold = 10000
)

// Service handles checkout business logic
type Service struct {
	db            *gorm.DB
	config        *config.Config
	remoteCart    cart.RemoteStore
	stripeService *payment.StripeService
	emailService  *email.Service
	logger        *logrus.Logger
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:            db,
		config:        cfg,
		remoteCart:    cart.NewGormRemoteStore(db),
		stripeService: payment.NewStripeService(cfg, logger),
		emailService:  email.NewService(cfg, logger),
		logger:        logger,
	}
}

// CheckoutSummary represents the order preview shown before payment
type CheckoutSummary struct {
	Items          []cart.LineItem `json:"items"`
	Subtotal       int64           `json:"subtotal"`
	ShippingAmount int64           `json:"shipping_amount"`
	TotalAmount    int64           `json:"total_amount"`
	Currency       string          `json:"currency"`
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	ShippingAddress order.Address `json:"shipping_address" binding:"required"`
	Notes           string        `json:"notes"`
}

// CreateOrderResponse carries the created order and the payment client secret
type CreateOrderResponse struct {
	Order        *order.Order `json:"order"`
	ClientSecret string       `json:"client_secret"`
}

// ConfirmPaymentRequest represents payment confirmation data
type ConfirmPaymentRequest struct {
	OrderID         uint   `json:"order_id" binding:"required"`
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// GetSummary builds the checkout summary from the user's persisted cart
func (s *Service) GetSummary(ctx context.Context, usr *user.User) (*CheckoutSummary, error) {
	items, err := s.remoteCart.Fetch(ctx, usr.Identity())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	totals := cart.CalculateTotals(items)
	shipping := shippingCost(totals.TotalPrice)

	return &CheckoutSummary{
		Items:          items,
		Subtotal:       totals.TotalPrice,
		ShippingAmount: shipping,
		TotalAmount:    totals.TotalPrice + shipping,
		Currency:       "EUR",
	}, nil
}

// CreateOrder creates an order from the user's persisted cart and opens a payment
func (s *Service) CreateOrder(ctx context.Context, usr *user.User, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	items, err := s.remoteCart.Fetch(ctx, usr.Identity())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	totals := cart.CalculateTotals(items)
	shipping := shippingCost(totals.TotalPrice)
	total := totals.TotalPrice + shipping

	newOrder := order.Order{
		UserID:          usr.ID,
		Email:           usr.Email,
		Status:          order.OrderStatusPending,
		PaymentStatus:   order.PaymentStatusPending,
		SubtotalAmount:  totals.TotalPrice,
		ShippingAmount:  shipping,
		TotalAmount:     total,
		Currency:        "EUR",
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	}

	for _, item := range items {
		newOrder.Items = append(newOrder.Items, order.OrderItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Image:      item.Image,
			Size:       item.Size,
			Quantity:   item.Quantity,
			Price:      item.Price,
			TotalPrice: item.Price * int64(item.Quantity),
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newOrder).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		newOrder.OrderNumber = order.GenerateOrderNumber(newOrder.ID)
		if err := tx.Model(&newOrder).Update("order_number", newOrder.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to set order number: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	intent, err := s.stripeService.CreatePaymentIntent(ctx, total, "EUR", newOrder.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate payment: %w", err)
	}

	pay := order.Payment{
		OrderID:           newOrder.ID,
		PaymentMethod:     "stripe",
		PaymentProviderID: intent.ID,
		Amount:            total,
		Currency:          "EUR",
		Status:            order.PaymentStatusProcessing,
	}
	if err := s.db.Create(&pay).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := s.db.Model(&newOrder).Update("status", order.OrderStatusPaymentProcessing).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	newOrder.Status = order.OrderStatusPaymentProcessing
	newOrder.Payments = []order.Payment{pay}

	s.logger.WithFields(logrus.Fields{
		"order_number": newOrder.OrderNumber,
		"user_id":      usr.ID,
		"total":        total,
	}).Info("Order created")

	return &CreateOrderResponse{
		Order:        &newOrder,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// ConfirmPayment verifies the payment with Stripe and finalizes the order.
// On success the persisted cart is cleared and a confirmation email is sent.
func (s *Service) ConfirmPayment(ctx context.Context, usr *user.User, req *ConfirmPaymentRequest) (*order.Order, error) {
	var ord order.Order
	err := s.db.
		Preload("Items").
		Preload("Payments").
		Where("id = ? AND user_id = ?", req.OrderID, usr.ID).
		First(&ord).Error
	if err != nil {
		return nil, fmt.Errorf("order not found")
	}

	if ord.IsPaid() {
		return &ord, nil
	}

	intent, err := s.stripeService.GetPaymentIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	if !intent.IsSucceeded() {
		return nil, fmt.Errorf("payment not completed, status: %s", intent.Status)
	}

	now := time.Now().UTC()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ord).Updates(map[string]interface{}{
			"status":         order.OrderStatusConfirmed,
			"payment_status": order.PaymentStatusPaid,
			"paid_at":        now,
		}).Error; err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}

		if err := tx.Model(&order.Payment{}).
			Where("order_id = ? AND payment_provider_id = ?", ord.ID, intent.ID).
			Updates(map[string]interface{}{
				"status":       order.PaymentStatusPaid,
				"processed_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark payment paid: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	ord.Status = order.OrderStatusConfirmed
	ord.PaymentStatus = order.PaymentStatusPaid
	ord.PaidAt = &now

	// The cart served its purpose. A clear failure must not undo the paid order.
	if err := s.remoteCart.Clear(ctx, usr.Identity()); err != nil {
		s.logger.WithFields(logrus.Fields{
			"order_number": ord.OrderNumber,
			"error":        err.Error(),
		}).Warn("Failed to clear cart after payment")
	}

	s.sendConfirmationEmail(ctx, usr, &ord)

	s.logger.WithFields(logrus.Fields{
		"order_number": ord.OrderNumber,
		"user_id":      usr.ID,
	}).Info("Payment confirmed")

	return &ord, nil
}

func (s *Service) sendConfirmationEmail(ctx context.Context, usr *user.User, ord *order.Order) {
	data := email.OrderConfirmationData{
		OrderNumber: ord.OrderNumber,
		OrderDate:   ord.CreatedAt.Format("02/01/2006"),
		OrderTotal:  email.FormatPrice(ord.TotalAmount),
	}
	data.UserName = usr.GetDisplayName()
	data.UserEmail = usr.Email

	for _, item := range ord.Items {
		data.Items = append(data.Items, email.OrderItem{
			Name:     item.Name,
			Size:     item.Size,
			Quantity: item.Quantity,
			Price:    email.FormatPrice(item.TotalPrice),
		})
	}

	if err := s.emailService.SendOrderConfirmationEmail(ctx, data); err != nil {
		s.logger.WithFields(logrus.Fields{
			"order_number": ord.OrderNumber,
			"error":        err.Error(),
		}).Warn("Failed to send order confirmation email")
	}
}

func shippingCost(subtotal int64) int64 {
	if subtotal >= freeShippingThreshold {
		return 0
	}
	return shippingFlatRate
}
