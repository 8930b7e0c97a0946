// internal/domain/order/service.go
package order

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/justeunpeu/storefront-backend/internal/config"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logrus.Logger
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit,default=10"`
}

// OrderListResponse represents paginated orders
type OrderListResponse struct {
	Orders     []Order `json:"orders"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int64   `json:"total"`
	TotalPages int     `json:"total_pages"`
}

// GetUserOrders retrieves orders for a user with pagination
func (s *Service) GetUserOrders(userID uint, req *OrderListRequest) (*OrderListResponse, error) {
	var orders []Order
	var total int64

	query := s.db.Model(&Order{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 50 {
		req.Limit = 10
	}
	offset := (req.Page - 1) * req.Limit

	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))

	return &OrderListResponse{
		Orders:     orders,
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// GetUserOrder retrieves a single order belonging to a user
func (s *Service) GetUserOrder(userID uint, orderID uint) (*Order, error) {
	var order Order
	err := s.db.
		Preload("Items").
		Preload("Payments").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order not found")
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &order, nil
}

// GetOrderByNumber retrieves a single order belonging to a user by order number
func (s *Service) GetOrderByNumber(userID uint, orderNumber string) (*Order, error) {
	var order Order
	err := s.db.
		Preload("Items").
		Preload("Payments").
		Where("order_number = ? AND user_id = ?", orderNumber, userID).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order not found")
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &order, nil
}

// CancelOrder cancels an order if it has not shipped yet
func (s *Service) CancelOrder(userID uint, orderID uint) (*Order, error) {
	order, err := s.GetUserOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanBeCancelled() {
		return nil, fmt.Errorf("order can no longer be cancelled")
	}

	updates := map[string]interface{}{
		"status": OrderStatusCancelled,
	}
	if order.PaymentStatus == PaymentStatusPending || order.PaymentStatus == PaymentStatusProcessing {
		updates["payment_status"] = PaymentStatusCancelled
	}

	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      userID,
	}).Info("Order cancelled")

	return order, nil
}
