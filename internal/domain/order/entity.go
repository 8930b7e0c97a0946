// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaymentProcessing OrderStatus = "payment_processing"
	OrderStatusConfirmed         OrderStatus = "confirmed"
	OrderStatusShipped           OrderStatus = "shipped"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// Order represents the order entity
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	Email         string        `gorm:"not null;size:255" json:"email"`
	Status        OrderStatus   `gorm:"not null;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending'" json:"payment_status"`

	// Financial information, all amounts in cents
	SubtotalAmount int64  `gorm:"not null" json:"subtotal_amount"`
	ShippingAmount int64  `gorm:"default:0" json:"shipping_amount"`
	TotalAmount    int64  `gorm:"not null" json:"total_amount"`
	Currency       string `gorm:"size:3;default:'EUR'" json:"currency"`

	// Shipping address
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	Notes string `gorm:"type:text" json:"notes"`

	// Timestamps
	PaidAt    *time.Time     `json:"paid_at"`
	ShippedAt *time.Time     `json:"shipped_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	Payments []Payment   `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"payments,omitempty"`
}

// OrderItem represents items in an order
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	Name       string    `gorm:"not null;size:255" json:"name"`
	Image      string    `gorm:"size:500" json:"image"`
	Size       string    `gorm:"not null;size:10" json:"size"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Price      int64     `gorm:"not null" json:"price"`       // Price per unit in cents
	TotalPrice int64     `gorm:"not null" json:"total_price"` // Quantity * Price
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Payment represents payment transactions
type Payment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	OrderID           uint           `gorm:"not null;index" json:"order_id"`
	PaymentMethod     string         `gorm:"not null;size:50" json:"payment_method"`
	PaymentProviderID string         `gorm:"size:255" json:"payment_provider_id"` // External payment ID
	Amount            int64          `gorm:"not null" json:"amount"`              // In cents
	Currency          string         `gorm:"size:3;default:'EUR'" json:"currency"`
	Status            PaymentStatus  `gorm:"not null" json:"status"`
	ProcessedAt       *time.Time     `json:"processed_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// Address represents the shipping address captured at checkout
type Address struct {
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2;default:'FR'" json:"country"` // ISO 2-letter code
	Phone        string `gorm:"size:20" json:"phone"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }
func (Payment) TableName() string   { return "payments" }

// GenerateOrderNumber builds a human readable order number
func GenerateOrderNumber(id uint) string {
	return fmt.Sprintf("JUP-%s-%06d", time.Now().UTC().Format("20060102"), id)
}

// CanBeCancelled reports whether the order can still be cancelled by the customer
func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusPaymentProcessing, OrderStatusConfirmed:
		return true
	}
	return false
}

// IsPaid reports whether the order has been paid
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
