package order

import (
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/justeunpeu/storefront-backend/internal/config"
)

func setupOrderService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Order{}, &OrderItem{}, &Payment{}))

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewService(db, &config.Config{}, log), db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uint, status OrderStatus, paymentStatus PaymentStatus) *Order {
	t.Helper()

	order := &Order{
		UserID:         userID,
		Email:          "camille@example.com",
		Status:         status,
		PaymentStatus:  paymentStatus,
		SubtotalAmount: 4500,
		ShippingAmount: 490,
		TotalAmount:    4990,
		Currency:       "EUR",
		Items: []OrderItem{
			{ProductID: 1, Name: "Hoodie Oversize", Size: "M", Quantity: 1, Price: 4500, TotalPrice: 4500},
		},
	}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Model(order).Update("order_number", GenerateOrderNumber(order.ID)).Error)
	return order
}

func TestService_GetUserOrders(t *testing.T) {
	svc, db := setupOrderService(t)

	seedOrder(t, db, 1, OrderStatusConfirmed, PaymentStatusPaid)
	seedOrder(t, db, 1, OrderStatusPending, PaymentStatusPending)
	seedOrder(t, db, 2, OrderStatusConfirmed, PaymentStatusPaid)

	resp, err := svc.GetUserOrders(1, &OrderListRequest{Page: 1, Limit: 10})
	require.NoError(t, err)

	assert.Len(t, resp.Orders, 2)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Orders[0].Items, 1)
	assert.Equal(t, "Hoodie Oversize", resp.Orders[0].Items[0].Name)
}

func TestService_GetUserOrderScopedToOwner(t *testing.T) {
	svc, db := setupOrderService(t)

	order := seedOrder(t, db, 1, OrderStatusConfirmed, PaymentStatusPaid)

	got, err := svc.GetUserOrder(1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetUserOrder(2, order.ID)
	assert.ErrorContains(t, err, "order not found")
}

func TestService_GetOrderByNumber(t *testing.T) {
	svc, db := setupOrderService(t)

	order := seedOrder(t, db, 1, OrderStatusConfirmed, PaymentStatusPaid)

	got, err := svc.GetOrderByNumber(1, GenerateOrderNumber(order.ID))
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestService_CancelOrder(t *testing.T) {
	svc, db := setupOrderService(t)

	order := seedOrder(t, db, 1, OrderStatusPending, PaymentStatusPending)

	cancelled, err := svc.CancelOrder(1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, cancelled.Status)

	var stored Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, OrderStatusCancelled, stored.Status)
	assert.Equal(t, PaymentStatusCancelled, stored.PaymentStatus)
}

func TestService_CancelOrderKeepsPaidPaymentStatus(t *testing.T) {
	svc, db := setupOrderService(t)

	// A paid but not yet shipped order can still be cancelled, the
	// payment record keeps its paid status for the refund flow.
	order := seedOrder(t, db, 1, OrderStatusConfirmed, PaymentStatusPaid)

	cancelled, err := svc.CancelOrder(1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, cancelled.Status)

	var stored Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, PaymentStatusPaid, stored.PaymentStatus)
}

func TestService_CancelOrderRejectsShipped(t *testing.T) {
	svc, db := setupOrderService(t)

	order := seedOrder(t, db, 1, OrderStatusShipped, PaymentStatusPaid)

	_, err := svc.CancelOrder(1, order.ID)
	assert.ErrorContains(t, err, "no longer be cancelled")
}
