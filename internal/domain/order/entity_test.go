package order

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	number := GenerateOrderNumber(42)

	expected := fmt.Sprintf("JUP-%s-000042", time.Now().UTC().Format("20060102"))
	assert.Equal(t, expected, number)
}

func TestOrder_CanBeCancelled(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderStatusPending, true},
		{OrderStatusPaymentProcessing, true},
		{OrderStatusConfirmed, true},
		{OrderStatusShipped, false},
		{OrderStatusDelivered, false},
		{OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			o := &Order{Status: tt.status}
			assert.Equal(t, tt.want, o.CanBeCancelled())
		})
	}
}

func TestOrder_IsPaid(t *testing.T) {
	assert.True(t, (&Order{PaymentStatus: PaymentStatusPaid}).IsPaid())
	assert.False(t, (&Order{PaymentStatus: PaymentStatusPending}).IsPaid())
	assert.False(t, (&Order{PaymentStatus: PaymentStatusFailed}).IsPaid())
}
