package entities_test

import (
	"testing"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	all := []entities.OrderStatus{
		entities.OrderStatusPending,
		entities.OrderStatusPreparing,
		entities.OrderStatusReady,
		entities.OrderStatusCompleted,
		entities.OrderStatusCancelled,
	}

	allowed := map[entities.OrderStatus][]entities.OrderStatus{
		entities.OrderStatusPending:   {entities.OrderStatusPreparing, entities.OrderStatusCancelled},
		entities.OrderStatusPreparing: {entities.OrderStatusReady, entities.OrderStatusCancelled},
		entities.OrderStatusReady:     {entities.OrderStatusCompleted, entities.OrderStatusCancelled},
		entities.OrderStatusCompleted: {},
		entities.OrderStatusCancelled: {},
	}

	for from, targets := range allowed {
		ok := make(map[entities.OrderStatus]bool)
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range all {
			assert.Equal(t, ok[to], from.CanTransitionTo(to),
				"%s -> %s", from, to)
		}
	}
}

func TestTransitionSources(t *testing.T) {
	assert.ElementsMatch(t,
		[]entities.OrderStatus{entities.OrderStatusPending},
		entities.TransitionSources(entities.OrderStatusPreparing))

	assert.ElementsMatch(t,
		[]entities.OrderStatus{
			entities.OrderStatusPending,
			entities.OrderStatusPreparing,
			entities.OrderStatusReady,
		},
		entities.TransitionSources(entities.OrderStatusCancelled))

	assert.Empty(t, entities.TransitionSources(entities.OrderStatusPending))
}

func TestOrder_MarshalRoundTrip(t *testing.T) {
	order := entities.Order{
		ID:          "order-1",
		UserID:      "user-1",
		Status:      entities.OrderStatusPending,
		OrderType:   entities.OrderTypePickup,
		TotalAmount: decimal.RequireFromString("10.500"),
		Items: []entities.OrderItem{
			{ID: "item-1", ProductID: "p1", Quantity: 2, PriceAtOrder: decimal.RequireFromString("5.250")},
		},
		Payment: entities.Payment{
			ID:      "pay-1",
			OrderID: "order-1",
			Method:  entities.PaymentMethodCash,
			Status:  entities.PaymentStatusSuccess,
			Amount:  decimal.RequireFromString("10.500"),
		},
	}

	data, err := order.Marshal()
	require.NoError(t, err)

	var got entities.Order
	require.NoError(t, got.Unmarshal(data))

	assert.Equal(t, order.ID, got.ID)
	assert.True(t, order.TotalAmount.Equal(got.TotalAmount))
	require.Len(t, got.Items, 1)
	assert.True(t, order.Items[0].PriceAtOrder.Equal(got.Items[0].PriceAtOrder))
	assert.Equal(t, order.Payment.Status, got.Payment.Status)
}
