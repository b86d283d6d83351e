package entities

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// transitions describes the allowed order lifecycle. COMPLETED and
// CANCELLED are terminal: they have no outgoing edges.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusCompleted, OrderStatusCancelled},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionSources returns the statuses from which next is reachable.
func TransitionSources(next OrderStatus) []OrderStatus {
	var sources []OrderStatus
	for from, targets := range transitions {
		for _, t := range targets {
			if t == next {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

type OrderType string

const (
	OrderTypeDelivery OrderType = "DELIVERY"
	OrderTypePickup   OrderType = "PICKUP"
)

type OrderItem struct {
	ID           string
	ProductID    string
	Quantity     int
	PriceAtOrder decimal.Decimal
}

type Order struct {
	ID            string
	UserID        string
	Status        OrderStatus
	OrderType     OrderType
	ScheduledTime *time.Time
	TotalAmount   decimal.Decimal
	CreatedAt     time.Time

	// Items and Payment are always present: an order is created
	// atomically with its line items and payment record.
	Items   []OrderItem
	Payment Payment
}

func (o *Order) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *Order) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	return dec.Decode(o)
}

func init() {
	gob.Register(Order{})
	gob.Register(OrderItem{})
	gob.Register(Payment{})
}
