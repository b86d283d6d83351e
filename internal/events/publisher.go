package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chocohouse/order-service/internal/config"
	"github.com/chocohouse/order-service/internal/entities"

	"github.com/segmentio/kafka-go"
)

type Kind string

const (
	KindOrderCreated   Kind = "order_created"
	KindPaymentUpdated Kind = "payment_updated"
	KindStatusChanged  Kind = "status_changed"
)

type OrderEvent struct {
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id,omitempty"`
	Kind          Kind      `json:"kind"`
	Status        string    `json:"status,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	TotalAmount   string    `json:"total_amount,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func FromOrder(kind Kind, o entities.Order) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Kind:          kind,
		Status:        string(o.Status),
		PaymentStatus: string(o.Payment.Status),
		TotalAmount:   o.TotalAmount.String(),
		OccurredAt:    time.Now().UTC(),
	}
}

// KafkaPublisher emits order lifecycle events for downstream consumers
// (notifications, analytics). Messages are keyed by order id so events
// for one order stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.Kafka) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
