package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/events"
	"github.com/chocohouse/order-service/internal/gateway"
)

// CreatePaymentIntent (re-)issues a gateway intent for an existing card
// order. Used when the intent call during placement failed or the client
// abandoned the payment form and came back.
func (s *orderService) CreatePaymentIntent(ctx context.Context, userID, orderID string) (string, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return "", err
	}

	if order.UserID != userID {
		return "", entities.ErrForbidden
	}
	if order.Payment.Method != entities.PaymentMethodCard {
		return "", fmt.Errorf("%w: not a card order", entities.ErrInvalidOrder)
	}

	intent, err := s.gateway.CreateIntent(ctx, order.TotalAmount, order.ID)
	if err != nil {
		return "", err
	}

	if err := s.repo.SetPaymentTransactionID(ctx, order.ID, intent.ID); err != nil {
		return "", fmt.Errorf("failed to store transaction id: %w", err)
	}
	s.cache.Delete(order.ID)

	return intent.ClientSecret, nil
}

// HandleWebhook reconciles an asynchronous gateway event with the stored
// payment record. The signature check fails closed; a verified event is
// applied as a single idempotent write, so redelivery converges to the
// same state. Events for unknown transactions are logged and dropped —
// they are not actionable and must not poison the gateway's retry queue.
func (s *orderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return err
	}

	var status entities.PaymentStatus
	switch event.Kind {
	case gateway.EventPaymentSucceeded:
		status = entities.PaymentStatusSuccess
	case gateway.EventPaymentFailed:
		status = entities.PaymentStatusFailed
	default:
		s.logger.Info("ignoring unhandled webhook event", slog.String("type", event.Type))
		return nil
	}

	err = s.repo.UpdatePaymentStatusByTransactionID(ctx, event.TransactionID, status)
	if errors.Is(err, entities.ErrPaymentNotFound) {
		s.logger.Warn("webhook for unknown transaction",
			slog.String("transaction_id", event.TransactionID),
			slog.String("type", event.Type),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to reconcile payment: %w", err)
	}

	orderID, err := s.repo.OrderIDByTransactionID(ctx, event.TransactionID)
	if err != nil {
		s.logger.Error("failed to resolve order for transaction",
			slog.String("transaction_id", event.TransactionID),
			slog.Any("error", err),
		)
		return nil
	}
	s.cache.Delete(orderID)

	s.publish(ctx, events.OrderEvent{
		OrderID:       orderID,
		Kind:          events.KindPaymentUpdated,
		PaymentStatus: string(status),
		OccurredAt:    time.Now().UTC(),
	})
	return nil
}
