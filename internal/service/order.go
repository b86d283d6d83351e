package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/events"
	"github.com/chocohouse/order-service/internal/gateway"
	"github.com/chocohouse/order-service/internal/pricing"
	"github.com/chocohouse/order-service/pkg/trm"
	"github.com/chocohouse/order-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderRepo interface {
	// CreateOrder persists the whole aggregate; callers wrap it in a
	// transaction so header, items and payment land together or not at all.
	CreateOrder(ctx context.Context, order entities.Order) error
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	ListOrders(ctx context.Context, f entities.OrderFilter) ([]entities.Order, int, error)
	UpdateStatus(ctx context.Context, orderID string, status entities.OrderStatus) error

	// Идемпотентные условные записи: повторная доставка того же события
	// не меняет результат.
	UpdatePaymentStatusByTransactionID(ctx context.Context, transactionID string, status entities.PaymentStatus) error
	SetPaymentTransactionID(ctx context.Context, orderID, transactionID string) error
	OrderIDByTransactionID(ctx context.Context, transactionID string) (string, error)
}

type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, orderID string) (gateway.Intent, error)
	VerifyWebhook(payload []byte, signature string) (gateway.Event, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.OrderEvent) error
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      OrderRepo
	pricing   *pricing.Engine
	gateway   Gateway
	events    Publisher
	cache     Cache
}

func NewOrderService(
	logger *slog.Logger,
	txManager trm.Manager,
	repo OrderRepo,
	pricingEngine *pricing.Engine,
	gw Gateway,
	publisher Publisher,
	cache Cache,
) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		repo:      repo,
		pricing:   pricingEngine,
		gateway:   gw,
		events:    publisher,
		cache:     cache,
	}
}

type PlaceOrderInput struct {
	Items         []pricing.CartItem
	OrderType     entities.OrderType
	ScheduledTime *time.Time
	PaymentMethod entities.PaymentMethod
}

type PlacedOrder struct {
	Order entities.Order

	// ClientSecret is set for card orders only; the client uses it to
	// complete the charge out of band.
	ClientSecret string
}

// PlaceOrder prices the cart against the live catalog, persists the order
// aggregate atomically and, for card payments, registers a payment intent
// with the gateway. The order is committed before the gateway call: an
// intent failure loses only the client secret, never the order.
func (s *orderService) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (PlacedOrder, error) {
	if len(in.Items) == 0 {
		return PlacedOrder{}, fmt.Errorf("%w: empty cart", entities.ErrInvalidOrder)
	}

	lineItems, total, err := s.pricing.PriceCart(ctx, in.Items)
	if err != nil {
		return PlacedOrder{}, err
	}

	paymentStatus := entities.PaymentStatusSuccess
	if in.PaymentMethod == entities.PaymentMethodCard {
		paymentStatus = entities.PaymentStatusPending
	}

	now := time.Now().UTC()
	orderID := uuid.NewString()
	for i := range lineItems {
		lineItems[i].ID = uuid.NewString()
	}

	order := entities.Order{
		ID:            orderID,
		UserID:        userID,
		Status:        entities.OrderStatusPending,
		OrderType:     in.OrderType,
		ScheduledTime: in.ScheduledTime,
		TotalAmount:   total,
		CreatedAt:     now,
		Items:         lineItems,
		Payment: entities.Payment{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Method:    in.PaymentMethod,
			Status:    paymentStatus,
			Amount:    total,
			CreatedAt: now,
		},
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.repo.CreateOrder(ctx, order)
	})
	if err != nil {
		return PlacedOrder{}, fmt.Errorf("failed to create order: %w", err)
	}
	s.logger.Debug("order created", "order_id", order.ID, "total", total.String())

	placed := PlacedOrder{Order: order}

	if in.PaymentMethod == entities.PaymentMethodCard {
		intent, err := s.gateway.CreateIntent(ctx, total, order.ID)
		if err != nil {
			// Заказ уже сохранён; клиент может повторить создание intent.
			s.publish(ctx, events.FromOrder(events.KindOrderCreated, order))
			return placed, err
		}

		if err := s.repo.SetPaymentTransactionID(ctx, order.ID, intent.ID); err != nil {
			return placed, fmt.Errorf("failed to store transaction id: %w", err)
		}
		placed.Order.Payment.TransactionID = intent.ID
		placed.ClientSecret = intent.ClientSecret
	}

	s.publish(ctx, events.FromOrder(events.KindOrderCreated, placed.Order))
	return placed, nil
}

// AdvanceStatus applies a fulfillment transition. The repo enforces the
// transition table; terminal orders reject every target.
func (s *orderService) AdvanceStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error) {
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return entities.Order{}, err
	}
	s.cache.Delete(orderID)

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	s.publish(ctx, events.FromOrder(events.KindStatusChanged, order))
	return order, nil
}

// GetOrderByID serves the aggregate from cache when possible. Non-admin
// callers only see their own orders.
func (s *orderService) GetOrderByID(ctx context.Context, principal entities.Principal, orderID string) (entities.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	if !principal.IsAdmin() && order.UserID != principal.ID {
		return entities.Order{}, entities.ErrForbidden
	}
	return order, nil
}

func (s *orderService) getOrder(ctx context.Context, orderID string) (entities.Order, error) {
	if data, ok := s.cache.Get(orderID); ok {
		var order entities.Order
		if err := order.Unmarshal(data); err != nil {
			s.logger.Error("failed to unmarshal cached order", slog.String("order_id", orderID), slog.Any("error", err))
			return entities.Order{}, fmt.Errorf("%w: %v", entities.ErrInvalidOrder, err)
		}
		return order, nil
	}

	var order entities.Order
	fn := func() error {
		var err error
		order, err = s.repo.GetOrderByID(ctx, orderID)
		return err
	}
	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  5,
		Multiplier:   2,
	}
	if err := utils.Retry(cfg, fn, entities.ErrOrderNotFound); err != nil {
		return entities.Order{}, err
	}

	data, err := order.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal order", slog.String("order_id", orderID), slog.Any("error", err))
		return entities.Order{}, err
	}
	s.cache.Set(orderID, data)
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, f entities.OrderFilter) ([]entities.Order, int, error) {
	return s.repo.ListOrders(ctx, f)
}

func (s *orderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish order event",
			slog.String("order_id", event.OrderID),
			slog.String("kind", string(event.Kind)),
			slog.Any("error", err),
		)
	}
}
