package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/gateway"
	"github.com/chocohouse/order-service/internal/pricing"
	pricingMocks "github.com/chocohouse/order-service/internal/pricing/mocks"
	"github.com/chocohouse/order-service/internal/service"
	mocks "github.com/chocohouse/order-service/internal/service/mocks"
	txMocks "github.com/chocohouse/order-service/pkg/trm/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// orderService is the surface under test; NewOrderService returns an
// unexported concrete type.
type orderService interface {
	PlaceOrder(ctx context.Context, userID string, in service.PlaceOrderInput) (service.PlacedOrder, error)
	AdvanceStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error)
	GetOrderByID(ctx context.Context, principal entities.Principal, orderID string) (entities.Order, error)
	ListOrders(ctx context.Context, f entities.OrderFilter) ([]entities.Order, int, error)
	CreatePaymentIntent(ctx context.Context, userID, orderID string) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type serviceMocks struct {
	repo      *mocks.MockOrderRepo
	catalog   *pricingMocks.MockCatalogReader
	gw        *mocks.MockGateway
	publisher *mocks.MockPublisher
	cache     *mocks.MockCache
	tx        *txMocks.MockManager
}

func newService(t *testing.T) (orderService, serviceMocks) {
	t.Helper()

	m := serviceMocks{
		repo:      mocks.NewMockOrderRepo(t),
		catalog:   pricingMocks.NewMockCatalogReader(t),
		gw:        mocks.NewMockGateway(t),
		publisher: mocks.NewMockPublisher(t),
		cache:     mocks.NewMockCache(t),
		tx:        txMocks.NewMockManager(t),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.NewOrderService(
		logger, m.tx, m.repo, pricing.NewEngine(m.catalog), m.gw, m.publisher, m.cache,
	)
	return svc, m
}

func TestOrderService_PlaceOrder(t *testing.T) {
	type MockBehavior func(m serviceMocks)

	dbError := errors.New("db error")

	bar := entities.Product{
		ID:          "dark-70",
		Price:       decimal.RequireFromString("3.500"),
		IsAvailable: true,
	}
	cart := []pricing.CartItem{{ProductID: "dark-70", Quantity: 3}}

	testCases := []struct {
		name             string
		input            service.PlaceOrderInput
		mockBehavior     MockBehavior
		wantErr          error
		wantOrderKept    bool
		wantClientSecret string
		wantPayStatus    entities.PaymentStatus
	}{
		{
			name: "cash order settles immediately",
			input: service.PlaceOrderInput{
				Items:         cart,
				OrderType:     entities.OrderTypePickup,
				PaymentMethod: entities.PaymentMethodCash,
			},
			mockBehavior: func(m serviceMocks) {
				m.catalog.EXPECT().GetProductByID(mock.Anything, "dark-70").Return(bar, nil)
				m.tx.EXPECT().Do(mock.Anything, mock.Anything).
					RunAndReturn(func(ctx context.Context, cb func(ctx context.Context) error) error {
						return cb(ctx)
					})
				m.repo.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(nil)
				m.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)
			},
			wantPayStatus: entities.PaymentStatusSuccess,
		},
		{
			name: "card order registers intent",
			input: service.PlaceOrderInput{
				Items:         cart,
				OrderType:     entities.OrderTypeDelivery,
				PaymentMethod: entities.PaymentMethodCard,
			},
			mockBehavior: func(m serviceMocks) {
				m.catalog.EXPECT().GetProductByID(mock.Anything, "dark-70").Return(bar, nil)
				m.tx.EXPECT().Do(mock.Anything, mock.Anything).
					RunAndReturn(func(ctx context.Context, cb func(ctx context.Context) error) error {
						return cb(ctx)
					})
				m.repo.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(nil)
				m.gw.EXPECT().CreateIntent(mock.Anything, mock.Anything, mock.Anything).
					Run(func(_ context.Context, amount decimal.Decimal, _ string) {
						assert.True(t, amount.Equal(decimal.RequireFromString("10.500")))
					}).
					Return(gateway.Intent{ID: "pi_123", ClientSecret: "pi_123_secret"}, nil)
				m.repo.EXPECT().SetPaymentTransactionID(mock.Anything, mock.Anything, "pi_123").Return(nil)
				m.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)
			},
			wantClientSecret: "pi_123_secret",
			wantPayStatus:    entities.PaymentStatusPending,
		},
		{
			name: "empty cart rejected",
			input: service.PlaceOrderInput{
				OrderType:     entities.OrderTypePickup,
				PaymentMethod: entities.PaymentMethodCash,
			},
			mockBehavior: func(m serviceMocks) {},
			wantErr:      entities.ErrInvalidOrder,
		},
		{
			name: "persist failure aborts before gateway",
			input: service.PlaceOrderInput{
				Items:         cart,
				OrderType:     entities.OrderTypeDelivery,
				PaymentMethod: entities.PaymentMethodCard,
			},
			mockBehavior: func(m serviceMocks) {
				m.catalog.EXPECT().GetProductByID(mock.Anything, "dark-70").Return(bar, nil)
				m.tx.EXPECT().Do(mock.Anything, mock.Anything).
					RunAndReturn(func(ctx context.Context, cb func(ctx context.Context) error) error {
						return cb(ctx)
					})
				m.repo.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(dbError)
			},
			wantErr: dbError,
		},
		{
			name: "intent failure keeps the order",
			input: service.PlaceOrderInput{
				Items:         cart,
				OrderType:     entities.OrderTypeDelivery,
				PaymentMethod: entities.PaymentMethodCard,
			},
			mockBehavior: func(m serviceMocks) {
				m.catalog.EXPECT().GetProductByID(mock.Anything, "dark-70").Return(bar, nil)
				m.tx.EXPECT().Do(mock.Anything, mock.Anything).
					RunAndReturn(func(ctx context.Context, cb func(ctx context.Context) error) error {
						return cb(ctx)
					})
				m.repo.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(nil)
				m.gw.EXPECT().CreateIntent(mock.Anything, mock.Anything, mock.Anything).
					Return(gateway.Intent{}, entities.ErrGatewayUnavailable)
				m.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)
			},
			wantErr:       entities.ErrGatewayUnavailable,
			wantOrderKept: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newService(t)
			tc.mockBehavior(m)

			placed, err := svc.PlaceOrder(context.Background(), "user-1", tc.input)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				if tc.wantOrderKept {
					assert.NotEmpty(t, placed.Order.ID)
				} else {
					assert.Empty(t, placed.Order.ID)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "user-1", placed.Order.UserID)
			assert.Equal(t, entities.OrderStatusPending, placed.Order.Status)
			assert.Equal(t, tc.wantPayStatus, placed.Order.Payment.Status)
			assert.Equal(t, tc.wantClientSecret, placed.ClientSecret)
			assert.True(t, placed.Order.TotalAmount.Equal(decimal.RequireFromString("10.500")))
			assert.True(t, placed.Order.Payment.Amount.Equal(placed.Order.TotalAmount))
			require.Len(t, placed.Order.Items, 1)
			assert.True(t, placed.Order.Items[0].PriceAtOrder.Equal(bar.Price))
		})
	}
}

func TestOrderService_AdvanceStatus(t *testing.T) {
	type MockBehavior func(m serviceMocks)

	updated := entities.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: entities.OrderStatusPreparing,
	}

	testCases := []struct {
		name         string
		status       entities.OrderStatus
		mockBehavior MockBehavior
		wantErr      error
	}{
		{
			name:   "valid transition invalidates cache and publishes",
			status: entities.OrderStatusPreparing,
			mockBehavior: func(m serviceMocks) {
				m.repo.EXPECT().UpdateStatus(mock.Anything, "order-1", entities.OrderStatusPreparing).Return(nil)
				m.cache.EXPECT().Delete("order-1").Return()
				m.repo.EXPECT().GetOrderByID(mock.Anything, "order-1").Return(updated, nil)
				m.publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:   "invalid transition passes through untouched",
			status: entities.OrderStatusCompleted,
			mockBehavior: func(m serviceMocks) {
				m.repo.EXPECT().UpdateStatus(mock.Anything, "order-1", entities.OrderStatusCompleted).
					Return(entities.ErrInvalidTransition)
			},
			wantErr: entities.ErrInvalidTransition,
		},
		{
			name:   "unknown order",
			status: entities.OrderStatusPreparing,
			mockBehavior: func(m serviceMocks) {
				m.repo.EXPECT().UpdateStatus(mock.Anything, "order-1", entities.OrderStatusPreparing).
					Return(entities.ErrOrderNotFound)
			},
			wantErr: entities.ErrOrderNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newService(t)
			tc.mockBehavior(m)

			got, err := svc.AdvanceStatus(context.Background(), "order-1", tc.status)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, updated, got)
		})
	}
}

func TestOrderService_GetOrderByID(t *testing.T) {
	type MockBehavior func(m serviceMocks)

	order := entities.Order{
		ID:          "order-1",
		UserID:      "user-1",
		Status:      entities.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("10.500"),
		CreatedAt:   time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC),
	}
	cached, err := order.Marshal()
	require.NoError(t, err)

	owner := entities.Principal{ID: "user-1", Role: entities.RoleCustomer}
	stranger := entities.Principal{ID: "user-2", Role: entities.RoleCustomer}
	admin := entities.Principal{ID: "admin-1", Role: entities.RoleAdmin}

	testCases := []struct {
		name         string
		principal    entities.Principal
		mockBehavior MockBehavior
		wantErr      error
	}{
		{
			name:      "cache hit for owner",
			principal: owner,
			mockBehavior: func(m serviceMocks) {
				m.cache.EXPECT().Get("order-1").Return(cached, true).Once()
			},
		},
		{
			name:      "cache hit but unmarshal fails",
			principal: owner,
			mockBehavior: func(m serviceMocks) {
				m.cache.EXPECT().Get("order-1").Return([]byte("broken"), true).Once()
			},
			wantErr: entities.ErrInvalidOrder,
		},
		{
			name:      "cache miss falls back to repo",
			principal: owner,
			mockBehavior: func(m serviceMocks) {
				m.cache.EXPECT().Get("order-1").Return(nil, false).Once()
				m.repo.EXPECT().GetOrderByID(mock.Anything, "order-1").Return(order, nil).Once()
				m.cache.EXPECT().Set("order-1", cached).Return().Once()
			},
		},
		{
			name:      "transient repo error retried",
			principal: owner,
			mockBehavior: func(m serviceMocks) {
				m.cache.EXPECT().Get("order-1").Return(nil, false).Once()
				m.repo.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Once().Return(entities.Order{}, errors.New("connection reset"))
				m.repo.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Once().Return(order, nil)
				m.cache.EXPECT().Set("order-1", cached).Return().Once()
			},
		},
		{
			name:      "not found is not retried",
			principal: owner,
			mockBehavior: func(m serviceMocks) {
				m.cache.EXPECT().Get("order-1").Return(nil, false).Once()
				m.repo.EXPECT().GetOrderByID(mock.Anything, "order-1").
					Once().Return(entities.Order{}, entities.ErrOrderNotFound)
			},
			wantErr: entities.ErrOrderNotFound,
		},
		{
			name:      "stranger is refused",
			principal: stranger,
			mockBehavior: func(m serviceMocks) {
				m.cache.EXPECT().Get("order-1").Return(cached, true).Once()
			},
			wantErr: entities.ErrForbidden,
		},
		{
			name:      "admin sees any order",
			principal: admin,
			mockBehavior: func(m serviceMocks) {
				m.cache.EXPECT().Get("order-1").Return(cached, true).Once()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newService(t)
			tc.mockBehavior(m)

			got, err := svc.GetOrderByID(context.Background(), tc.principal, "order-1")

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, order.ID, got.ID)
			assert.True(t, got.TotalAmount.Equal(order.TotalAmount))
		})
	}
}

func TestOrderService_ListOrders(t *testing.T) {
	svc, m := newService(t)

	filter := entities.OrderFilter{UserID: "user-1", Page: 2, Limit: 10, SortBy: entities.SortByAmount}
	orders := []entities.Order{{ID: "order-1"}, {ID: "order-2"}}

	m.repo.EXPECT().ListOrders(mock.Anything, filter).Return(orders, 42, nil)

	got, total, err := svc.ListOrders(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, orders, got)
	assert.Equal(t, 42, total)
}
