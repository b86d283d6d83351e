package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/middleware"
	"github.com/chocohouse/order-service/internal/service"
	"github.com/chocohouse/order-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, in service.PlaceOrderInput) (service.PlacedOrder, error)
	GetOrderByID(ctx context.Context, principal entities.Principal, orderID string) (entities.Order, error)
	ListOrders(ctx context.Context, f entities.OrderFilter) ([]entities.Order, int, error)
}

type OrderHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewOrderHandler(logger *slog.Logger, svc OrderService) *OrderHandler {
	return &OrderHandler{
		logger:   logger.With(slog.String("handler", "orders")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *OrderHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", h.PlaceOrder)
		r.Post("/my", h.ListMyOrders)
		r.Get("/{order_id}", h.GetOrderByID)
	})
}

// PlaceOrder создаёт заказ.
// @Summary      Оформить заказ
// @Description  Проверяет корзину по каталогу, фиксирует цены и создаёт заказ с платежом
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request  body      PlaceOrderRequest  true  "Корзина и способ оплаты"
// @Success      201  {object}  PlaceOrderResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      401  {object}  utils.ErrorResponse "Не авторизован"
// @Failure      422  {object}  utils.ErrorResponse "Товар недоступен"
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := middleware.PrincipalFromContext(ctx)

	var req PlaceOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	placed, err := h.svc.PlaceOrder(ctx, principal.ID, service.PlaceOrderInput{
		Items:         cartItemsToInput(req.Items),
		OrderType:     entities.OrderType(req.OrderType),
		ScheduledTime: req.ScheduledTime,
		PaymentMethod: entities.PaymentMethod(req.PaymentMethod),
	})

	// Заказ мог сохраниться даже если шлюз упал: отдаём его без client secret.
	if errors.Is(err, entities.ErrGatewayUnavailable) && placed.Order.ID != "" {
		ordersPlaced.Inc()
		utils.WriteJSON(w, PlaceOrderResponse{Order: OrderEntityToJSON(placed.Order)}, http.StatusCreated)
		return
	}
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	ordersPlaced.Inc()
	utils.WriteJSON(w, PlaceOrderResponse{
		Order:        OrderEntityToJSON(placed.Order),
		ClientSecret: placed.ClientSecret,
	}, http.StatusCreated)
}

// ListMyOrders возвращает заказы текущего пользователя.
// @Summary      Мои заказы
// @Description  Постраничный список заказов пользователя с сортировкой
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request  body      ListOrdersRequest  true  "Фильтры и пагинация"
// @Success      200  {object}  OrdersPage
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      401  {object}  utils.ErrorResponse "Не авторизован"
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Security     BearerAuth
// @Router       /orders/my [post]
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := middleware.PrincipalFromContext(ctx)

	var req ListOrdersRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	filter := listRequestToFilter(req)
	filter.UserID = principal.ID

	orders, total, err := h.svc.ListOrders(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrdersPageToJSON(orders, total, filter.Page, filter.Limit), http.StatusOK)
}

// GetOrderByID возвращает заказ по ID.
// @Summary      Получить заказ
// @Description  Возвращает заказ с позициями и платежом; чужие заказы недоступны
// @Tags         orders
// @Produce      json
// @Param        order_id   path      string  true  "Идентификатор заказа"
// @Success      200  {object}  Order
// @Failure      401  {object}  utils.ErrorResponse "Не авторизован"
// @Failure      403  {object}  utils.ErrorResponse "Чужой заказ"
// @Failure      404  {object}  utils.ErrorResponse "Заказ не найден"
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Security     BearerAuth
// @Router       /orders/{order_id} [get]
func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := middleware.PrincipalFromContext(ctx)
	orderID := chi.URLParam(r, "order_id")

	if err := h.validate.Var(orderID, "required"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.GetOrderByID(ctx, principal, orderID)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *OrderHandler) writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, entities.ErrForbidden):
		utils.WriteError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, entities.ErrProductNotFound):
		utils.WriteError(w, "product not found", http.StatusUnprocessableEntity)
	case errors.Is(err, entities.ErrProductUnavailable):
		utils.WriteError(w, "product unavailable", http.StatusUnprocessableEntity)
	case errors.Is(err, entities.ErrInvalidQuantity), errors.Is(err, entities.ErrInvalidOrder):
		utils.WriteError(w, "invalid order", http.StatusBadRequest)
	default:
		h.logger.ErrorContext(ctx, "order request failed", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}

func listRequestToFilter(req ListOrdersRequest) entities.OrderFilter {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}
	return entities.OrderFilter{
		Status: entities.OrderStatus(req.Status),
		Page:   page,
		Limit:  limit,
		SortBy: entities.SortBy(req.SortBy),
	}
}
