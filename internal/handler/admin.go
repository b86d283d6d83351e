package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/middleware"
	"github.com/chocohouse/order-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type AdminService interface {
	ListOrders(ctx context.Context, f entities.OrderFilter) ([]entities.Order, int, error)
	AdvanceStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error)
}

type AdminHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      AdminService
}

func NewAdminHandler(logger *slog.Logger, svc AdminService) *AdminHandler {
	return &AdminHandler{
		logger:   logger.With(slog.String("handler", "admin")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *AdminHandler) Init(r chi.Router) {
	r.Route("/admin/orders", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Post("/", h.ListOrders)
		r.Post("/status", h.UpdateStatus)
	})
}

// ListOrders возвращает заказы всех пользователей.
// @Summary      Все заказы
// @Description  Постраничный список заказов магазина с фильтром по статусу
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      ListOrdersRequest  true  "Фильтры и пагинация"
// @Success      200  {object}  OrdersPage
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      403  {object}  utils.ErrorResponse "Требуется роль администратора"
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Security     BearerAuth
// @Router       /admin/orders [post]
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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

	orders, total, err := h.svc.ListOrders(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list orders", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrdersPageToJSON(orders, total, filter.Page, filter.Limit), http.StatusOK)
}

// UpdateStatus переводит заказ по жизненному циклу.
// @Summary      Сменить статус заказа
// @Description  Применяет допустимый переход статуса; завершённые заказы не меняются
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request  body      UpdateStatusRequest  true  "Заказ и целевой статус"
// @Success      200  {object}  Order
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      403  {object}  utils.ErrorResponse "Требуется роль администратора"
// @Failure      404  {object}  utils.ErrorResponse "Заказ не найден"
// @Failure      409  {object}  utils.ErrorResponse "Недопустимый переход"
// @Security     BearerAuth
// @Router       /admin/orders/status [post]
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.AdvanceStatus(ctx, req.OrderID, entities.OrderStatus(req.Status))
	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	case errors.Is(err, entities.ErrInvalidTransition):
		utils.WriteError(w, "invalid status transition", http.StatusConflict)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to update status", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	statusTransitions.WithLabelValues(string(order.Status)).Inc()
	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}
