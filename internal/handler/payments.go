package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/middleware"
	"github.com/chocohouse/order-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// webhook payloads are small; the cap guards against a hostile sender.
const maxWebhookBody = 1 << 20

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, userID, orderID string) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type PaymentHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      PaymentService
}

func NewPaymentHandler(logger *slog.Logger, svc PaymentService) *PaymentHandler {
	return &PaymentHandler{
		logger:   logger.With(slog.String("handler", "payments")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *PaymentHandler) Init(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.With(middleware.RequireAuth).Post("/intent", h.CreateIntent)
		r.Post("/webhook", h.Webhook)
	})
}

// CreateIntent выпускает client secret для существующего заказа.
// @Summary      Платёжный интент
// @Description  Создаёт (или пересоздаёт) платёжный интент для карточного заказа
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request  body      CreateIntentRequest  true  "Идентификатор заказа"
// @Success      200  {object}  IntentResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      401  {object}  utils.ErrorResponse "Не авторизован"
// @Failure      403  {object}  utils.ErrorResponse "Чужой заказ"
// @Failure      404  {object}  utils.ErrorResponse "Заказ не найден"
// @Failure      502  {object}  utils.ErrorResponse "Платёжный шлюз недоступен"
// @Security     BearerAuth
// @Router       /payments/intent [post]
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := middleware.PrincipalFromContext(ctx)

	var req CreateIntentRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	secret, err := h.svc.CreatePaymentIntent(ctx, principal.ID, req.OrderID)
	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	case errors.Is(err, entities.ErrForbidden):
		utils.WriteError(w, "forbidden", http.StatusForbidden)
		return
	case errors.Is(err, entities.ErrInvalidOrder):
		utils.WriteError(w, "not a card order", http.StatusBadRequest)
		return
	case errors.Is(err, entities.ErrGatewayUnavailable):
		utils.WriteError(w, "payment gateway unavailable", http.StatusBadGateway)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to create intent", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, IntentResponse{ClientSecret: secret}, http.StatusOK)
}

// Webhook принимает события платёжного шлюза.
// @Summary      Вебхук шлюза
// @Description  Проверяет подпись и сверяет статус платежа; повторная доставка безопасна
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  WebhookResponse
// @Failure      400  {object}  utils.ErrorResponse "Недействительная подпись"
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Router       /payments/webhook [post]
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	err = h.svc.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, entities.ErrInvalidSignature) {
		webhooksRejected.Inc()
		utils.WriteError(w, "invalid signature", http.StatusBadRequest)
		return
	}
	if err != nil {
		// Не 2xx: шлюз повторит доставку позже.
		h.logger.ErrorContext(ctx, "failed to handle webhook", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	webhooksProcessed.Inc()
	utils.WriteJSON(w, WebhookResponse{Received: true}, http.StatusOK)
}
