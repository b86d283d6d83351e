package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type ProductLister interface {
	ListProducts(ctx context.Context, f entities.ProductFilter) ([]entities.Product, int, error)
}

type MenuHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	catalog  ProductLister
}

func NewMenuHandler(logger *slog.Logger, catalog ProductLister) *MenuHandler {
	return &MenuHandler{
		logger:   logger.With(slog.String("handler", "menu")),
		validate: validator.New(),
		catalog:  catalog,
	}
}

func (h *MenuHandler) Init(r chi.Router) {
	r.Post("/menu/products", h.ListProducts)
}

// ListProducts возвращает доступные товары.
// @Summary      Каталог
// @Description  Постраничный список доступных товаров, опционально по категории
// @Tags         menu
// @Accept       json
// @Produce      json
// @Param        request  body      ListProductsRequest  true  "Фильтры и пагинация"
// @Success      200  {object}  ProductsPage
// @Failure      400  {object}  utils.ValidationErrorResponse "Ошибка валидации"
// @Failure      500  {object}  utils.ErrorResponse "Внутренняя ошибка сервера"
// @Router       /menu/products [post]
func (h *MenuHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ListProductsRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = 20
	}

	products, total, err := h.catalog.ListProducts(ctx, entities.ProductFilter{
		CategoryID: req.CategoryID,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, ProductEntityToJSON(p))
	}
	utils.WriteJSON(w, ProductsPage{Products: out, Total: total, Page: page, Limit: limit}, http.StatusOK)
}
