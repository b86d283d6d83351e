package handler

import (
	"time"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/pricing"
)

// CartItem позиция корзины
type CartItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// PlaceOrderRequest тело запроса на создание заказа
type PlaceOrderRequest struct {
	Items         []CartItem `json:"items" validate:"required,min=1,dive"`
	OrderType     string     `json:"order_type" validate:"required,oneof=DELIVERY PICKUP"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	PaymentMethod string     `json:"payment_method" validate:"required,oneof=CASH CARD"`
}

// Item товар в заказе; цена зафиксирована на момент оформления
type Item struct {
	ItemID       string `json:"item_id"`
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	PriceAtOrder string `json:"price_at_order"`
}

// Payment информация об оплате
type Payment struct {
	PaymentID     string    `json:"payment_id"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	Amount        string    `json:"amount"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Order представляет заказ
type Order struct {
	OrderID       string     `json:"order_id"`
	UserID        string     `json:"user_id"`
	Status        string     `json:"status"`
	OrderType     string     `json:"order_type"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	TotalAmount   string     `json:"total_amount"`
	CreatedAt     time.Time  `json:"created_at"`
	Items         []Item     `json:"items"`
	Payment       Payment    `json:"payment"`
}

// PlaceOrderResponse заказ и, для карточной оплаты, client secret
type PlaceOrderResponse struct {
	Order        Order  `json:"order"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// ListOrdersRequest параметры списка заказов
type ListOrdersRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=PENDING PREPARING READY COMPLETED CANCELLED"`
	Page   int    `json:"page,omitempty" validate:"omitempty,gte=1"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,gte=1,lte=100"`
	SortBy string `json:"sort_by,omitempty" validate:"omitempty,oneof=date status amount"`
}

// OrdersPage страница заказов
type OrdersPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// CreateIntentRequest запрос на (пере)создание платёжного интента
type CreateIntentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// IntentResponse содержит client secret для завершения оплаты
type IntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// WebhookResponse подтверждение приёма события
type WebhookResponse struct {
	Received bool `json:"received"`
}

// UpdateStatusRequest админский перевод заказа по жизненному циклу
type UpdateStatusRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=PREPARING READY COMPLETED CANCELLED"`
}

// ListProductsRequest параметры каталога
type ListProductsRequest struct {
	CategoryID string `json:"category_id,omitempty"`
	Page       int    `json:"page,omitempty" validate:"omitempty,gte=1"`
	Limit      int    `json:"limit,omitempty" validate:"omitempty,gte=1,lte=100"`
}

// Product позиция каталога
type Product struct {
	ProductID   string    `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsAvailable bool      `json:"is_available"`
	CategoryID  string    `json:"category_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductsPage страница каталога
type ProductsPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

func ItemEntityToJSON(i entities.OrderItem) Item {
	return Item{
		ItemID:       i.ID,
		ProductID:    i.ProductID,
		Quantity:     i.Quantity,
		PriceAtOrder: i.PriceAtOrder.StringFixed(3),
	}
}

func PaymentEntityToJSON(p entities.Payment) Payment {
	return Payment{
		PaymentID:     p.ID,
		Method:        string(p.Method),
		Status:        string(p.Status),
		Amount:        p.Amount.StringFixed(3),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]Item, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemEntityToJSON(it))
	}

	return Order{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		OrderType:     string(o.OrderType),
		ScheduledTime: o.ScheduledTime,
		TotalAmount:   o.TotalAmount.StringFixed(3),
		CreatedAt:     o.CreatedAt,
		Items:         items,
		Payment:       PaymentEntityToJSON(o.Payment),
	}
}

func OrdersPageToJSON(orders []entities.Order, total, page, limit int) OrdersPage {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderEntityToJSON(o))
	}
	return OrdersPage{Orders: out, Total: total, Page: page, Limit: limit}
}

func ProductEntityToJSON(p entities.Product) Product {
	return Product{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(3),
		ImageURL:    p.ImageURL,
		IsAvailable: p.IsAvailable,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
	}
}

func cartItemsToInput(items []CartItem) []pricing.CartItem {
	out := make([]pricing.CartItem, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}
