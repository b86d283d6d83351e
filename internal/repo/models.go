package repo

import (
	"database/sql"
	"time"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/shopspring/decimal"
)

type Order struct {
	OrderID       string          `db:"order_id"`
	UserID        string          `db:"user_id"`
	Status        string          `db:"status"`
	OrderType     string          `db:"order_type"`
	ScheduledTime sql.NullTime    `db:"scheduled_time"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	CreatedAt     time.Time       `db:"created_at"`
}

type Item struct {
	ItemID       string          `db:"item_id"`
	OrderID      string          `db:"order_id"`
	ProductID    string          `db:"product_id"`
	Quantity     int             `db:"quantity"`
	PriceAtOrder decimal.Decimal `db:"price_at_order"`
}

type Payment struct {
	PaymentID     string          `db:"payment_id"`
	OrderID       string          `db:"order_id"`
	Method        string          `db:"method"`
	Status        string          `db:"status"`
	Amount        decimal.Decimal `db:"amount"`
	TransactionID sql.NullString  `db:"transaction_id"`
	CreatedAt     time.Time       `db:"created_at"`
}

type Product struct {
	ProductID   string          `db:"product_id"`
	Name        string          `db:"name"`
	Description sql.NullString  `db:"description"`
	Price       decimal.Decimal `db:"price"`
	ImageURL    sql.NullString  `db:"image_url"`
	IsAvailable bool            `db:"is_available"`
	CategoryID  string          `db:"category_id"`
	CreatedAt   time.Time       `db:"created_at"`
}

func ItemToEntity(i Item) entities.OrderItem {
	return entities.OrderItem{
		ID:           i.ItemID,
		ProductID:    i.ProductID,
		Quantity:     i.Quantity,
		PriceAtOrder: i.PriceAtOrder,
	}
}

func PaymentToEntity(p Payment) entities.Payment {
	return entities.Payment{
		ID:            p.PaymentID,
		OrderID:       p.OrderID,
		Method:        entities.PaymentMethod(p.Method),
		Status:        entities.PaymentStatus(p.Status),
		Amount:        p.Amount,
		TransactionID: nullStringToString(p.TransactionID),
		CreatedAt:     p.CreatedAt,
	}
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:          p.ProductID,
		Name:        p.Name,
		Description: nullStringToString(p.Description),
		Price:       p.Price,
		ImageURL:    nullStringToString(p.ImageURL),
		IsAvailable: p.IsAvailable,
		CategoryID:  p.CategoryID,
		CreatedAt:   p.CreatedAt,
	}
}

func OrderToEntity(o Order, items []Item, p Payment) entities.Order {
	order := entities.Order{
		ID:          o.OrderID,
		UserID:      o.UserID,
		Status:      entities.OrderStatus(o.Status),
		OrderType:   entities.OrderType(o.OrderType),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		Payment:     PaymentToEntity(p),
	}

	if o.ScheduledTime.Valid {
		t := o.ScheduledTime.Time
		order.ScheduledTime = &t
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
