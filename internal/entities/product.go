package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	IsAvailable bool
	CategoryID  string
	CreatedAt   time.Time
}

type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
