package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

type Payment struct {
	ID      string
	OrderID string
	Method  PaymentMethod
	Status  PaymentStatus
	Amount  decimal.Decimal

	// TransactionID is the provider-side payment intent id. Empty until
	// an intent is created; webhook reconciliation matches on it.
	TransactionID string

	CreatedAt time.Time
}
