package entities

type SortBy string

const (
	SortByDate   SortBy = "date"
	SortByStatus SortBy = "status"
	SortByAmount SortBy = "amount"
)

// OrderFilter narrows and pages an order listing. Empty UserID or Status
// means "no filter on that field".
type OrderFilter struct {
	UserID string
	Status OrderStatus
	Page   int
	Limit  int
	SortBy SortBy
}

type ProductFilter struct {
	CategoryID string
	Page       int
	Limit      int
}
