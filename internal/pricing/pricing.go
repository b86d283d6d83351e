package pricing

import (
	"context"
	"fmt"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/shopspring/decimal"
)

type CatalogReader interface {
	GetProductByID(ctx context.Context, productID string) (entities.Product, error)
}

type CartItem struct {
	ProductID string
	Quantity  int
}

// Engine validates a cart against the live catalog and fixes price
// snapshots. Client-supplied prices are never trusted: the unit price is
// re-read at pricing time.
type Engine struct {
	catalog CatalogReader
}

func NewEngine(catalog CatalogReader) *Engine {
	return &Engine{catalog: catalog}
}

// PriceCart resolves every cart line and returns the snapshot line items
// together with the exact decimal total. No side effects.
func (e *Engine) PriceCart(ctx context.Context, items []CartItem) ([]entities.OrderItem, decimal.Decimal, error) {
	lineItems := make([]entities.OrderItem, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		if it.Quantity < 1 {
			return nil, decimal.Zero, fmt.Errorf("%w: product %s", entities.ErrInvalidQuantity, it.ProductID)
		}

		product, err := e.catalog.GetProductByID(ctx, it.ProductID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to resolve product %s: %w", it.ProductID, err)
		}

		if !product.IsAvailable {
			return nil, decimal.Zero, fmt.Errorf("%w: product %s", entities.ErrProductUnavailable, it.ProductID)
		}

		lineItems = append(lineItems, entities.OrderItem{
			ProductID:    product.ID,
			Quantity:     it.Quantity,
			PriceAtOrder: product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	return lineItems, total, nil
}
