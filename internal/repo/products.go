package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chocohouse/order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type catalogRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewCatalogRepo(db *sqlx.DB) *catalogRepo {
	return &catalogRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *catalogRepo) GetProductByID(ctx context.Context, productID string) (entities.Product, error) {
	query, args := r.qb.Select(
		"product_id", "name", "description", "price",
		"image_url", "is_available", "category_id", "created_at").
		From("products").
		Where(sq.Eq{"product_id": productID}).
		MustSql()

	var product Product
	err := r.db.GetContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	return ProductToEntity(product), nil
}

// ListProducts returns available products only; customers never see
// delisted items.
func (r *catalogRepo) ListProducts(ctx context.Context, f entities.ProductFilter) ([]entities.Product, int, error) {
	where := sq.And{sq.Eq{"is_available": true}}
	if f.CategoryID != "" {
		where = append(where, sq.Eq{"category_id": f.CategoryID})
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}

	var (
		products []Product
		total    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		query, args := r.qb.Select(
			"product_id", "name", "description", "price",
			"image_url", "is_available", "category_id", "created_at").
			From("products").
			Where(where).
			OrderBy("created_at DESC").
			Offset(uint64((page - 1) * limit)).
			Limit(uint64(limit)).
			MustSql()
		if err := r.db.SelectContext(gctx, &products, query, args...); err != nil {
			return fmt.Errorf("failed to select products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		query, args := r.qb.Select("COUNT(*)").From("products").Where(where).MustSql()
		if err := r.db.GetContext(gctx, &total, query, args...); err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	result := make([]entities.Product, 0, len(products))
	for _, p := range products {
		result = append(result, ProductToEntity(p))
	}

	return result, total, nil
}
