package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreateOrder persists the order header, its line items and its payment
// record. Callers run it inside a transaction (trm) so the aggregate is
// committed as a whole or not at all.
func (r *postgresRepo) CreateOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns("order_id", "user_id", "status", "order_type", "scheduled_time", "total_amount", "created_at").
		Values(o.ID, o.UserID, string(o.Status), string(o.OrderType), nullTime(o.ScheduledTime), o.TotalAmount, o.CreatedAt).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	q := r.qb.Insert("order_items").
		Columns("item_id", "order_id", "product_id", "quantity", "price_at_order")
	for _, it := range o.Items {
		q = q.Values(it.ID, o.ID, it.ProductID, it.Quantity, it.PriceAtOrder)
	}
	query, args = q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}

	p := o.Payment
	query, args = r.qb.Insert("payments").
		Columns("payment_id", "order_id", "method", "status", "amount", "transaction_id", "created_at").
		Values(p.ID, o.ID, string(p.Method), string(p.Status), p.Amount, nullString(p.TransactionID), p.CreatedAt).
		MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(
		"order_id", "user_id", "status", "order_type",
		"scheduled_time", "total_amount", "created_at").
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	query, args = r.qb.Select("item_id", "order_id", "product_id", "quantity", "price_at_order").
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("item_id").
		MustSql()

	var items []Item
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order items: %w", err)
	}

	query, args = r.qb.Select(
		"payment_id", "order_id", "method", "status", "amount", "transaction_id", "created_at").
		From("payments").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var payment Payment
	if err := r.getContext(ctx, &payment, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get payment: %w", err)
	}

	return OrderToEntity(order, items, payment), nil
}

var sortColumns = map[entities.SortBy]string{
	entities.SortByDate:   "created_at DESC",
	entities.SortByStatus: "status ASC",
	entities.SortByAmount: "total_amount DESC",
}

func (r *postgresRepo) ListOrders(ctx context.Context, f entities.OrderFilter) ([]entities.Order, int, error) {
	where := sq.And{}
	if f.UserID != "" {
		where = append(where, sq.Eq{"user_id": f.UserID})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": string(f.Status)})
	}

	orderBy, ok := sortColumns[f.SortBy]
	if !ok {
		orderBy = sortColumns[entities.SortByDate]
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
		orders []Order
		total  int
	)

	// Page and count run concurrently, both against the pool.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		query, args := r.qb.Select(
			"order_id", "user_id", "status", "order_type",
			"scheduled_time", "total_amount", "created_at").
			From("orders").
			Where(where).
			OrderBy(orderBy).
			Offset(uint64((page - 1) * limit)).
			Limit(uint64(limit)).
			MustSql()
		if err := r.selectContext(gctx, &orders, query, args...); err != nil {
			return fmt.Errorf("failed to select orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		query, args := r.qb.Select("COUNT(*)").From("orders").Where(where).MustSql()
		if err := r.getContext(gctx, &total, query, args...); err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if len(orders) == 0 {
		return []entities.Order{}, total, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}

	query, args := r.qb.Select("item_id", "order_id", "product_id", "quantity", "price_at_order").
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("item_id").
		MustSql()

	var items []Item
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select order items: %w", err)
	}
	itemsMap := make(map[string][]Item, len(ids))
	for _, it := range items {
		itemsMap[it.OrderID] = append(itemsMap[it.OrderID], it)
	}

	query, args = r.qb.Select(
		"payment_id", "order_id", "method", "status", "amount", "transaction_id", "created_at").
		From("payments").
		Where(sq.Eq{"order_id": ids}).
		MustSql()

	var payments []Payment
	if err := r.selectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select payments: %w", err)
	}
	paymentMap := make(map[string]Payment, len(payments))
	for _, p := range payments {
		paymentMap[p.OrderID] = p
	}

	result := make([]entities.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderToEntity(o, itemsMap[o.OrderID], paymentMap[o.OrderID]))
	}

	return result, total, nil
}

// UpdateStatus applies a lifecycle transition as a single conditional
// UPDATE: the predicate admits only statuses from which newStatus is
// reachable, so terminal orders and concurrent updaters cannot slip an
// illegal transition through a read-then-write window.
func (r *postgresRepo) UpdateStatus(ctx context.Context, orderID string, newStatus entities.OrderStatus) error {
	sources := entities.TransitionSources(newStatus)
	if len(sources) == 0 {
		// newStatus is unreachable (e.g. PENDING): nothing transitions into it.
		if _, err := r.currentStatus(ctx, orderID); err != nil {
			return err
		}
		return entities.ErrInvalidTransition
	}

	from := make([]string, len(sources))
	for i, s := range sources {
		from[i] = string(s)
	}

	query, args := r.qb.Update("orders").
		Set("status", string(newStatus)).
		Where(sq.Eq{"order_id": orderID, "status": from}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if _, err := r.currentStatus(ctx, orderID); err != nil {
		return err
	}
	return entities.ErrInvalidTransition
}

func (r *postgresRepo) currentStatus(ctx context.Context, orderID string) (entities.OrderStatus, error) {
	query, args := r.qb.Select("status").
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var status string
	err := r.getContext(ctx, &status, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", entities.ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get order status: %w", err)
	}
	return entities.OrderStatus(status), nil
}

// UpdatePaymentStatusByTransactionID is the webhook reconciliation write.
// One UPDATE keyed by transaction id: replays of the same event converge
// to the same row state, and racing deliveries resolve last-write-wins.
func (r *postgresRepo) UpdatePaymentStatusByTransactionID(ctx context.Context, transactionID string, status entities.PaymentStatus) error {
	query, args := r.qb.Update("payments").
		Set("status", string(status)).
		Where(sq.Eq{"transaction_id": transactionID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return entities.ErrPaymentNotFound
	}
	return nil
}

func (r *postgresRepo) OrderIDByTransactionID(ctx context.Context, transactionID string) (string, error) {
	query, args := r.qb.Select("order_id").
		From("payments").
		Where(sq.Eq{"transaction_id": transactionID}).
		MustSql()

	var orderID string
	err := r.getContext(ctx, &orderID, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", entities.ErrPaymentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve transaction: %w", err)
	}
	return orderID, nil
}

func (r *postgresRepo) SetPaymentTransactionID(ctx context.Context, orderID, transactionID string) error {
	query, args := r.qb.Update("payments").
		Set("transaction_id", transactionID).
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set payment transaction id: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return entities.ErrPaymentNotFound
	}
	return nil
}

func (r *postgresRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *postgresRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *postgresRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
