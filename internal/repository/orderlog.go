package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-billing/internal/domain/billing"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
)

const (
	appendRowSQL = `INSERT INTO orders (bill_number, item, quantity, price, date, time, payment_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	listRowsSQL = `SELECT bill_number, item, quantity, price, date, time, payment_type
		FROM orders
		WHERE ($1::text = '' OR bill_number = $1) AND ($2::text = '' OR date = $2)
		ORDER BY seq`

	salesByItemSQL = `SELECT item, SUM(quantity), SUM(price),
		COUNT(DISTINCT bill_number || '|' || date || '|' || time)
		FROM orders GROUP BY item ORDER BY item`

	salesByDateSQL = `SELECT date, SUM(quantity), SUM(price),
		COUNT(DISTINCT bill_number || '|' || date || '|' || time)
		FROM orders GROUP BY date ORDER BY MIN(seq)`

	countRowsSQL = `SELECT COUNT(*) FROM orders`

	orderKeysSQL = `SELECT bill_number, date, time FROM orders
		GROUP BY bill_number, date, time ORDER BY MIN(seq)`

	orderExistsSQL = `SELECT EXISTS (
		SELECT 1 FROM orders WHERE bill_number = $1 AND date = $2 AND time = $3)`
)

var _ orderlog.Repository = (*OrderLogRepository)(nil)

// OrderLogRepository implements orderlog.Repository backed by PostgreSQL.
type OrderLogRepository struct {
	pool *pgxpool.Pool
}

// NewOrderLogRepository returns an OrderLogRepository that uses the given pool.
func NewOrderLogRepository(pool *pgxpool.Pool) *OrderLogRepository {
	return &OrderLogRepository{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (r *OrderLogRepository) EnsureSchema(ctx context.Context) error {
	return Migrate(ctx, r.pool)
}

// Append inserts rows in order inside a single transaction.
func (r *OrderLogRepository) Append(ctx context.Context, rows []orderlog.Row) error {
	if len(rows) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, row := range rows {
			batch.Queue(appendRowSQL,
				row.BillNumber, row.Item, row.Quantity, row.Price,
				row.Date, row.Time, string(row.PaymentType),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("appending %d rows for bill %q: %w", len(rows), rows[0].BillNumber, err)
	}
	return nil
}

// List returns rows matching f in append order.
func (r *OrderLogRepository) List(ctx context.Context, f orderlog.Filter) ([]orderlog.Row, error) {
	rows, err := r.pool.Query(ctx, listRowsSQL, f.BillNumber, f.Date)
	if err != nil {
		return nil, fmt.Errorf("listing order rows: %w", err)
	}
	return pgx.CollectRows(rows, scanRow)
}

// Sales aggregates rows by item or by date.
func (r *OrderLogRepository) Sales(ctx context.Context, by orderlog.GroupBy) ([]orderlog.Sales, error) {
	query := salesByItemSQL
	if by == orderlog.GroupByDate {
		query = salesByDateSQL
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying sales by %s: %w", by, err)
	}
	return pgx.CollectRows(rows, scanSales)
}

// Count returns the number of stored rows.
func (r *OrderLogRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countRowsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting order rows: %w", err)
	}
	return n, nil
}

// Keys streams the distinct order keys in append order.
func (r *OrderLogRepository) Keys(ctx context.Context, fn func(orderlog.Key) error) error {
	rows, err := r.pool.Query(ctx, orderKeysSQL)
	if err != nil {
		return fmt.Errorf("listing order keys: %w", err)
	}

	var k orderlog.Key
	_, err = pgx.ForEachRow(rows, []any{&k.BillNumber, &k.Date, &k.Time}, func() error {
		return fn(k)
	})
	if err != nil {
		return fmt.Errorf("scanning order keys: %w", err)
	}
	return nil
}

// Exists reports whether any row belongs to the order k.
func (r *OrderLogRepository) Exists(ctx context.Context, k orderlog.Key) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, k.BillNumber, k.Date, k.Time).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking order %s: %w", k, err)
	}
	return ok, nil
}

func scanRow(row pgx.CollectableRow) (orderlog.Row, error) {
	var (
		r           orderlog.Row
		price       decimal.Decimal
		paymentType string
	)
	err := row.Scan(
		&r.BillNumber, &r.Item, &r.Quantity, &price,
		&r.Date, &r.Time, &paymentType,
	)
	r.Price = price
	r.PaymentType = billing.PaymentType(paymentType)
	return r, err
}

func scanSales(row pgx.CollectableRow) (orderlog.Sales, error) {
	var (
		s        orderlog.Sales
		quantity int64
		revenue  decimal.Decimal
		bills    int64
	)
	err := row.Scan(&s.Key, &quantity, &revenue, &bills)
	s.Quantity = int(quantity)
	s.Revenue = revenue
	s.Bills = int(bills)
	return s, err
}
