package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-billing/internal/domain/billing"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
)

var _ orderlog.Repository = (*OrderLog)(nil)

// OrderLog implements orderlog.Repository on SQLite.
type OrderLog struct {
	db *DB
}

// EnsureSchema creates the tables if they do not exist.
func (o *OrderLog) EnsureSchema(ctx context.Context) error {
	return o.db.Migrate(ctx)
}

// Append inserts rows in order inside a single transaction.
func (o *OrderLog) Append(ctx context.Context, rows []orderlog.Row) (err error) {
	if len(rows) == 0 {
		return nil
	}

	tx, err := o.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin append: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `
		INSERT INTO orders (bill_number, item, quantity, price, date, time, payment_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("sqlite: prepare append: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx,
			r.BillNumber, r.Item, r.Quantity, r.Price.InexactFloat64(),
			r.Date, r.Time, string(r.PaymentType),
		); err != nil {
			return fmt.Errorf("sqlite: append row for bill %q: %w", r.BillNumber, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit bill %q: %w", rows[0].BillNumber, err)
	}
	return nil
}

// List returns rows matching f in append order.
func (o *OrderLog) List(ctx context.Context, f orderlog.Filter) ([]orderlog.Row, error) {
	const q = `
		SELECT bill_number, item, quantity, price, date, time, payment_type
		FROM   orders
		WHERE  (? = '' OR bill_number = ?) AND (? = '' OR date = ?)
		ORDER  BY rowid`

	rows, err := o.db.db.QueryContext(ctx, q, f.BillNumber, f.BillNumber, f.Date, f.Date)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []orderlog.Row
	for rows.Next() {
		var (
			r           orderlog.Row
			price       float64
			paymentType string
		)
		if err := rows.Scan(&r.BillNumber, &r.Item, &r.Quantity, &price, &r.Date, &r.Time, &paymentType); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		r.Price = decimal.NewFromFloat(price)
		r.PaymentType = billing.PaymentType(paymentType)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list rows: %w", err)
	}
	return out, nil
}

// Sales aggregates rows by item or by date.
func (o *OrderLog) Sales(ctx context.Context, by orderlog.GroupBy) ([]orderlog.Sales, error) {
	q := `
		SELECT item, SUM(quantity), SUM(price),
		       COUNT(DISTINCT bill_number || '|' || date || '|' || time)
		FROM   orders GROUP BY item ORDER BY item`
	if by == orderlog.GroupByDate {
		q = `
		SELECT date, SUM(quantity), SUM(price),
		       COUNT(DISTINCT bill_number || '|' || date || '|' || time)
		FROM   orders GROUP BY date ORDER BY MIN(rowid)`
	}

	rows, err := o.db.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: sales by %s: %w", by, err)
	}
	defer func() { _ = rows.Close() }()

	var out []orderlog.Sales
	for rows.Next() {
		var (
			s       orderlog.Sales
			revenue float64
		)
		if err := rows.Scan(&s.Key, &s.Quantity, &revenue, &s.Bills); err != nil {
			return nil, fmt.Errorf("sqlite: scan sales: %w", err)
		}
		s.Revenue = decimal.NewFromFloat(revenue).Round(2)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: sales by %s: %w", by, err)
	}
	return out, nil
}

// Count returns the number of stored rows.
func (o *OrderLog) Count(ctx context.Context) (int, error) {
	var n int
	if err := o.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count rows: %w", err)
	}
	return n, nil
}

// Keys streams the distinct order keys in append order.
func (o *OrderLog) Keys(ctx context.Context, fn func(orderlog.Key) error) error {
	const q = `
		SELECT bill_number, date, time FROM orders
		GROUP  BY bill_number, date, time ORDER BY MIN(rowid)`

	rows, err := o.db.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("sqlite: list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var k orderlog.Key
		if err := rows.Scan(&k.BillNumber, &k.Date, &k.Time); err != nil {
			return fmt.Errorf("sqlite: scan key: %w", err)
		}
		if err := fn(k); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Exists reports whether any row belongs to the order k.
func (o *OrderLog) Exists(ctx context.Context, k orderlog.Key) (bool, error) {
	const q = `
		SELECT EXISTS (SELECT 1 FROM orders WHERE bill_number = ? AND date = ? AND time = ?)`

	var ok bool
	if err := o.db.db.QueryRowContext(ctx, q, k.BillNumber, k.Date, k.Time).Scan(&ok); err != nil {
		return false, fmt.Errorf("sqlite: check order %s: %w", k, err)
	}
	return ok, nil
}
