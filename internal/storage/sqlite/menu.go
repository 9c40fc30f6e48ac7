package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-billing/internal/domain/menu"
)

var _ menu.Repository = (*Menu)(nil)

// Menu implements menu.Repository on SQLite.
type Menu struct {
	db *sql.DB
}

// List returns the menu in insertion order.
func (m *Menu) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name, price FROM menu_items ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list menu: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []menu.Item
	for rows.Next() {
		var (
			it    menu.Item
			price float64
		)
		if err := rows.Scan(&it.Name, &price); err != nil {
			return nil, fmt.Errorf("sqlite: scan menu item: %w", err)
		}
		it.Price = decimal.NewFromFloat(price)
		items = append(items, it)
	}
	return items, rows.Err()
}

// Upsert inserts the item or updates the price of an existing one.
func (m *Menu) Upsert(ctx context.Context, item menu.Item) error {
	const q = `
		INSERT INTO menu_items (name, price) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET price = excluded.price`

	if _, err := m.db.ExecContext(ctx, q, item.Name, item.Price.InexactFloat64()); err != nil {
		return fmt.Errorf("sqlite: upsert menu item %q: %w", item.Name, err)
	}
	return nil
}
