package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-billing/internal/domain/menu"
)

const (
	listMenuSQL = `SELECT name, price FROM menu_items ORDER BY position`

	upsertMenuItemSQL = `INSERT INTO menu_items (name, price) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns the menu in insertion order.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuSQL)
	if err != nil {
		return nil, fmt.Errorf("listing menu: %w", err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// Upsert inserts the item or updates the price of an existing one.
func (r *MenuRepository) Upsert(ctx context.Context, item menu.Item) error {
	if _, err := r.pool.Exec(ctx, upsertMenuItemSQL, item.Name, item.Price); err != nil {
		return fmt.Errorf("upserting menu item %q: %w", item.Name, err)
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var (
		it    menu.Item
		price decimal.Decimal
	)
	err := row.Scan(&it.Name, &price)
	it.Price = price
	return it, err
}
