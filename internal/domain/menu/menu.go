package menu

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrEmpty is returned when a catalog is built without any items.
var ErrEmpty = errors.New("menu has no items")

// Item is a single entry of the menu.
type Item struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// DuplicateItemError indicates that two menu entries share a name.
type DuplicateItemError struct {
	Name string
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("duplicate menu item %q", e.Name)
}

// InvalidPriceError indicates a menu entry with a negative price.
type InvalidPriceError struct {
	Name  string
	Price decimal.Decimal
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("menu item %q has negative price %s", e.Name, e.Price)
}

// Repository defines persistence operations for the menu.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	Upsert(ctx context.Context, item Item) error
}

// DefaultItems returns the house menu.
func DefaultItems() []Item {
	return []Item{
		{Name: "Water bottle", Price: decimal.NewFromInt(20)},
		{Name: "Chai", Price: decimal.NewFromInt(20)},
		{Name: "Coffee", Price: decimal.NewFromInt(25)},
		{Name: "Roti", Price: decimal.NewFromInt(20)},
		{Name: "Chapati", Price: decimal.NewFromInt(10)},
		{Name: "Nan", Price: decimal.NewFromInt(30)},
		{Name: "Butter Nan", Price: decimal.NewFromInt(35)},
		{Name: "Panner Masala", Price: decimal.NewFromInt(150)},
		{Name: "Paalak Paneer", Price: decimal.NewFromInt(160)},
		{Name: "Maharaja Paneer", Price: decimal.NewFromInt(200)},
		{Name: "Fish Masala", Price: decimal.NewFromInt(210)},
		{Name: "Chicken Handi", Price: decimal.NewFromInt(300)},
		{Name: "Butter Chicken", Price: decimal.NewFromInt(350)},
	}
}
