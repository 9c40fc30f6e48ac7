package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Catalog is an immutable mapping from item name to unit price.
type Catalog struct {
	items  []Item
	prices map[string]decimal.Decimal
}

// NewCatalog builds a Catalog from items, keeping their order.
func NewCatalog(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmpty
	}

	c := &Catalog{
		items:  make([]Item, 0, len(items)),
		prices: make(map[string]decimal.Decimal, len(items)),
	}
	for _, it := range items {
		if _, ok := c.prices[it.Name]; ok {
			return nil, &DuplicateItemError{Name: it.Name}
		}
		if it.Price.IsNegative() {
			return nil, &InvalidPriceError{Name: it.Name, Price: it.Price}
		}
		c.prices[it.Name] = it.Price
		c.items = append(c.items, it)
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics on error.
func MustCatalog(items []Item) *Catalog {
	c, err := NewCatalog(items)
	if err != nil {
		panic(err)
	}
	return c
}

// Price returns the unit price of the named item.
func (c *Catalog) Price(name string) (decimal.Decimal, bool) {
	p, ok := c.prices[name]
	return p, ok
}

// Items returns a copy of the catalog entries in menu order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items on the menu.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Load reads the menu from repo. When the repository holds no items the
// house menu is used, and fromDefaults reports it.
func Load(ctx context.Context, repo Repository) (c *Catalog, fromDefaults bool, err error) {
	items, err := repo.List(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "list menu")
	}
	if len(items) == 0 {
		return MustCatalog(DefaultItems()), true, nil
	}

	c, err = NewCatalog(items)
	if err != nil {
		return nil, false, errors.Wrap(err, "build catalog")
	}
	return c, false, nil
}
