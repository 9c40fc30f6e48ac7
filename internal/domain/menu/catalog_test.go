package menu

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	items   []Item
	listErr error
}

func (m *mockRepo) List(_ context.Context) ([]Item, error) {
	return m.items, m.listErr
}

func (m *mockRepo) Upsert(_ context.Context, item Item) error {
	m.items = append(m.items, item)
	return nil
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog([]Item{
		{Name: "Chai", Price: decimal.NewFromInt(20)},
		{Name: "Coffee", Price: decimal.RequireFromString("25.50")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	p, ok := c.Price("Coffee")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("25.5").Equal(p))

	_, ok = c.Price("Tea")
	assert.False(t, ok)

	items := c.Items()
	assert.Equal(t, "Chai", items[0].Name)
	items[0].Name = "changed"
	assert.Equal(t, "Chai", c.Items()[0].Name, "Items must return a copy")
}

func TestNewCatalog_Invalid(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := NewCatalog(nil)
		require.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := NewCatalog([]Item{
			{Name: "Chai", Price: decimal.NewFromInt(20)},
			{Name: "Chai", Price: decimal.NewFromInt(25)},
		})
		var dupErr *DuplicateItemError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "Chai", dupErr.Name)
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := NewCatalog([]Item{{Name: "Chai", Price: decimal.NewFromInt(-1)}})
		var priceErr *InvalidPriceError
		require.ErrorAs(t, err, &priceErr)
	})
}

func TestDefaultItems(t *testing.T) {
	c := MustCatalog(DefaultItems())
	assert.Equal(t, 13, c.Len())

	p, ok := c.Price("Butter Chicken")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(350).Equal(p))
}

func TestLoad(t *testing.T) {
	t.Run("empty repository falls back to house menu", func(t *testing.T) {
		c, fromDefaults, err := Load(context.Background(), &mockRepo{})
		require.NoError(t, err)
		assert.True(t, fromDefaults)
		assert.Equal(t, len(DefaultItems()), c.Len())
	})

	t.Run("stored menu", func(t *testing.T) {
		repo := &mockRepo{items: []Item{{Name: "Lassi", Price: decimal.NewFromInt(40)}}}
		c, fromDefaults, err := Load(context.Background(), repo)
		require.NoError(t, err)
		assert.False(t, fromDefaults)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("repository error", func(t *testing.T) {
		_, _, err := Load(context.Background(), &mockRepo{listErr: errors.New("db down")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list menu")
	})
}
