//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/kart-billing/internal/domain/billing"
	"github.com/xenking/kart-billing/internal/domain/menu"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "billing",
				"POSTGRES_PASSWORD": "billing",
				"POSTGRES_DB":       "billing",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = pg.Terminate(context.Background()) }()

	host, err := pg.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "host: %v\n", err)
		return 1
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mapped port: %v\n", err)
		return 1
	}

	url := fmt.Sprintf("postgres://billing:billing@%s:%s/billing?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pool: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := Migrate(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return 1
	}

	return m.Run()
}

func resetTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE orders, menu_items RESTART IDENTITY`)
	require.NoError(t, err)
}

func pgRow(bill, item string, qty int, price, date string) orderlog.Row {
	return orderlog.Row{
		BillNumber:  bill,
		Item:        item,
		Quantity:    qty,
		Price:       decimal.RequireFromString(price),
		Date:        date,
		Time:        "19:45",
		PaymentType: billing.PaymentCard,
	}
}

func TestOrderLogRepository(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewOrderLogRepository(testPool)

	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.Append(ctx, []orderlog.Row{
		pgRow("BN-1001", "Chai", 2, "40.00", "05-06-2024"),
		pgRow("BN-1001", "Butter Nan", 1, "35.00", "05-06-2024"),
	}))
	require.NoError(t, repo.Append(ctx, []orderlog.Row{
		pgRow("BN-1002", "Chai", 1, "20.00", "06-06-2024"),
	}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := repo.List(ctx, orderlog.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Chai", rows[0].Item)
	assert.Equal(t, "Butter Nan", rows[1].Item)
	assert.True(t, decimal.RequireFromString("35").Equal(rows[1].Price))

	filtered, err := repo.List(ctx, orderlog.Filter{BillNumber: "BN-1002"})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	sales, err := repo.Sales(ctx, orderlog.GroupByItem)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "Butter Nan", sales[0].Key)
	assert.Equal(t, "Chai", sales[1].Key)
	assert.Equal(t, 3, sales[1].Quantity)
	assert.True(t, decimal.NewFromInt(60).Equal(sales[1].Revenue))
	assert.Equal(t, 2, sales[1].Bills)

	var keys []orderlog.Key
	require.NoError(t, repo.Keys(ctx, func(k orderlog.Key) error {
		keys = append(keys, k)
		return nil
	}))
	assert.Len(t, keys, 2)

	ok, err := repo.Exists(ctx, keys[0])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderLogRepository_AppendIsAtomic(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewOrderLogRepository(testPool)

	// PostgreSQL rejects NUL bytes in text, so the second row fails server
	// side and the whole batch must roll back.
	err := repo.Append(ctx, []orderlog.Row{
		pgRow("BN-3000", "Chai", 1, "20.00", "05-06-2024"),
		pgRow("BN-3000", "Ch\x00ai", 1, "20.00", "05-06-2024"),
	})
	require.Error(t, err)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMenuRepository(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewMenuRepository(testPool)

	for _, it := range menu.DefaultItems() {
		require.NoError(t, repo.Upsert(ctx, it))
	}
	require.NoError(t, repo.Upsert(ctx, menu.Item{Name: "Chai", Price: decimal.NewFromInt(22)}))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, len(menu.DefaultItems()))
	assert.Equal(t, "Water bottle", items[0].Name)
	assert.Equal(t, "Chai", items[1].Name)
	assert.True(t, decimal.NewFromInt(22).Equal(items[1].Price))
}

func TestOrderLogRepository_PriceIsExact(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewOrderLogRepository(testPool)

	want := pgRow("BN-4000", "Chai", 1, "10.125", "05-06-2024")
	require.NoError(t, repo.Append(ctx, []orderlog.Row{want}))

	rows, err := repo.List(ctx, orderlog.Filter{BillNumber: "BN-4000"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, want.Price.Equal(rows[0].Price), "stored %s, want %s", rows[0].Price, want.Price)
}
