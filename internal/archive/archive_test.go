package archive

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-billing/internal/domain/billing"
	"github.com/xenking/kart-billing/internal/domain/orderlog"
	"github.com/xenking/kart-billing/internal/storage/sqlite"
)

func openStore(t *testing.T, name string) orderlog.Repository {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db.OrderLog()
}

func order(bill, tm string, items ...string) []orderlog.Row {
	rows := make([]orderlog.Row, 0, len(items))
	for i, item := range items {
		rows = append(rows, orderlog.Row{
			BillNumber:  bill,
			Item:        item,
			Quantity:    i + 1,
			Price:       decimal.NewFromInt(int64(20 * (i + 1))),
			Date:        "01-02-2024",
			Time:        tm,
			PaymentType: billing.PaymentCard,
		})
	}
	return rows
}

func TestWriterReader(t *testing.T) {
	rows := append(order("BN-1001", "10:15", "Chai", "Coffee"), order("BN-1002", "10:20", "Nan")...)
	rows[0].Price = decimal.RequireFromString("12.50")

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, r := range rows {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 3, w.Written())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	for _, want := range rows {
		got, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, want.Key(), got.Key())
		assert.Equal(t, want.Item, got.Item)
		assert.Equal(t, want.Quantity, got.Quantity)
		assert.True(t, want.Price.Equal(got.Price), "price %s != %s", want.Price, got.Price)
		assert.Equal(t, want.PaymentType, got.PaymentType)
	}
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewReader_NotGzip(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("plain text")))
	require.Error(t, err)
}

func exportAll(t *testing.T, src orderlog.Repository) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, err := Export(context.Background(), src, w)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()

	src := openStore(t, "src.db")
	require.NoError(t, src.Append(ctx, order("BN-1001", "10:15", "Chai", "Coffee")))
	require.NoError(t, src.Append(ctx, order("BN-1002", "10:20", "Nan")))
	// Same bill number on another time is a different order.
	require.NoError(t, src.Append(ctx, order("BN-1001", "11:00", "Roti")))

	archive := exportAll(t, src).Bytes()

	dst := openStore(t, "dst.db")
	require.NoError(t, dst.Append(ctx, order("BN-1002", "10:20", "Nan")))

	r, err := NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	stats, err := Import(ctx, r, dst)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.Equal(t, Stats{Orders: 2, Rows: 3, Skipped: 1}, stats)

	n, err := dst.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// A second import of the same archive changes nothing.
	r, err = NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	stats, err = Import(ctx, r, dst)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.Equal(t, Stats{Skipped: 3}, stats)
	n, err = dst.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestImport_CorruptLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(order("BN-1001", "10:15", "Chai")[0]))
	_, err := w.gz.Write([]byte("{not json\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)

	_, err = Import(context.Background(), r, openStore(t, "dst.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeRow(t *testing.T) {
	r, err := decodeRow(jx.DecodeBytes([]byte(
		`{"bill_number":"BN-1001","item":"Chai","quantity":2,"price":"40.125","date":"01-02-2024","time":"10:15","payment_type":"Cash","extra":[1]}`,
	)))
	require.NoError(t, err)
	assert.Equal(t, orderlog.Key{BillNumber: "BN-1001", Date: "01-02-2024", Time: "10:15"}, r.Key())
	assert.Equal(t, "Chai", r.Item)
	assert.Equal(t, 2, r.Quantity)
	assert.True(t, decimal.RequireFromString("40.125").Equal(r.Price))
	assert.Equal(t, billing.PaymentCash, r.PaymentType)

	_, err = decodeRow(jx.DecodeBytes([]byte(`{"price":"forty"}`)))
	require.ErrorContains(t, err, `field "price"`)
}
