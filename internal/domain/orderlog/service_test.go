package orderlog

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/kart-billing/internal/domain/billing"
)

// --- Mock implementations ---

type mockRepo struct {
	rows      []Row
	appendErr error
	appends   int
}

func (m *mockRepo) EnsureSchema(_ context.Context) error { return nil }

func (m *mockRepo) Append(_ context.Context, rows []Row) error {
	m.appends++
	if m.appendErr != nil {
		return m.appendErr
	}
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter) ([]Row, error) {
	var out []Row
	for _, r := range m.rows {
		if f.BillNumber != "" && r.BillNumber != f.BillNumber {
			continue
		}
		if f.Date != "" && r.Date != f.Date {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRepo) Sales(_ context.Context, _ GroupBy) ([]Sales, error) { return nil, nil }

func (m *mockRepo) Count(_ context.Context) (int, error) { return len(m.rows), nil }

func (m *mockRepo) Keys(_ context.Context, fn func(Key) error) error {
	seen := make(map[Key]struct{})
	for _, r := range m.rows {
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		seen[r.Key()] = struct{}{}
		if err := fn(r.Key()); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockRepo) Exists(_ context.Context, k Key) (bool, error) {
	for _, r := range m.rows {
		if r.Key() == k {
			return true, nil
		}
	}
	return false, nil
}

// --- Helpers ---

type prices map[string]int64

func (p prices) Price(name string) (decimal.Decimal, bool) {
	v, ok := p[name]
	return decimal.NewFromInt(v), ok
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	svc, err := NewService(repo, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	return svc
}

func newTestBill() billing.Bill {
	return billing.New("BN-4321", time.Date(2024, time.January, 2, 9, 30, 0, 0, time.UTC))
}

// --- Tests ---

func TestCommit_Scenario(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)

	b := newTestBill().
		SetSelection("Chai", 2).
		ComputePrice(prices{"Chai": 20}).
		AddSelection()
	require.True(t, decimal.NewFromInt(40).Equal(b.Total()))

	b = b.AddLine("Coffee", 1, decimal.NewFromInt(25))
	require.True(t, decimal.NewFromInt(65).Equal(b.Total()))

	receipt, err := svc.Commit(context.Background(), b.SetPaymentType(billing.PaymentCash))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(65).Equal(receipt.Total))
	assert.Equal(t, 2, receipt.Rows)
	assert.Equal(t, "Thank you!, keep visiting\nTotal : 65.00", receipt.Message)
	assert.True(t, receipt.Bill.IsClosed())

	require.Len(t, repo.rows, 2)
	for _, r := range repo.rows {
		assert.Equal(t, "BN-4321", r.BillNumber)
		assert.Equal(t, "02-01-2024", r.Date)
		assert.Equal(t, "09:30", r.Time)
		assert.Equal(t, billing.PaymentCash, r.PaymentType)
	}
	assert.Equal(t, "Chai", repo.rows[0].Item)
	assert.Equal(t, 2, repo.rows[0].Quantity)
	assert.True(t, decimal.NewFromInt(40).Equal(repo.rows[0].Price))
	assert.Equal(t, "Coffee", repo.rows[1].Item)
}

func TestCommit_PaymentTypeRequired(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)

	b := newTestBill().AddLine("Chai", 1, decimal.NewFromInt(20))

	_, err := svc.Commit(context.Background(), b)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "payment type required", vErr.Error())
	assert.Empty(t, repo.rows)
	assert.Zero(t, repo.appends)
	assert.False(t, b.IsClosed(), "bill stays open")
}

func TestCommit_RowCountGrowsByLines(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo)

	for n := 0; n <= 4; n++ {
		b := newTestBill().SetPaymentType(billing.PaymentUPI)
		for i := range n {
			b = b.AddLine("Nan", i+1, decimal.NewFromInt(int64(30*(i+1))))
		}

		before, err := repo.Count(context.Background())
		require.NoError(t, err)

		receipt, err := svc.Commit(context.Background(), b)
		require.NoError(t, err)

		after, err := repo.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, n, after-before)
		assert.Equal(t, n, receipt.Rows)
	}
}

func TestCommit_ClosedBill(t *testing.T) {
	svc := newTestService(t, &mockRepo{})
	b := newTestBill().SetPaymentType(billing.PaymentCard).Close()

	_, err := svc.Commit(context.Background(), b)
	require.ErrorIs(t, err, ErrBillClosed)
}

func TestCommit_PersistenceFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	svc := newTestService(t, &mockRepo{appendErr: storeErr})

	b := newTestBill().
		AddLine("Chai", 1, decimal.NewFromInt(20)).
		SetPaymentType(billing.PaymentCard)

	receipt, err := svc.Commit(context.Background(), b)
	require.Error(t, err)
	assert.Nil(t, receipt)

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "BN-4321", pErr.BillNumber)
	assert.ErrorIs(t, err, storeErr)
}

func TestRows(t *testing.T) {
	repo := &mockRepo{rows: []Row{
		{BillNumber: "BN-1", Item: "Chai", Date: "01-01-2024"},
		{BillNumber: "BN-2", Item: "Nan", Date: "02-01-2024"},
	}}
	svc := newTestService(t, repo)

	rows, err := svc.Rows(context.Background(), Filter{Date: "02-01-2024"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BN-2", rows[0].BillNumber)
}

func TestParseGroupBy(t *testing.T) {
	by, err := ParseGroupBy("")
	require.NoError(t, err)
	assert.Equal(t, GroupByItem, by)

	by, err = ParseGroupBy("date")
	require.NoError(t, err)
	assert.Equal(t, GroupByDate, by)

	_, err = ParseGroupBy("month")
	require.ErrorIs(t, err, ErrUnknownGrouping)
}
