package orderlog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/kart-billing/internal/domain/billing"
)

const instrumentationName = "github.com/xenking/kart-billing/internal/domain/orderlog"

// Receipt is the outcome of a committed bill.
type Receipt struct {
	Bill    billing.Bill
	Total   decimal.Decimal
	Rows    int
	Message string
}

// Service commits bills to the order log and answers sales queries.
type Service struct {
	repo   Repository
	tracer trace.Tracer

	orders metric.Int64Counter
	lines  metric.Int64Counter
}

// NewService creates a Service writing to repo.
func NewService(repo Repository, tp trace.TracerProvider, mp metric.MeterProvider) (*Service, error) {
	meter := mp.Meter(instrumentationName)

	orders, err := meter.Int64Counter("billing.orders.committed",
		metric.WithDescription("Number of bills committed to the order log"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	lines, err := meter.Int64Counter("billing.order_lines.committed",
		metric.WithDescription("Number of order lines written to the order log"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "order lines counter")
	}

	return &Service{
		repo:   repo,
		tracer: tp.Tracer(instrumentationName),
		orders: orders,
		lines:  lines,
	}, nil
}

// Commit writes one row per line of b and returns the receipt with the
// closed bill. A bill without payment type fails with *ValidationError and
// nothing is written; a store failure is returned as *PersistenceError.
func (s *Service) Commit(ctx context.Context, b billing.Bill) (*Receipt, error) {
	if b.IsClosed() {
		return nil, ErrBillClosed
	}
	if !b.PaymentType().IsSet() {
		return nil, &ValidationError{Field: "payment_type", Message: "payment type required"}
	}

	ctx, span := s.tracer.Start(ctx, "orderlog.Commit", trace.WithAttributes(
		attribute.String("bill.number", b.Number()),
		attribute.String("bill.payment_type", b.PaymentType().String()),
		attribute.Int("bill.lines", b.Len()),
	))
	defer span.End()

	rows := RowsFor(b)
	if len(rows) > 0 {
		if err := s.repo.Append(ctx, rows); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "append failed")
			return nil, &PersistenceError{BillNumber: b.Number(), Err: err}
		}
	}

	payment := metric.WithAttributes(attribute.String("payment_type", b.PaymentType().String()))
	s.orders.Add(ctx, 1, payment)
	s.lines.Add(ctx, int64(len(rows)), payment)

	return &Receipt{
		Bill:    b.Close(),
		Total:   b.Total(),
		Rows:    len(rows),
		Message: ReceiptMessage(b.Total()),
	}, nil
}

// ReceiptMessage is the acknowledgement shown after a successful commit.
func ReceiptMessage(total decimal.Decimal) string {
	return fmt.Sprintf("Thank you!, keep visiting\nTotal : %s", total.StringFixed(2))
}

// Rows returns committed rows matching f.
func (s *Service) Rows(ctx context.Context, f Filter) ([]Row, error) {
	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list order rows")
	}
	return rows, nil
}

// Sales returns committed rows aggregated by the given dimension.
func (s *Service) Sales(ctx context.Context, by GroupBy) ([]Sales, error) {
	sales, err := s.repo.Sales(ctx, by)
	if err != nil {
		return nil, errors.Wrapf(err, "sales by %s", by)
	}
	return sales, nil
}
