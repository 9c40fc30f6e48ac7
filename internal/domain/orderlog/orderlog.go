package orderlog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-billing/internal/domain/billing"
)

// Errors returned by the order log.
var (
	// ErrBillClosed is returned when committing a bill that was already committed.
	ErrBillClosed = errors.New("bill already closed")
	// ErrUnknownGrouping is returned by ParseGroupBy for unsupported groupings.
	ErrUnknownGrouping = errors.New("unknown grouping")
)

// ValidationError indicates a bill that cannot be committed as it is. Nothing
// is written and the bill can be fixed and committed again.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError indicates the store failed to record an order.
type PersistenceError struct {
	BillNumber string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist order %s: %v", e.BillNumber, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Row is one persisted order line.
type Row struct {
	BillNumber  string
	Item        string
	Quantity    int
	Price       decimal.Decimal
	Date        string
	Time        string
	PaymentType billing.PaymentType
}

// Key returns the key of the order the row belongs to.
func (r Row) Key() Key {
	return Key{BillNumber: r.BillNumber, Date: r.Date, Time: r.Time}
}

// Key identifies one committed order. Bill numbers alone repeat over time.
type Key struct {
	BillNumber string
	Date       string
	Time       string
}

func (k Key) String() string {
	return k.BillNumber + "|" + k.Date + "|" + k.Time
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	BillNumber string
	Date       string
}

// GroupBy selects the dimension of a sales query.
type GroupBy string

const (
	GroupByItem GroupBy = "item"
	GroupByDate GroupBy = "date"
)

// ParseGroupBy maps a name to a GroupBy, defaulting to GroupByItem.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "", GroupByItem:
		return GroupByItem, nil
	case GroupByDate:
		return GroupByDate, nil
	default:
		return "", errors.Wrapf(ErrUnknownGrouping, "%q", s)
	}
}

// Sales aggregates order rows sharing a group key.
type Sales struct {
	Key      string
	Quantity int
	Revenue  decimal.Decimal
	Bills    int
}

// Repository is the append-only store of committed order lines.
type Repository interface {
	// EnsureSchema creates the store if it does not exist.
	EnsureSchema(ctx context.Context) error
	// Append writes rows in order as one batch.
	Append(ctx context.Context, rows []Row) error
	// List returns rows in append order.
	List(ctx context.Context, f Filter) ([]Row, error)
	Sales(ctx context.Context, by GroupBy) ([]Sales, error)
	Count(ctx context.Context) (int, error)
	// Keys calls fn once per distinct order key.
	Keys(ctx context.Context, fn func(Key) error) error
	Exists(ctx context.Context, k Key) (bool, error)
}

// RowsFor denormalizes the lines of b into order log rows.
func RowsFor(b billing.Bill) []Row {
	lines := b.Lines()
	rows := make([]Row, len(lines))
	for i, l := range lines {
		rows[i] = Row{
			BillNumber:  b.Number(),
			Item:        l.Item,
			Quantity:    l.Quantity,
			Price:       l.Price,
			Date:        b.Date(),
			Time:        b.Time(),
			PaymentType: b.PaymentType(),
		}
	}
	return rows
}
