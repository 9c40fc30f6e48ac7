// Package billing holds the in-progress bill of a billing counter.
//
// A Bill is a value: every operation returns the next Bill and leaves the
// receiver untouched, so a caller can keep any previous state around. Invalid
// input never produces an error here; the operation simply has no effect.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle position of a bill.
type Status string

const (
	// StatusEmpty is a fresh bill that never had a line.
	StatusEmpty Status = "empty"
	// StatusBuilding is a bill that had at least one line added.
	StatusBuilding Status = "building"
	// StatusClosed is a committed bill. It is terminal.
	StatusClosed Status = "closed"
)

// Line is one entry of a bill. Price is the line total.
type Line struct {
	ID       int
	Item     string
	Quantity int
	Price    decimal.Decimal
}

// Selection is the current pick of the form and the price last computed for it.
type Selection struct {
	Item     string
	Quantity int
	Price    decimal.Decimal
}

// PriceLookup resolves unit prices by item name.
type PriceLookup interface {
	Price(name string) (decimal.Decimal, bool)
}

// Bill is the order being built at the counter.
type Bill struct {
	number      string
	date        string
	time        string
	paymentType PaymentType
	selection   Selection
	lines       []Line
	total       decimal.Decimal
	status      Status
	lastID      int
}

// New returns an empty bill numbered number and stamped with now.
func New(number string, now time.Time) Bill {
	return Bill{
		number:    number,
		date:      now.Format(DateLayout),
		time:      now.Format(TimeLayout),
		selection: Selection{Quantity: 1},
		status:    StatusEmpty,
	}
}

func (b Bill) Number() string           { return b.number }
func (b Bill) Date() string             { return b.date }
func (b Bill) Time() string             { return b.time }
func (b Bill) PaymentType() PaymentType { return b.paymentType }
func (b Bill) Selection() Selection     { return b.selection }
func (b Bill) Total() decimal.Decimal   { return b.total }
func (b Bill) Status() Status           { return b.status }
func (b Bill) IsClosed() bool           { return b.status == StatusClosed }

// Lines returns a copy of the bill lines in the order they were added.
func (b Bill) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of lines.
func (b Bill) Len() int {
	return len(b.lines)
}

// SetSelection records the chosen item and quantity as given.
func (b Bill) SetSelection(item string, quantity int) Bill {
	if b.IsClosed() {
		return b
	}
	b.selection.Item = item
	b.selection.Quantity = quantity
	return b
}

// ComputePrice sets the selection price to unit price times quantity. The
// previous price is kept when the item is unknown or the quantity is not
// positive.
func (b Bill) ComputePrice(prices PriceLookup) Bill {
	if b.IsClosed() || b.selection.Quantity <= 0 {
		return b
	}
	unit, ok := prices.Price(b.selection.Item)
	if !ok {
		return b
	}
	b.selection.Price = unit.Mul(decimal.NewFromInt(int64(b.selection.Quantity)))
	return b
}

// AddLine appends a line when item is set and both quantity and price are
// positive. Anything else leaves the bill unchanged.
func (b Bill) AddLine(item string, quantity int, price decimal.Decimal) Bill {
	if b.IsClosed() || item == "" || quantity <= 0 || !price.IsPositive() {
		return b
	}

	lines := make([]Line, len(b.lines), len(b.lines)+1)
	copy(lines, b.lines)
	b.lastID++
	b.lines = append(lines, Line{
		ID:       b.lastID,
		Item:     item,
		Quantity: quantity,
		Price:    price,
	})
	b.status = StatusBuilding
	return b.RecomputeTotal()
}

// AddSelection adds the current selection as a line.
func (b Bill) AddSelection() Bill {
	return b.AddLine(b.selection.Item, b.selection.Quantity, b.selection.Price)
}

// RemoveLines drops the lines with the given ids. Unknown ids are ignored.
func (b Bill) RemoveLines(ids ...int) Bill {
	if b.IsClosed() || len(ids) == 0 {
		return b
	}

	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	lines := make([]Line, 0, len(b.lines))
	for _, l := range b.lines {
		if _, ok := drop[l.ID]; !ok {
			lines = append(lines, l)
		}
	}
	if len(lines) == len(b.lines) {
		return b
	}
	b.lines = lines
	return b.RecomputeTotal()
}

// RecomputeTotal sets the total to the sum of all line prices.
func (b Bill) RecomputeTotal() Bill {
	total := decimal.Zero
	for _, l := range b.lines {
		total = total.Add(l.Price)
	}
	b.total = total
	return b
}

// SetPaymentType records how the bill will be paid.
func (b Bill) SetPaymentType(pt PaymentType) Bill {
	if b.IsClosed() {
		return b
	}
	b.paymentType = pt
	return b
}

// Close marks the bill as committed.
func (b Bill) Close() Bill {
	b.status = StatusClosed
	return b
}
